package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/denisok6893-rgb/leadqual/internal/domain"
	"github.com/denisok6893-rgb/leadqual/internal/matching"
	"github.com/denisok6893-rgb/leadqual/internal/scoring"
)

// printStyles holds the styles used by score and match reports.
type printStyles struct {
	header lipgloss.Style
	hot    lipgloss.Style
	warm   lipgloss.Style
	cold   lipgloss.Style
	pass   lipgloss.Style
	fail   lipgloss.Style
	dim    lipgloss.Style
}

func newPrintStyles() printStyles {
	return printStyles{
		header: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")),
		hot:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9")),
		warm:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("3")),
		cold:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")),
		pass:   lipgloss.NewStyle().Foreground(lipgloss.Color("10")),
		fail:   lipgloss.NewStyle().Foreground(lipgloss.Color("9")),
		dim:    lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
	}
}

func (s printStyles) tier(t domain.Tier) lipgloss.Style {
	switch t {
	case domain.TierHot:
		return s.hot
	case domain.TierWarm:
		return s.warm
	default:
		return s.cold
	}
}

func newScoreCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "score [buyer.json]",
		Short: "Score a buyer registration",
		Long: `Score reads a buyer registration as JSON from a file, or from stdin when no
file or "-" is given, and prints the lead score, the tier and the points
earned per criterion. Missing fields are allowed.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "-"
			if len(args) == 1 {
				path = args[0]
			}
			var buyer domain.BuyerProfile
			if err := readJSON(cmd.InOrStdin(), path, &buyer); err != nil {
				return err
			}

			result := scoring.Calculate(buyer)
			if asJSON {
				return writeIndented(cmd.OutOrStdout(), result)
			}
			printScore(cmd.OutOrStdout(), result)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json-output", false, "print the result as JSON")
	return cmd
}

func printScore(w io.Writer, r domain.ScoreResult) {
	styles := newPrintStyles()

	fmt.Fprintln(w, styles.header.Render("Lead score"))
	fmt.Fprintf(w, "  %d/100  %s\n", r.Score, styles.tier(r.Tier).Render(string(r.Tier)))
	fmt.Fprintln(w)
	for _, c := range r.Breakdown {
		mark := styles.fail.Render("✗")
		if c.Passed {
			mark = styles.pass.Render("✓")
		}
		fmt.Fprintf(w, "  %s %-26s %s\n", mark, c.Name, styles.dim.Render(fmt.Sprintf("%2d/%d", c.Points, c.MaxPoints)))
	}
}

func newMatchCommand() *cobra.Command {
	var (
		asJSON        bool
		adjacencyFile string
	)

	cmd := &cobra.Command{
		Use:   "match <buyer.json> <property.json>",
		Short: "Check whether a property fits a buyer",
		Long: `Match evaluates a buyer against a property on budget, location, property type
and availability, and prints every failed check in that order.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var buyer domain.BuyerProfile
			if err := readJSON(cmd.InOrStdin(), args[0], &buyer); err != nil {
				return err
			}
			var property domain.Property
			if err := readJSON(cmd.InOrStdin(), args[1], &property); err != nil {
				return err
			}

			adjacency := matching.DefaultAdjacency()
			if adjacencyFile != "" {
				var err error
				if adjacency, err = matching.LoadAdjacencyFile(adjacencyFile); err != nil {
					return err
				}
			}

			result := matching.NewEngine(adjacency).Evaluate(buyer, property)
			if asJSON {
				return writeIndented(cmd.OutOrStdout(), result)
			}
			printMatch(cmd.OutOrStdout(), property, result)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json-output", false, "print the result as JSON")
	cmd.Flags().StringVar(&adjacencyFile, "adjacency", "", "YAML file with location clusters")
	return cmd
}

func printMatch(w io.Writer, p domain.Property, r domain.MatchResult) {
	styles := newPrintStyles()

	title := p.Title
	if strings.TrimSpace(title) == "" {
		title = p.ID
	}
	fmt.Fprintln(w, styles.header.Render(title))
	if r.Matches {
		fmt.Fprintln(w, "  "+styles.pass.Render("MATCH"))
		return
	}
	fmt.Fprintln(w, "  "+styles.fail.Render("NO MATCH"))
	for _, reason := range r.Reasons {
		fmt.Fprintln(w, "  - "+reason)
	}
}

// readJSON decodes path into dst; "-" reads stdin.
func readJSON(stdin io.Reader, path string, dst any) error {
	var r io.Reader = stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("open %s: %w", path, err)
		}
		defer f.Close()
		r = f
	}
	if err := json.NewDecoder(r).Decode(dst); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

func writeIndented(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
