// Package cli wires the leadqual command line.
package cli

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const app = "leadqual"

// Actual version can be specified in build command.
var version = "unknown"

// NewRootCommand builds the command tree. Each tree owns its viper instance.
func NewRootCommand() *cobra.Command {
	v := viper.New()
	var cfgFile string

	root := &cobra.Command{
		Use:   app,
		Short: "leadqual scores real-estate buyers and matches them to listings",
		Long: `leadqual qualifies buyers of real-estate listings. It scores how complete a
buyer's registration is, checks buyers against properties and serves the
lead-generation API used by buyers and marketers.`,
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is leadqual.yaml in current directory)")
	root.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	root.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	_ = v.BindPFlag("log.debug", root.PersistentFlags().Lookup("debug"))
	_ = v.BindPFlag("log.json", root.PersistentFlags().Lookup("json"))

	root.AddCommand(
		newServeCommand(v, &cfgFile),
		newScoreCommand(),
		newMatchCommand(),
		newVersionCommand(),
	)
	return root
}

// Execute executes the root command.
func Execute() error {
	return NewRootCommand().Execute()
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Printf("%s version: %s\n", app, version)
		},
	}
}
