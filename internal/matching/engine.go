// Package matching decides whether a buyer and a property are close enough to
// justify a sales lead.
package matching

import (
	"fmt"
	"math"
	"slices"
	"sort"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/denisok6893-rgb/leadqual/internal/domain"
)

var (
	lowerTolerance = decimal.NewFromFloat(BudgetLowerTolerance)
	upperTolerance = decimal.NewFromFloat(BudgetUpperTolerance)
)

type Engine struct {
	adjacency AdjacencyTable
}

func NewEngine(adj AdjacencyTable) *Engine {
	return &Engine{adjacency: adj}
}

var defaultEngine = NewEngine(DefaultAdjacency())

// Evaluate checks a buyer against a property using the built-in adjacency table.
func Evaluate(buyer domain.BuyerProfile, p domain.Property) domain.MatchResult {
	return defaultEngine.Evaluate(buyer, p)
}

// Evaluate runs every check (budget, location, type, availability) and
// collects one reason per failed check in that order. All checks run even
// after one fails.
func (e *Engine) Evaluate(buyer domain.BuyerProfile, p domain.Property) domain.MatchResult {
	reasons := []string{}

	if ok, lo, hi := budgetMatches(buyer, p.Price); !ok {
		reasons = append(reasons, fmt.Sprintf("Price %s is outside your budget range (%s - %s)",
			formatPrice(p.Price), formatAmount(lo), formatAmount(hi)))
	}
	if !e.locationMatches(buyer.Locations, p.Location) {
		reasons = append(reasons, fmt.Sprintf("Location %q doesn't match your preferred locations", p.Location))
	}
	if !slices.Contains(buyer.PropertyTypes, string(p.Type)) {
		reasons = append(reasons, fmt.Sprintf("Property type %q doesn't match your preferences", p.Type))
	}
	if p.Status != domain.StatusAvailable {
		reasons = append(reasons, fmt.Sprintf("Property is currently %s", p.Status))
	}

	return domain.MatchResult{
		Matches: len(reasons) == 0,
		Reasons: reasons,
	}
}

// RankProperties keeps only the properties that match the buyer and orders
// them by how close their price is to the buyer's budget.
func (e *Engine) RankProperties(buyer domain.BuyerProfile, properties []domain.Property, limit int) []domain.RankedProperty {
	var out []domain.RankedProperty
	for _, p := range properties {
		if !e.Evaluate(buyer, p).Matches {
			continue
		}
		out = append(out, domain.RankedProperty{
			Property:    p,
			BudgetDelta: budgetDelta(*buyer.Budget, p.Price),
		})
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].BudgetDelta < out[j].BudgetDelta })
	if limit <= 0 {
		limit = 5
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

// budgetMatches reports whether price lies inside the inclusive band and
// returns the band. A missing, non-positive or non-finite budget gives an
// empty band at zero; a non-finite price never matches.
func budgetMatches(buyer domain.BuyerProfile, price float64) (bool, decimal.Decimal, decimal.Decimal) {
	if buyer.Budget == nil || !finite(*buyer.Budget) || *buyer.Budget <= 0 {
		return false, decimal.Zero, decimal.Zero
	}
	budget := decimal.NewFromFloat(*buyer.Budget)
	lo := budget.Mul(lowerTolerance)
	hi := budget.Mul(upperTolerance)
	if !finite(price) {
		return false, lo, hi
	}
	pr := decimal.NewFromFloat(price)
	return !pr.LessThan(lo) && !pr.GreaterThan(hi), lo, hi
}

// BudgetBand returns the inclusive price range accepted for budget, widened
// outward to whole units. ok is false when no price can match.
func BudgetBand(budget float64) (lo, hi float64, ok bool) {
	if !finite(budget) || budget <= 0 {
		return 0, 0, false
	}
	b := decimal.NewFromFloat(budget)
	return b.Mul(lowerTolerance).Floor().InexactFloat64(), b.Mul(upperTolerance).Ceil().InexactFloat64(), true
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

func (e *Engine) locationMatches(preferred []string, loc string) bool {
	for _, want := range preferred {
		if want == loc || e.adjacency.IsAdjacent(want, loc) {
			return true
		}
	}
	return false
}

func budgetDelta(budget, price float64) float64 {
	if budget <= 0 {
		return math.Inf(1)
	}
	return math.Round(math.Abs(price-budget)/budget*1000) / 1000
}

var printer = message.NewPrinter(language.English)

func formatPrice(price float64) string {
	if !finite(price) {
		return fmt.Sprint(price)
	}
	return formatAmount(decimal.NewFromFloat(price))
}

func formatAmount(d decimal.Decimal) string {
	if d.IsInteger() {
		return printer.Sprintf("%d", d.IntPart())
	}
	return printer.Sprintf("%.2f", d.InexactFloat64())
}
