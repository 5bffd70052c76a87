package matching

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/denisok6893-rgb/leadqual/internal/domain"
)

func testBuyer() domain.BuyerProfile {
	budget := 2_000_000.0
	intent := domain.IntentCash
	name, email, phone, pass := "Test Buyer", "buyer@test.com", "01234567890", "password"
	return domain.BuyerProfile{
		FullName:      &name,
		Email:         &email,
		Phone:         &phone,
		Password:      &pass,
		Budget:        &budget,
		Locations:     []string{"New Cairo"},
		PropertyTypes: []string{"Apartment"},
		BuyingIntent:  &intent,
	}
}

func testProperty() domain.Property {
	return domain.Property{
		ID:         "1",
		MarketerID: "marketer-1",
		Title:      "Test Apartment in New Cairo",
		Type:       domain.TypeApartment,
		Location:   "New Cairo",
		Price:      1_800_000,
		Status:     domain.StatusAvailable,
	}
}

func TestEvaluate_Scenarios(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		mutate      func(p *domain.Property)
		wantMatch   bool
		wantReasons []string
	}{
		{
			name:      "budget match",
			mutate:    func(p *domain.Property) {},
			wantMatch: true,
		},
		{
			name:        "budget mismatch",
			mutate:      func(p *domain.Property) { p.Price = 3_000_000 },
			wantReasons: []string{"Price 3,000,000 is outside your budget range (1,640,000 - 2,360,000)"},
		},
		{
			name:      "adjacent location",
			mutate:    func(p *domain.Property) { p.Location = "Rehab" },
			wantMatch: true,
		},
		{
			name:        "unrelated location",
			mutate:      func(p *domain.Property) { p.Location = "North Coast" },
			wantReasons: []string{`Location "North Coast" doesn't match your preferred locations`},
		},
		{
			name:        "type mismatch",
			mutate:      func(p *domain.Property) { p.Type = domain.TypeVilla },
			wantReasons: []string{`Property type "Villa" doesn't match your preferences`},
		},
		{
			name:        "sold out",
			mutate:      func(p *domain.Property) { p.Status = domain.StatusSoldOut },
			wantReasons: []string{"Property is currently Sold Out"},
		},
		{
			name:        "reserved",
			mutate:      func(p *domain.Property) { p.Status = domain.StatusReserved },
			wantReasons: []string{"Property is currently Reserved"},
		},
		{
			name: "every check fails in fixed order",
			mutate: func(p *domain.Property) {
				p.Price = 100
				p.Location = "Zamalek"
				p.Type = domain.TypeCommercial
				p.Status = domain.StatusSoldOut
			},
			wantReasons: []string{
				"Price 100 is outside your budget range (1,640,000 - 2,360,000)",
				`Location "Zamalek" doesn't match your preferred locations`,
				`Property type "Commercial" doesn't match your preferences`,
				"Property is currently Sold Out",
			},
		},
		{
			name: "location and status fail, budget and type pass",
			mutate: func(p *domain.Property) {
				p.Location = "Hacienda"
				p.Status = domain.StatusReserved
			},
			wantReasons: []string{
				`Location "Hacienda" doesn't match your preferred locations`,
				"Property is currently Reserved",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			p := testProperty()
			tt.mutate(&p)

			got := Evaluate(testBuyer(), p)
			assert.Equal(t, tt.wantMatch, got.Matches)
			if tt.wantMatch {
				assert.Empty(t, got.Reasons)
				return
			}
			assert.Equal(t, tt.wantReasons, got.Reasons)
		})
	}
}

func TestEvaluate_BudgetBandIsInclusive(t *testing.T) {
	t.Parallel()

	tests := []struct {
		price float64
		want  bool
	}{
		{1_640_000, true},
		{2_360_000, true},
		{1_639_999.99, false},
		{2_360_000.01, false},
		{2_000_000, true},
	}
	for _, tt := range tests {
		p := testProperty()
		p.Price = tt.price
		got := Evaluate(testBuyer(), p)
		assert.Equal(t, tt.want, got.Matches, "price %v", tt.price)
	}
}

func TestEvaluate_MissingFieldsFailTheirCheck(t *testing.T) {
	t.Parallel()

	got := Evaluate(domain.BuyerProfile{}, testProperty())
	require.False(t, got.Matches)
	require.Len(t, got.Reasons, 3)
	assert.Equal(t, "Price 1,800,000 is outside your budget range (0 - 0)", got.Reasons[0])
	assert.Contains(t, got.Reasons[1], "New Cairo")
	assert.Contains(t, got.Reasons[2], "Apartment")
}

func TestEvaluate_NonPositiveBudgetNeverMatches(t *testing.T) {
	t.Parallel()

	for _, budget := range []float64{0, -2_000_000} {
		b := testBuyer()
		b.Budget = &budget
		p := testProperty()
		p.Price = 0
		got := Evaluate(b, p)
		assert.False(t, got.Matches, "budget %v", budget)
		assert.Equal(t, "Price 0 is outside your budget range (0 - 0)", got.Reasons[0])
	}
}

func TestEvaluate_NonFiniteAmountsFailBudget(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		budget     float64
		price      float64
		wantReason string
	}{
		{"budget +Inf", math.Inf(1), 1_800_000, "Price 1,800,000 is outside your budget range (0 - 0)"},
		{"budget -Inf", math.Inf(-1), 1_800_000, "Price 1,800,000 is outside your budget range (0 - 0)"},
		{"budget NaN", math.NaN(), 1_800_000, "Price 1,800,000 is outside your budget range (0 - 0)"},
		{"price +Inf", 2_000_000, math.Inf(1), "Price +Inf is outside your budget range (1,640,000 - 2,360,000)"},
		{"price NaN", 2_000_000, math.NaN(), "Price NaN is outside your budget range (1,640,000 - 2,360,000)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			b := testBuyer()
			b.Budget = &tt.budget
			p := testProperty()
			p.Price = tt.price

			var got domain.MatchResult
			require.NotPanics(t, func() { got = Evaluate(b, p) })
			assert.False(t, got.Matches)
			assert.Equal(t, []string{tt.wantReason}, got.Reasons)
		})
	}
}

func TestEvaluate_Deterministic(t *testing.T) {
	t.Parallel()

	b := testBuyer()
	b.Locations = []string{"Sheikh Zayed", "Madinaty", "New Cairo"}
	b.PropertyTypes = []string{"Villa", "Apartment"}

	for _, loc := range []string{"Rehab", "6th October", "North Coast", "Zamalek"} {
		p := testProperty()
		p.Location = loc
		p.Status = domain.StatusReserved
		first := Evaluate(b, p)
		for i := 0; i < 20; i++ {
			assert.Equal(t, first, Evaluate(b, p), "location %s", loc)
		}
	}
}

func TestEvaluate_ReasonsEmptyIffMatches(t *testing.T) {
	t.Parallel()

	locations := []string{"New Cairo", "Rehab", "Madinaty", "North Coast", "NAC", "Nowhere"}
	types := []domain.PropertyType{domain.TypeApartment, domain.TypeVilla}
	statuses := []domain.PropertyStatus{domain.StatusAvailable, domain.StatusReserved, domain.StatusSoldOut}
	prices := []float64{1_000_000, 1_640_000, 2_000_000, 2_360_000, 3_000_000}

	for _, loc := range locations {
		for _, typ := range types {
			for _, st := range statuses {
				for _, price := range prices {
					p := domain.Property{Location: loc, Type: typ, Status: st, Price: price}
					first := Evaluate(testBuyer(), p)
					second := Evaluate(testBuyer(), p)
					if first.Matches != (len(first.Reasons) == 0) {
						t.Fatalf("%+v: matches=%v reasons=%v", p, first.Matches, first.Reasons)
					}
					assert.Equal(t, first, second)
				}
			}
		}
	}
}

func TestEvaluate_CustomAdjacency(t *testing.T) {
	t.Parallel()

	e := NewEngine(NewAdjacencyTable([][]string{{"New Cairo", "North Coast"}}, nil))
	p := testProperty()
	p.Location = "North Coast"
	assert.True(t, e.Evaluate(testBuyer(), p).Matches)

	p.Location = "Rehab"
	assert.False(t, e.Evaluate(testBuyer(), p).Matches)
}

func TestRankProperties(t *testing.T) {
	t.Parallel()

	mk := func(id string, price float64, loc string, status domain.PropertyStatus) domain.Property {
		p := testProperty()
		p.ID, p.Price, p.Location, p.Status = id, price, loc, status
		return p
	}
	props := []domain.Property{
		mk("far", 1_650_000, "New Cairo", domain.StatusAvailable),
		mk("exact", 2_000_000, "Madinaty", domain.StatusAvailable),
		mk("sold", 2_000_000, "New Cairo", domain.StatusSoldOut),
		mk("near", 2_100_000, "Rehab", domain.StatusAvailable),
		mk("coast", 2_000_000, "North Coast", domain.StatusAvailable),
	}

	got := defaultEngine.RankProperties(testBuyer(), props, 0)
	require.Len(t, got, 3)
	assert.Equal(t, "exact", got[0].Property.ID)
	assert.Equal(t, "near", got[1].Property.ID)
	assert.Equal(t, "far", got[2].Property.ID)
	assert.InDelta(t, 0.05, got[1].BudgetDelta, 1e-9)

	limited := defaultEngine.RankProperties(testBuyer(), props, 1)
	require.Len(t, limited, 1)
	assert.Equal(t, "exact", limited[0].Property.ID)
}

func TestBudgetBand(t *testing.T) {
	t.Parallel()

	lo, hi, ok := BudgetBand(3_000_000)
	require.True(t, ok)
	assert.Equal(t, 2_460_000.0, lo)
	assert.Equal(t, 3_540_000.0, hi)

	for _, budget := range []float64{0, -1, math.NaN(), math.Inf(1)} {
		_, _, ok := BudgetBand(budget)
		assert.False(t, ok, "budget %v", budget)
	}
}
