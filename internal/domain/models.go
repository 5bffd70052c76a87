package domain

import "time"

// BuyingIntent is how a buyer plans to pay.
type BuyingIntent string

const (
	IntentCash        BuyingIntent = "Cash"
	IntentInstallment BuyingIntent = "Installment"
	IntentMortgage    BuyingIntent = "Mortgage"
)

func (i BuyingIntent) Valid() bool {
	switch i {
	case IntentCash, IntentInstallment, IntentMortgage:
		return true
	}
	return false
}

type PropertyType string

const (
	TypeApartment  PropertyType = "Apartment"
	TypeVilla      PropertyType = "Villa"
	TypeTownhouse  PropertyType = "Townhouse"
	TypeDuplex     PropertyType = "Duplex"
	TypeCommercial PropertyType = "Commercial"
)

func (t PropertyType) Valid() bool {
	switch t {
	case TypeApartment, TypeVilla, TypeTownhouse, TypeDuplex, TypeCommercial:
		return true
	}
	return false
}

type PropertyStatus string

const (
	StatusAvailable PropertyStatus = "Available"
	StatusReserved  PropertyStatus = "Reserved"
	StatusSoldOut   PropertyStatus = "Sold Out"
)

func (s PropertyStatus) Valid() bool {
	switch s {
	case StatusAvailable, StatusReserved, StatusSoldOut:
		return true
	}
	return false
}

// Tier buckets a buyer's lead score for prioritisation.
type Tier string

const (
	TierHot  Tier = "Hot"
	TierWarm Tier = "Warm"
	TierCold Tier = "Cold"
)

type LeadStatus string

const (
	LeadNew       LeadStatus = "New"
	LeadContacted LeadStatus = "Contacted"
	LeadDeal      LeadStatus = "Deal"
	LeadLost      LeadStatus = "Lost"
)

func (s LeadStatus) Valid() bool {
	switch s {
	case LeadNew, LeadContacted, LeadDeal, LeadLost:
		return true
	}
	return false
}

type MarketerRole string

const (
	RoleMarketer  MarketerRole = "Marketer"
	RoleDeveloper MarketerRole = "Developer"
)

func (r MarketerRole) Valid() bool {
	return r == RoleMarketer || r == RoleDeveloper
}

// BuyerProfile is a possibly incomplete buyer as typed into a registration form.
// Nil pointers and empty strings both mean "not provided".
type BuyerProfile struct {
	FullName      *string       `json:"full_name,omitempty" mapstructure:"full_name"`
	Email         *string       `json:"email,omitempty" mapstructure:"email"`
	Phone         *string       `json:"phone,omitempty" mapstructure:"phone"`
	Password      *string       `json:"password,omitempty" mapstructure:"password"`
	Budget        *float64      `json:"budget,omitempty" mapstructure:"budget"`
	Locations     []string      `json:"locations,omitempty" mapstructure:"locations"`
	PropertyTypes []string      `json:"property_types,omitempty" mapstructure:"property_types"`
	BuyingIntent  *BuyingIntent `json:"buying_intent,omitempty" mapstructure:"buying_intent"`
}

type Buyer struct {
	ID            string        `json:"id"`
	FullName      string        `json:"full_name"`
	Email         string        `json:"email"`
	Phone         string        `json:"phone"`
	PasswordHash  string        `json:"-"`
	Budget        float64       `json:"budget"`
	Locations     []string      `json:"locations"`
	PropertyTypes []string      `json:"property_types"`
	BuyingIntent  *BuyingIntent `json:"buying_intent,omitempty"`
	Score         int           `json:"score"`
	Tier          Tier          `json:"score_tier"`
	CreatedAt     time.Time     `json:"created_at"`
}

// Profile converts a stored buyer back into the shape the scoring and matching
// code reads. The password hash stands in for the password.
func (b Buyer) Profile() BuyerProfile {
	p := BuyerProfile{
		FullName:      strPtr(b.FullName),
		Email:         strPtr(b.Email),
		Phone:         strPtr(b.Phone),
		Password:      strPtr(b.PasswordHash),
		Locations:     b.Locations,
		PropertyTypes: b.PropertyTypes,
		BuyingIntent:  b.BuyingIntent,
	}
	if b.Budget > 0 {
		budget := b.Budget
		p.Budget = &budget
	}
	return p
}

func strPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

type Marketer struct {
	ID             string       `json:"id"`
	FullName       string       `json:"full_name"`
	CompanyName    string       `json:"company_name,omitempty"`
	Email          string       `json:"email"`
	Phone          string       `json:"phone"`
	PasswordHash   string       `json:"-"`
	Role           MarketerRole `json:"role"`
	OfficeLocation string       `json:"office_location"`
	CreatedAt      time.Time    `json:"created_at"`
}

type Property struct {
	ID           string         `json:"id"`
	MarketerID   string         `json:"marketer_id"`
	Title        string         `json:"title"`
	Type         PropertyType   `json:"type"`
	Location     string         `json:"location"`
	ProjectName  string         `json:"project_name,omitempty"`
	Price        float64        `json:"price"`
	Area         float64        `json:"area"`
	Bedrooms     int            `json:"bedrooms"`
	Bathrooms    int            `json:"bathrooms"`
	DeliveryDate *time.Time     `json:"delivery_date,omitempty"`
	PaymentPlan  string         `json:"payment_plan,omitempty"`
	Images       []string       `json:"images"`
	Description  string         `json:"description"`
	Status       PropertyStatus `json:"status"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

// Lead records a buyer's accepted interest in a property. Buyer fields are a
// snapshot taken when the lead was created.
type Lead struct {
	ID                 string     `json:"id"`
	BuyerID            string     `json:"buyer_id"`
	MarketerID         string     `json:"marketer_id"`
	PropertyID         string     `json:"property_id"`
	BuyerScore         int        `json:"buyer_score"`
	BuyerTier          Tier       `json:"buyer_score_tier"`
	BuyerName          string     `json:"buyer_name"`
	BuyerPhone         string     `json:"buyer_phone"`
	BuyerEmail         string     `json:"buyer_email"`
	BuyerBudget        float64    `json:"buyer_budget"`
	BuyerLocations     []string   `json:"buyer_locations"`
	BuyerPropertyTypes []string   `json:"buyer_property_types"`
	Status             LeadStatus `json:"status"`
	CreatedAt          time.Time  `json:"created_at"`
}

type ScoreResult struct {
	Score     int              `json:"score"`
	Tier      Tier             `json:"tier"`
	Breakdown []ScoreCriterion `json:"breakdown,omitempty"`
}

// ScoreCriterion is one line of the score breakdown.
type ScoreCriterion struct {
	Name      string `json:"name"`
	Points    int    `json:"points"`
	MaxPoints int    `json:"max_points"`
	Passed    bool   `json:"passed"`
}

type MatchResult struct {
	Matches bool     `json:"matches"`
	Reasons []string `json:"reasons"`
}

// RankedProperty is a property that matched a buyer, with its distance from the
// buyer's budget as a fraction of the budget.
type RankedProperty struct {
	Property    Property `json:"property"`
	BudgetDelta float64  `json:"budget_delta"`
}
