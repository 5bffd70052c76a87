// Package scoring turns a buyer profile into a lead score and tier.
package scoring

import (
	"regexp"
	"strings"

	"github.com/denisok6893-rgb/leadqual/internal/domain"
)

const (
	HotThreshold  = 90
	WarmThreshold = 70

	PhonePrefix = "01"
	PhoneDigits = 11
)

const (
	budgetPoints       = 30
	locationsPoints    = 20
	typesPoints        = 20
	intentPoints       = 10
	contactPoints      = 10
	completenessPoints = 10
)

var phonePattern = regexp.MustCompile(`^` + PhonePrefix + `[0-9]{9}$`)

// ValidPhone reports whether phone is a local mobile number: "01" followed by nine digits.
func ValidPhone(phone string) bool {
	return phonePattern.MatchString(phone)
}

// ValidEmail is the loose check used for scoring: an '@' and a '.' somewhere.
func ValidEmail(email string) bool {
	return strings.Contains(email, "@") && strings.Contains(email, ".")
}

// Calculate scores a buyer profile. Missing or invalid fields earn nothing;
// it never fails, since it runs on half-filled registration forms.
func Calculate(b domain.BuyerProfile) domain.ScoreResult {
	hasBudget := b.Budget != nil && *b.Budget > 0
	hasLocations := len(b.Locations) > 0
	hasTypes := len(b.PropertyTypes) > 0
	hasIntent := b.BuyingIntent != nil && b.BuyingIntent.Valid()
	validContact := present(b.Phone) && ValidPhone(*b.Phone) &&
		present(b.Email) && ValidEmail(*b.Email)
	complete := present(b.FullName) && present(b.Email) && present(b.Phone) && present(b.Password) &&
		hasBudget && hasLocations && hasTypes && hasIntent

	criteria := []domain.ScoreCriterion{
		criterion("Budget specified", budgetPoints, hasBudget),
		criterion("Locations specified", locationsPoints, hasLocations),
		criterion("Property types specified", typesPoints, hasTypes),
		criterion("Buying intent specified", intentPoints, hasIntent),
		criterion("Valid contact info", contactPoints, validContact),
		criterion("Profile complete", completenessPoints, complete),
	}

	score := 0
	for _, c := range criteria {
		score += c.Points
	}

	return domain.ScoreResult{
		Score:     score,
		Tier:      TierFromScore(score),
		Breakdown: criteria,
	}
}

// TierFromScore buckets a score into Hot, Warm or Cold.
func TierFromScore(score int) domain.Tier {
	switch {
	case score >= HotThreshold:
		return domain.TierHot
	case score >= WarmThreshold:
		return domain.TierWarm
	default:
		return domain.TierCold
	}
}

func criterion(name string, points int, passed bool) domain.ScoreCriterion {
	c := domain.ScoreCriterion{Name: name, MaxPoints: points, Passed: passed}
	if passed {
		c.Points = points
	}
	return c
}

func present(s *string) bool {
	return s != nil && *s != ""
}
