// Package leads registers buyers and marketers, manages listings and turns
// accepted interest into sales leads.
package leads

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/mail"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/denisok6893-rgb/leadqual/internal/domain"
	"github.com/denisok6893-rgb/leadqual/internal/logger"
	"github.com/denisok6893-rgb/leadqual/internal/matching"
	"github.com/denisok6893-rgb/leadqual/internal/scoring"
	"github.com/denisok6893-rgb/leadqual/internal/session"
	"github.com/denisok6893-rgb/leadqual/internal/storage"
)

const (
	minNameLength     = 2
	minPasswordLength = 8
	maxRankCandidates = 200
)

// Repository is the persistence the service needs. *storage.SQLiteStore
// implements it.
type Repository interface {
	CreateBuyer(ctx context.Context, b domain.Buyer) (domain.Buyer, error)
	GetBuyer(ctx context.Context, id string) (domain.Buyer, error)
	FindBuyerByContact(ctx context.Context, email, phone string) (domain.Buyer, error)

	CreateMarketer(ctx context.Context, m domain.Marketer) (domain.Marketer, error)
	GetMarketer(ctx context.Context, id string) (domain.Marketer, error)
	FindMarketerByContact(ctx context.Context, email, phone string) (domain.Marketer, error)

	CreateProperty(ctx context.Context, p domain.Property) (domain.Property, error)
	GetProperty(ctx context.Context, id string) (domain.Property, error)
	DeleteProperty(ctx context.Context, id string) (bool, error)
	ListPropertiesFiltered(ctx context.Context, f storage.PropertyFilter) ([]domain.Property, int, error)

	CreateLead(ctx context.Context, l domain.Lead) (domain.Lead, error)
	GetLead(ctx context.Context, id string) (domain.Lead, error)
	FindLead(ctx context.Context, buyerID, propertyID string) (domain.Lead, error)
	ListLeads(ctx context.Context, f storage.LeadFilter) ([]domain.Lead, error)
	UpdateLeadStatus(ctx context.Context, id string, status domain.LeadStatus) error
}

// Matcher decides buyer/property fit. *matching.Engine implements it.
type Matcher interface {
	Evaluate(buyer domain.BuyerProfile, p domain.Property) domain.MatchResult
	RankProperties(buyer domain.BuyerProfile, properties []domain.Property, limit int) []domain.RankedProperty
}

type Service struct {
	repo     Repository
	matcher  Matcher
	logger   *zap.Logger
	hashCost int
}

func NewService(repo Repository, matcher Matcher, l *zap.Logger) *Service {
	return &Service{
		repo:     repo,
		matcher:  matcher,
		logger:   logger.OrNop(l),
		hashCost: bcrypt.DefaultCost,
	}
}

// Registration is the outcome of a successful buyer sign-up.
type Registration struct {
	Buyer domain.Buyer       `json:"buyer"`
	Score domain.ScoreResult `json:"score"`
}

// RegisterBuyer validates the form, scores it and stores the buyer together
// with score and tier.
func (s *Service) RegisterBuyer(ctx context.Context, draft domain.BuyerProfile) (Registration, error) {
	draft = normalizeBuyer(draft)
	if err := validateBuyer(draft); err != nil {
		return Registration{}, err
	}

	score := scoring.Calculate(draft)

	email, phone := *draft.Email, *draft.Phone
	if err := s.ensureContactFree(ctx, email, phone); err != nil {
		return Registration{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(*draft.Password), s.hashCost)
	if err != nil {
		return Registration{}, fmt.Errorf("hash password: %w", err)
	}

	buyer, err := s.repo.CreateBuyer(ctx, domain.Buyer{
		FullName:      *draft.FullName,
		Email:         email,
		Phone:         phone,
		PasswordHash:  string(hash),
		Budget:        *draft.Budget,
		Locations:     draft.Locations,
		PropertyTypes: draft.PropertyTypes,
		BuyingIntent:  draft.BuyingIntent,
		Score:         score.Score,
		Tier:          score.Tier,
	})
	if errors.Is(err, storage.ErrDuplicate) {
		return Registration{}, ErrAlreadyRegistered
	}
	if err != nil {
		return Registration{}, fmt.Errorf("create buyer: %w", err)
	}

	s.logger.Info("buyer registered",
		zap.String("buyer_id", buyer.ID),
		zap.Int("score", score.Score),
		zap.String("tier", string(score.Tier)),
	)
	return Registration{Buyer: buyer, Score: score}, nil
}

// MarketerDraft is the marketer sign-up form.
type MarketerDraft struct {
	FullName       string              `json:"full_name" mapstructure:"full_name"`
	CompanyName    string              `json:"company_name" mapstructure:"company_name"`
	Email          string              `json:"email" mapstructure:"email"`
	Phone          string              `json:"phone" mapstructure:"phone"`
	Password       string              `json:"password" mapstructure:"password"`
	Role           domain.MarketerRole `json:"role" mapstructure:"role"`
	OfficeLocation string              `json:"office_location" mapstructure:"office_location"`
}

func (s *Service) RegisterMarketer(ctx context.Context, d MarketerDraft) (domain.Marketer, error) {
	var v validator
	v.check(utf8.RuneCountInString(strings.TrimSpace(d.FullName)) >= minNameLength, "full_name", "Name must be at least 2 characters")
	v.check(validEmail(d.Email), "email", "Invalid email address")
	v.check(scoring.ValidPhone(strings.TrimSpace(d.Phone)), "phone", "Must be valid Egyptian phone (01XXXXXXXXX)")
	v.check(len(d.Password) >= minPasswordLength, "password", "Password must be at least 8 characters")
	v.check(d.Role.Valid(), "role", "Role must be Marketer or Developer")
	v.check(strings.TrimSpace(d.OfficeLocation) != "", "office_location", "Office location is required")
	if err := v.err(); err != nil {
		return domain.Marketer{}, err
	}

	email, phone := strings.TrimSpace(d.Email), strings.TrimSpace(d.Phone)
	if err := s.ensureContactFree(ctx, email, phone); err != nil {
		return domain.Marketer{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(d.Password), s.hashCost)
	if err != nil {
		return domain.Marketer{}, fmt.Errorf("hash password: %w", err)
	}

	m, err := s.repo.CreateMarketer(ctx, domain.Marketer{
		FullName:       strings.TrimSpace(d.FullName),
		CompanyName:    strings.TrimSpace(d.CompanyName),
		Email:          email,
		Phone:          phone,
		PasswordHash:   string(hash),
		Role:           d.Role,
		OfficeLocation: strings.TrimSpace(d.OfficeLocation),
	})
	if errors.Is(err, storage.ErrDuplicate) {
		return domain.Marketer{}, ErrAlreadyRegistered
	}
	if err != nil {
		return domain.Marketer{}, fmt.Errorf("create marketer: %w", err)
	}

	s.logger.Info("marketer registered", zap.String("marketer_id", m.ID), zap.String("role", string(m.Role)))
	return m, nil
}

// ensureContactFree rejects an email or phone already used by any account.
func (s *Service) ensureContactFree(ctx context.Context, email, phone string) error {
	if _, err := s.repo.FindBuyerByContact(ctx, email, phone); err == nil {
		return ErrAlreadyRegistered
	} else if !errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("checking existing buyer: %w", err)
	}
	if _, err := s.repo.FindMarketerByContact(ctx, email, phone); err == nil {
		return ErrAlreadyRegistered
	} else if !errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("checking existing marketer: %w", err)
	}
	return nil
}

// Login accepts an email (anything containing '@') or a phone number. Buyers
// are looked up before marketers.
func (s *Service) Login(ctx context.Context, identifier, password string) (session.Principal, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" || password == "" {
		return session.Principal{}, ErrInvalidCredentials
	}

	email, phone := "", identifier
	if strings.Contains(identifier, "@") {
		email, phone = identifier, ""
	}

	buyer, err := s.repo.FindBuyerByContact(ctx, email, phone)
	switch {
	case err == nil:
		if bcrypt.CompareHashAndPassword([]byte(buyer.PasswordHash), []byte(password)) == nil {
			return session.Principal{UserID: buyer.ID, Role: session.RoleBuyer}, nil
		}
	case !errors.Is(err, storage.ErrNotFound):
		return session.Principal{}, fmt.Errorf("finding buyer: %w", err)
	}

	marketer, err := s.repo.FindMarketerByContact(ctx, email, phone)
	switch {
	case err == nil:
		if bcrypt.CompareHashAndPassword([]byte(marketer.PasswordHash), []byte(password)) == nil {
			return session.Principal{UserID: marketer.ID, Role: session.RoleMarketer}, nil
		}
	case !errors.Is(err, storage.ErrNotFound):
		return session.Principal{}, fmt.Errorf("finding marketer: %w", err)
	}

	s.logger.Info("login rejected", zap.String("identifier", logger.Masked(identifier)))
	return session.Principal{}, ErrInvalidCredentials
}

func (s *Service) GetBuyer(ctx context.Context, id string) (domain.Buyer, error) {
	return s.repo.GetBuyer(ctx, id)
}

func (s *Service) GetMarketer(ctx context.Context, id string) (domain.Marketer, error) {
	return s.repo.GetMarketer(ctx, id)
}

// ExpressInterest creates a lead for the buyer and property when they match.
// On a mismatch it returns *MismatchError and stores nothing.
func (s *Service) ExpressInterest(ctx context.Context, buyerID, propertyID string) (domain.Lead, error) {
	buyer, err := s.repo.GetBuyer(ctx, buyerID)
	if err != nil {
		return domain.Lead{}, fmt.Errorf("get buyer: %w", err)
	}
	property, err := s.repo.GetProperty(ctx, propertyID)
	if err != nil {
		return domain.Lead{}, fmt.Errorf("get property: %w", err)
	}

	if _, err := s.repo.FindLead(ctx, buyerID, propertyID); err == nil {
		return domain.Lead{}, ErrAlreadyInterested
	} else if !errors.Is(err, storage.ErrNotFound) {
		return domain.Lead{}, fmt.Errorf("checking existing lead: %w", err)
	}

	result := s.matcher.Evaluate(buyer.Profile(), property)
	if !result.Matches {
		s.logger.Info("interest rejected",
			zap.String("buyer_id", buyer.ID),
			zap.String("property_id", property.ID),
			zap.Strings("reasons", result.Reasons),
		)
		return domain.Lead{}, &MismatchError{Reasons: result.Reasons}
	}

	lead, err := s.repo.CreateLead(ctx, domain.Lead{
		BuyerID:            buyer.ID,
		MarketerID:         property.MarketerID,
		PropertyID:         property.ID,
		BuyerScore:         buyer.Score,
		BuyerTier:          buyer.Tier,
		BuyerName:          buyer.FullName,
		BuyerPhone:         buyer.Phone,
		BuyerEmail:         buyer.Email,
		BuyerBudget:        buyer.Budget,
		BuyerLocations:     buyer.Locations,
		BuyerPropertyTypes: buyer.PropertyTypes,
		Status:             domain.LeadNew,
	})
	if errors.Is(err, storage.ErrDuplicate) {
		return domain.Lead{}, ErrAlreadyInterested
	}
	if err != nil {
		return domain.Lead{}, fmt.Errorf("create lead: %w", err)
	}

	s.logger.Info("lead created",
		zap.String("lead_id", lead.ID),
		zap.String("buyer_id", buyer.ID),
		zap.String("property_id", property.ID),
		zap.String("tier", string(buyer.Tier)),
	)
	return lead, nil
}

// MatchingProperties ranks available listings for a buyer. Candidates are
// narrowed to the buyer's budget band before ranking.
func (s *Service) MatchingProperties(ctx context.Context, buyerID string, limit int) ([]domain.RankedProperty, error) {
	buyer, err := s.repo.GetBuyer(ctx, buyerID)
	if err != nil {
		return nil, fmt.Errorf("get buyer: %w", err)
	}
	lo, hi, ok := matching.BudgetBand(buyer.Budget)
	if !ok {
		return nil, nil
	}
	props, _, err := s.repo.ListPropertiesFiltered(ctx, storage.PropertyFilter{
		Status:   domain.StatusAvailable,
		MinPrice: lo,
		MaxPrice: hi,
		Limit:    maxRankCandidates,
	})
	if err != nil {
		return nil, fmt.Errorf("list properties: %w", err)
	}
	return s.matcher.RankProperties(buyer.Profile(), props, limit), nil
}

// ---- listings ----

// CreateProperty publishes a listing owned by marketerID.
func (s *Service) CreateProperty(ctx context.Context, marketerID string, p domain.Property) (domain.Property, error) {
	var v validator
	v.check(strings.TrimSpace(p.Title) != "", "title", "Title is required")
	v.check(strings.TrimSpace(p.Location) != "", "location", "Location is required")
	v.check(p.Price > 0, "price", "Price must be greater than 0")
	v.check(p.Type.Valid(), "type", "Unknown property type")
	v.check(p.Status == "" || p.Status.Valid(), "status", "Unknown status")
	v.check(p.Area >= 0 && p.Bedrooms >= 0 && p.Bathrooms >= 0, "area", "Area, bedrooms and bathrooms cannot be negative")
	if err := v.err(); err != nil {
		return domain.Property{}, err
	}

	p.ID = ""
	p.MarketerID = marketerID
	p.Title = strings.TrimSpace(p.Title)
	p.Location = strings.TrimSpace(p.Location)

	created, err := s.repo.CreateProperty(ctx, p)
	if err != nil {
		return domain.Property{}, fmt.Errorf("create property: %w", err)
	}
	s.logger.Info("property listed", zap.String("property_id", created.ID), zap.String("marketer_id", marketerID))
	return created, nil
}

func (s *Service) GetProperty(ctx context.Context, id string) (domain.Property, error) {
	return s.repo.GetProperty(ctx, id)
}

func (s *Service) ListProperties(ctx context.Context, f storage.PropertyFilter) ([]domain.Property, int, error) {
	return s.repo.ListPropertiesFiltered(ctx, f)
}

// DeleteProperty removes a listing; only its marketer may do so.
func (s *Service) DeleteProperty(ctx context.Context, marketerID, id string) error {
	p, err := s.repo.GetProperty(ctx, id)
	if err != nil {
		return err
	}
	if p.MarketerID != marketerID {
		return ErrForbidden
	}
	ok, err := s.repo.DeleteProperty(ctx, id)
	if err != nil {
		return fmt.Errorf("delete property: %w", err)
	}
	if !ok {
		return storage.ErrNotFound
	}
	return nil
}

// ---- leads ----

func (s *Service) ListLeads(ctx context.Context, marketerID string, status domain.LeadStatus) ([]domain.Lead, error) {
	if status != "" && !status.Valid() {
		return nil, &ValidationError{Fields: map[string]string{"status": "Unknown lead status"}}
	}
	return s.repo.ListLeads(ctx, storage.LeadFilter{MarketerID: marketerID, Status: status})
}

// UpdateLeadStatus moves a lead owned by marketerID to a new status.
func (s *Service) UpdateLeadStatus(ctx context.Context, marketerID, leadID string, status domain.LeadStatus) (domain.Lead, error) {
	if !status.Valid() {
		return domain.Lead{}, &ValidationError{Fields: map[string]string{"status": "Unknown lead status"}}
	}
	lead, err := s.repo.GetLead(ctx, leadID)
	if err != nil {
		return domain.Lead{}, err
	}
	if lead.MarketerID != marketerID {
		return domain.Lead{}, ErrForbidden
	}
	if err := s.repo.UpdateLeadStatus(ctx, leadID, status); err != nil {
		return domain.Lead{}, fmt.Errorf("update lead status: %w", err)
	}
	lead.Status = status
	s.logger.Info("lead status updated", zap.String("lead_id", leadID), zap.String("status", string(status)))
	return lead, nil
}

// ---- validation ----

// normalizeBuyer trims the text fields so validation, scoring and the stored
// record all see the same values. The caller's draft is left untouched.
func normalizeBuyer(d domain.BuyerProfile) domain.BuyerProfile {
	trim := func(s *string) *string {
		if s == nil {
			return nil
		}
		t := strings.TrimSpace(*s)
		return &t
	}
	d.FullName = trim(d.FullName)
	d.Email = trim(d.Email)
	d.Phone = trim(d.Phone)
	return d
}

func validateBuyer(d domain.BuyerProfile) error {
	var v validator
	v.check(d.FullName != nil && utf8.RuneCountInString(strings.TrimSpace(*d.FullName)) >= minNameLength,
		"full_name", "Name must be at least 2 characters")
	v.check(d.Email != nil && validEmail(*d.Email), "email", "Invalid email address")
	v.check(d.Phone != nil && scoring.ValidPhone(strings.TrimSpace(*d.Phone)), "phone", "Must be valid Egyptian phone (01XXXXXXXXX)")
	v.check(d.Password != nil && len(*d.Password) >= minPasswordLength, "password", "Password must be at least 8 characters")
	v.check(d.Budget != nil && *d.Budget > 0 && !math.IsInf(*d.Budget, 1), "budget", "Budget must be greater than 0")
	v.check(len(d.Locations) > 0, "locations", "Select at least one location")
	v.check(len(d.PropertyTypes) > 0, "property_types", "Select at least one property type")
	for _, t := range d.PropertyTypes {
		v.check(domain.PropertyType(t).Valid(), "property_types", fmt.Sprintf("Unknown property type %q", t))
	}
	v.check(d.BuyingIntent == nil || d.BuyingIntent.Valid(), "buying_intent", "Buying intent must be Cash, Installment or Mortgage")
	return v.err()
}

func validEmail(s string) bool {
	s = strings.TrimSpace(s)
	addr, err := mail.ParseAddress(s)
	return err == nil && addr.Address == s
}
