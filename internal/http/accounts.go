package httpapi

import (
	"net/http"
	"strings"

	"github.com/denisok6893-rgb/leadqual/internal/domain"
	"github.com/denisok6893-rgb/leadqual/internal/leads"
	"github.com/denisok6893-rgb/leadqual/internal/scoring"
	"github.com/denisok6893-rgb/leadqual/internal/session"
)

// handleScore scores a possibly incomplete registration form. Nothing is stored.
func (s *Server) handleScore(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var draft domain.BuyerProfile
	if err := decodeBody(w, r, &draft); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body")
		return
	}
	writeJSON(w, http.StatusOK, scoring.Calculate(draft))
}

type MatchRequest struct {
	Buyer      domain.BuyerProfile `json:"buyer"`
	Property   *domain.Property    `json:"property,omitempty"`
	PropertyID string              `json:"property_id,omitempty"`
}

// handleMatch evaluates a buyer against an inline property or a stored one.
func (s *Server) handleMatch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	// buyer and property are nested objects, which flat form fields cannot carry
	if isFormPost(r) {
		writeError(w, http.StatusUnsupportedMediaType, "json_required")
		return
	}
	var req MatchRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body")
		return
	}

	property := req.Property
	if property == nil {
		if strings.TrimSpace(req.PropertyID) == "" || s.svc == nil {
			writeError(w, http.StatusBadRequest, "missing_property")
			return
		}
		p, err := s.svc.GetProperty(r.Context(), req.PropertyID)
		if err != nil {
			s.writeServiceError(w, err)
			return
		}
		property = &p
	}

	writeJSON(w, http.StatusOK, s.engine.Evaluate(req.Buyer, *property))
}

type BuyerRegisteredResponse struct {
	Buyer domain.Buyer       `json:"buyer"`
	Score domain.ScoreResult `json:"score"`
	Token string             `json:"token"`
}

func (s *Server) handleBuyers(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var draft domain.BuyerProfile
	if err := decodeBody(w, r, &draft); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body")
		return
	}

	reg, err := s.svc.RegisterBuyer(r.Context(), draft)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	token := s.sessions.Create(session.Principal{UserID: reg.Buyer.ID, Role: session.RoleBuyer})
	writeJSON(w, http.StatusCreated, BuyerRegisteredResponse{Buyer: reg.Buyer, Score: reg.Score, Token: token})
}

func (s *Server) handleBuyerMe(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	p, ok := requireRole(w, r, session.RoleBuyer)
	if !ok {
		return
	}
	b, err := s.svc.GetBuyer(r.Context(), p.UserID)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

type MatchesResponse struct {
	Items []domain.RankedProperty `json:"items"`
}

// handleBuyerMatches lists available properties that match the logged-in
// buyer, closest to budget first.
func (s *Server) handleBuyerMatches(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	p, ok := requireRole(w, r, session.RoleBuyer)
	if !ok {
		return
	}
	limit, _ := parseLimitOffset(r, 5, 0)

	ranked, err := s.svc.MatchingProperties(r.Context(), p.UserID, limit)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	if ranked == nil {
		ranked = []domain.RankedProperty{}
	}
	writeJSON(w, http.StatusOK, MatchesResponse{Items: ranked})
}

type MarketerRegisteredResponse struct {
	Marketer domain.Marketer `json:"marketer"`
	Token    string          `json:"token"`
}

func (s *Server) handleMarketers(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var draft leads.MarketerDraft
	if err := decodeBody(w, r, &draft); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body")
		return
	}

	m, err := s.svc.RegisterMarketer(r.Context(), draft)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	token := s.sessions.Create(session.Principal{UserID: m.ID, Role: session.RoleMarketer})
	writeJSON(w, http.StatusCreated, MarketerRegisteredResponse{Marketer: m, Token: token})
}

type LoginRequest struct {
	// Identifier is an email address or a phone number.
	Identifier string `json:"identifier" mapstructure:"identifier"`
	Password   string `json:"password" mapstructure:"password"`
}

type LoginResponse struct {
	Token  string       `json:"token"`
	UserID string       `json:"user_id"`
	Role   session.Role `json:"role"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var req LoginRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body")
		return
	}

	p, err := s.svc.Login(r.Context(), req.Identifier, req.Password)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, LoginResponse{Token: s.sessions.Create(p), UserID: p.UserID, Role: p.Role})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	token := bearerToken(r)
	if token == "" {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	s.sessions.Delete(token)
	writeJSON(w, http.StatusNoContent, nil)
}
