package httpapi

import (
	"net/http"
	"strings"

	"github.com/denisok6893-rgb/leadqual/internal/domain"
	"github.com/denisok6893-rgb/leadqual/internal/session"
)

type LeadsListResponse struct {
	Items []domain.Lead `json:"items"`
}

// handleLeadsList returns the marketer's leads, highest buyer score first.
func (s *Server) handleLeadsList(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	p, ok := requireRole(w, r, session.RoleMarketer)
	if !ok {
		return
	}

	items, err := s.svc.ListLeads(r.Context(), p.UserID, domain.LeadStatus(r.URL.Query().Get("status")))
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	if items == nil {
		items = []domain.Lead{}
	}
	writeJSON(w, http.StatusOK, LeadsListResponse{Items: items})
}

type UpdateLeadRequest struct {
	Status domain.LeadStatus `json:"status" mapstructure:"status"`
}

func (s *Server) handleLeadByID(w http.ResponseWriter, r *http.Request) {
	id := strings.Trim(r.URL.Path[len("/leads/"):], "/")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing_id")
		return
	}
	if r.Method != http.MethodPatch {
		methodNotAllowed(w)
		return
	}
	p, ok := requireRole(w, r, session.RoleMarketer)
	if !ok {
		return
	}

	var req UpdateLeadRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body")
		return
	}

	lead, err := s.svc.UpdateLeadStatus(r.Context(), p.UserID, id, req.Status)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, lead)
}
