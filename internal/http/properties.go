package httpapi

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/denisok6893-rgb/leadqual/internal/domain"
	"github.com/denisok6893-rgb/leadqual/internal/session"
	"github.com/denisok6893-rgb/leadqual/internal/storage"
)

type PropertiesListResponse struct {
	Limit  int               `json:"limit"`
	Offset int               `json:"offset"`
	Total  int               `json:"total"`
	Items  []domain.Property `json:"items"`
}

func (s *Server) handlePropertiesList(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodPost {
		s.handlePropertiesCreate(w, r)
		return
	}
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}

	filter, badParam := parsePropertyFilter(r)
	if badParam != "" {
		writeError(w, http.StatusBadRequest, "invalid_"+badParam)
		return
	}

	items, total, err := s.svc.ListProperties(r.Context(), filter)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	if items == nil {
		items = []domain.Property{}
	}

	writeJSON(w, http.StatusOK, PropertiesListResponse{
		Limit:  filter.Limit,
		Offset: filter.Offset,
		Total:  total,
		Items:  items,
	})
}

// parsePropertyFilter reads listing filters from the query string. It returns
// the name of the first malformed parameter, if any.
func parsePropertyFilter(r *http.Request) (storage.PropertyFilter, string) {
	q := r.URL.Query()
	limit, offset := parseLimitOffset(r, 20, 0)

	f := storage.PropertyFilter{
		Location:   strings.TrimSpace(q.Get("location")),
		Type:       domain.PropertyType(q.Get("type")),
		Status:     domain.PropertyStatus(q.Get("status")),
		MarketerID: q.Get("marketer_id"),
		Sort:       q.Get("sort"),
		Limit:      limit,
		Offset:     offset,
	}
	if f.Type != "" && !f.Type.Valid() {
		return f, "type"
	}
	if f.Status != "" && !f.Status.Valid() {
		return f, "status"
	}

	floats := []struct {
		name string
		dst  *float64
	}{
		{"min_price", &f.MinPrice},
		{"max_price", &f.MaxPrice},
		{"min_area", &f.MinArea},
	}
	for _, fl := range floats {
		if v := q.Get(fl.name); v != "" {
			parsed, err := strconv.ParseFloat(v, 64)
			if err != nil || parsed < 0 {
				return f, fl.name
			}
			*fl.dst = parsed
		}
	}

	bedrooms := q.Get("bedrooms")
	if bedrooms == "" {
		bedrooms = q.Get("min_bedrooms")
	}
	if bedrooms != "" {
		parsed, err := strconv.Atoi(bedrooms)
		if err != nil || parsed < 0 {
			return f, "bedrooms"
		}
		f.MinBedrooms = parsed
	}
	return f, ""
}

func (s *Server) handlePropertiesCreate(w http.ResponseWriter, r *http.Request) {
	p, ok := requireRole(w, r, session.RoleMarketer)
	if !ok {
		return
	}
	var req domain.Property
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body")
		return
	}

	created, err := s.svc.CreateProperty(r.Context(), p.UserID, req)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// handlePropertyByID serves /properties/{id} and /properties/{id}/interest.
func (s *Server) handlePropertyByID(w http.ResponseWriter, r *http.Request) {
	rest := strings.Trim(r.URL.Path[len("/properties/"):], "/")
	id, action, _ := strings.Cut(rest, "/")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing_id")
		return
	}

	switch action {
	case "":
	case "interest":
		s.handleInterest(w, r, id)
		return
	default:
		writeError(w, http.StatusNotFound, "not_found")
		return
	}

	switch r.Method {
	case http.MethodGet:
		prop, err := s.svc.GetProperty(r.Context(), id)
		if err != nil {
			s.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, prop)

	case http.MethodDelete:
		p, ok := requireRole(w, r, session.RoleMarketer)
		if !ok {
			return
		}
		if err := s.svc.DeleteProperty(r.Context(), p.UserID, id); err != nil {
			s.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})

	default:
		methodNotAllowed(w)
	}
}

// handleInterest turns a buyer's interest into a lead. A mismatch yields 422
// with the reasons and no lead.
func (s *Server) handleInterest(w http.ResponseWriter, r *http.Request, propertyID string) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	p, ok := requireRole(w, r, session.RoleBuyer)
	if !ok {
		return
	}

	lead, err := s.svc.ExpressInterest(r.Context(), p.UserID, propertyID)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, lead)
}
