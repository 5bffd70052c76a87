// Package httpapi exposes lead qualification over a JSON HTTP API.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/denisok6893-rgb/leadqual/internal/leads"
	"github.com/denisok6893-rgb/leadqual/internal/logger"
	"github.com/denisok6893-rgb/leadqual/internal/matching"
	"github.com/denisok6893-rgb/leadqual/internal/session"
	"github.com/denisok6893-rgb/leadqual/internal/storage"
)

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps collects handler dependencies.
type Deps struct {
	Service  *leads.Service
	Engine   *matching.Engine
	Sessions *session.Store
	Store    Pinger
	Logger   *zap.Logger
}

type Server struct {
	svc      *leads.Service
	engine   *matching.Engine
	sessions *session.Store
	store    Pinger
	logger   *zap.Logger
}

func NewServer(d Deps) *Server {
	engine := d.Engine
	if engine == nil {
		engine = matching.NewEngine(matching.DefaultAdjacency())
	}
	sessions := d.Sessions
	if sessions == nil {
		sessions = session.NewStore()
	}
	return &Server{
		svc:      d.Service,
		engine:   engine,
		sessions: sessions,
		store:    d.Store,
		logger:   logger.OrNop(d.Logger),
	}
}

func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/score", s.handleScore)
	mux.HandleFunc("/match", s.handleMatch)
	mux.HandleFunc("/buyers", s.handleBuyers)
	mux.HandleFunc("/buyers/me", s.handleBuyerMe)
	mux.HandleFunc("/buyers/me/matches", s.handleBuyerMatches)
	mux.HandleFunc("/marketers", s.handleMarketers)
	mux.HandleFunc("/login", s.handleLogin)
	mux.HandleFunc("/logout", s.handleLogout)
	mux.HandleFunc("/properties", s.handlePropertiesList)
	mux.HandleFunc("/properties/", s.handlePropertyByID)
	mux.HandleFunc("/leads", s.handleLeadsList)
	mux.HandleFunc("/leads/", s.handleLeadByID)

	return s.accessLog(s.authenticate(mux))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if s.store != nil {
		if err := s.store.Ping(ctx); err != nil {
			s.logger.Error("health probe failed", zap.Error(err))
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded", "error": err.Error()})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ---- middleware ----

// authenticate attaches the session principal for a bearer token. Requests
// without a token pass through anonymously; unknown tokens are rejected.
func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			next.ServeHTTP(w, r)
			return
		}
		p, err := s.sessions.Get(token)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid_token")
			return
		}
		next.ServeHTTP(w, r.WithContext(session.WithPrincipal(r.Context(), p)))
	})
}

func (s *Server) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &responseRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Info("request completed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Int64("duration_ms", time.Since(start).Milliseconds()),
		)
	})
}

type responseRecorder struct {
	http.ResponseWriter
	status int
}

func (r *responseRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if len(h) < len("Bearer ") || !strings.EqualFold(h[:len("Bearer ")], "Bearer ") {
		return ""
	}
	return strings.TrimSpace(h[len("Bearer "):])
}

// requireRole writes 401 or 403 and reports false unless the request carries
// a principal with the given role.
func requireRole(w http.ResponseWriter, r *http.Request, role session.Role) (session.Principal, bool) {
	p, ok := session.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return session.Principal{}, false
	}
	if p.Role != role {
		writeError(w, http.StatusForbidden, "forbidden")
		return session.Principal{}, false
	}
	return p, true
}

// ---- responses ----

func parseLimitOffset(r *http.Request, defLimit, defOffset int) (int, int) {
	q := r.URL.Query()

	limit := defLimit
	if v := q.Get("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			limit = parsed
		}
	}
	if limit <= 0 {
		limit = defLimit
	}
	// safety cap
	if limit > 200 {
		limit = 200
	}

	offset := defOffset
	if v := q.Get("offset"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			offset = parsed
		}
	}
	if offset < 0 {
		offset = defOffset
	}

	return limit, offset
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code string) {
	writeJSON(w, status, map[string]string{"error": code})
}

func methodNotAllowed(w http.ResponseWriter) {
	writeError(w, http.StatusMethodNotAllowed, "method_not_allowed")
}

// writeServiceError maps service errors onto HTTP statuses.
func (s *Server) writeServiceError(w http.ResponseWriter, err error) {
	var verr *leads.ValidationError
	var mismatch *leads.MismatchError

	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "validation_failed", "fields": verr.Fields})
	case errors.As(err, &mismatch):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"error":   "no_match",
			"message": mismatch.Error(),
			"reasons": mismatch.Reasons,
		})
	case errors.Is(err, leads.ErrAlreadyRegistered):
		writeError(w, http.StatusConflict, "already_registered")
	case errors.Is(err, leads.ErrAlreadyInterested):
		writeError(w, http.StatusConflict, "already_interested")
	case errors.Is(err, leads.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "invalid_credentials")
	case errors.Is(err, leads.ErrForbidden):
		writeError(w, http.StatusForbidden, "forbidden")
	case errors.Is(err, storage.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found")
	default:
		s.logger.Error("request failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal_error")
	}
}
