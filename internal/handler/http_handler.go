// Package handler exposes the approvals service over HTTP.
package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/pesio-ai/be-purchase-approvals/internal/errors"
	"github.com/pesio-ai/be-purchase-approvals/internal/service"
)

// HTTPHandler handles HTTP requests.
type HTTPHandler struct {
	approvals *service.ApprovalService
	agent     *service.AgentService
	log       zerolog.Logger
}

// NewHTTPHandler creates a new HTTP handler.
func NewHTTPHandler(approvals *service.ApprovalService, agent *service.AgentService, log zerolog.Logger) *HTTPHandler {
	return &HTTPHandler{
		approvals: approvals,
		agent:     agent,
		log:       log,
	}
}

// Router builds the chi router with all routes and middleware.
func (h *HTTPHandler) Router() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(h.log))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Post("/login", h.Login)
	r.Get("/approvals", h.ListApprovals)
	r.Post("/approvals", h.CreateApproval)
	r.Post("/approvals/{id}/approve", h.ApproveApproval)
	r.Post("/agent/run", h.RunAgent)
	r.Get("/audit", h.ListAudit)

	return r
}

// Login handles login HTTP requests.
func (h *HTTPHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.New(errors.ErrCodeInvalidInput, "invalid request body"))
		return
	}

	identity, err := h.approvals.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, identity)
}

// ListApprovals handles approval listing, optionally scoped by requester.
func (h *HTTPHandler) ListApprovals(w http.ResponseWriter, r *http.Request) {
	approvals, err := h.approvals.ListApprovals(r.Context(), r.URL.Query().Get("requester"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, approvals)
}

// CreateApproval handles approval creation.
func (h *HTTPHandler) CreateApproval(w http.ResponseWriter, r *http.Request) {
	approval, err := h.approvals.CreateApproval(r.Context(), r.URL.Query().Get("requester"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, approval)
}

// ApproveApproval handles approve HTTP requests.
func (h *HTTPHandler) ApproveApproval(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, errors.InvalidInput("id", "approval id is required"))
		return
	}

	// The actor is optional; a bare POST matches the original API.
	var req struct {
		Actor string `json:"actor"`
	}
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, errors.New(errors.ErrCodeInvalidInput, "invalid request body"))
			return
		}
	}

	approval, err := h.approvals.Approve(r.Context(), id, req.Actor)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, approval)
}

// RunAgent triggers one agent evaluation pass.
func (h *HTTPHandler) RunAgent(w http.ResponseWriter, r *http.Request) {
	actions, err := h.agent.Run(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"actions": actions})
}

// ListAudit handles audit trail listing.
func (h *HTTPHandler) ListAudit(w http.ResponseWriter, r *http.Request) {
	entries, err := h.approvals.ListAudit(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, entries)
}

// ── response helpers ──────────────────────────────────────────────────────────

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	code := errors.CodeOf(err)
	writeJSON(w, statusForCode(code), map[string]string{
		"error": err.Error(),
		"code":  string(code),
	})
}

func statusForCode(code errors.ErrorCode) int {
	switch code {
	case errors.ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case errors.ErrCodeForbidden:
		return http.StatusForbidden
	case errors.ErrCodeNotFound:
		return http.StatusNotFound
	case errors.ErrCodeConflict:
		return http.StatusConflict
	case errors.ErrCodeInvalidInput:
		return http.StatusBadRequest
	case errors.ErrCodeUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// requestLogger logs one line per request with method, path, status and
// duration.
func requestLogger(log zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			log.Info().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Dur("duration", time.Since(start)).
				Str("request_id", middleware.GetReqID(r.Context())).
				Msg("HTTP request")
		})
	}
}
