package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"tendercomply/internal/app"
	"tendercomply/internal/ratelimit"
	"tendercomply/internal/util"
	"tendercomply/pkg/domain"
)

// Config wires required dependencies for the HTTP server.
type Config struct {
	App     *app.App
	Limiter *ratelimit.FixedWindowLimiter
}

// Server exposes the collaborator-facing HTTP endpoints of the pipeline.
type Server struct {
	app     *app.App
	limiter *ratelimit.FixedWindowLimiter
	mux     *http.ServeMux
}

// New constructs the server with routes configured.
func New(cfg Config) *Server {
	s := &Server{
		app:     cfg.App,
		limiter: cfg.Limiter,
		mux:     http.NewServeMux(),
	}
	s.routes()
	return s
}

// Router returns the configured handler with the middleware chain applied.
func (s *Server) Router() http.Handler {
	return util.WithRequestID(util.WithRequestLog("compliance", util.WithSecurityHeaders(util.WithCORS(s.mux))))
}

func (s *Server) routes() {
	s.mux.HandleFunc("/healthz", s.handleHealth)
	s.mux.Handle("/ingest", s.withRateLimit(s.handleIngest))
	s.mux.Handle("/audit", s.withRateLimit(s.handleAudit))
	s.mux.HandleFunc("/tenders/", s.handleReadiness)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) withRateLimit(next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.limiter != nil && !s.limiter.Allow(util.ForwardedAddr(r)) {
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		next(w, r)
	})
}

type ingestRequest struct {
	TenderID string `json:"tender_id"`
	FilePath string `json:"file_path"`
	FileName string `json:"file_name"`
}

func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var req ingestRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	result, err := s.app.Ingest(r.Context(), app.IngestRequest{
		TenderID:   req.TenderID,
		FilePath:   req.FilePath,
		FileName:   req.FileName,
		RemoteAddr: util.ForwardedAddr(r),
	})
	if err != nil {
		// Internal distinctions stay in logs; untrusted callers get a
		// single generic message per category.
		util.LoggerFromContext(r.Context()).Warn("ingest failed",
			"tender_id", req.TenderID, "file_path", req.FilePath, "err", err)
		writeError(w, http.StatusBadRequest, publicIngestError(err))
		return
	}
	message := "document processed"
	if result.RulesExtracted {
		message = "document processed, requirements extracted"
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": message,
	})
}

func publicIngestError(err error) string {
	switch {
	case errors.Is(err, app.ErrValidation):
		return strings.TrimPrefix(err.Error(), "validation error: ")
	case errors.Is(err, app.ErrExtractionTimeout):
		return "document extraction timed out"
	case errors.Is(err, app.ErrExtraction):
		return "document could not be processed"
	case errors.Is(err, app.ErrPersistence):
		return "document store unavailable"
	default:
		return "ingestion failed"
	}
}

type auditRequest struct {
	ActorID  string         `json:"actor_id"`
	TenderID string         `json:"tender_id"`
	Action   string         `json:"action"`
	Details  map[string]any `json:"details"`
	Severity string         `json:"severity"`
}

func (s *Server) handleAudit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var req auditRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	outcome, err := s.app.RecordAudit(r.Context(), app.AuditEvent{
		ActorID:    req.ActorID,
		TenderID:   req.TenderID,
		Action:     req.Action,
		Severity:   domain.Severity(req.Severity),
		Details:    req.Details,
		RemoteAddr: util.ForwardedAddr(r),
	})
	if err != nil {
		util.LoggerFromContext(r.Context()).Warn("audit record failed",
			"action", req.Action, "err", err)
		writeError(w, http.StatusBadRequest, publicAuditError(err))
		return
	}
	// Routing trouble after a successful append is a partial failure:
	// the entry is durable, so the caller still sees success.
	if outcome.RoutingErr != nil {
		util.LoggerFromContext(r.Context()).Warn("audit recorded with routing failure",
			"audit_id", outcome.Entry.ID, "err", outcome.RoutingErr)
	}
	writeJSON(w, http.StatusOK, map[string]any{"logged": true})
}

func publicAuditError(err error) string {
	switch {
	case errors.Is(err, app.ErrValidation):
		return strings.TrimPrefix(err.Error(), "validation error: ")
	case errors.Is(err, app.ErrPersistence):
		return "audit store unavailable"
	default:
		return "audit record failed"
	}
}

// handleReadiness serves GET /tenders/{id}/readiness?company_id=...
func (s *Server) handleReadiness(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	rest := strings.TrimPrefix(r.URL.Path, "/tenders/")
	tenderID, tail, found := strings.Cut(rest, "/")
	if !found || tail != "readiness" || tenderID == "" {
		http.NotFound(w, r)
		return
	}
	companyID := strings.TrimSpace(r.URL.Query().Get("company_id"))
	result, err := s.app.Readiness(tenderID, companyID)
	if err != nil {
		if errors.Is(err, app.ErrValidation) {
			writeError(w, http.StatusBadRequest, strings.TrimPrefix(err.Error(), "validation error: "))
			return
		}
		util.LoggerFromContext(r.Context()).Warn("readiness failed",
			"tender_id", tenderID, "company_id", companyID, "err", err)
		writeError(w, http.StatusBadRequest, "readiness unavailable")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func methodNotAllowed(w http.ResponseWriter) {
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
