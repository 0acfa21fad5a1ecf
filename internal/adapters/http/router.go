package httpadapter

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/kirillkom/document-handler/internal/config"
	"github.com/kirillkom/document-handler/internal/core/domain"
	"github.com/kirillkom/document-handler/internal/core/ports"
	"github.com/kirillkom/document-handler/internal/observability/metrics"
)

const serviceName = "document-handler-api"

type Router struct {
	cfg         config.Config
	processor   ports.SubmissionProcessor
	cleaner     ports.StoredFileCleaner
	submissions ports.SubmissionReader
	metrics     *metrics.HTTPServerMetrics
}

func NewRouter(
	cfg config.Config,
	processor ports.SubmissionProcessor,
	cleaner ports.StoredFileCleaner,
	submissions ports.SubmissionReader,
	m *metrics.HTTPServerMetrics,
) *Router {
	return &Router{
		cfg:         cfg,
		processor:   processor,
		cleaner:     cleaner,
		submissions: submissions,
		metrics:     m,
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", rt.root)
	mux.HandleFunc("/health", rt.health)
	mux.HandleFunc("/healthz", rt.health)
	mux.HandleFunc("/process-document", rt.processDocument)
	mux.HandleFunc("/cleanup/", rt.cleanup)
	mux.HandleFunc("/v1/submissions/", rt.getSubmission)
	mux.Handle("/metrics", rt.metrics.Handler())

	var handler http.Handler = mux
	handler = rt.metrics.Middleware(serviceName, handler)
	if rt.cfg.APIMaxInFlight > 0 {
		handler = backpressureMiddleware(handler, rt.cfg.APIMaxInFlight, 100*time.Millisecond)
	}
	if rt.cfg.APIRateLimitRPS > 0 {
		handler = rateLimitMiddleware(handler, rt.cfg.APIRateLimitRPS, rt.cfg.APIRateLimitBurst)
	}
	handler = corsMiddleware(handler)
	handler = accessLogMiddleware(handler)
	handler = requestIDMiddleware(handler)
	return handler
}

func (rt *Router) root(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
		return
	}
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"message": "Document Handler API",
		"version": rt.cfg.ServiceVersion,
	})
}

func (rt *Router) health(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (rt *Router) processDocument(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	var req domain.ProcessingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if strings.TrimSpace(req.Base64Data) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "base64_data is required"})
		return
	}

	start := time.Now()
	result, err := rt.processor.Process(r.Context(), req)
	if err != nil {
		writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}

	rt.metrics.RecordSubmission(serviceName, string(result.Status), result.MIMEType, result.SizeBytes, time.Since(start))
	writeJSON(w, http.StatusOK, result)
}

func (rt *Router) cleanup(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	key := strings.TrimPrefix(r.URL.Path, "/cleanup/")
	if unescaped, err := url.PathUnescape(key); err == nil {
		key = unescaped
	}
	if key == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "file name is required"})
		return
	}

	if err := rt.cleaner.Cleanup(r.Context(), key); err != nil {
		writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"message": "File deleted successfully",
		"file":    key,
	})
}

func (rt *Router) getSubmission(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/v1/submissions/")
	if id == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "submission id is required"})
		return
	}

	sub, err := rt.submissions.GetByID(r.Context(), id)
	if err != nil {
		writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, sub)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
