// Package chi exposes the image similarity API over HTTP: three legacy
// JSON endpoints plus health and metrics.
package chi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/imagedex/internal/domain"
	"github.com/kailas-cloud/imagedex/internal/metrics"
	deletionuc "github.com/kailas-cloud/imagedex/internal/usecase/deletion"
	healthuc "github.com/kailas-cloud/imagedex/internal/usecase/health"
	indexuc "github.com/kailas-cloud/imagedex/internal/usecase/index"
	searchuc "github.com/kailas-cloud/imagedex/internal/usecase/search"
)

// Indexer is the indexing service contract consumed by the server.
type Indexer interface {
	Index(ctx context.Context, image []byte, entityID string) (indexuc.Receipt, error)
}

// Searcher is the search service contract consumed by the server.
type Searcher interface {
	Search(ctx context.Context, image []byte, opts searchuc.Options) (searchuc.Result, error)
}

// Deleter is the deletion service contract consumed by the server.
type Deleter interface {
	DeleteEntity(ctx context.Context, entityID string) (deletionuc.Report, error)
}

// HealthChecker is the health service contract consumed by the server.
type HealthChecker interface {
	Check(ctx context.Context) healthuc.Report
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server routes the API endpoints to the use case services.
type Server struct {
	indexer       Indexer
	searcher      Searcher
	deleter       Deleter
	health        HealthChecker
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	indexer Indexer,
	searcher Searcher,
	deleter Deleter,
	health HealthChecker,
	logger *zap.Logger,
) *Server {
	s := &Server{
		indexer:  indexer,
		searcher: searcher,
		deleter:  deleter,
		health:   health,
		logger:   logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrValidation, http.StatusBadRequest, "validation_failed"),
		sentinelHandler(domain.ErrEmbedding, http.StatusUnprocessableEntity, "embedding_failed"),
		sentinelHandler(domain.ErrDimensionMismatch, http.StatusInternalServerError, "dimension_mismatch"),
		sentinelHandler(domain.ErrStoreUnavailable, http.StatusServiceUnavailable, "store_unavailable"),
	}
	return s
}

// Mount registers all routes on the router.
func (s *Server) Mount(r chi.Router) {
	r.Post("/index", s.Index)
	r.Post("/search", s.Search)
	r.Post("/delete", s.Delete)
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
}

// Index handles POST /index.
func (s *Server) Index(w http.ResponseWriter, r *http.Request) {
	var req indexRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "Invalid request body: "+err.Error())
		return
	}

	if req.entityID() == "" {
		writeError(w, http.StatusBadRequest, "validation_failed", "entity_id is required")
		return
	}
	image, err := decodeImage(req.Image)
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}

	receipt, err := s.indexer.Index(r.Context(), image, req.entityID())
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, indexResponse{
		Success:         true,
		Message:         "Image indexed successfully",
		EntityID:        req.entityID(),
		DocumentID:      receipt.DocumentID,
		VectorDimension: receipt.Dimension,
	})
}

// Search handles POST /search.
func (s *Server) Search(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "Invalid request body: "+err.Error())
		return
	}

	image, err := decodeImage(req.Image)
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}

	result, err := s.searcher.Search(r.Context(), image, searchuc.Options{
		Threshold: req.MinSimilarity,
	})
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	metrics.SearchMatchesReturned.Observe(float64(len(result.Matches)))

	matches := make([]matchItem, len(result.Matches))
	for i, m := range result.Matches {
		matches[i] = matchItem{
			EntityID:   m.EntityID,
			Similarity: m.Similarity,
			DocumentID: m.DocumentID,
		}
	}

	writeJSON(w, http.StatusOK, searchResponse{
		Success:       true,
		Message:       fmt.Sprintf("Found %d matches", len(matches)),
		Count:         len(matches),
		MinSimilarity: result.Threshold,
		Matches:       matches,
	})
}

// Delete handles POST /delete. Partial failures still answer 200 with the
// per-document accounting; callers retry until failed_count is zero.
func (s *Server) Delete(w http.ResponseWriter, r *http.Request) {
	var req deleteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "Invalid request body: "+err.Error())
		return
	}

	report, err := s.deleter.DeleteEntity(r.Context(), req.entityID())
	if err != nil && !errors.Is(err, domain.ErrPartialDeletion) {
		s.handleDomainError(w, err)
		return
	}

	metrics.DeletionDocumentsTotal.WithLabelValues("deleted").Add(float64(report.Deleted))
	metrics.DeletionDocumentsTotal.WithLabelValues("failed").Add(float64(report.Failed))

	msg := fmt.Sprintf("Deleted %d of %d documents", report.Deleted, report.TotalFound)
	writeJSON(w, http.StatusOK, deleteResponse{
		Success:      true,
		Message:      msg,
		TotalFound:   report.TotalFound,
		DeletedCount: report.Deleted,
		FailedCount:  report.Failed,
		Errors:       report.Errors,
	})
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, healthResponse{
		Status: string(report.Status),
		Checks: checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{
		Success: false,
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrValidation,
		domain.ErrEmbedding,
		domain.ErrDimensionMismatch,
		domain.ErrStoreUnavailable,
		domain.ErrPartialDeletion,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code string) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
}
