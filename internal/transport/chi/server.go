package chi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/fusedex/internal/domain"
	"github.com/kailas-cloud/fusedex/internal/domain/search/filter"
	"github.com/kailas-cloud/fusedex/internal/domain/search/request"
	"github.com/kailas-cloud/fusedex/internal/domain/search/result"
	healthuc "github.com/kailas-cloud/fusedex/internal/usecase/health"
	indexeruc "github.com/kailas-cloud/fusedex/internal/usecase/indexer"
	searchuc "github.com/kailas-cloud/fusedex/internal/usecase/search"
)

// ErrorCode is a machine-readable error identifier in API responses.
type ErrorCode string

// API error codes.
const (
	CodeBadRequest         ErrorCode = "bad_request"
	CodeValidationFailed   ErrorCode = "validation_failed"
	CodeMalformedFilter    ErrorCode = "malformed_filter"
	CodeIndexUnavailable   ErrorCode = "index_unavailable"
	CodeVectorBackendError ErrorCode = "vector_backend_error"
	CodeEmbeddingError     ErrorCode = "embedding_provider_error"
	CodeInternalError      ErrorCode = "internal_error"
)

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server exposes the hybrid search API over chi.
type Server struct {
	search        *searchuc.Service
	indexer       *indexeruc.Service
	health        *healthuc.Service
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	search *searchuc.Service,
	indexer *indexeruc.Service,
	health *healthuc.Service,
	logger *zap.Logger,
) *Server {
	s := &Server{
		search:  search,
		indexer: indexer,
		health:  health,
		logger:  logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrMalformedPredicate, http.StatusBadRequest, CodeMalformedFilter),
		sentinelHandler(domain.ErrIndexUnavailable, http.StatusServiceUnavailable, CodeIndexUnavailable),
		sentinelHandler(domain.ErrVectorPortFailure, http.StatusBadGateway, CodeVectorBackendError),
		sentinelHandler(domain.ErrEmbeddingProviderError, http.StatusBadGateway, CodeEmbeddingError),
		sentinelHandler(domain.ErrCorpusEmpty, http.StatusUnprocessableEntity, CodeValidationFailed),
		sentinelHandler(domain.ErrDuplicateDocID, http.StatusUnprocessableEntity, CodeValidationFailed),
	}
	return s
}

// Register mounts all API routes on the router.
func (s *Server) Register(r chi.Router) {
	r.Post("/search", s.SearchDocuments)
	r.Post("/reindex", s.Reindex)
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", promhttp.Handler().ServeHTTP)
}

type searchRequestDTO struct {
	Query  string          `json:"query"`
	TopK   int             `json:"top_k"`
	Filter json.RawMessage `json:"filter"`
}

type searchResultDTO struct {
	DocID    string      `json:"doc_id"`
	Score    float64     `json:"score"`
	Rank     int         `json:"rank"`
	Title    string      `json:"title"`
	Body     string      `json:"body,omitempty"`
	Metadata metadataDTO `json:"metadata"`
}

type metadataDTO struct {
	Region         string `json:"region"`
	ProductVersion string `json:"product_version"`
	Category       string `json:"category"`
	Deprecated     bool   `json:"deprecated"`
}

type searchResponseDTO struct {
	Results []searchResultDTO `json:"results"`
	Count   int               `json:"count"`
}

// SearchDocuments handles POST /search.
func (s *Server) SearchDocuments(w http.ResponseWriter, r *http.Request) {
	var dto searchRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	pred, err := filter.Parse(dto.Filter)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	req, err := request.New(dto.Query, dto.TopK, pred)
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, err.Error())
		return
	}

	items, err := s.search.Search(r.Context(), &req)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	results := make([]searchResultDTO, len(items))
	for i := range items {
		results[i] = resultToDTO(&items[i])
	}

	writeJSON(w, http.StatusOK, searchResponseDTO{
		Results: results,
		Count:   len(results),
	})
}

// Reindex handles POST /reindex: full corpus rebuild of both indexes.
func (s *Server) Reindex(w http.ResponseWriter, r *http.Request) {
	n, err := s.indexer.Rebuild(r.Context())
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]int{"indexed": n})
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, map[string]any{
		"status": report.Status,
		"checks": report.Checks,
	})
}

func resultToDTO(item *result.Item) searchResultDTO {
	return searchResultDTO{
		DocID: item.DocID(),
		Score: item.Score(),
		Rank:  item.Rank(),
		Title: item.Title(),
		Body:  item.Body(),
		Metadata: metadataDTO{
			Region:         item.Region(),
			ProductVersion: item.ProductVersion(),
			Category:       item.Category(),
			Deprecated:     item.Deprecated(),
		},
	}
}

type errorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, message string) {
	writeJSON(w, status, errorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrMalformedPredicate,
		domain.ErrIndexUnavailable,
		domain.ErrVectorPortFailure,
		domain.ErrEmbeddingProviderError,
		domain.ErrCorpusEmpty,
		domain.ErrDuplicateDocID,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code ErrorCode) errorHandler {
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
	writeError(w, http.StatusInternalServerError, CodeInternalError, "internal error")
}
