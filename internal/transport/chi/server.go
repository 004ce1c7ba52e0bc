package chi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/filesearch/internal/domain"
	"github.com/kailas-cloud/filesearch/internal/domain/record"
	logpkg "github.com/kailas-cloud/filesearch/internal/logger"
	"github.com/kailas-cloud/filesearch/internal/metrics"
	healthuc "github.com/kailas-cloud/filesearch/internal/usecase/health"
	recorduc "github.com/kailas-cloud/filesearch/internal/usecase/record"
)

// DefaultMaxUploadBytes bounds the multipart upload body.
const DefaultMaxUploadBytes = 50 << 20

// multipart parts above this size spill to temporary files
const uploadMemoryBytes = 8 << 20

// Server serves the file search HTTP API.
type Server struct {
	records        RecordService
	queries        QueryService
	health         HealthService
	logger         *zap.Logger
	maxUploadBytes int64
	errorHandlers  []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(records RecordService, queries QueryService, health HealthService, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		records:        records,
		queries:        queries,
		health:         health,
		logger:         logger,
		maxUploadBytes: DefaultMaxUploadBytes,
		errorHandlers:  defaultErrorHandlers(),
	}
}

// WithMaxUploadBytes overrides the upload size limit.
func (s *Server) WithMaxUploadBytes(n int64) *Server {
	if n > 0 {
		s.maxUploadBytes = n
	}
	return s
}

// Router builds the chi router with the middleware chain and all routes.
func (s *Server) Router(apiKeys map[string]string) http.Handler {
	r := chi.NewRouter()
	r.Use(JSONRecoverer(s.logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(WideEventMiddleware(s.logger))
	r.Use(BearerAuthMiddleware(apiKeys))
	r.Use(metrics.Middleware())

	r.Route("/stores", func(r chi.Router) {
		r.Post("/", s.CreateRecord)
		r.Get("/", s.ListRecords)
		r.Get("/{id}", s.GetRecord)
		r.Patch("/{id}", s.UpdateRecord)
		r.Delete("/{id}", s.DeactivateRecord)
		r.Post("/{id}/ingest", s.IngestRecord)
	})
	r.Post("/upload", s.Upload)
	r.Post("/query", s.Query)
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, CodeNotFound, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, CodeBadRequest, "method not allowed")
	})
	return r
}

// CreateRecord handles POST /stores.
func (s *Server) CreateRecord(w http.ResponseWriter, r *http.Request) {
	var req CreateRecordRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
			return
		}
	}

	rec, err := s.records.Create(r.Context(), OwnerFromContext(r.Context()), req.Title)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, recordToResponse(&rec))
}

// ListRecords handles GET /stores.
func (s *Server) ListRecords(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	opts := recorduc.ListOptions{Cursor: q.Get("cursor")}

	if v := q.Get("status"); v != "" {
		st, err := record.ParseStatus(strings.ToUpper(v))
		if err != nil {
			writeError(w, http.StatusBadRequest, CodeValidationFailed, err.Error())
			return
		}
		opts.Status = st
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, CodeValidationFailed, "limit must be a positive integer")
			return
		}
		opts.Limit = n
	}

	res, err := s.records.List(r.Context(), OwnerFromContext(r.Context()), opts)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	items := make([]RecordResponse, len(res.Records))
	for i := range res.Records {
		items[i] = recordToResponse(&res.Records[i])
	}
	resp := RecordListResponse{Items: items, HasMore: res.NextCursor != ""}
	if res.NextCursor != "" {
		resp.NextCursor = &res.NextCursor
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetRecord handles GET /stores/{id}.
func (s *Server) GetRecord(w http.ResponseWriter, r *http.Request) {
	rec, err := s.records.Get(r.Context(), OwnerFromContext(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, recordToResponse(&rec))
}

// UpdateRecord handles PATCH /stores/{id}. Only the title is mutable.
func (s *Server) UpdateRecord(w http.ResponseWriter, r *http.Request) {
	var req UpdateRecordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	rec, err := s.records.Rename(r.Context(), OwnerFromContext(r.Context()), chi.URLParam(r, "id"), req.Title)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, recordToResponse(&rec))
}

// DeactivateRecord handles DELETE /stores/{id}.
func (s *Server) DeactivateRecord(w http.ResponseWriter, r *http.Request) {
	if err := s.records.Deactivate(r.Context(), OwnerFromContext(r.Context()), chi.URLParam(r, "id")); err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// IngestRecord handles POST /stores/{id}/ingest.
func (s *Server) IngestRecord(w http.ResponseWriter, r *http.Request) {
	rec, err := s.records.Ingest(r.Context(), OwnerFromContext(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		s.handleIngestionError(w, r, &rec, err)
		return
	}
	writeJSON(w, http.StatusOK, recordToResponse(&rec))
}

// Upload handles POST /upload: multipart "file" (PDF) and optional "title".
// The file is ingested before responding.
func (s *Server) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)
	if err := r.ParseMultipartForm(uploadMemoryBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, CodeValidationFailed,
				fmt.Sprintf("upload exceeds %d bytes", s.maxUploadBytes))
			return
		}
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid multipart body: "+err.Error())
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, "PDF file is required")
		return
	}
	defer file.Close()

	rec, err := s.records.Upload(r.Context(), OwnerFromContext(r.Context()),
		r.FormValue("title"), header.Filename, file)
	if err != nil {
		s.handleIngestionError(w, r, &rec, err)
		return
	}
	writeJSON(w, http.StatusCreated, recordToResponse(&rec))
}

// Query handles POST /query.
func (s *Server) Query(w http.ResponseWriter, r *http.Request) {
	var req QueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	res, err := s.queries.Query(r.Context(), OwnerFromContext(r.Context()), req.Query, req.DocumentID)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	status := http.StatusOK
	if report.Status == healthuc.Unhealthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, map[string]any{
		"status": report.Status,
		"checks": report.Checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

// handleIngestionError answers 500 with the FAILED record when ingestion ran
// and failed; other errors go through the domain mapping.
func (s *Server) handleIngestionError(w http.ResponseWriter, r *http.Request, rec *record.Record, err error) {
	if !recorduc.IsIngestionFailure(err) || rec.ID() == "" {
		s.handleDomainError(w, r, err)
		return
	}

	logpkg.FromContextOr(r.Context(), s.logger).Warn("ingestion failed",
		zap.String("record_id", rec.ID()),
		zap.String("status", rec.Status().String()),
		zap.Error(err),
	)
	writeJSON(w, http.StatusInternalServerError, IngestionFailureResponse{
		Code:    ingestionFailureCode(err),
		Message: safeDomainMessage(err),
		Record:  recordToResponse(rec),
	})
}

func ingestionFailureCode(err error) ErrorCode {
	switch {
	case errors.Is(err, domain.ErrIngestionTimeout):
		return CodeIngestionTimeout
	case errors.Is(err, domain.ErrStoreCreationFailed), errors.Is(err, domain.ErrUploadFailed):
		return CodeGatewayError
	default:
		return CodeIngestionFailed
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := logpkg.FromContextOr(r.Context(), s.logger)
	log.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	log.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, CodeInternalError, "internal error")
}
