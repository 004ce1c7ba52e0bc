package chi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/kailas-cloud/filesearch/internal/domain"
)

// ErrorCode is a machine-readable error code in API responses.
type ErrorCode string

// Error codes returned by the API.
const (
	CodeBadRequest          ErrorCode = "bad_request"
	CodeValidationFailed    ErrorCode = "validation_failed"
	CodeUnauthorized        ErrorCode = "unauthorized"
	CodeNotFound            ErrorCode = "not_found"
	CodeAlreadyExists       ErrorCode = "already_exists"
	CodeInvalidState        ErrorCode = "invalid_state"
	CodeDocumentNotReady    ErrorCode = "document_not_ready"
	CodeNoReadyDocument     ErrorCode = "no_ready_document"
	CodeStoreNotProvisioned ErrorCode = "store_not_provisioned"
	CodeGatewayError        ErrorCode = "gateway_error"
	CodeIngestionTimeout    ErrorCode = "ingestion_timeout"
	CodeIngestionFailed     ErrorCode = "ingestion_failed"
	CodeInternalError       ErrorCode = "internal_error"
)

// ErrorResponse is the JSON error body.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// defaultErrorHandlers is ordered: the first match wins. Specific ingestion
// causes precede the gateway sentinel they may wrap.
func defaultErrorHandlers() []errorHandler {
	return []errorHandler{
		sentinelHandler(domain.ErrRecordNotFound, http.StatusNotFound, CodeNotFound),
		sentinelHandler(domain.ErrRecordExists, http.StatusConflict, CodeAlreadyExists),
		sentinelHandler(domain.ErrInvalidFile, http.StatusBadRequest, CodeValidationFailed),
		sentinelHandler(domain.ErrInvalidTitle, http.StatusBadRequest, CodeValidationFailed),
		sentinelHandler(domain.ErrInvalidQuestion, http.StatusBadRequest, CodeValidationFailed),
		sentinelHandler(domain.ErrInvalidCursor, http.StatusBadRequest, CodeValidationFailed),
		sentinelHandler(domain.ErrNoReadyDocument, http.StatusBadRequest, CodeNoReadyDocument),
		sentinelHandler(domain.ErrStoreNotProvisioned, http.StatusBadRequest, CodeStoreNotProvisioned),
		sentinelHandler(domain.ErrDocumentNotReady, http.StatusConflict, CodeDocumentNotReady),
		sentinelHandler(domain.ErrInvalidTransition, http.StatusConflict, CodeInvalidState),
		sentinelHandler(domain.ErrIngestionTimeout, http.StatusGatewayTimeout, CodeIngestionTimeout),
		sentinelHandler(domain.ErrRemoteQueryFailed, http.StatusBadGateway, CodeGatewayError),
		sentinelHandler(domain.ErrStoreCreationFailed, http.StatusBadGateway, CodeGatewayError),
		sentinelHandler(domain.ErrUploadFailed, http.StatusBadGateway, CodeGatewayError),
		sentinelHandler(domain.ErrGatewayError, http.StatusBadGateway, CodeGatewayError),
	}
}

// safeMessages lists sentinels whose text is safe to show to clients.
var safeMessages = []error{
	domain.ErrRecordNotFound,
	domain.ErrRecordExists,
	domain.ErrInvalidFile,
	domain.ErrInvalidTitle,
	domain.ErrInvalidQuestion,
	domain.ErrInvalidCursor,
	domain.ErrNoReadyDocument,
	domain.ErrStoreNotProvisioned,
	domain.ErrDocumentNotReady,
	domain.ErrInvalidTransition,
	domain.ErrIngestionTimeout,
	domain.ErrIngestionCancelled,
	domain.ErrRemoteQueryFailed,
	domain.ErrStoreCreationFailed,
	domain.ErrPollFailed,
	domain.ErrUploadFailed,
	domain.ErrGatewayError,
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	for _, s := range safeMessages {
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

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, message string) {
	writeJSON(w, status, ErrorResponse{Code: code, Message: message})
}
