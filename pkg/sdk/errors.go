package filesearch

import "github.com/kailas-cloud/filesearch/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrNotFound            = domain.ErrRecordNotFound
	ErrInvalidFile         = domain.ErrInvalidFile
	ErrInvalidTitle        = domain.ErrInvalidTitle
	ErrInvalidQuestion     = domain.ErrInvalidQuestion
	ErrInvalidCursor       = domain.ErrInvalidCursor
	ErrNoReadyDocument     = domain.ErrNoReadyDocument
	ErrDocumentNotReady    = domain.ErrDocumentNotReady
	ErrStoreNotProvisioned = domain.ErrStoreNotProvisioned
	ErrIngestionTimeout    = domain.ErrIngestionTimeout
	ErrIngestionCancelled  = domain.ErrIngestionCancelled
	ErrUploadFailed        = domain.ErrUploadFailed
	ErrRemoteQueryFailed   = domain.ErrRemoteQueryFailed
)
