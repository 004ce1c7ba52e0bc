package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrRecordNotFound signals a missing record or one not owned by the caller.
	ErrRecordNotFound = errors.New("record not found")
	// ErrRecordExists signals an ID collision on create.
	ErrRecordExists = errors.New("record already exists")
	// ErrInvalidTransition signals a status change the record lifecycle does not allow.
	ErrInvalidTransition = errors.New("invalid status transition")
	// ErrInvalidFile signals an upload the service does not accept.
	ErrInvalidFile = errors.New("invalid file")
	// ErrInvalidQuestion signals an empty or unusable query text.
	ErrInvalidQuestion = errors.New("invalid question")
	// ErrInvalidTitle signals an empty or oversized record title.
	ErrInvalidTitle = errors.New("invalid title")
	// ErrInvalidCursor signals a malformed pagination cursor.
	ErrInvalidCursor = errors.New("invalid cursor")

	// ErrStoreCreationFailed signals that the remote search store could not be created.
	ErrStoreCreationFailed = errors.New("remote store creation failed")
	// ErrUploadFailed signals that the file could not be uploaded into the remote store.
	ErrUploadFailed = errors.New("remote upload failed")
	// ErrPollFailed signals that the upload operation status could not be fetched.
	ErrPollFailed = errors.New("remote operation poll failed")
	// ErrIngestionTimeout signals that indexing did not finish within the wait budget.
	ErrIngestionTimeout = errors.New("ingestion timeout")
	// ErrIngestionCancelled signals that the caller cancelled an ingestion in flight.
	ErrIngestionCancelled = errors.New("ingestion cancelled")

	// ErrNoReadyDocument signals that the owner has no record in READY state.
	ErrNoReadyDocument = errors.New("no ready document")
	// ErrDocumentNotReady signals a query against a record that is not READY.
	ErrDocumentNotReady = errors.New("document not ready")
	// ErrStoreNotProvisioned signals a resolved record without a remote store reference.
	ErrStoreNotProvisioned = errors.New("store not provisioned")
	// ErrRemoteQueryFailed signals that the remote answer call failed.
	ErrRemoteQueryFailed = errors.New("remote query failed")

	// ErrGatewayError signals a failure reported by the remote file-search API.
	ErrGatewayError = errors.New("file search gateway error")
)

// Step names the ingestion step an IngestionError happened in.
type Step string

const (
	// StepBegin is the initial UPLOADING write.
	StepBegin Step = "begin"
	// StepCreateStore is the remote store creation.
	StepCreateStore Step = "create_store"
	// StepUpload is the file upload into the store.
	StepUpload Step = "upload"
	// StepPoll is the wait for the upload operation to complete.
	StepPoll Step = "poll"
	// StepFinish is the final READY write.
	StepFinish Step = "finish"
)

// IngestionError wraps an ingestion failure with the record and step it happened in.
type IngestionError struct {
	RecordID string
	Step     Step
	Err      error
}

func (e *IngestionError) Error() string {
	return fmt.Sprintf("ingest %s: %s: %s", e.RecordID, e.Step, e.Err.Error())
}

func (e *IngestionError) Unwrap() error { return e.Err }

// NewIngestionError creates an IngestionError.
func NewIngestionError(recordID string, step Step, err error) error {
	return &IngestionError{RecordID: recordID, Step: step, Err: err}
}
