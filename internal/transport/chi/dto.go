package chi

import (
	"path/filepath"
	"time"

	"github.com/kailas-cloud/filesearch/internal/domain/record"
)

// RecordResponse is the JSON view of a record.
type RecordResponse struct {
	ID           string    `json:"id"`
	Owner        string    `json:"owner"`
	Title        string    `json:"title"`
	File         string    `json:"file,omitempty"`
	StoreName    *string   `json:"store_name"`
	Status       string    `json:"status"`
	ErrorMessage *string   `json:"error_message"`
	Active       bool      `json:"active"`
	Created      time.Time `json:"created"`
	Updated      time.Time `json:"updated"`
}

// RecordListResponse is one page of records.
type RecordListResponse struct {
	Items      []RecordResponse `json:"items"`
	HasMore    bool             `json:"has_more"`
	NextCursor *string          `json:"next_cursor,omitempty"`
}

// IngestionFailureResponse carries the FAILED record with the error.
type IngestionFailureResponse struct {
	Code    ErrorCode      `json:"code"`
	Message string         `json:"message"`
	Record  RecordResponse `json:"record"`
}

// CreateRecordRequest is the body of POST /stores.
type CreateRecordRequest struct {
	Title string `json:"title"`
}

// UpdateRecordRequest is the body of PATCH /stores/{id}.
type UpdateRecordRequest struct {
	Title string `json:"title"`
}

// QueryRequest is the body of POST /query.
type QueryRequest struct {
	Query      string `json:"query"`
	DocumentID string `json:"document_id,omitempty"`
}

// recordToResponse exposes only the stored file name, never the server path.
func recordToResponse(r *record.Record) RecordResponse {
	resp := RecordResponse{
		ID:      r.ID(),
		Owner:   r.Owner(),
		Title:   r.Title(),
		Status:  r.Status().String(),
		Active:  r.Active(),
		Created: r.CreatedAt(),
		Updated: r.UpdatedAt(),
	}
	if r.SourceFile() != "" {
		resp.File = filepath.Base(r.SourceFile())
	}
	if r.StoreRef() != "" {
		ref := r.StoreRef()
		resp.StoreName = &ref
	}
	if r.ErrorMessage() != "" {
		msg := r.ErrorMessage()
		resp.ErrorMessage = &msg
	}
	return resp
}
