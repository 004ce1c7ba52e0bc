package filesearch

import (
	"path/filepath"
	"time"

	"github.com/kailas-cloud/filesearch/internal/domain/answer"
	domrec "github.com/kailas-cloud/filesearch/internal/domain/record"
)

// Status is the ingestion status of a record.
type Status string

// Record statuses.
const (
	StatusCreated    Status = "CREATED"
	StatusUploading  Status = "UPLOADING"
	StatusProcessing Status = "PROCESSING"
	StatusReady      Status = "READY"
	StatusFailed     Status = "FAILED"
)

// Record is one uploaded document and its remote store.
type Record struct {
	ID           string
	Owner        string
	Title        string
	File         string // base name of the stored upload
	StoreName    string // empty until a store is provisioned
	Status       Status
	ErrorMessage string
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// ListOptions filters and paginates RecordService.List.
type ListOptions struct {
	Status Status // empty matches all
	Cursor string
	Limit  int
}

// Page is one page of records, newest first. NextCursor is empty on the last page.
type Page struct {
	Records    []Record
	NextCursor string
}

// Answer is a grounded answer to a question.
type Answer struct {
	Question string
	Text     string
	Sources  []string // citation titles, in order
	RecordID string
}

func recordFromDomain(r *domrec.Record) Record {
	rec := Record{
		ID:           r.ID(),
		Owner:        r.Owner(),
		Title:        r.Title(),
		StoreName:    r.StoreRef(),
		Status:       Status(r.Status()),
		ErrorMessage: r.ErrorMessage(),
		Active:       r.Active(),
		CreatedAt:    r.CreatedAt(),
		UpdatedAt:    r.UpdatedAt(),
	}
	if r.SourceFile() != "" {
		rec.File = filepath.Base(r.SourceFile())
	}
	return rec
}

func answerFromDomain(r answer.Result) Answer {
	return Answer{
		Question: r.Question,
		Text:     r.AnswerText,
		Sources:  r.CitationTitles,
		RecordID: r.RecordID,
	}
}
