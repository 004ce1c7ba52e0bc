package record

import (
	"context"
	"io"

	domrec "github.com/kailas-cloud/filesearch/internal/domain/record"
)

// Repository defines the storage contract for ingestion records.
type Repository interface {
	Create(ctx context.Context, rec *domrec.Record) error
	Get(ctx context.Context, id string) (domrec.Record, error)
	Update(ctx context.Context, id string, d domrec.Diff) error
	// ListByOwner returns owner's records newest first. An empty status
	// matches every status. next is the offset of the following page, or 0
	// when none remains; it counts index entries consumed, not records returned.
	ListByOwner(ctx context.Context, owner string, status domrec.Status, offset, limit int) (
		recs []domrec.Record, next int, err error,
	)
}

// BlobStore keeps uploaded file content.
type BlobStore interface {
	Save(ctx context.Context, owner, filename string, r io.Reader) (path string, err error)
	Remove(ctx context.Context, path string) error
}

// Ingester runs the ingestion state machine for a record.
type Ingester interface {
	Ingest(ctx context.Context, recordID string) (domrec.Record, error)
}
