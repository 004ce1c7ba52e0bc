package ingest

import (
	"context"
	"time"

	"github.com/kailas-cloud/filesearch/internal/domain/operation"
	"github.com/kailas-cloud/filesearch/internal/domain/record"
)

// RecordStore loads and updates ingestion records.
type RecordStore interface {
	Get(ctx context.Context, id string) (record.Record, error)
	Update(ctx context.Context, id string, d record.Diff) error
}

// Gateway is the remote file-search API used during ingestion.
type Gateway interface {
	CreateStore(ctx context.Context, displayName string) (string, error)
	UploadFile(ctx context.Context, storeRef, path string) (operation.Operation, error)
	PollOperation(ctx context.Context, op operation.Operation) (operation.Operation, error)
}

// Waiter suspends the poll loop. Wait returns ctx.Err() when ctx ends first.
type Waiter interface {
	Wait(ctx context.Context, d time.Duration) error
}

// EventPublisher receives record lifecycle events after each persisted transition.
type EventPublisher interface {
	Publish(ctx context.Context, ev record.Event) error
}
