package chi

import (
	"context"
	"io"

	"github.com/kailas-cloud/filesearch/internal/domain/answer"
	"github.com/kailas-cloud/filesearch/internal/domain/record"
	healthuc "github.com/kailas-cloud/filesearch/internal/usecase/health"
	recorduc "github.com/kailas-cloud/filesearch/internal/usecase/record"
)

// RecordService manages an owner's records.
type RecordService interface {
	Create(ctx context.Context, owner, title string) (record.Record, error)
	Upload(ctx context.Context, owner, title, filename string, content io.Reader) (record.Record, error)
	Ingest(ctx context.Context, owner, id string) (record.Record, error)
	Get(ctx context.Context, owner, id string) (record.Record, error)
	List(ctx context.Context, owner string, opts recorduc.ListOptions) (recorduc.ListResult, error)
	Rename(ctx context.Context, owner, id, title string) (record.Record, error)
	Deactivate(ctx context.Context, owner, id string) error
}

// QueryService answers questions against ingested records.
type QueryService interface {
	Query(ctx context.Context, owner, question, recordID string) (answer.Result, error)
}

// HealthService reports component health.
type HealthService interface {
	Check(ctx context.Context) healthuc.Report
}
