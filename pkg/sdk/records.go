package filesearch

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	domrec "github.com/kailas-cloud/filesearch/internal/domain/record"
	recorduc "github.com/kailas-cloud/filesearch/internal/usecase/record"
)

type recordUseCase interface {
	Create(ctx context.Context, owner, title string) (domrec.Record, error)
	Upload(ctx context.Context, owner, title, filename string, content io.Reader) (domrec.Record, error)
	Ingest(ctx context.Context, owner, id string) (domrec.Record, error)
	Get(ctx context.Context, owner, id string) (domrec.Record, error)
	List(ctx context.Context, owner string, opts recorduc.ListOptions) (recorduc.ListResult, error)
	Rename(ctx context.Context, owner, id, title string) (domrec.Record, error)
	Deactivate(ctx context.Context, owner, id string) error
}

// RecordService manages the records of one owner.
type RecordService struct {
	owner string
	svc   recordUseCase
	obs   *observer
}

// Create stores an empty record.
func (s *RecordService) Create(ctx context.Context, title string) (rec Record, err error) {
	start := time.Now()
	defer func() { s.obs.observe("record_create", start, err) }()

	r, err := s.svc.Create(ctx, s.owner, title)
	if err != nil {
		return Record{}, fmt.Errorf("create record: %w", err)
	}
	return recordFromDomain(&r), nil
}

// Upload stores a PDF and ingests it before returning. When ingestion fails
// the FAILED record is returned together with the error.
func (s *RecordService) Upload(
	ctx context.Context, title, filename string, content io.Reader,
) (rec Record, err error) {
	start := time.Now()
	defer func() { s.obs.observe("record_upload", start, err) }()

	r, err := s.svc.Upload(ctx, s.owner, title, filename, content)
	if err != nil {
		if r.ID() != "" {
			return recordFromDomain(&r), fmt.Errorf("upload %s: %w", filename, err)
		}
		return Record{}, fmt.Errorf("upload %s: %w", filename, err)
	}
	return recordFromDomain(&r), nil
}

// UploadFile uploads a PDF from the local filesystem.
func (s *RecordService) UploadFile(ctx context.Context, path, title string) (Record, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return Record{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	return s.Upload(ctx, title, filepath.Base(path), f)
}

// Ingest re-runs ingestion for a record.
func (s *RecordService) Ingest(ctx context.Context, id string) (rec Record, err error) {
	start := time.Now()
	defer func() { s.obs.observe("record_ingest", start, err) }()

	r, err := s.svc.Ingest(ctx, s.owner, id)
	if err != nil {
		if r.ID() != "" {
			return recordFromDomain(&r), fmt.Errorf("ingest %s: %w", id, err)
		}
		return Record{}, fmt.Errorf("ingest %s: %w", id, err)
	}
	return recordFromDomain(&r), nil
}

// Get returns a record by ID.
func (s *RecordService) Get(ctx context.Context, id string) (rec Record, err error) {
	start := time.Now()
	defer func() { s.obs.observe("record_get", start, err) }()

	r, err := s.svc.Get(ctx, s.owner, id)
	if err != nil {
		return Record{}, fmt.Errorf("get record %s: %w", id, err)
	}
	return recordFromDomain(&r), nil
}

// List returns one page of records, newest first.
func (s *RecordService) List(ctx context.Context, opts ListOptions) (page Page, err error) {
	start := time.Now()
	defer func() { s.obs.observe("record_list", start, err) }()

	res, err := s.svc.List(ctx, s.owner, recorduc.ListOptions{
		Status: domrec.Status(opts.Status),
		Cursor: opts.Cursor,
		Limit:  opts.Limit,
	})
	if err != nil {
		return Page{}, fmt.Errorf("list records: %w", err)
	}

	page.Records = make([]Record, len(res.Records))
	for i := range res.Records {
		page.Records[i] = recordFromDomain(&res.Records[i])
	}
	page.NextCursor = res.NextCursor
	return page, nil
}

// Rename changes a record's title.
func (s *RecordService) Rename(ctx context.Context, id, title string) (rec Record, err error) {
	start := time.Now()
	defer func() { s.obs.observe("record_rename", start, err) }()

	r, err := s.svc.Rename(ctx, s.owner, id, title)
	if err != nil {
		return Record{}, fmt.Errorf("rename record %s: %w", id, err)
	}
	return recordFromDomain(&r), nil
}

// Deactivate soft-deletes a record.
func (s *RecordService) Deactivate(ctx context.Context, id string) (err error) {
	start := time.Now()
	defer func() { s.obs.observe("record_deactivate", start, err) }()

	if err = s.svc.Deactivate(ctx, s.owner, id); err != nil {
		return fmt.Errorf("deactivate record %s: %w", id, err)
	}
	return nil
}
