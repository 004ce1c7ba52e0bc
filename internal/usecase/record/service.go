package record

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kailas-cloud/filesearch/internal/domain"
	domrec "github.com/kailas-cloud/filesearch/internal/domain/record"
)

// ListOptions filters and paginates List.
type ListOptions struct {
	Status domrec.Status // empty matches all
	Cursor string        // opaque offset returned by a previous page
	Limit  int
}

// ListResult is one page of records.
type ListResult struct {
	Records    []domrec.Record
	NextCursor string
}

// Service handles record CRUD and the upload-then-ingest flow.
type Service struct {
	repo            Repository
	blobs           BlobStore
	ingester        Ingester
	newID           func() string
	now             func() time.Time
	defaultPageSize int
	maxPageSize     int
}

// New creates a record service.
func New(repo Repository, blobs BlobStore, ingester Ingester) *Service {
	return &Service{
		repo:            repo,
		blobs:           blobs,
		ingester:        ingester,
		newID:           uuid.NewString,
		now:             time.Now,
		defaultPageSize: 20,
		maxPageSize:     100,
	}
}

// WithPagination configures page size limits.
func (s *Service) WithPagination(defaultPageSize, maxPageSize int) *Service {
	if defaultPageSize > 0 {
		s.defaultPageSize = defaultPageSize
	}
	if maxPageSize > 0 {
		s.maxPageSize = maxPageSize
	}
	return s
}

// WithIDGenerator replaces the UUID generator.
func (s *Service) WithIDGenerator(gen func() string) *Service {
	if gen != nil {
		s.newID = gen
	}
	return s
}

// WithClock sets the time source for new records.
func (s *Service) WithClock(now func() time.Time) *Service {
	if now != nil {
		s.now = now
	}
	return s
}

// Create stores an empty record in CREATED status.
func (s *Service) Create(ctx context.Context, owner, title string) (domrec.Record, error) {
	rec, err := domrec.New(s.newID(), owner, title, "", domrec.StatusCreated, s.now())
	if err != nil {
		return domrec.Record{}, fmt.Errorf("validate record: %w", err)
	}
	if err := s.repo.Create(ctx, &rec); err != nil {
		return domrec.Record{}, fmt.Errorf("create record: %w", err)
	}
	return rec, nil
}

// Upload stores a PDF, creates its record in UPLOADING and ingests it
// synchronously. When ingestion fails the FAILED record is returned with the error.
func (s *Service) Upload(
	ctx context.Context, owner, title, filename string, content io.Reader,
) (domrec.Record, error) {
	filename = filepath.Base(strings.TrimSpace(filename))
	if !strings.EqualFold(filepath.Ext(filename), ".pdf") {
		return domrec.Record{}, fmt.Errorf("%q is not a PDF: %w", filename, domain.ErrInvalidFile)
	}
	if strings.TrimSpace(title) == "" {
		title = filename
	}

	path, err := s.blobs.Save(ctx, owner, filename, content)
	if err != nil {
		return domrec.Record{}, fmt.Errorf("save upload: %w", err)
	}

	rec, err := domrec.New(s.newID(), owner, title, path, domrec.StatusUploading, s.now())
	if err != nil {
		_ = s.blobs.Remove(ctx, path)
		return domrec.Record{}, fmt.Errorf("validate record: %w", err)
	}
	if err := s.repo.Create(ctx, &rec); err != nil {
		_ = s.blobs.Remove(ctx, path)
		return domrec.Record{}, fmt.Errorf("create record: %w", err)
	}

	return s.runIngestion(ctx, rec)
}

// Ingest re-runs ingestion for an owned record.
func (s *Service) Ingest(ctx context.Context, owner, id string) (domrec.Record, error) {
	rec, err := s.Get(ctx, owner, id)
	if err != nil {
		return domrec.Record{}, err
	}
	return s.runIngestion(ctx, rec)
}

func (s *Service) runIngestion(ctx context.Context, rec domrec.Record) (domrec.Record, error) {
	ingested, err := s.ingester.Ingest(ctx, rec.ID())
	if err != nil {
		if ingested.ID() == "" {
			ingested = rec
		}
		return ingested, fmt.Errorf("ingest record: %w", err)
	}
	return ingested, nil
}

// Get returns an owned record. Records of other owners are reported as not found.
func (s *Service) Get(ctx context.Context, owner, id string) (domrec.Record, error) {
	rec, err := s.repo.Get(ctx, id)
	if err != nil {
		return domrec.Record{}, fmt.Errorf("get record: %w", err)
	}
	if !rec.IsOwnedBy(owner) {
		return domrec.Record{}, fmt.Errorf("get record: %w", domain.ErrRecordNotFound)
	}
	return rec, nil
}

// List returns one page of owner's records, newest first.
func (s *Service) List(ctx context.Context, owner string, opts ListOptions) (ListResult, error) {
	offset := 0
	if opts.Cursor != "" {
		n, err := strconv.Atoi(opts.Cursor)
		if err != nil || n < 0 {
			return ListResult{}, fmt.Errorf("cursor %q: %w", opts.Cursor, domain.ErrInvalidCursor)
		}
		offset = n
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = s.defaultPageSize
	}
	if limit > s.maxPageSize {
		limit = s.maxPageSize
	}

	recs, next, err := s.repo.ListByOwner(ctx, owner, opts.Status, offset, limit)
	if err != nil {
		return ListResult{}, fmt.Errorf("list records: %w", err)
	}

	res := ListResult{Records: recs}
	if next > offset {
		res.NextCursor = strconv.Itoa(next)
	}
	return res, nil
}

// Rename changes the title of an owned record.
func (s *Service) Rename(ctx context.Context, owner, id, title string) (domrec.Record, error) {
	rec, err := s.Get(ctx, owner, id)
	if err != nil {
		return domrec.Record{}, err
	}
	d, err := rec.Rename(title, s.now())
	if err != nil {
		return domrec.Record{}, fmt.Errorf("rename record: %w", err)
	}
	if err := s.repo.Update(ctx, id, d); err != nil {
		return domrec.Record{}, fmt.Errorf("rename record: %w", err)
	}
	return rec, nil
}

// Deactivate soft-deletes an owned record.
func (s *Service) Deactivate(ctx context.Context, owner, id string) error {
	rec, err := s.Get(ctx, owner, id)
	if err != nil {
		return err
	}
	if !rec.Active() {
		return nil
	}
	if err := s.repo.Update(ctx, id, rec.Deactivate(s.now())); err != nil {
		return fmt.Errorf("deactivate record: %w", err)
	}
	return nil
}

// IsIngestionFailure reports whether err came from the ingestion state machine
// rather than from validation or storage before ingestion started.
func IsIngestionFailure(err error) bool {
	var ie *domain.IngestionError
	return errors.As(err, &ie)
}
