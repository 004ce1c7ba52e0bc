package filesearch

import (
	"context"
	"io"

	"github.com/kailas-cloud/filesearch/internal/domain/answer"
	domrec "github.com/kailas-cloud/filesearch/internal/domain/record"
	healthuc "github.com/kailas-cloud/filesearch/internal/usecase/health"
	recorduc "github.com/kailas-cloud/filesearch/internal/usecase/record"
)

// --- recordUseCase mock ---

type mockRecordUC struct {
	createFn     func(ctx context.Context, owner, title string) (domrec.Record, error)
	uploadFn     func(ctx context.Context, owner, title, filename string, content io.Reader) (domrec.Record, error)
	ingestFn     func(ctx context.Context, owner, id string) (domrec.Record, error)
	getFn        func(ctx context.Context, owner, id string) (domrec.Record, error)
	listFn       func(ctx context.Context, owner string, opts recorduc.ListOptions) (recorduc.ListResult, error)
	renameFn     func(ctx context.Context, owner, id, title string) (domrec.Record, error)
	deactivateFn func(ctx context.Context, owner, id string) error
}

func (m *mockRecordUC) Create(ctx context.Context, owner, title string) (domrec.Record, error) {
	return m.createFn(ctx, owner, title)
}

func (m *mockRecordUC) Upload(
	ctx context.Context, owner, title, filename string, content io.Reader,
) (domrec.Record, error) {
	return m.uploadFn(ctx, owner, title, filename, content)
}

func (m *mockRecordUC) Ingest(ctx context.Context, owner, id string) (domrec.Record, error) {
	return m.ingestFn(ctx, owner, id)
}

func (m *mockRecordUC) Get(ctx context.Context, owner, id string) (domrec.Record, error) {
	return m.getFn(ctx, owner, id)
}

func (m *mockRecordUC) List(
	ctx context.Context, owner string, opts recorduc.ListOptions,
) (recorduc.ListResult, error) {
	return m.listFn(ctx, owner, opts)
}

func (m *mockRecordUC) Rename(ctx context.Context, owner, id, title string) (domrec.Record, error) {
	return m.renameFn(ctx, owner, id, title)
}

func (m *mockRecordUC) Deactivate(ctx context.Context, owner, id string) error {
	return m.deactivateFn(ctx, owner, id)
}

// --- queryUseCase mock ---

type mockQueryUC struct {
	queryFn func(ctx context.Context, owner, question, recordID string) (answer.Result, error)
}

func (m *mockQueryUC) Query(ctx context.Context, owner, question, recordID string) (answer.Result, error) {
	return m.queryFn(ctx, owner, question, recordID)
}

// --- healthUseCase mock ---

type mockHealthUC struct {
	report healthuc.Report
}

func (m *mockHealthUC) Check(context.Context) healthuc.Report { return m.report }
