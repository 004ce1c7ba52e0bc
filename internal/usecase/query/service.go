package query

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/kailas-cloud/filesearch/internal/domain"
	"github.com/kailas-cloud/filesearch/internal/domain/answer"
	"github.com/kailas-cloud/filesearch/internal/domain/record"
)

// Service answers questions against an owner's indexed documents.
// It is read-only and safe for concurrent use.
type Service struct {
	records  RecordReader
	answerer Answerer
	logger   *zap.Logger
}

// New creates a query service.
func New(records RecordReader, answerer Answerer, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{records: records, answerer: answerer, logger: logger}
}

// Query resolves the target record, asks the gateway and normalizes the answer.
// An empty recordID selects the owner's newest READY record.
func (s *Service) Query(ctx context.Context, owner, question, recordID string) (answer.Result, error) {
	if strings.TrimSpace(question) == "" {
		return answer.Result{}, fmt.Errorf("empty question: %w", domain.ErrInvalidQuestion)
	}

	rec, err := s.resolve(ctx, owner, recordID)
	if err != nil {
		return answer.Result{}, err
	}

	if !rec.HasStore() {
		return answer.Result{}, fmt.Errorf("record %s: %w", rec.ID(), domain.ErrStoreNotProvisioned)
	}

	ans, err := s.answerer.AnswerQuery(ctx, rec.StoreRef(), question)
	if err != nil {
		return answer.Result{}, fmt.Errorf("%w: %w", domain.ErrRemoteQueryFailed, err)
	}

	titles := ans.Grounding.Titles()
	if ans.Grounding != nil && len(titles) == 0 && len(ans.Grounding.Citations) > 0 {
		s.logger.Debug("Dropped incomplete grounding",
			zap.String("record_id", rec.ID()),
			zap.Int("citations", len(ans.Grounding.Citations)),
		)
	}

	return answer.Result{
		Question:       question,
		AnswerText:     ans.TextOrEmpty(),
		CitationTitles: titles,
		RecordID:       rec.ID(),
	}, nil
}

func (s *Service) resolve(ctx context.Context, owner, recordID string) (record.Record, error) {
	if recordID != "" {
		rec, err := s.records.Get(ctx, recordID)
		if err != nil {
			return record.Record{}, fmt.Errorf("get record: %w", err)
		}
		if !rec.IsOwnedBy(owner) {
			return record.Record{}, fmt.Errorf("get record: %w", domain.ErrRecordNotFound)
		}
		if rec.Status() != record.StatusReady {
			return record.Record{}, fmt.Errorf("record %s is %s: %w", rec.ID(), rec.Status(), domain.ErrDocumentNotReady)
		}
		return rec, nil
	}

	rec, err := s.records.LatestReady(ctx, owner)
	if errors.Is(err, domain.ErrRecordNotFound) {
		return record.Record{}, domain.ErrNoReadyDocument
	}
	if err != nil {
		return record.Record{}, fmt.Errorf("latest ready record: %w", err)
	}
	return rec, nil
}
