package filesearch

import (
	"context"
	"fmt"
	"time"

	"github.com/kailas-cloud/filesearch/internal/domain/answer"
)

type queryUseCase interface {
	Query(ctx context.Context, owner, question, recordID string) (answer.Result, error)
}

// QueryService answers questions for one owner.
type QueryService struct {
	owner string
	svc   queryUseCase
	obs   *observer
}

// Ask answers question against recordID, or against the owner's most
// recent READY record when recordID is empty.
func (s *QueryService) Ask(ctx context.Context, question, recordID string) (ans Answer, err error) {
	start := time.Now()
	defer func() { s.obs.observe("query", start, err) }()

	res, err := s.svc.Query(ctx, s.owner, question, recordID)
	if err != nil {
		return Answer{}, fmt.Errorf("query: %w", err)
	}
	return answerFromDomain(res), nil
}
