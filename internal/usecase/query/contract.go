package query

import (
	"context"

	"github.com/kailas-cloud/filesearch/internal/domain/answer"
	"github.com/kailas-cloud/filesearch/internal/domain/record"
)

// RecordReader resolves the record a question is asked against.
type RecordReader interface {
	Get(ctx context.Context, id string) (record.Record, error)
	// LatestReady returns the most recently created READY record of owner
	// or domain.ErrRecordNotFound when there is none.
	LatestReady(ctx context.Context, owner string) (record.Record, error)
}

// Answerer asks a question against a remote store.
type Answerer interface {
	AnswerQuery(ctx context.Context, storeRef, question string) (answer.Answer, error)
}
