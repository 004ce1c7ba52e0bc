package redis

import (
	"context"
	"fmt"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/filesearch/internal/db"
)

// Atomic applies the transaction as one MULTI/EXEC pipeline.
func (s *Store) Atomic(ctx context.Context, tx *db.Tx) error {
	muts := tx.Mutations()
	if len(muts) == 0 {
		return nil
	}

	cmds := make([]rueidis.Completed, 0, len(muts)+2)
	cmds = append(cmds, s.b().Multi().Build())
	for _, m := range muts {
		switch m.Kind {
		case db.MutationHSet:
			cmds = append(cmds, s.hsetCmd(m.Key, m.Fields))
		case db.MutationZAdd:
			cmds = append(cmds, s.b().Zadd().Key(m.Key).ScoreMember().ScoreMember(m.Score, m.Member).Build())
		case db.MutationZRem:
			cmds = append(cmds, s.b().Zrem().Key(m.Key).Member(m.Member).Build())
		default:
			return fmt.Errorf("unknown mutation kind %d", m.Kind)
		}
	}
	cmds = append(cmds, s.b().Exec().Build())

	results := s.client.DoMulti(ctx, cmds...)
	for _, res := range results[:len(results)-1] {
		if err := res.Error(); err != nil {
			return &db.Error{Op: db.OpExec, Err: err}
		}
	}

	exec := results[len(results)-1]
	if err := exec.Error(); err != nil {
		if rueidis.IsRedisNil(err) {
			return &db.Error{Op: db.OpExec, Err: db.ErrTxAborted}
		}
		return &db.Error{Op: db.OpExec, Err: err}
	}
	replies, err := exec.ToArray()
	if err != nil {
		return &db.Error{Op: db.OpExec, Err: err}
	}
	for i, r := range replies {
		if err := r.Error(); err != nil {
			return &db.Error{Op: db.OpExec, Err: fmt.Errorf("command %d: %w", i, err)}
		}
	}
	return nil
}
