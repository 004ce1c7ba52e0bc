package redis

import (
	"context"

	"github.com/kailas-cloud/filesearch/internal/db"
)

// ZAdd adds or rescores a sorted-set member.
func (s *Store) ZAdd(ctx context.Context, key string, score float64, member string) error {
	cmd := s.b().Zadd().Key(key).ScoreMember().ScoreMember(score, member).Build()
	if err := s.do(ctx, cmd).Error(); err != nil {
		return &db.Error{Op: db.OpZAdd, Err: err}
	}
	return nil
}

// ZRevRange returns up to limit members by descending score, skipping offset.
func (s *Store) ZRevRange(ctx context.Context, key string, offset, limit int) ([]string, error) {
	if limit <= 0 {
		return nil, nil
	}
	start := int64(offset)
	stop := start + int64(limit) - 1
	cmd := s.b().Zrevrange().Key(key).Start(start).Stop(stop).Build()
	members, err := s.do(ctx, cmd).AsStrSlice()
	if err != nil {
		return nil, &db.Error{Op: db.OpZRevRange, Err: err}
	}
	return members, nil
}
