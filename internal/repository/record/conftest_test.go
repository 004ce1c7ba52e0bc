package record

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/kailas-cloud/filesearch/internal/db"
	domrec "github.com/kailas-cloud/filesearch/internal/domain/record"
)

const testPrefix = "fs:"

// memStore implements the consumer interface over in-memory hashes and sorted sets.
// Fn fields override the default behaviour for error injection.
type memStore struct {
	hashes map[string]map[string]string
	zsets  map[string]map[string]float64
	txs    []*db.Tx

	existsFn    func(ctx context.Context, key string) (bool, error)
	hgetAllFn   func(ctx context.Context, key string) (map[string]string, error)
	zrevRangeFn func(ctx context.Context, key string, offset, limit int) ([]string, error)
	atomicFn    func(ctx context.Context, tx *db.Tx) error
}

func newMemStore() *memStore {
	return &memStore{
		hashes: make(map[string]map[string]string),
		zsets:  make(map[string]map[string]float64),
	}
}

func (m *memStore) HGetAll(ctx context.Context, key string) (map[string]string, error) {
	if m.hgetAllFn != nil {
		return m.hgetAllFn(ctx, key)
	}
	out := make(map[string]string, len(m.hashes[key]))
	for k, v := range m.hashes[key] {
		out[k] = v
	}
	return out, nil
}

func (m *memStore) HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error) {
	out := make([]map[string]string, len(keys))
	for i, k := range keys {
		h, err := m.HGetAll(ctx, k)
		if err != nil {
			return nil, err
		}
		out[i] = h
	}
	return out, nil
}

func (m *memStore) Exists(ctx context.Context, key string) (bool, error) {
	if m.existsFn != nil {
		return m.existsFn(ctx, key)
	}
	_, ok := m.hashes[key]
	return ok, nil
}

func (m *memStore) ZRevRange(ctx context.Context, key string, offset, limit int) ([]string, error) {
	if m.zrevRangeFn != nil {
		return m.zrevRangeFn(ctx, key, offset, limit)
	}
	members := make([]string, 0, len(m.zsets[key]))
	for member := range m.zsets[key] {
		members = append(members, member)
	}
	scores := m.zsets[key]
	sort.Slice(members, func(i, j int) bool {
		if scores[members[i]] != scores[members[j]] {
			return scores[members[i]] > scores[members[j]]
		}
		return members[i] > members[j]
	})
	if offset >= len(members) {
		return []string{}, nil
	}
	end := offset + limit
	if end > len(members) {
		end = len(members)
	}
	return members[offset:end], nil
}

func (m *memStore) Atomic(ctx context.Context, tx *db.Tx) error {
	m.txs = append(m.txs, tx)
	if m.atomicFn != nil {
		return m.atomicFn(ctx, tx)
	}
	for _, mut := range tx.Mutations() {
		switch mut.Kind {
		case db.MutationHSet:
			if m.hashes[mut.Key] == nil {
				m.hashes[mut.Key] = make(map[string]string)
			}
			for k, v := range mut.Fields {
				m.hashes[mut.Key][k] = v
			}
		case db.MutationZAdd:
			if m.zsets[mut.Key] == nil {
				m.zsets[mut.Key] = make(map[string]float64)
			}
			m.zsets[mut.Key][mut.Member] = mut.Score
		case db.MutationZRem:
			delete(m.zsets[mut.Key], mut.Member)
		}
	}
	return nil
}

// members returns the members of a sorted set in any order.
func (m *memStore) members(key string) map[string]bool {
	out := make(map[string]bool, len(m.zsets[key]))
	for member := range m.zsets[key] {
		out[member] = true
	}
	return out
}

var t0 = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func newRecord(t *testing.T, id, owner string, created time.Time) domrec.Record {
	t.Helper()
	rec, err := domrec.New(id, owner, "Doc "+id, "/uploads/"+id+".pdf", domrec.StatusUploading, created)
	if err != nil {
		t.Fatalf("new record: %v", err)
	}
	return rec
}

func mustCreate(t *testing.T, repo *Repo, rec domrec.Record) {
	t.Helper()
	if err := repo.Create(context.Background(), &rec); err != nil {
		t.Fatalf("create %s: %v", rec.ID(), err)
	}
}
