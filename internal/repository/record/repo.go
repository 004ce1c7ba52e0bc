package record

import (
	"context"
	"fmt"

	"github.com/kailas-cloud/filesearch/internal/db"
	"github.com/kailas-cloud/filesearch/internal/domain"
	domrec "github.com/kailas-cloud/filesearch/internal/domain/record"
)

// store is the consumer interface for records (ISP).
type store interface {
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error)
	Exists(ctx context.Context, key string) (bool, error)
	ZRevRange(ctx context.Context, key string, offset, limit int) ([]string, error)
	Atomic(ctx context.Context, tx *db.Tx) error
}

// Repo stores records as hashes with per-owner sorted-set indexes scored by
// creation time: one over all records and one per status.
type Repo struct {
	store  store
	prefix string
}

// New creates a record repository. prefix namespaces every key.
func New(s store, prefix string) *Repo {
	return &Repo{store: s, prefix: prefix}
}

// Create stores a new record and indexes it.
func (r *Repo) Create(ctx context.Context, rec *domrec.Record) error {
	key := r.recordKey(rec.ID())
	exists, err := r.store.Exists(ctx, key)
	if err != nil {
		return fmt.Errorf("check exists: %w", err)
	}
	if exists {
		return fmt.Errorf("record %s: %w", rec.ID(), domain.ErrRecordExists)
	}

	tx := db.NewTx().
		HSet(key, recordToHash(rec)).
		ZAdd(r.ownerKey(rec.Owner()), score(rec.CreatedAt()), rec.ID()).
		ZAdd(r.statusKey(rec.Owner(), rec.Status()), score(rec.CreatedAt()), rec.ID())
	if err := r.store.Atomic(ctx, tx); err != nil {
		return fmt.Errorf("create record %s: %w", rec.ID(), err)
	}
	return nil
}

// Get retrieves a record by ID.
func (r *Repo) Get(ctx context.Context, id string) (domrec.Record, error) {
	m, err := r.store.HGetAll(ctx, r.recordKey(id))
	if err != nil {
		return domrec.Record{}, fmt.Errorf("hgetall record %s: %w", id, err)
	}
	if len(m) == 0 {
		return domrec.Record{}, domain.ErrRecordNotFound
	}
	rec, err := recordFromHash(m)
	if err != nil {
		return domrec.Record{}, fmt.Errorf("parse record %s: %w", id, err)
	}
	return rec, nil
}

// Update applies a diff. A status change moves the record between status indexes
// in the same transaction.
func (r *Repo) Update(ctx context.Context, id string, d domrec.Diff) error {
	if d.IsEmpty() && d.UpdatedAt.IsZero() {
		return nil
	}

	cur, err := r.Get(ctx, id)
	if err != nil {
		return err
	}

	tx := db.NewTx().HSet(r.recordKey(id), diffToHash(d))
	if d.Status != nil && *d.Status != cur.Status() {
		tx.ZRem(r.statusKey(cur.Owner(), cur.Status()), id).
			ZAdd(r.statusKey(cur.Owner(), *d.Status), score(cur.CreatedAt()), id)
	}
	if err := r.store.Atomic(ctx, tx); err != nil {
		return fmt.Errorf("update record %s: %w", id, err)
	}
	return nil
}

// ListByOwner returns owner's records newest first. An empty status matches all.
// next advances past every index entry read, including dangling ones.
func (r *Repo) ListByOwner(
	ctx context.Context, owner string, status domrec.Status, offset, limit int,
) ([]domrec.Record, int, error) {
	idx := r.ownerKey(owner)
	if status != "" {
		idx = r.statusKey(owner, status)
	}

	// one extra member tells whether another page exists
	ids, err := r.store.ZRevRange(ctx, idx, offset, limit+1)
	if err != nil {
		return nil, 0, fmt.Errorf("range %s: %w", idx, err)
	}
	next := 0
	if len(ids) > limit {
		ids = ids[:limit]
		next = offset + len(ids)
	}

	recs, err := r.load(ctx, ids)
	if err != nil {
		return nil, 0, err
	}
	return recs, next, nil
}

// LatestReady returns the most recently created READY record of owner.
func (r *Repo) LatestReady(ctx context.Context, owner string) (domrec.Record, error) {
	ids, err := r.store.ZRevRange(ctx, r.statusKey(owner, domrec.StatusReady), 0, 1)
	if err != nil {
		return domrec.Record{}, fmt.Errorf("range ready records: %w", err)
	}
	if len(ids) == 0 {
		return domrec.Record{}, domain.ErrRecordNotFound
	}
	return r.Get(ctx, ids[0])
}

func (r *Repo) load(ctx context.Context, ids []string) ([]domrec.Record, error) {
	if len(ids) == 0 {
		return []domrec.Record{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = r.recordKey(id)
	}
	results, err := r.store.HGetAllMulti(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("hgetall multi records: %w", err)
	}

	recs := make([]domrec.Record, 0, len(results))
	for i, m := range results {
		if len(m) == 0 {
			continue // index entry without hash
		}
		rec, err := recordFromHash(m)
		if err != nil {
			return nil, fmt.Errorf("parse record %s: %w", ids[i], err)
		}
		recs = append(recs, rec)
	}
	return recs, nil
}

// Redis key patterns: {prefix}record:{id}, {prefix}owner:{owner}:records,
// {prefix}owner:{owner}:status:{STATUS}

func (r *Repo) recordKey(id string) string {
	return fmt.Sprintf("%srecord:%s", r.prefix, id)
}

func (r *Repo) ownerKey(owner string) string {
	return fmt.Sprintf("%sowner:%s:records", r.prefix, owner)
}

func (r *Repo) statusKey(owner string, status domrec.Status) string {
	return fmt.Sprintf("%sowner:%s:status:%s", r.prefix, owner, status)
}
