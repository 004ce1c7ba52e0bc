// Package recordpg stores records in PostgreSQL.
package recordpg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"github.com/kailas-cloud/filesearch/internal/db"
	"github.com/kailas-cloud/filesearch/internal/domain"
	domrec "github.com/kailas-cloud/filesearch/internal/domain/record"
)

const columns = `id, owner, title, source_file, store_ref, status, error_message, active, created_at, updated_at`

// uniqueViolation is the SQLSTATE for duplicate keys.
const uniqueViolation pq.ErrorCode = "23505"

// querier is satisfied by *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// Repo implements the record repository over a records table.
type Repo struct {
	q querier
}

// New creates a Postgres record repository.
func New(q querier) *Repo {
	return &Repo{q: q}
}

// Create inserts a new record.
func (r *Repo) Create(ctx context.Context, rec *domrec.Record) error {
	f := rec.Fields()
	_, err := r.q.ExecContext(ctx,
		`INSERT INTO records (`+columns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		f.ID, f.Owner, f.Title, f.SourceFile, nullable(f.StoreRef), string(f.Status),
		nullable(f.ErrorMessage), f.Active, f.CreatedAt, f.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("record %s: %w", f.ID, domain.ErrRecordExists)
		}
		return &db.Error{Op: db.OpInsert, Err: err}
	}
	return nil
}

// Get retrieves a record by ID.
func (r *Repo) Get(ctx context.Context, id string) (domrec.Record, error) {
	row := r.q.QueryRowContext(ctx, `SELECT `+columns+` FROM records WHERE id = $1`, id)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domrec.Record{}, domain.ErrRecordNotFound
	}
	if err != nil {
		return domrec.Record{}, &db.Error{Op: db.OpSelect, Err: err}
	}
	return rec, nil
}

// Update applies the set fields of a diff.
func (r *Repo) Update(ctx context.Context, id string, d domrec.Diff) error {
	query, args, ok := buildUpdate(id, d)
	if !ok {
		return nil
	}
	res, err := r.q.ExecContext(ctx, query, args...)
	if err != nil {
		return &db.Error{Op: db.OpUpdate, Err: err}
	}
	n, err := res.RowsAffected()
	if err != nil {
		return &db.Error{Op: db.OpUpdate, Err: err}
	}
	if n == 0 {
		return domain.ErrRecordNotFound
	}
	return nil
}

// ListByOwner returns owner's records newest first. An empty status matches all.
func (r *Repo) ListByOwner(
	ctx context.Context, owner string, status domrec.Status, offset, limit int,
) ([]domrec.Record, int, error) {
	query, args := buildList(owner, status, offset, limit+1)
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, &db.Error{Op: db.OpSelect, Err: err}
	}
	defer rows.Close()

	recs := make([]domrec.Record, 0, limit)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, 0, &db.Error{Op: db.OpSelect, Err: err}
		}
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, &db.Error{Op: db.OpSelect, Err: err}
	}

	next := 0
	if len(recs) > limit {
		recs = recs[:limit]
		next = offset + limit
	}
	return recs, next, nil
}

// LatestReady returns the most recently created READY record of owner.
func (r *Repo) LatestReady(ctx context.Context, owner string) (domrec.Record, error) {
	query, args := buildList(owner, domrec.StatusReady, 0, 1)
	rec, err := scanRecord(r.q.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return domrec.Record{}, domain.ErrRecordNotFound
	}
	if err != nil {
		return domrec.Record{}, &db.Error{Op: db.OpSelect, Err: err}
	}
	return rec, nil
}

// buildUpdate renders an UPDATE for the set fields of d. ok is false when
// there is nothing to write.
func buildUpdate(id string, d domrec.Diff) (query string, args []any, ok bool) {
	var sets []string
	add := func(col string, v any) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}

	if d.Status != nil {
		add("status", string(*d.Status))
	}
	if d.StoreRef != nil {
		add("store_ref", nullable(*d.StoreRef))
	}
	if d.ErrorMessage != nil {
		add("error_message", nullable(*d.ErrorMessage))
	}
	if d.Title != nil {
		add("title", *d.Title)
	}
	if d.Active != nil {
		add("active", *d.Active)
	}
	if !d.UpdatedAt.IsZero() {
		add("updated_at", d.UpdatedAt)
	}
	if len(sets) == 0 {
		return "", nil, false
	}

	args = append(args, id)
	query = fmt.Sprintf("UPDATE records SET %s WHERE id = $%d", strings.Join(sets, ", "), len(args))
	return query, args, true
}

func buildList(owner string, status domrec.Status, offset, limit int) (string, []any) {
	var b strings.Builder
	args := []any{owner}
	b.WriteString(`SELECT ` + columns + ` FROM records WHERE owner = $1`)
	if status != "" {
		args = append(args, string(status))
		fmt.Fprintf(&b, " AND status = $%d", len(args))
	}
	b.WriteString(" ORDER BY created_at DESC, id DESC")
	args = append(args, limit)
	fmt.Fprintf(&b, " LIMIT $%d", len(args))
	if offset > 0 {
		args = append(args, offset)
		fmt.Fprintf(&b, " OFFSET $%d", len(args))
	}
	return b.String(), args
}

func scanRecord(sc scanner) (domrec.Record, error) {
	var (
		f        domrec.Fields
		status   string
		storeRef sql.NullString
		errMsg   sql.NullString
	)
	err := sc.Scan(&f.ID, &f.Owner, &f.Title, &f.SourceFile, &storeRef, &status,
		&errMsg, &f.Active, &f.CreatedAt, &f.UpdatedAt)
	if err != nil {
		return domrec.Record{}, err //nolint:wrapcheck // wrapped by caller
	}

	st, err := domrec.ParseStatus(status)
	if err != nil {
		return domrec.Record{}, fmt.Errorf("record %s: %w", f.ID, err)
	}
	f.Status = st
	f.StoreRef = storeRef.String
	f.ErrorMessage = errMsg.String
	f.CreatedAt = f.CreatedAt.UTC()
	f.UpdatedAt = f.UpdatedAt.UTC()
	return domrec.Reconstruct(f), nil
}

// nullable stores the empty string as NULL.
func nullable(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}
