package recordpg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"reflect"
	"testing"
	"time"

	"github.com/lib/pq"

	"github.com/kailas-cloud/filesearch/internal/db/postgres"
	"github.com/kailas-cloud/filesearch/internal/domain"
	domrec "github.com/kailas-cloud/filesearch/internal/domain/record"
)

var t0 = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

// fakeRow implements scanner over a fixed column list.
type fakeRow struct {
	vals []any
	err  error
}

func (f fakeRow) Scan(dest ...any) error {
	if f.err != nil {
		return f.err
	}
	if len(dest) != len(f.vals) {
		return fmt.Errorf("scan: %d dest for %d columns", len(dest), len(f.vals))
	}
	for i, v := range f.vals {
		switch d := dest[i].(type) {
		case *string:
			*d = v.(string)
		case *bool:
			*d = v.(bool)
		case *time.Time:
			*d = v.(time.Time)
		case *sql.NullString:
			if v == nil {
				*d = sql.NullString{}
			} else {
				*d = sql.NullString{String: v.(string), Valid: true}
			}
		default:
			return fmt.Errorf("unsupported dest %T", dest[i])
		}
	}
	return nil
}

func TestBuildUpdate(t *testing.T) {
	tests := []struct {
		name      string
		diff      domrec.Diff
		wantQuery string
		wantArgs  []any
	}{
		{
			name:      "status and store",
			diff:      domrec.Diff{UpdatedAt: t0}.WithStatus(domrec.StatusProcessing).WithStoreRef("fileSearchStores/s1"),
			wantQuery: "UPDATE records SET status = $1, store_ref = $2, updated_at = $3 WHERE id = $4",
			wantArgs: []any{
				"PROCESSING", sql.NullString{String: "fileSearchStores/s1", Valid: true}, t0, "r1",
			},
		},
		{
			name:      "clear optional fields",
			diff:      domrec.Diff{UpdatedAt: t0}.WithStoreRef("").WithErrorMessage(""),
			wantQuery: "UPDATE records SET store_ref = $1, error_message = $2, updated_at = $3 WHERE id = $4",
			wantArgs:  []any{sql.NullString{}, sql.NullString{}, t0, "r1"},
		},
		{
			name:      "title and active",
			diff:      domrec.Diff{}.WithTitle("t").WithActive(false),
			wantQuery: "UPDATE records SET title = $1, active = $2 WHERE id = $3",
			wantArgs:  []any{"t", false, "r1"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			query, args, ok := buildUpdate("r1", tt.diff)
			if !ok {
				t.Fatal("expected update")
			}
			if query != tt.wantQuery {
				t.Errorf("query = %q, want %q", query, tt.wantQuery)
			}
			if !reflect.DeepEqual(args, tt.wantArgs) {
				t.Errorf("args = %#v, want %#v", args, tt.wantArgs)
			}
		})
	}
}

func TestBuildUpdate_Empty(t *testing.T) {
	if _, _, ok := buildUpdate("r1", domrec.Diff{}); ok {
		t.Error("empty diff must not produce a query")
	}
}

func TestBuildList(t *testing.T) {
	tests := []struct {
		status        domrec.Status
		offset, limit int
		wantTail      string
		wantArgs      []any
	}{
		{"", 0, 21, " ORDER BY created_at DESC, id DESC LIMIT $2", []any{"u1", 21}},
		{"", 40, 21, " ORDER BY created_at DESC, id DESC LIMIT $2 OFFSET $3", []any{"u1", 21, 40}},
		{domrec.StatusReady, 0, 1, " AND status = $2 ORDER BY created_at DESC, id DESC LIMIT $3", []any{"u1", "READY", 1}},
	}
	for _, tt := range tests {
		query, args := buildList("u1", tt.status, tt.offset, tt.limit)
		want := "SELECT " + columns + " FROM records WHERE owner = $1" + tt.wantTail
		if query != want {
			t.Errorf("query = %q, want %q", query, want)
		}
		if !reflect.DeepEqual(args, tt.wantArgs) {
			t.Errorf("args = %#v, want %#v", args, tt.wantArgs)
		}
	}
}

func TestScanRecord(t *testing.T) {
	local := t0.In(time.FixedZone("X", 3600))
	row := fakeRow{vals: []any{
		"r1", "u1", "Doc", "/uploads/a.pdf", "fileSearchStores/s1", "READY", nil, true, local, local,
	}}

	rec, err := scanRecord(row)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.ID() != "r1" || rec.Status() != domrec.StatusReady || rec.StoreRef() != "fileSearchStores/s1" {
		t.Errorf("unexpected record: %+v", rec.Fields())
	}
	if rec.ErrorMessage() != "" {
		t.Errorf("ErrorMessage = %q, want empty for NULL", rec.ErrorMessage())
	}
	if rec.CreatedAt().Location() != time.UTC {
		t.Errorf("CreatedAt location = %v, want UTC", rec.CreatedAt().Location())
	}
}

func TestScanRecord_BadStatus(t *testing.T) {
	row := fakeRow{vals: []any{"r1", "u1", "Doc", "", nil, "BOGUS", nil, true, t0, t0}}
	if _, err := scanRecord(row); err == nil {
		t.Fatal("expected error for unknown status")
	}
}

func TestScanRecord_NoRows(t *testing.T) {
	_, err := scanRecord(fakeRow{err: sql.ErrNoRows})
	if !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("expected sql.ErrNoRows, got %v", err)
	}
}

func TestIsUniqueViolation(t *testing.T) {
	dup := fmt.Errorf("insert: %w", &pq.Error{Code: "23505"})
	if !isUniqueViolation(dup) {
		t.Error("23505 should be a unique violation")
	}
	if isUniqueViolation(&pq.Error{Code: "23502"}) {
		t.Error("23502 is not a unique violation")
	}
	if isUniqueViolation(errors.New("boom")) {
		t.Error("plain errors are not unique violations")
	}
}

func TestNullable(t *testing.T) {
	if nullable("").Valid {
		t.Error("empty string should be NULL")
	}
	if got := nullable("x"); !got.Valid || got.String != "x" {
		t.Errorf("nullable(x) = %#v", got)
	}
}

// TestIntegration_Repo runs against a live database when FILESEARCH_TEST_POSTGRES_DSN is set.
func TestIntegration_Repo(t *testing.T) {
	dsn := os.Getenv("FILESEARCH_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("FILESEARCH_TEST_POSTGRES_DSN not set")
	}
	ctx := context.Background()
	client, err := postgres.New(postgres.Config{DSN: dsn})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	defer client.Close()
	if err := client.Migrate(ctx, Schema...); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	owner := fmt.Sprintf("it-%d", time.Now().UnixNano())
	repo := New(client.DB())

	var recs []domrec.Record
	for i := range 3 {
		rec, err := domrec.New(fmt.Sprintf("%s-%d", owner, i), owner, "Doc", "/f.pdf", domrec.StatusUploading, t0.Add(time.Duration(i)*time.Minute))
		if err != nil {
			t.Fatalf("new record: %v", err)
		}
		if err := repo.Create(ctx, &rec); err != nil {
			t.Fatalf("create: %v", err)
		}
		recs = append(recs, rec)
	}
	if err := repo.Create(ctx, &recs[0]); !errors.Is(err, domain.ErrRecordExists) {
		t.Fatalf("expected ErrRecordExists, got %v", err)
	}

	d, _ := recs[1].AttachStore("fileSearchStores/s1", t0.Add(time.Hour))
	if err := repo.Update(ctx, recs[1].ID(), d); err != nil {
		t.Fatalf("attach: %v", err)
	}
	d, _ = recs[1].MarkReady(t0.Add(time.Hour))
	if err := repo.Update(ctx, recs[1].ID(), d); err != nil {
		t.Fatalf("ready: %v", err)
	}

	latest, err := repo.LatestReady(ctx, owner)
	if err != nil || latest.ID() != recs[1].ID() {
		t.Fatalf("LatestReady() = %v, %v", latest.ID(), err)
	}

	page, next, err := repo.ListByOwner(ctx, owner, "", 0, 2)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if next != 2 || len(page) != 2 || page[0].ID() != recs[2].ID() {
		t.Errorf("unexpected page: next=%d len=%d", next, len(page))
	}

	if err := repo.Update(ctx, "missing", domrec.Diff{UpdatedAt: t0}); !errors.Is(err, domain.ErrRecordNotFound) {
		t.Errorf("expected ErrRecordNotFound, got %v", err)
	}
	if _, err := repo.Get(ctx, "missing"); !errors.Is(err, domain.ErrRecordNotFound) {
		t.Errorf("expected ErrRecordNotFound, got %v", err)
	}
}
