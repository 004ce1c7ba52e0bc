package query

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/kailas-cloud/filesearch/internal/domain"
	"github.com/kailas-cloud/filesearch/internal/domain/answer"
	"github.com/kailas-cloud/filesearch/internal/domain/record"
)

// --- Mocks ---

// mockReader keeps records in creation order.
type mockReader struct {
	recs    []record.Record
	err     error
	lookups int
}

func (m *mockReader) Get(_ context.Context, id string) (record.Record, error) {
	m.lookups++
	if m.err != nil {
		return record.Record{}, m.err
	}
	for _, r := range m.recs {
		if r.ID() == id {
			return r, nil
		}
	}
	return record.Record{}, domain.ErrRecordNotFound
}

func (m *mockReader) LatestReady(_ context.Context, owner string) (record.Record, error) {
	m.lookups++
	if m.err != nil {
		return record.Record{}, m.err
	}
	var latest *record.Record
	for i := range m.recs {
		r := &m.recs[i]
		if r.Owner() != owner || r.Status() != record.StatusReady {
			continue
		}
		if latest == nil || r.CreatedAt().After(latest.CreatedAt()) {
			latest = r
		}
	}
	if latest == nil {
		return record.Record{}, domain.ErrRecordNotFound
	}
	return *latest, nil
}

type mockAnswerer struct {
	ans      answer.Answer
	err      error
	storeRef string
	question string
	calls    int
}

func (m *mockAnswerer) AnswerQuery(_ context.Context, storeRef, question string) (answer.Answer, error) {
	m.calls++
	m.storeRef, m.question = storeRef, question
	return m.ans, m.err
}

var t0 = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func rec(id, owner string, status record.Status, storeRef string, created time.Time) record.Record {
	return record.Reconstruct(record.Fields{
		ID: id, Owner: owner, Title: id, Status: status, StoreRef: storeRef,
		Active: true, CreatedAt: created, UpdatedAt: created,
	})
}

func ptr(s string) *string { return &s }

// --- Tests ---

func TestQuery_ExplicitRecord(t *testing.T) {
	reader := &mockReader{recs: []record.Record{rec("r1", "u1", record.StatusReady, "fileSearchStores/s1", t0)}}
	ans := &mockAnswerer{ans: answer.Answer{
		Text: ptr("42"),
		Grounding: &answer.Grounding{Citations: []answer.Citation{
			{Title: ptr("guide.pdf")}, {Title: ptr("guide.pdf")},
		}},
	}}

	res, err := New(reader, ans, nil).Query(context.Background(), "u1", "what is it?", "r1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := answer.Result{
		Question:       "what is it?",
		AnswerText:     "42",
		CitationTitles: []string{"guide.pdf", "guide.pdf"},
		RecordID:       "r1",
	}
	if !reflect.DeepEqual(res, want) {
		t.Errorf("result = %+v, want %+v", res, want)
	}
	if ans.storeRef != "fileSearchStores/s1" || ans.question != "what is it?" {
		t.Errorf("AnswerQuery(%q, %q)", ans.storeRef, ans.question)
	}
}

func TestQuery_ExplicitRecordOtherOwner(t *testing.T) {
	for _, st := range []record.Status{record.StatusReady, record.StatusFailed, record.StatusProcessing} {
		reader := &mockReader{recs: []record.Record{rec("r1", "u2", st, "s", t0)}}
		ans := &mockAnswerer{}

		_, err := New(reader, ans, nil).Query(context.Background(), "u1", "x", "r1")
		if !errors.Is(err, domain.ErrRecordNotFound) {
			t.Errorf("status %s: expected ErrRecordNotFound, got %v", st, err)
		}
		if ans.calls != 0 {
			t.Errorf("status %s: gateway must not be called", st)
		}
	}
}

func TestQuery_ExplicitRecordMissing(t *testing.T) {
	_, err := New(&mockReader{}, &mockAnswerer{}, nil).Query(context.Background(), "u1", "x", "nope")
	if !errors.Is(err, domain.ErrRecordNotFound) {
		t.Fatalf("expected ErrRecordNotFound, got %v", err)
	}
}

func TestQuery_ExplicitRecordNotReady(t *testing.T) {
	reader := &mockReader{recs: []record.Record{rec("r1", "u1", record.StatusProcessing, "s", t0)}}
	ans := &mockAnswerer{}

	_, err := New(reader, ans, nil).Query(context.Background(), "u1", "x", "r1")
	if !errors.Is(err, domain.ErrDocumentNotReady) {
		t.Fatalf("expected ErrDocumentNotReady, got %v", err)
	}
	if ans.calls != 0 {
		t.Error("gateway must not be called for a record mid-ingestion")
	}
}

func TestQuery_LatestReady(t *testing.T) {
	reader := &mockReader{recs: []record.Record{
		rec("older", "u1", record.StatusReady, "fileSearchStores/old", t0),
		rec("newer", "u1", record.StatusReady, "fileSearchStores/new", t0.Add(time.Hour)),
		rec("failed", "u1", record.StatusFailed, "fileSearchStores/f", t0.Add(2*time.Hour)),
		rec("other", "u2", record.StatusReady, "fileSearchStores/o", t0.Add(3*time.Hour)),
	}}
	ans := &mockAnswerer{ans: answer.Answer{Text: ptr("ok")}}

	res, err := New(reader, ans, nil).Query(context.Background(), "u1", "x", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.RecordID != "newer" {
		t.Errorf("RecordID = %q, want newer", res.RecordID)
	}
	if ans.storeRef != "fileSearchStores/new" {
		t.Errorf("storeRef = %q, want fileSearchStores/new", ans.storeRef)
	}
}

func TestQuery_NoReadyDocument(t *testing.T) {
	reader := &mockReader{recs: []record.Record{
		rec("r1", "u1", record.StatusFailed, "s", t0),
		rec("r2", "u2", record.StatusReady, "s", t0),
	}}

	_, err := New(reader, &mockAnswerer{}, nil).Query(context.Background(), "u1", "x", "")
	if !errors.Is(err, domain.ErrNoReadyDocument) {
		t.Fatalf("expected ErrNoReadyDocument, got %v", err)
	}
}

func TestQuery_StoreNotProvisioned(t *testing.T) {
	reader := &mockReader{recs: []record.Record{rec("r1", "u1", record.StatusReady, "", t0)}}
	ans := &mockAnswerer{}

	for _, id := range []string{"r1", ""} {
		_, err := New(reader, ans, nil).Query(context.Background(), "u1", "x", id)
		if !errors.Is(err, domain.ErrStoreNotProvisioned) {
			t.Errorf("id %q: expected ErrStoreNotProvisioned, got %v", id, err)
		}
	}
	if ans.calls != 0 {
		t.Error("gateway must not be called without a store")
	}
}

func TestQuery_RemoteFailure(t *testing.T) {
	reader := &mockReader{recs: []record.Record{rec("r1", "u1", record.StatusReady, "s", t0)}}
	ans := &mockAnswerer{err: errors.New("model overloaded")}

	_, err := New(reader, ans, nil).Query(context.Background(), "u1", "x", "")
	if !errors.Is(err, domain.ErrRemoteQueryFailed) {
		t.Fatalf("expected ErrRemoteQueryFailed, got %v", err)
	}
	if !strings.Contains(err.Error(), "model overloaded") {
		t.Errorf("error should carry the gateway message: %v", err)
	}
	if ans.calls != 1 {
		t.Errorf("calls = %d, want 1 (no retries)", ans.calls)
	}
}

func TestQuery_Normalization(t *testing.T) {
	tests := []struct {
		name       string
		ans        answer.Answer
		wantText   string
		wantTitles []string
	}{
		{"no grounding", answer.Answer{Text: ptr("a")}, "a", []string{}},
		{"no text", answer.Answer{Grounding: &answer.Grounding{Citations: []answer.Citation{{Title: ptr("t")}}}}, "", []string{"t"}},
		{"empty citations", answer.Answer{Text: ptr("a"), Grounding: &answer.Grounding{}}, "a", []string{}},
		{
			"citation without title",
			answer.Answer{Text: ptr("a"), Grounding: &answer.Grounding{Citations: []answer.Citation{{Title: ptr("t")}, {}}}},
			"a", []string{},
		},
		{
			"order preserved",
			answer.Answer{Grounding: &answer.Grounding{Citations: []answer.Citation{{Title: ptr("b")}, {Title: ptr("a")}, {Title: ptr("b")}}}},
			"", []string{"b", "a", "b"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reader := &mockReader{recs: []record.Record{rec("r1", "u1", record.StatusReady, "s", t0)}}
			res, err := New(reader, &mockAnswerer{ans: tt.ans}, nil).Query(context.Background(), "u1", "q", "r1")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if res.AnswerText != tt.wantText {
				t.Errorf("AnswerText = %q, want %q", res.AnswerText, tt.wantText)
			}
			if res.CitationTitles == nil || !reflect.DeepEqual(res.CitationTitles, tt.wantTitles) {
				t.Errorf("CitationTitles = %#v, want %#v", res.CitationTitles, tt.wantTitles)
			}
		})
	}
}

func TestQuery_EmptyQuestion(t *testing.T) {
	reader := &mockReader{}
	_, err := New(reader, &mockAnswerer{}, nil).Query(context.Background(), "u1", "   ", "")
	if !errors.Is(err, domain.ErrInvalidQuestion) {
		t.Fatalf("expected ErrInvalidQuestion, got %v", err)
	}
	if reader.lookups != 0 {
		t.Error("invalid question must not touch storage")
	}
}

func TestQuery_StorageError(t *testing.T) {
	dbErr := errors.New("connection refused")
	_, err := New(&mockReader{err: dbErr}, &mockAnswerer{}, nil).Query(context.Background(), "u1", "x", "")
	if !errors.Is(err, dbErr) {
		t.Fatalf("expected storage error, got %v", err)
	}
	if errors.Is(err, domain.ErrNoReadyDocument) {
		t.Error("storage errors must not be reported as no ready document")
	}
}
