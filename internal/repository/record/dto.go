package record

import (
	"fmt"
	"strconv"
	"time"

	domrec "github.com/kailas-cloud/filesearch/internal/domain/record"
)

// Hash field names of a stored record. Absent optional values are stored as "".
const (
	fieldID           = "id"
	fieldOwner        = "owner"
	fieldTitle        = "title"
	fieldSourceFile   = "source_file"
	fieldStoreRef     = "store_ref"
	fieldStatus       = "status"
	fieldErrorMessage = "error_message"
	fieldActive       = "active"
	fieldCreatedAt    = "created_at"
	fieldUpdatedAt    = "updated_at"
)

// recordToHash converts a domain Record to a map for HSET.
func recordToHash(rec *domrec.Record) map[string]string {
	return map[string]string{
		fieldID:           rec.ID(),
		fieldOwner:        rec.Owner(),
		fieldTitle:        rec.Title(),
		fieldSourceFile:   rec.SourceFile(),
		fieldStoreRef:     rec.StoreRef(),
		fieldStatus:       string(rec.Status()),
		fieldErrorMessage: rec.ErrorMessage(),
		fieldActive:       formatBool(rec.Active()),
		fieldCreatedAt:    formatTime(rec.CreatedAt()),
		fieldUpdatedAt:    formatTime(rec.UpdatedAt()),
	}
}

// diffToHash converts the set fields of a Diff to a map for HSET.
func diffToHash(d domrec.Diff) map[string]string {
	m := make(map[string]string, 6)
	if d.Status != nil {
		m[fieldStatus] = string(*d.Status)
	}
	if d.StoreRef != nil {
		m[fieldStoreRef] = *d.StoreRef
	}
	if d.ErrorMessage != nil {
		m[fieldErrorMessage] = *d.ErrorMessage
	}
	if d.Title != nil {
		m[fieldTitle] = *d.Title
	}
	if d.Active != nil {
		m[fieldActive] = formatBool(*d.Active)
	}
	if !d.UpdatedAt.IsZero() {
		m[fieldUpdatedAt] = formatTime(d.UpdatedAt)
	}
	return m
}

// recordFromHash hydrates a domain Record from an HGETALL result map.
func recordFromHash(m map[string]string) (domrec.Record, error) {
	status, err := domrec.ParseStatus(m[fieldStatus])
	if err != nil {
		return domrec.Record{}, fmt.Errorf("invalid status: %w", err)
	}
	createdAt, err := parseTime(m[fieldCreatedAt])
	if err != nil {
		return domrec.Record{}, fmt.Errorf("invalid created_at: %w", err)
	}
	updatedAt, err := parseTime(m[fieldUpdatedAt])
	if err != nil {
		return domrec.Record{}, fmt.Errorf("invalid updated_at: %w", err)
	}

	return domrec.Reconstruct(domrec.Fields{
		ID:           m[fieldID],
		Owner:        m[fieldOwner],
		Title:        m[fieldTitle],
		SourceFile:   m[fieldSourceFile],
		StoreRef:     m[fieldStoreRef],
		Status:       status,
		ErrorMessage: m[fieldErrorMessage],
		Active:       m[fieldActive] != "0",
		CreatedAt:    createdAt,
		UpdatedAt:    updatedAt,
	}), nil
}

func formatBool(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

func formatTime(t time.Time) string {
	return strconv.FormatInt(t.UnixMilli(), 10)
}

func parseTime(s string) (time.Time, error) {
	ms, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return time.Time{}, err //nolint:wrapcheck // wrapped by caller
	}
	return time.UnixMilli(ms).UTC(), nil
}

// score orders index members by creation time.
func score(t time.Time) float64 {
	return float64(t.UnixMilli())
}
