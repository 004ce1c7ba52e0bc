package record

import "time"

// Event describes a persisted status transition.
type Event struct {
	RecordID     string    `json:"record_id"`
	Owner        string    `json:"owner"`
	From         Status    `json:"from"`
	To           Status    `json:"to"`
	StoreRef     string    `json:"store_ref,omitempty"`
	ErrorMessage string    `json:"error_message,omitempty"`
	At           time.Time `json:"at"`
}

// NewEvent builds the event for a record that just left status from.
func NewEvent(r *Record, from Status) Event {
	return Event{
		RecordID:     r.id,
		Owner:        r.owner,
		From:         from,
		To:           r.status,
		StoreRef:     r.storeRef,
		ErrorMessage: r.errorMessage,
		At:           r.updatedAt,
	}
}
