package record

import "fmt"

// Status is the ingestion lifecycle state of a record.
type Status string

const (
	// StatusCreated is a record that has never been ingested.
	StatusCreated Status = "CREATED"
	// StatusUploading is a record whose ingestion started but has no remote store yet.
	StatusUploading Status = "UPLOADING"
	// StatusProcessing is a record with a remote store whose upload is being indexed.
	StatusProcessing Status = "PROCESSING"
	// StatusReady is a record whose store is indexed and queryable.
	StatusReady Status = "READY"
	// StatusFailed is a record whose last ingestion attempt failed.
	StatusFailed Status = "FAILED"
)

var validStatuses = map[Status]bool{
	StatusCreated:    true,
	StatusUploading:  true,
	StatusProcessing: true,
	StatusReady:      true,
	StatusFailed:     true,
}

// ParseStatus validates a status string.
func ParseStatus(s string) (Status, error) {
	st := Status(s)
	if !validStatuses[st] {
		return "", fmt.Errorf("unknown status %q", s)
	}
	return st, nil
}

// IsTerminal reports whether the status ends an ingestion attempt.
func (s Status) IsTerminal() bool {
	return s == StatusReady || s == StatusFailed
}

func (s Status) String() string { return string(s) }
