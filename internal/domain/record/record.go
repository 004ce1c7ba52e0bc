package record

import (
	"fmt"
	"strings"
	"time"

	"github.com/kailas-cloud/filesearch/internal/domain"
)

// DefaultTitle is used for records created without a title.
const DefaultTitle = "Untitled Document"

// MaxTitleLength is the maximum title length in bytes.
const MaxTitleLength = 255

// unknownFailure is stored when a failure carries no description.
const unknownFailure = "unknown error"

// Record is the ingestion record aggregate.
type Record struct {
	id           string
	owner        string
	title        string
	sourceFile   string
	storeRef     string
	status       Status
	errorMessage string
	active       bool
	createdAt    time.Time
	updatedAt    time.Time
}

// Fields is the flat representation of a Record used for storage hydration.
type Fields struct {
	ID           string
	Owner        string
	Title        string
	SourceFile   string
	StoreRef     string
	Status       Status
	ErrorMessage string
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// New validates and creates a Record in its initial state.
// Initial status must be CREATED or UPLOADING.
func New(id, owner, title, sourceFile string, status Status, now time.Time) (Record, error) {
	if id == "" {
		return Record{}, fmt.Errorf("record ID is required")
	}
	if owner == "" {
		return Record{}, fmt.Errorf("owner is required")
	}
	title = strings.TrimSpace(title)
	if title == "" {
		title = DefaultTitle
	}
	if len(title) > MaxTitleLength {
		return Record{}, fmt.Errorf("title too long (max %d): %w", MaxTitleLength, domain.ErrInvalidTitle)
	}
	if status != StatusCreated && status != StatusUploading {
		return Record{}, fmt.Errorf("initial status %s: %w", status, domain.ErrInvalidTransition)
	}

	now = now.UTC()
	return Record{
		id:         id,
		owner:      owner,
		title:      title,
		sourceFile: sourceFile,
		status:     status,
		active:     true,
		createdAt:  now,
		updatedAt:  now,
	}, nil
}

// Reconstruct creates a Record without validation (storage hydration).
func Reconstruct(f Fields) Record {
	return Record{
		id:           f.ID,
		owner:        f.Owner,
		title:        f.Title,
		sourceFile:   f.SourceFile,
		storeRef:     f.StoreRef,
		status:       f.Status,
		errorMessage: f.ErrorMessage,
		active:       f.Active,
		createdAt:    f.CreatedAt,
		updatedAt:    f.UpdatedAt,
	}
}

// ID returns the record identifier.
func (r *Record) ID() string { return r.id }

// Owner returns the owning principal.
func (r *Record) Owner() string { return r.owner }

// Title returns the display title.
func (r *Record) Title() string { return r.title }

// SourceFile returns the path of the uploaded content.
func (r *Record) SourceFile() string { return r.sourceFile }

// StoreRef returns the remote store reference, empty when none.
func (r *Record) StoreRef() string { return r.storeRef }

// HasStore reports whether a remote store is attached.
func (r *Record) HasStore() bool { return r.storeRef != "" }

// Status returns the lifecycle status.
func (r *Record) Status() Status { return r.status }

// ErrorMessage returns the last failure description, empty when none.
func (r *Record) ErrorMessage() string { return r.errorMessage }

// Active reports whether the record has not been soft-deleted.
func (r *Record) Active() bool { return r.active }

// CreatedAt returns the creation time.
func (r *Record) CreatedAt() time.Time { return r.createdAt }

// UpdatedAt returns the last mutation time.
func (r *Record) UpdatedAt() time.Time { return r.updatedAt }

// IsOwnedBy reports whether owner owns the record.
func (r *Record) IsOwnedBy(owner string) bool { return owner != "" && r.owner == owner }

// Fields returns the flat representation of the record.
func (r *Record) Fields() Fields {
	return Fields{
		ID:           r.id,
		Owner:        r.owner,
		Title:        r.title,
		SourceFile:   r.sourceFile,
		StoreRef:     r.storeRef,
		Status:       r.status,
		ErrorMessage: r.errorMessage,
		Active:       r.active,
		CreatedAt:    r.createdAt,
		UpdatedAt:    r.updatedAt,
	}
}

// BeginIngestion moves the record to UPLOADING from any state and clears
// the store reference and error of a previous attempt.
func (r *Record) BeginIngestion(now time.Time) Diff {
	d := Diff{UpdatedAt: now.UTC()}.
		WithStatus(StatusUploading).
		WithStoreRef("").
		WithErrorMessage("")
	r.Apply(d)
	return d
}

// AttachStore records the remote store and moves the record to PROCESSING.
func (r *Record) AttachStore(storeRef string, now time.Time) (Diff, error) {
	if storeRef == "" {
		return Diff{}, fmt.Errorf("attach store: empty store reference: %w", domain.ErrInvalidTransition)
	}
	if r.status != StatusUploading {
		return Diff{}, fmt.Errorf("attach store from %s: %w", r.status, domain.ErrInvalidTransition)
	}
	if r.storeRef != "" {
		return Diff{}, fmt.Errorf("attach store: store %s already attached: %w", r.storeRef, domain.ErrInvalidTransition)
	}
	d := Diff{UpdatedAt: now.UTC()}.WithStatus(StatusProcessing).WithStoreRef(storeRef)
	r.Apply(d)
	return d, nil
}

// MarkReady moves a PROCESSING record with a store to READY.
func (r *Record) MarkReady(now time.Time) (Diff, error) {
	if r.status != StatusProcessing {
		return Diff{}, fmt.Errorf("mark ready from %s: %w", r.status, domain.ErrInvalidTransition)
	}
	if r.storeRef == "" {
		return Diff{}, fmt.Errorf("mark ready without store: %w", domain.ErrInvalidTransition)
	}
	d := Diff{UpdatedAt: now.UTC()}.WithStatus(StatusReady)
	r.Apply(d)
	return d, nil
}

// MarkFailed moves a non-terminal record to FAILED with the given message.
// The store reference, if any, is kept.
func (r *Record) MarkFailed(message string, now time.Time) (Diff, error) {
	if r.status.IsTerminal() {
		return Diff{}, fmt.Errorf("mark failed from %s: %w", r.status, domain.ErrInvalidTransition)
	}
	if strings.TrimSpace(message) == "" {
		message = unknownFailure
	}
	d := Diff{UpdatedAt: now.UTC()}.WithStatus(StatusFailed).WithErrorMessage(message)
	r.Apply(d)
	return d, nil
}

// Rename changes the display title.
func (r *Record) Rename(title string, now time.Time) (Diff, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return Diff{}, fmt.Errorf("title is required: %w", domain.ErrInvalidTitle)
	}
	if len(title) > MaxTitleLength {
		return Diff{}, fmt.Errorf("title too long (max %d): %w", MaxTitleLength, domain.ErrInvalidTitle)
	}
	d := Diff{UpdatedAt: now.UTC()}.WithTitle(title)
	r.Apply(d)
	return d, nil
}

// Deactivate soft-deletes the record.
func (r *Record) Deactivate(now time.Time) Diff {
	d := Diff{UpdatedAt: now.UTC()}.WithActive(false)
	r.Apply(d)
	return d
}

// Apply applies a diff in place (mutation).
func (r *Record) Apply(d Diff) {
	if d.Status != nil {
		r.status = *d.Status
	}
	if d.StoreRef != nil {
		r.storeRef = *d.StoreRef
	}
	if d.ErrorMessage != nil {
		r.errorMessage = *d.ErrorMessage
	}
	if d.Title != nil {
		r.title = *d.Title
	}
	if d.Active != nil {
		r.active = *d.Active
	}
	if !d.UpdatedAt.IsZero() {
		r.updatedAt = d.UpdatedAt
	}
}
