package record

import "time"

// Diff is a partial update of a record. Nil fields are left unchanged.
// An empty StoreRef or ErrorMessage clears the field.
type Diff struct {
	Status       *Status
	StoreRef     *string
	ErrorMessage *string
	Title        *string
	Active       *bool
	UpdatedAt    time.Time
}

// WithStatus returns a copy with the status set.
func (d Diff) WithStatus(s Status) Diff {
	d.Status = &s
	return d
}

// WithStoreRef returns a copy with the store reference set.
func (d Diff) WithStoreRef(ref string) Diff {
	d.StoreRef = &ref
	return d
}

// WithErrorMessage returns a copy with the error message set.
func (d Diff) WithErrorMessage(msg string) Diff {
	d.ErrorMessage = &msg
	return d
}

// WithTitle returns a copy with the title set.
func (d Diff) WithTitle(title string) Diff {
	d.Title = &title
	return d
}

// WithActive returns a copy with the active flag set.
func (d Diff) WithActive(active bool) Diff {
	d.Active = &active
	return d
}

// IsEmpty reports whether the diff changes no field.
func (d Diff) IsEmpty() bool {
	return d.Status == nil && d.StoreRef == nil && d.ErrorMessage == nil &&
		d.Title == nil && d.Active == nil
}
