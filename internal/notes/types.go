package notes

import (
	"time"
)

// Note represents a user's note. Slug is the public identifier and is unique
// across all notes; AuthorID never changes after creation.
type Note struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Text      string    `json:"text"`
	Slug      string    `json:"slug"`
	AuthorID  string    `json:"author_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CreateNoteParams contains parameters for creating a note. Slug is optional;
// when empty it is derived from Title via Slugify.
type CreateNoteParams struct {
	Title    string `json:"title"`
	Text     string `json:"text"`
	Slug     string `json:"slug,omitempty"`
	AuthorID string `json:"author_id"`
}

// UpdateNoteParams contains parameters for updating a note. Only title and
// text are mutable; the slug and author are fixed at creation.
type UpdateNoteParams struct {
	Title string `json:"title"`
	Text  string `json:"text"`
}

// SlugConflictError reports an attempt to use a slug that is already taken.
// Its message is the colliding slug followed by SlugWarning, which is exactly
// what gets attached to the slug field when a form submission fails.
type SlugConflictError struct {
	Slug string
}

func (e *SlugConflictError) Error() string {
	return e.Slug + SlugWarning
}
