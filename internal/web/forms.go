package web

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/slugpad/slugpad/internal/notes"
)

// NoteForm carries a submitted note form plus any field-level validation
// errors, keyed by field name. A populated Errors map means the form must be
// re-rendered instead of redirecting.
type NoteForm struct {
	Title  string
	Text   string
	Slug   string
	Errors map[string]string
}

// NoteFormFromRequest binds the note form fields from a parsed request.
func NoteFormFromRequest(r *http.Request) NoteForm {
	return NoteForm{
		Title:  strings.TrimSpace(r.FormValue("title")),
		Text:   r.FormValue("text"),
		Slug:   strings.TrimSpace(r.FormValue("slug")),
		Errors: make(map[string]string),
	}
}

// Validate checks required fields and slug length, recording field errors.
// Returns true when the form is clean.
func (f *NoteForm) Validate() bool {
	if f.Title == "" {
		f.Errors["title"] = "title is required"
	}
	if strings.TrimSpace(f.Text) == "" {
		f.Errors["text"] = "text is required"
	}
	if len(f.Slug) > notes.MaxSlugLen {
		f.Errors["slug"] = fmt.Sprintf("slug must be at most %d characters", notes.MaxSlugLen)
	}
	return len(f.Errors) == 0
}

// SetSlugConflict records the uniqueness violation on the slug field. The
// message is exactly the colliding slug followed by the fixed warning text.
func (f *NoteForm) SetSlugConflict(err *notes.SlugConflictError) {
	f.Errors["slug"] = err.Error()
}

// FieldError returns the error message for a field, or empty.
func (f NoteForm) FieldError(field string) string {
	return f.Errors[field]
}
