// Package notes implements the note CRUD domain: slug-addressed notes with
// per-author ownership.
package notes

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/slugpad/slugpad/internal/db"
	"github.com/slugpad/slugpad/internal/errs"
)

// Service handles note CRUD operations using the db layer.
type Service struct {
	db *db.DB
}

// NewService creates a new notes service.
func NewService(database *db.DB) *Service {
	return &Service{db: database}
}

// Create creates a new note owned by params.AuthorID. When params.Slug is
// empty it is derived from the title via Slugify. Returns *SlugConflictError
// when the slug (supplied or derived) is already taken by any note; nothing
// is persisted in that case.
func (s *Service) Create(ctx context.Context, params CreateNoteParams) (*Note, error) {
	if params.Title == "" {
		return nil, errs.New(errs.InvalidArgument, "title is required")
	}
	if params.Text == "" {
		return nil, errs.New(errs.InvalidArgument, "text is required")
	}
	if params.AuthorID == "" {
		return nil, errs.New(errs.InvalidArgument, "author is required")
	}

	noteSlug := params.Slug
	if noteSlug == "" {
		noteSlug = Slugify(params.Title)
	}
	if noteSlug == "" {
		return nil, errs.New(errs.InvalidArgument, "slug could not be derived from title")
	}
	if len(noteSlug) > MaxSlugLen {
		return nil, errs.New(errs.InvalidArgument, fmt.Sprintf("slug exceeds %d characters", MaxSlugLen))
	}

	taken, err := s.db.SlugExists(ctx, noteSlug)
	if err != nil {
		return nil, fmt.Errorf("check slug: %w", err)
	}
	if taken {
		return nil, &SlugConflictError{Slug: noteSlug}
	}

	now := time.Now().UTC()
	row := db.NoteRow{
		ID:        uuid.New().String(),
		Title:     params.Title,
		Text:      params.Text,
		Slug:      noteSlug,
		AuthorID:  params.AuthorID,
		CreatedAt: now.Unix(),
		UpdatedAt: now.Unix(),
	}

	if err := s.db.CreateNote(ctx, row); err != nil {
		// Lost the race between SlugExists and the insert.
		if db.IsUniqueViolation(err) {
			return nil, &SlugConflictError{Slug: noteSlug}
		}
		return nil, fmt.Errorf("create note: %w", err)
	}

	return noteFromRow(row), nil
}

// GetBySlug retrieves the author's note by slug. A note owned by someone else
// yields the same not_found error as a note that does not exist, so existence
// is never leaked to non-owners.
func (s *Service) GetBySlug(ctx context.Context, slug, authorID string) (*Note, error) {
	if slug == "" {
		return nil, errs.New(errs.InvalidArgument, "slug is required")
	}

	row, err := s.db.GetNoteBySlugForAuthor(ctx, slug, authorID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errs.New(errs.NotFound, "note not found")
	}
	if err != nil {
		return nil, fmt.Errorf("read note: %w", err)
	}

	return noteFromRow(row), nil
}

// Update changes title and text of the author's note identified by slug.
// Slug and author are immutable. Returns not_found for a missing or foreign
// note, leaving the record untouched.
func (s *Service) Update(ctx context.Context, slug, authorID string, params UpdateNoteParams) (*Note, error) {
	if params.Title == "" {
		return nil, errs.New(errs.InvalidArgument, "title is required")
	}
	if params.Text == "" {
		return nil, errs.New(errs.InvalidArgument, "text is required")
	}

	now := time.Now().UTC()
	affected, err := s.db.UpdateNote(ctx, slug, authorID, params.Title, params.Text, now.Unix())
	if err != nil {
		return nil, fmt.Errorf("update note: %w", err)
	}
	if affected == 0 {
		return nil, errs.New(errs.NotFound, "note not found")
	}

	return s.GetBySlug(ctx, slug, authorID)
}

// Delete removes the author's note identified by slug. Returns not_found for
// a missing or foreign note.
func (s *Service) Delete(ctx context.Context, slug, authorID string) error {
	affected, err := s.db.DeleteNote(ctx, slug, authorID)
	if err != nil {
		return fmt.Errorf("delete note: %w", err)
	}
	if affected == 0 {
		return errs.New(errs.NotFound, "note not found")
	}
	return nil
}

// ListByAuthor retrieves all notes owned by authorID, most recently updated
// first.
func (s *Service) ListByAuthor(ctx context.Context, authorID string) ([]Note, error) {
	rows, err := s.db.ListNotesByAuthor(ctx, authorID)
	if err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}

	out := make([]Note, 0, len(rows))
	for _, row := range rows {
		out = append(out, *noteFromRow(row))
	}
	return out, nil
}

// Count returns the total number of notes across all authors.
func (s *Service) Count(ctx context.Context) (int64, error) {
	n, err := s.db.CountNotes(ctx)
	if err != nil {
		return 0, fmt.Errorf("count notes: %w", err)
	}
	return n, nil
}

func noteFromRow(row db.NoteRow) *Note {
	return &Note{
		ID:        row.ID,
		Title:     row.Title,
		Text:      row.Text,
		Slug:      row.Slug,
		AuthorID:  row.AuthorID,
		CreatedAt: time.Unix(row.CreatedAt, 0).UTC(),
		UpdatedAt: time.Unix(row.UpdatedAt, 0).UTC(),
	}
}
