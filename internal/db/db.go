package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sqlite3 "github.com/mutecomm/go-sqlcipher/v4"
)

const (
	// MaxOpenConns is the maximum number of open connections.
	// SQLite is single-writer, so high connection counts are counterproductive.
	MaxOpenConns = 10

	// MaxIdleConns is the maximum number of idle connections.
	MaxIdleConns = 2
)

// DB wraps the sql.DB connection and provides typed query methods for the
// users, sessions, and notes tables.
type DB struct {
	db *sql.DB
}

// Open opens (creating if needed) the application database at path and applies
// the schema. keyHex, when non-empty, is a 64-character hex SQLCipher key used
// to encrypt the database at rest.
func Open(path, keyHex string) (*DB, error) {
	dsn := "file:" + path
	if keyHex != "" {
		dsn += fmt.Sprintf("?_pragma_key=x'%s'&_pragma_cipher_page_size=4096", keyHex)
	}

	sqlDB, err := sql.Open(SQLiteDriverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	sqlDB.SetMaxOpenConns(MaxOpenConns)
	sqlDB.SetMaxIdleConns(MaxIdleConns)

	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if _, err := sqlDB.Exec(Schema); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return NewFromSQL(sqlDB), nil
}

// NewFromSQL wraps an existing sql.DB. The caller is responsible for having
// applied the schema.
func NewFromSQL(sqlDB *sql.DB) *DB {
	return &DB{db: sqlDB}
}

// DB returns the underlying sql.DB for direct access when needed.
func (d *DB) DB() *sql.DB {
	return d.db
}

// Close closes the underlying connection pool.
func (d *DB) Close() error {
	return d.db.Close()
}

// IsUniqueViolation reports whether err is a SQLite UNIQUE constraint failure.
func IsUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
	}
	return false
}

// UserRow is a row of the users table.
type UserRow struct {
	UserID       string
	Email        string
	PasswordHash string
	CreatedAt    int64
}

// CreateUser inserts a user record.
func (d *DB) CreateUser(ctx context.Context, row UserRow) error {
	_, err := d.db.ExecContext(ctx,
		`INSERT INTO users (user_id, email, password_hash, created_at) VALUES (?, ?, ?, ?)`,
		row.UserID, row.Email, row.PasswordHash, row.CreatedAt)
	return err
}

// GetUserByEmail returns the user with the given email, or sql.ErrNoRows.
func (d *DB) GetUserByEmail(ctx context.Context, email string) (UserRow, error) {
	var row UserRow
	err := d.db.QueryRowContext(ctx,
		`SELECT user_id, email, password_hash, created_at FROM users WHERE email = ?`,
		email).Scan(&row.UserID, &row.Email, &row.PasswordHash, &row.CreatedAt)
	return row, err
}

// GetUserByID returns the user with the given ID, or sql.ErrNoRows.
func (d *DB) GetUserByID(ctx context.Context, userID string) (UserRow, error) {
	var row UserRow
	err := d.db.QueryRowContext(ctx,
		`SELECT user_id, email, password_hash, created_at FROM users WHERE user_id = ?`,
		userID).Scan(&row.UserID, &row.Email, &row.PasswordHash, &row.CreatedAt)
	return row, err
}

// SessionRow is a row of the sessions table.
type SessionRow struct {
	SessionID string
	UserID    string
	ExpiresAt int64
	CreatedAt int64
}

// UpsertSession inserts or replaces a session record.
func (d *DB) UpsertSession(ctx context.Context, row SessionRow) error {
	_, err := d.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO sessions (session_id, user_id, expires_at, created_at) VALUES (?, ?, ?, ?)`,
		row.SessionID, row.UserID, row.ExpiresAt, row.CreatedAt)
	return err
}

// GetValidSession returns the session if it exists and has not expired as of
// now (unix seconds), or sql.ErrNoRows.
func (d *DB) GetValidSession(ctx context.Context, sessionID string, now int64) (SessionRow, error) {
	var row SessionRow
	err := d.db.QueryRowContext(ctx,
		`SELECT session_id, user_id, expires_at, created_at FROM sessions WHERE session_id = ? AND expires_at > ?`,
		sessionID, now).Scan(&row.SessionID, &row.UserID, &row.ExpiresAt, &row.CreatedAt)
	return row, err
}

// DeleteSession removes a session record.
func (d *DB) DeleteSession(ctx context.Context, sessionID string) error {
	_, err := d.db.ExecContext(ctx, `DELETE FROM sessions WHERE session_id = ?`, sessionID)
	return err
}

// DeleteSessionsByUserID removes all sessions for a user.
func (d *DB) DeleteSessionsByUserID(ctx context.Context, userID string) error {
	_, err := d.db.ExecContext(ctx, `DELETE FROM sessions WHERE user_id = ?`, userID)
	return err
}

// DeleteExpiredSessions removes sessions that expired at or before now.
func (d *DB) DeleteExpiredSessions(ctx context.Context, now int64) error {
	_, err := d.db.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at <= ?`, now)
	return err
}

// NoteRow is a row of the notes table.
type NoteRow struct {
	ID        string
	Title     string
	Text      string
	Slug      string
	AuthorID  string
	CreatedAt int64
	UpdatedAt int64
}

// CreateNote inserts a note record. Returns a UNIQUE constraint error when the
// slug is already taken; detect it with IsUniqueViolation.
func (d *DB) CreateNote(ctx context.Context, row NoteRow) error {
	_, err := d.db.ExecContext(ctx,
		`INSERT INTO notes (id, title, text, slug, author_id, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		row.ID, row.Title, row.Text, row.Slug, row.AuthorID, row.CreatedAt, row.UpdatedAt)
	return err
}

// GetNoteBySlugForAuthor returns the note with the given slug only when it is
// owned by authorID; sql.ErrNoRows otherwise. Ownership is part of the query
// so a foreign note and a missing note are indistinguishable to the caller.
func (d *DB) GetNoteBySlugForAuthor(ctx context.Context, slug, authorID string) (NoteRow, error) {
	var row NoteRow
	err := d.db.QueryRowContext(ctx,
		`SELECT id, title, text, slug, author_id, created_at, updated_at FROM notes WHERE slug = ? AND author_id = ?`,
		slug, authorID).Scan(&row.ID, &row.Title, &row.Text, &row.Slug, &row.AuthorID, &row.CreatedAt, &row.UpdatedAt)
	return row, err
}

// SlugExists reports whether any note, by any author, already uses slug.
func (d *DB) SlugExists(ctx context.Context, slug string) (bool, error) {
	var n int64
	err := d.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM notes WHERE slug = ?`, slug).Scan(&n)
	return n > 0, err
}

// UpdateNote updates title and text of the author's note identified by slug.
// Returns the number of rows affected (0 when the note is missing or owned by
// someone else).
func (d *DB) UpdateNote(ctx context.Context, slug, authorID, title, text string, updatedAt int64) (int64, error) {
	res, err := d.db.ExecContext(ctx,
		`UPDATE notes SET title = ?, text = ?, updated_at = ? WHERE slug = ? AND author_id = ?`,
		title, text, updatedAt, slug, authorID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// DeleteNote removes the author's note identified by slug. Returns the number
// of rows affected.
func (d *DB) DeleteNote(ctx context.Context, slug, authorID string) (int64, error) {
	res, err := d.db.ExecContext(ctx,
		`DELETE FROM notes WHERE slug = ? AND author_id = ?`, slug, authorID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// ListNotesByAuthor returns the author's notes, most recently updated first.
func (d *DB) ListNotesByAuthor(ctx context.Context, authorID string) ([]NoteRow, error) {
	rows, err := d.db.QueryContext(ctx,
		`SELECT id, title, text, slug, author_id, created_at, updated_at FROM notes WHERE author_id = ? ORDER BY updated_at DESC, id`,
		authorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []NoteRow
	for rows.Next() {
		var row NoteRow
		if err := rows.Scan(&row.ID, &row.Title, &row.Text, &row.Slug, &row.AuthorID, &row.CreatedAt, &row.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// CountNotes returns the total number of notes across all authors.
func (d *DB) CountNotes(ctx context.Context) (int64, error) {
	var n int64
	err := d.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM notes`).Scan(&n)
	return n, err
}
