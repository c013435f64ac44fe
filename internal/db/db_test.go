package db_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slugpad/slugpad/internal/db"
	"github.com/slugpad/slugpad/internal/testdb"
)

func setupDB(t *testing.T) *db.DB {
	t.Helper()
	database, err := testdb.New()
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	return database
}

func insertUser(t *testing.T, database *db.DB, userID, email string) {
	t.Helper()
	err := database.CreateUser(context.Background(), db.UserRow{
		UserID:       userID,
		Email:        email,
		PasswordHash: "$fake$pw",
		CreatedAt:    time.Now().Unix(),
	})
	require.NoError(t, err)
}

func TestIsUniqueViolation(t *testing.T) {
	database := setupDB(t)
	ctx := context.Background()

	insertUser(t, database, "u1", "dup@example.com")
	err := database.CreateUser(ctx, db.UserRow{
		UserID: "u2", Email: "dup@example.com", PasswordHash: "x", CreatedAt: 0,
	})
	require.Error(t, err)
	assert.True(t, db.IsUniqueViolation(err))

	assert.False(t, db.IsUniqueViolation(nil))
	assert.False(t, db.IsUniqueViolation(errors.New("plain")))
}

func TestNoteSlugUniqueAcrossAuthors(t *testing.T) {
	database := setupDB(t)
	ctx := context.Background()

	insertUser(t, database, "u1", "a@example.com")
	insertUser(t, database, "u2", "b@example.com")

	require.NoError(t, database.CreateNote(ctx, db.NoteRow{
		ID: "n1", Title: "t", Text: "x", Slug: "shared", AuthorID: "u1",
	}))

	err := database.CreateNote(ctx, db.NoteRow{
		ID: "n2", Title: "t", Text: "x", Slug: "shared", AuthorID: "u2",
	})
	require.Error(t, err)
	assert.True(t, db.IsUniqueViolation(err))
}

func TestForeignKeysEnforced(t *testing.T) {
	database := setupDB(t)

	err := database.CreateNote(context.Background(), db.NoteRow{
		ID: "n1", Title: "t", Text: "x", Slug: "s", AuthorID: "no-such-user",
	})
	assert.Error(t, err)
}

func TestSlugExists(t *testing.T) {
	database := setupDB(t)
	ctx := context.Background()

	insertUser(t, database, "u1", "a@example.com")
	require.NoError(t, database.CreateNote(ctx, db.NoteRow{
		ID: "n1", Title: "t", Text: "x", Slug: "taken", AuthorID: "u1",
	}))

	taken, err := database.SlugExists(ctx, "taken")
	require.NoError(t, err)
	assert.True(t, taken)

	free, err := database.SlugExists(ctx, "free")
	require.NoError(t, err)
	assert.False(t, free)
}

func TestGetNoteBySlugForAuthorScopesOwnership(t *testing.T) {
	database := setupDB(t)
	ctx := context.Background()

	insertUser(t, database, "u1", "a@example.com")
	insertUser(t, database, "u2", "b@example.com")
	require.NoError(t, database.CreateNote(ctx, db.NoteRow{
		ID: "n1", Title: "t", Text: "x", Slug: "s", AuthorID: "u1",
	}))

	_, err := database.GetNoteBySlugForAuthor(ctx, "s", "u1")
	require.NoError(t, err)

	_, err = database.GetNoteBySlugForAuthor(ctx, "s", "u2")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestUpdateAndDeleteReportAffectedRows(t *testing.T) {
	database := setupDB(t)
	ctx := context.Background()

	insertUser(t, database, "u1", "a@example.com")
	require.NoError(t, database.CreateNote(ctx, db.NoteRow{
		ID: "n1", Title: "t", Text: "x", Slug: "s", AuthorID: "u1",
	}))

	affected, err := database.UpdateNote(ctx, "s", "u1", "t2", "x2", time.Now().Unix())
	require.NoError(t, err)
	assert.Equal(t, int64(1), affected)

	affected, err = database.UpdateNote(ctx, "s", "someone-else", "t3", "x3", time.Now().Unix())
	require.NoError(t, err)
	assert.Equal(t, int64(0), affected)

	affected, err = database.DeleteNote(ctx, "s", "someone-else")
	require.NoError(t, err)
	assert.Equal(t, int64(0), affected)

	affected, err = database.DeleteNote(ctx, "s", "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), affected)
}

func TestListNotesByAuthorOrdersByUpdatedAt(t *testing.T) {
	database := setupDB(t)
	ctx := context.Background()

	insertUser(t, database, "u1", "a@example.com")
	require.NoError(t, database.CreateNote(ctx, db.NoteRow{
		ID: "old", Title: "old", Text: "x", Slug: "old", AuthorID: "u1", UpdatedAt: 100,
	}))
	require.NoError(t, database.CreateNote(ctx, db.NoteRow{
		ID: "new", Title: "new", Text: "x", Slug: "new", AuthorID: "u1", UpdatedAt: 200,
	}))

	rows, err := database.ListNotesByAuthor(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "new", rows[0].ID)
	assert.Equal(t, "old", rows[1].ID)
}

func TestSessionQueries(t *testing.T) {
	database := setupDB(t)
	ctx := context.Background()
	now := time.Now().Unix()

	insertUser(t, database, "u1", "a@example.com")
	require.NoError(t, database.UpsertSession(ctx, db.SessionRow{
		SessionID: "live", UserID: "u1", ExpiresAt: now + 3600, CreatedAt: now,
	}))
	require.NoError(t, database.UpsertSession(ctx, db.SessionRow{
		SessionID: "stale", UserID: "u1", ExpiresAt: now - 1, CreatedAt: now - 3600,
	}))

	row, err := database.GetValidSession(ctx, "live", now)
	require.NoError(t, err)
	assert.Equal(t, "u1", row.UserID)

	_, err = database.GetValidSession(ctx, "stale", now)
	assert.ErrorIs(t, err, sql.ErrNoRows)

	require.NoError(t, database.DeleteExpiredSessions(ctx, now))
	_, err = database.GetValidSession(ctx, "live", now)
	require.NoError(t, err)
}
