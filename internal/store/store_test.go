package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	opsdesk_errors "github.com/opsdesk/opsdesk/errors"
)

func TestOpen_EmptySecretRejected(t *testing.T) {
	db, err := Open(context.Background(), filepath.Join(t.TempDir(), "tickets.db"), "")
	assert.Nil(t, db)
	assert.ErrorIs(t, err, opsdesk_errors.ErrInvalidSecret)
}

func TestOpen_CreatesAndReopens(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "tickets.db")

	db, err := Open(ctx, path, "correct-horse")
	require.NoError(t, err)

	_, err = db.ExecContext(ctx, "CREATE TABLE probe (id INTEGER PRIMARY KEY)")
	require.NoError(t, err)
	require.NoError(t, db.Close())

	db, err = Open(ctx, path, "correct-horse")
	require.NoError(t, err)
	defer db.Close()

	var count int
	err = db.QueryRowContext(ctx,
		"SELECT count(*) FROM sqlite_master WHERE name = 'probe'").Scan(&count)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestOpen_WrongSecret(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "tickets.db")

	db, err := Open(ctx, path, "correct-horse")
	require.NoError(t, err)
	_, err = db.ExecContext(ctx, "CREATE TABLE probe (id INTEGER PRIMARY KEY)")
	require.NoError(t, err)
	require.NoError(t, db.Close())

	db, err = Open(ctx, path, "battery-staple")
	assert.Nil(t, db)
	assert.ErrorIs(t, err, opsdesk_errors.ErrInvalidSecret)
}

func TestDSN(t *testing.T) {
	assert.Equal(t,
		"tickets.db?_pragma_key=s3cret&_foreign_keys=on&_busy_timeout=10000",
		dsn("tickets.db", "s3cret"))

	// Existing query parameters are preserved.
	assert.Equal(t,
		"file:mem?mode=memory&_pragma_key=s3cret&_foreign_keys=on&_busy_timeout=10000",
		dsn("file:mem?mode=memory", "s3cret"))

	// Reserved characters in the secret are escaped, not spliced raw.
	assert.Equal(t,
		"tickets.db?_pragma_key=a%26b%3Dc&_foreign_keys=on&_busy_timeout=10000",
		dsn("tickets.db", "a&b=c"))
}
