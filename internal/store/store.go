package store

import (
	"context"
	"database/sql"
	"net/url"
	"strings"

	sqlite3 "github.com/mutecomm/go-sqlcipher/v4"
	"github.com/pkg/errors"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"

	opsdesk_errors "github.com/opsdesk/opsdesk/errors"
)

// Open unlocks the encrypted database at path with the given secret and
// returns a handle whose pooled connections all carry the key and the
// foreign-key pragma. A wrong secret surfaces as ErrInvalidSecret so
// callers can re-prompt instead of treating it as an I/O failure.
func Open(ctx context.Context, path, secret string) (*bun.DB, error) {
	if secret == "" {
		return nil, opsdesk_errors.ErrInvalidSecret
	}

	sqldb, err := sql.Open("sqlite3", dsn(path, secret))
	if err != nil {
		return nil, errors.Wrap(err, "open database")
	}

	// The key pragma is only applied when a connection touches the file;
	// probe the schema so an incorrect key fails here, not on first use.
	if _, err := sqldb.ExecContext(ctx, "SELECT count(*) FROM sqlite_master"); err != nil {
		sqldb.Close()
		if isNotADatabase(err) {
			return nil, opsdesk_errors.ErrInvalidSecret
		}
		return nil, errors.Wrap(err, "probe database")
	}

	return bun.NewDB(sqldb, sqlitedialect.New()), nil
}

// dsn builds the connection string. The key and pragmas travel in the DSN
// so every pooled connection is keyed identically; the secret never goes
// anywhere else.
func dsn(path, secret string) string {
	params := "_pragma_key=" + url.QueryEscape(secret) + "&_foreign_keys=on&_busy_timeout=10000"
	if strings.Contains(path, "?") {
		return path + "&" + params
	}
	return path + "?" + params
}

// isNotADatabase reports whether err is SQLCipher's rejection of a bad key,
// which SQLite raises as "file is not a database".
func isNotADatabase(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code == sqlite3.ErrNotADB
	}
	return strings.Contains(err.Error(), "file is not a database")
}
