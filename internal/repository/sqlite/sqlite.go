// Package sqlite implements the repository interfaces on top of SQLite.
//
// The driver is modernc.org/sqlite, a pure Go port, so the binary builds
// without cgo. Use ":memory:" for throwaway databases in tests.
//
// ONE CONNECTION:
// The pool is capped at a single connection. Every transaction is therefore
// serialized, which is what keeps the denormalized rating aggregate honest:
// a recompute inside a write transaction always sees every rating committed
// before it. It also keeps ":memory:" databases from splitting into one
// private database per pooled connection.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/sakif/playtrack/internal/repository"
)

// querier is the subset of *sql.DB and *sql.Tx the stores need.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// DB is the SQLite-backed repository.Database. A DB returned by New talks to
// the pool; the DB handed to a WithinTx callback is bound to that transaction.
type DB struct {
	conn *sql.DB
	q    querier
	inTx bool
	now  func() time.Time
}

var _ repository.Database = (*DB)(nil)

// connPragmas are applied by the driver to every new connection, so they
// survive the pool recycling its single connection.
var connPragmas = []string{
	"journal_mode(WAL)",
	"foreign_keys(1)",
	"busy_timeout(5000)",
}

// dsn appends connPragmas to dbPath as _pragma query parameters.
func dsn(dbPath string) string {
	sep := "?"
	if strings.Contains(dbPath, "?") {
		sep = "&"
	}
	var b strings.Builder
	b.WriteString(dbPath)
	for _, p := range connPragmas {
		b.WriteString(sep)
		b.WriteString("_pragma=")
		b.WriteString(p)
		sep = "&"
	}
	return b.String()
}

// New opens (or creates) the database at dbPath and runs migrations.
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dsn(dbPath))
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}
	conn.SetMaxOpenConns(1)

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	db := &DB{
		conn: conn,
		q:    conn,
		now:  func() time.Time { return time.Now().UTC() },
	}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}
	return db, nil
}

func (db *DB) Close() error {
	return db.conn.Close()
}

// Ping is used by the health check.
func (db *DB) Ping(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}

// WithinTx runs fn inside one transaction. Any error from fn, or a panic,
// rolls back everything fn did. Calling WithinTx on a DB that is already
// bound to a transaction just runs fn in that transaction.
func (db *DB) WithinTx(ctx context.Context, fn func(tx repository.Store) error) (err error) {
	if db.inTx {
		return fn(db)
	}

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: beginning transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
		if err != nil {
			tx.Rollback()
		}
	}()

	if err = fn(&DB{conn: db.conn, q: tx, inTx: true, now: db.now}); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: committing transaction: %w", err)
	}
	return nil
}

func (db *DB) migrate() error {
	_, err := db.conn.Exec(schema)
	return err
}

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id            TEXT PRIMARY KEY,
	handle        TEXT NOT NULL UNIQUE,
	email         TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL DEFAULT '',
	github_id     INTEGER UNIQUE,
	display_name  TEXT NOT NULL DEFAULT '',
	avatar_url    TEXT NOT NULL DEFAULT '',
	bio           TEXT NOT NULL DEFAULT '',
	created_at    DATETIME NOT NULL,
	updated_at    DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS games (
	id           TEXT PRIMARY KEY,
	external_id  TEXT NOT NULL UNIQUE,
	title        TEXT NOT NULL,
	description  TEXT NOT NULL DEFAULT '',
	cover_image  TEXT NOT NULL DEFAULT '',
	release_date DATETIME,
	genres       TEXT NOT NULL DEFAULT '[]',
	platforms    TEXT NOT NULL DEFAULT '[]',
	developer    TEXT NOT NULL DEFAULT '',
	publisher    TEXT NOT NULL DEFAULT '',
	avg_rating   REAL NOT NULL DEFAULT 0,
	rating_count INTEGER NOT NULL DEFAULT 0,
	created_at   DATETIME NOT NULL,
	updated_at   DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS library_entries (
	id            TEXT PRIMARY KEY,
	user_id       TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	game_id       TEXT NOT NULL REFERENCES games(id),
	status        TEXT NOT NULL,
	rating        INTEGER,
	review        TEXT,
	favorite      INTEGER NOT NULL DEFAULT 0,
	hours_played  REAL NOT NULL DEFAULT 0,
	session_count INTEGER NOT NULL DEFAULT 0,
	started_at    DATETIME,
	completed_at  DATETIME,
	created_at    DATETIME NOT NULL,
	updated_at    DATETIME NOT NULL,
	UNIQUE (user_id, game_id)
);
CREATE INDEX IF NOT EXISTS idx_library_game ON library_entries(game_id);

CREATE TABLE IF NOT EXISTS play_sessions (
	id               TEXT PRIMARY KEY,
	entry_id         TEXT NOT NULL REFERENCES library_entries(id) ON DELETE CASCADE,
	duration_minutes INTEGER NOT NULL,
	platform         TEXT NOT NULL DEFAULT '',
	note             TEXT,
	played_at        DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_sessions_entry ON play_sessions(entry_id);

CREATE TABLE IF NOT EXISTS reviews (
	id         TEXT PRIMARY KEY,
	user_id    TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	game_id    TEXT NOT NULL REFERENCES games(id),
	content    TEXT NOT NULL,
	likes      INTEGER NOT NULL DEFAULT 0,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL,
	UNIQUE (user_id, game_id)
);
CREATE INDEX IF NOT EXISTS idx_reviews_game ON reviews(game_id);

CREATE TABLE IF NOT EXISTS comments (
	id         TEXT PRIMARY KEY,
	user_id    TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	game_id    TEXT NOT NULL REFERENCES games(id),
	content    TEXT NOT NULL,
	created_at DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_comments_game ON comments(game_id, created_at);

CREATE TABLE IF NOT EXISTS follows (
	follower_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	followee_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	created_at  DATETIME NOT NULL,
	PRIMARY KEY (follower_id, followee_id),
	CHECK (follower_id <> followee_id)
);
CREATE INDEX IF NOT EXISTS idx_follows_followee ON follows(followee_id);

CREATE TABLE IF NOT EXISTS activities (
	seq        INTEGER PRIMARY KEY AUTOINCREMENT,
	id         TEXT NOT NULL UNIQUE,
	user_id    TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	game_id    TEXT,
	kind       TEXT NOT NULL,
	entity_id  TEXT,
	metadata   TEXT,
	created_at DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_activities_user ON activities(user_id, seq);

CREATE TABLE IF NOT EXISTS game_lists (
	id          TEXT PRIMARY KEY,
	user_id     TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	title       TEXT NOT NULL,
	description TEXT,
	type        TEXT NOT NULL DEFAULT 'CUSTOM',
	is_public   INTEGER NOT NULL DEFAULT 1,
	created_at  DATETIME NOT NULL,
	updated_at  DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_lists_user ON game_lists(user_id);

CREATE TABLE IF NOT EXISTS game_list_items (
	id       TEXT PRIMARY KEY,
	list_id  TEXT NOT NULL REFERENCES game_lists(id) ON DELETE CASCADE,
	game_id  TEXT NOT NULL REFERENCES games(id),
	position INTEGER NOT NULL,
	note     TEXT,
	added_at DATETIME NOT NULL,
	UNIQUE (list_id, game_id)
);
`
