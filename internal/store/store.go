package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

// Supported database/sql driver names
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "pgx"
)

var (
	// ErrNotFound is returned when a looked-up row does not exist
	ErrNotFound = errors.New("not found")
	// ErrNoUser is returned when there is no user to attach scraped data to
	ErrNoUser = errors.New("no user found in database")
)

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// conn carries the read and write primitives. It runs on either the pool or
// a transaction, so Store and Tx share every method.
type conn struct {
	q      querier
	driver string
	now    func() time.Time
}

func (c conn) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return c.q.ExecContext(ctx, c.rebind(query), args...)
}

func (c conn) query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return c.q.QueryContext(ctx, c.rebind(query), args...)
}

func (c conn) queryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return c.q.QueryRowContext(ctx, c.rebind(query), args...)
}

// rebind rewrites ? placeholders to $1, $2, ... for Postgres
func (c conn) rebind(query string) string {
	if c.driver != DriverPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func newID() string {
	return uuid.NewString()
}

// Store handles all database operations
type Store struct {
	conn
	db *sql.DB
}

// Tx is a Store scoped to one transaction
type Tx struct {
	conn
}

// New opens a Store. For sqlite the schema is created if needed; the
// Postgres schema is owned by the dashboard's migrations.
func New(driver, dsn string) (*Store, error) {
	switch driver {
	case DriverSQLite:
		if dsn != ":memory:" && !strings.HasPrefix(dsn, "file:") {
			if err := os.MkdirAll(filepath.Dir(dsn), 0700); err != nil {
				return nil, err
			}
		}
	case DriverPostgres:
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("opening %s database: %w", driver, err)
	}

	if driver == DriverSQLite {
		// One connection keeps :memory: databases alive and serializes writers.
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging %s database: %w", driver, err)
	}

	s := &Store{
		conn: conn{q: db, driver: driver, now: time.Now},
		db:   db,
	}

	if driver == DriverSQLite {
		if err := s.migrate(); err != nil {
			db.Close()
			return nil, fmt.Errorf("migrating schema: %w", err)
		}
	}

	return s, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// SetClock overrides the clock used for created_at/updated_at columns
func (s *Store) SetClock(now func() time.Time) {
	s.now = now
}

// WithTx runs fn in a transaction, committing when it returns nil
func (s *Store) WithTx(ctx context.Context, fn func(tx *Tx) error) error {
	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	tx := &Tx{conn: conn{q: sqlTx, driver: s.driver, now: s.now}}
	if err := fn(tx); err != nil {
		if rbErr := sqlTx.Rollback(); rbErr != nil {
			return errors.Join(err, fmt.Errorf("rollback: %w", rbErr))
		}
		return err
	}

	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Day returns the calendar date of t as midnight UTC, the value stored in
// date columns.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// migrate creates the database schema
func (s *Store) migrate() error {
	schema := `
	PRAGMA foreign_keys = ON;

	CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		email TEXT NOT NULL UNIQUE,
		name TEXT,
		created_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS li_profiles (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL UNIQUE REFERENCES users(id),
		linkedin_id TEXT NOT NULL,
		name TEXT,
		headline TEXT,
		followers INTEGER,
		connections INTEGER,
		fetched_at DATETIME,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS li_posts (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL REFERENCES users(id),
		linkedin_post_id TEXT NOT NULL UNIQUE,
		content TEXT NOT NULL,
		post_type TEXT NOT NULL,
		published_at DATETIME,
		impressions INTEGER,
		likes INTEGER,
		comments INTEGER,
		shares INTEGER,
		fetched_at DATETIME,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS post_metrics_history (
		id TEXT PRIMARY KEY,
		post_id TEXT NOT NULL REFERENCES li_posts(id),
		date DATE NOT NULL,
		impressions INTEGER,
		likes INTEGER,
		comments INTEGER,
		shares INTEGER,
		impressions_delta INTEGER,
		likes_delta INTEGER,
		comments_delta INTEGER,
		shares_delta INTEGER,
		created_at DATETIME NOT NULL,
		UNIQUE (post_id, date)
	);

	CREATE TABLE IF NOT EXISTS hashtag_stats (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL REFERENCES users(id),
		hashtag TEXT NOT NULL,
		posts_count INTEGER NOT NULL,
		total_impressions INTEGER NOT NULL,
		total_likes INTEGER NOT NULL,
		avg_engagement REAL NOT NULL,
		last_used_at DATETIME,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL,
		UNIQUE (user_id, hashtag)
	);

	CREATE TABLE IF NOT EXISTS post_comments (
		id TEXT PRIMARY KEY,
		post_id TEXT NOT NULL REFERENCES li_posts(id),
		commenter_name TEXT NOT NULL,
		commenter_headline TEXT,
		comment_text TEXT NOT NULL,
		created_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS post_demographics (
		id TEXT PRIMARY KEY,
		post_id TEXT NOT NULL REFERENCES li_posts(id),
		category TEXT NOT NULL,
		value TEXT NOT NULL,
		percentage REAL NOT NULL,
		created_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS audience_demographics (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL REFERENCES users(id),
		date DATE NOT NULL,
		category TEXT NOT NULL,
		value TEXT NOT NULL,
		percentage REAL NOT NULL,
		created_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS analytics_snapshots (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL REFERENCES users(id),
		date DATE NOT NULL,
		followers INTEGER,
		posts_count INTEGER,
		total_impressions INTEGER,
		total_engagements INTEGER,
		profile_views INTEGER,
		search_appearances INTEGER,
		created_at DATETIME NOT NULL,
		UNIQUE (user_id, date)
	);

	CREATE INDEX IF NOT EXISTS idx_posts_user ON li_posts(user_id);
	CREATE INDEX IF NOT EXISTS idx_comments_post ON post_comments(post_id);
	CREATE INDEX IF NOT EXISTS idx_post_demographics_post ON post_demographics(post_id);
	CREATE INDEX IF NOT EXISTS idx_audience_user_date ON audience_demographics(user_id, date);
	`

	_, err := s.db.Exec(schema)
	return err
}
