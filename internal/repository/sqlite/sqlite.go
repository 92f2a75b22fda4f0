// Package sqlite implements the repository interfaces using SQLite as the storage backend.
//
// WHY SQLITE?
// A runners club is a small community: a single embedded database file is
// enough and needs no separate server. modernc.org/sqlite is a pure Go
// translation of SQLite, so the binary cross-compiles without a C toolchain.
//
// EMBEDDED RELATIONS:
// Rows that reference a profile (event organizer, post and review author,
// activity owner) are joined through their foreign key and carry the small
// display subset (full_name, avatar_url) as a *model.PersonRef.
//
// TIMESTAMPS:
// All times are written in UTC so that ORDER BY on the stored text matches
// chronological order.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gosimple/slug"
	"github.com/rs/xid"
	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"

	"github.com/protanvir/runners-bd/internal/model"
)

// DB wraps a sql.DB connection pool and implements every repository
// interface in internal/repository.
type DB struct {
	conn *sql.DB
}

// New opens the database at dbPath and runs migrations.
//
// dbPath examples:
//   - "data/runners.db" → file-based database (persistent)
//   - ":memory:"        → in-memory database (tests)
func New(dbPath string) (*DB, error) {
	dsn := dbPath
	if dbPath != ":memory:" {
		// Writers wait for the lock instead of failing with SQLITE_BUSY.
		dsn += "?_pragma=busy_timeout(5000)"
	}
	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// Every new connection to ":memory:" is a brand-new empty database,
	// so the pool must never grow past one.
	if dbPath == ":memory:" {
		conn.SetMaxOpenConns(1)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// WAL lets readers proceed while a write is in progress.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}

	// Foreign keys are OFF by default in SQLite.
	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: enabling foreign keys: %w", err)
	}

	db := &DB{conn: conn}

	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	if err := db.seedCategories(context.Background()); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: seeding forum categories: %w", err)
	}

	return db, nil
}

// Close closes the database connection pool.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Ping reports whether the database is reachable.
func (db *DB) Ping(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}

// migrate creates all tables. Every statement is idempotent.
//
// Profiles share their primary key with accounts (one-to-one). The three
// capability flags default to 1 so a new runner can post right away; an
// admin can revoke them later.
func (db *DB) migrate() error {
	steps := []struct {
		name string
		sql  string
	}{
		{"accounts", `
			CREATE TABLE IF NOT EXISTS accounts (
				id               TEXT PRIMARY KEY,
				provider         TEXT NOT NULL,
				provider_user_id TEXT NOT NULL,
				email            TEXT NOT NULL DEFAULT '',
				email_verified   INTEGER NOT NULL DEFAULT 0,
				created_at       DATETIME NOT NULL,
				UNIQUE (provider, provider_user_id)
			);
		`},
		{"profiles", `
			CREATE TABLE IF NOT EXISTS profiles (
				id                TEXT PRIMARY KEY REFERENCES accounts(id),
				email             TEXT NOT NULL DEFAULT '',
				username          TEXT NOT NULL DEFAULT '',
				full_name         TEXT NOT NULL DEFAULT '',
				avatar_url        TEXT NOT NULL DEFAULT '',
				bio               TEXT NOT NULL DEFAULT '',
				location          TEXT NOT NULL DEFAULT '',
				running_level     TEXT NOT NULL DEFAULT 'beginner',
				role              TEXT NOT NULL DEFAULT 'user',
				can_create_event  INTEGER NOT NULL DEFAULT 1,
				can_create_review INTEGER NOT NULL DEFAULT 1,
				can_create_post   INTEGER NOT NULL DEFAULT 1,
				created_at        DATETIME NOT NULL,
				updated_at        DATETIME NOT NULL
			);
			CREATE INDEX IF NOT EXISTS idx_profiles_created_at ON profiles(created_at);
		`},
		{"events", `
			CREATE TABLE IF NOT EXISTS events (
				id           TEXT PRIMARY KEY,
				organizer_id TEXT NOT NULL,
				title        TEXT NOT NULL,
				event_date   DATETIME NOT NULL,
				location     TEXT NOT NULL DEFAULT '',
				description  TEXT NOT NULL DEFAULT '',
				event_type   TEXT NOT NULL DEFAULT 'group_run',
				created_at   DATETIME NOT NULL,
				CONSTRAINT events_organizer_id_fkey FOREIGN KEY (organizer_id) REFERENCES profiles(id)
			);
			CREATE INDEX IF NOT EXISTS idx_events_event_date ON events(event_date);
		`},
		{"event_attendees", `
			CREATE TABLE IF NOT EXISTS event_attendees (
				id         TEXT PRIMARY KEY,
				event_id   TEXT NOT NULL REFERENCES events(id),
				user_id    TEXT NOT NULL REFERENCES profiles(id),
				status     TEXT NOT NULL DEFAULT 'going',
				created_at DATETIME NOT NULL,
				UNIQUE (event_id, user_id)
			);
		`},
		{"forum_categories", `
			CREATE TABLE IF NOT EXISTS forum_categories (
				id          TEXT PRIMARY KEY,
				name        TEXT NOT NULL,
				slug        TEXT NOT NULL UNIQUE,
				description TEXT NOT NULL DEFAULT '',
				position    INTEGER NOT NULL DEFAULT 0
			);
		`},
		{"forum_posts", `
			CREATE TABLE IF NOT EXISTS forum_posts (
				id          TEXT PRIMARY KEY,
				category_id TEXT NOT NULL REFERENCES forum_categories(id),
				author_id   TEXT NOT NULL REFERENCES profiles(id),
				title       TEXT NOT NULL,
				content     TEXT NOT NULL DEFAULT '',
				created_at  DATETIME NOT NULL
			);
			CREATE INDEX IF NOT EXISTS idx_forum_posts_category ON forum_posts(category_id, created_at);
		`},
		{"gear_reviews", `
			CREATE TABLE IF NOT EXISTS gear_reviews (
				id          TEXT PRIMARY KEY,
				author_id   TEXT NOT NULL REFERENCES profiles(id),
				gear_name   TEXT NOT NULL,
				gear_type   TEXT NOT NULL,
				rating      INTEGER NOT NULL CHECK (rating BETWEEN 1 AND 5),
				review_text TEXT NOT NULL DEFAULT '',
				created_at  DATETIME NOT NULL
			);
			CREATE INDEX IF NOT EXISTS idx_gear_reviews_created_at ON gear_reviews(created_at);
		`},
		{"activities", `
			CREATE TABLE IF NOT EXISTS activities (
				id               TEXT PRIMARY KEY,
				user_id          TEXT NOT NULL REFERENCES profiles(id),
				name             TEXT NOT NULL DEFAULT '',
				distance_km      REAL,
				duration_seconds INTEGER NOT NULL DEFAULT 0,
				started_at       DATETIME NOT NULL,
				source           TEXT NOT NULL DEFAULT 'manual',
				external_id      TEXT,
				created_at       DATETIME NOT NULL,
				UNIQUE (source, external_id)
			);
		`},
		{"leaderboard_totals", `
			CREATE TABLE IF NOT EXISTS leaderboard_totals (
				user_id           TEXT PRIMARY KEY REFERENCES profiles(id),
				total_distance_km REAL NOT NULL DEFAULT 0,
				activity_count    INTEGER NOT NULL DEFAULT 0,
				first_seen_seq    INTEGER NOT NULL
			);
		`},
	}

	for _, step := range steps {
		if _, err := db.conn.Exec(step.sql); err != nil {
			return fmt.Errorf("creating %s table: %w", step.name, err)
		}
	}

	// Tracker link columns came after the first release of profiles.
	stravaColumns := []struct{ name, def string }{
		{"strava_athlete_id", "INTEGER"},
		{"strava_access_token", "TEXT"},
		{"strava_refresh_token", "TEXT"},
		{"strava_expires_at", "DATETIME"},
	}
	for _, c := range stravaColumns {
		if err := db.addColumnIfNotExists("profiles", c.name, c.def); err != nil {
			return fmt.Errorf("adding %s to profiles: %w", c.name, err)
		}
	}

	return nil
}

// addColumnIfNotExists adds a column to a table only if it doesn't already exist.
// Makes ALTER TABLE migrations idempotent.
func (db *DB) addColumnIfNotExists(table, column, definition string) error {
	var count int
	err := db.conn.QueryRow(
		`SELECT COUNT(*) FROM pragma_table_info(?) WHERE name = ?`,
		table, column,
	).Scan(&count)
	if err != nil {
		return fmt.Errorf("checking column %s.%s: %w", table, column, err)
	}
	if count > 0 {
		return nil
	}
	_, err = db.conn.Exec(fmt.Sprintf(
		`ALTER TABLE %s ADD COLUMN %s %s`, table, column, definition,
	))
	return err
}

// defaultCategories is the forum reference data. Slugs are derived from names.
var defaultCategories = []struct{ name, description string }{
	{"General Discussion", "Anything running related"},
	{"Training & Technique", "Plans, workouts, form and pacing"},
	{"Races & Events", "Race reports, upcoming races and meetups"},
	{"Gear Talk", "Shoes, watches and everything you run in"},
	{"Nutrition & Recovery", "Fueling, hydration, injuries and rest"},
}

// seedCategories inserts the default forum categories once.
func (db *DB) seedCategories(ctx context.Context) error {
	for i, c := range defaultCategories {
		_, err := db.conn.ExecContext(ctx,
			`INSERT OR IGNORE INTO forum_categories (id, name, slug, description, position)
			 VALUES (?, ?, ?, ?, ?)`,
			xid.New().String(), c.name, slug.Make(c.name), c.description, i,
		)
		if err != nil {
			return fmt.Errorf("inserting category %q: %w", c.name, err)
		}
	}
	return nil
}

// isUniqueViolation reports whether err comes from a UNIQUE or PRIMARY KEY
// constraint. The message check covers errors that lost their type on the way.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
			return true
		}
	}
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint failed")
}

// now returns the current time in UTC; see TIMESTAMPS above.
func now() time.Time {
	return time.Now().UTC()
}

// personRef builds the embedded display subset, nil when the join found no row.
func personRef(fullName, avatarURL sql.NullString) *model.PersonRef {
	if !fullName.Valid && !avatarURL.Valid {
		return nil
	}
	return &model.PersonRef{FullName: fullName.String, AvatarURL: avatarURL.String}
}
