package main

import (
	"database/sql"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"

	defaultLeaderboardLimit = 10
	maxLeaderboardLimit     = 100
)

// DB wraps the SQL connection. Queries are written with ? placeholders and
// rebound for postgres.
type DB struct {
	conn   *sql.DB
	driver string
}

// PlayerRow represents an account that claimed a username
type PlayerRow struct {
	ID        int64
	Username  string
	PassHash  string
	CreatedAt time.Time
}

// LeaderboardEntry represents one recorded run
type LeaderboardEntry struct {
	Rank     int       `json:"rank"`
	Username string    `json:"username"`
	Score    int       `json:"score"`
	Tier     int       `json:"tier"`
	Seconds  float64   `json:"seconds"`
	EndedAt  time.Time `json:"endedAt"`
}

// OpenDB opens the store. An empty sqlite DSN means an in-memory database.
func OpenDB(driver, dsn string) (*DB, error) {
	switch driver {
	case DriverSQLite:
		if dsn == "" {
			dsn = ":memory:"
		}
	case DriverPostgres:
		if dsn == "" {
			return nil, fmt.Errorf("postgres requires a DSN")
		}
	default:
		return nil, fmt.Errorf("unknown database driver %q", driver)
	}

	conn, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	if driver == DriverSQLite {
		// one connection: an in-memory database lives and dies with it
		conn.SetMaxOpenConns(1)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}

	if driver == DriverSQLite {
		if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
			conn.Close()
			return nil, err
		}
		if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
			conn.Close()
			return nil, err
		}
	}

	db := &DB{conn: conn, driver: driver}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, err
	}
	return db, nil
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.conn.Close()
}

// rebind turns ? placeholders into $1, $2, ... for postgres
func (db *DB) rebind(query string) string {
	if db.driver != DriverPostgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
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

// migrate creates tables if they don't exist
func (db *DB) migrate() error {
	idCol := "INTEGER PRIMARY KEY AUTOINCREMENT"
	tsType := "TIMESTAMP"
	if db.driver == DriverPostgres {
		idCol = "BIGSERIAL PRIMARY KEY"
		tsType = "TIMESTAMPTZ"
	}
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS players (
			id ` + idCol + `,
			username TEXT NOT NULL UNIQUE,
			pass_hash TEXT NOT NULL DEFAULT '',
			created_at ` + tsType + ` NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS events (
			id ` + idCol + `,
			event_type TEXT NOT NULL,
			player_id BIGINT,
			data TEXT,
			created_at ` + tsType + ` NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS runs (
			id ` + idCol + `,
			player_id BIGINT,
			username TEXT NOT NULL,
			score INTEGER NOT NULL DEFAULT 0,
			tier INTEGER NOT NULL DEFAULT 0,
			seconds REAL NOT NULL DEFAULT 0,
			reason TEXT NOT NULL DEFAULT '',
			ended_at ` + tsType + ` NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_score ON runs(score)`,
		`CREATE INDEX IF NOT EXISTS idx_events_type ON events(event_type)`,
	}
	for _, s := range stmts {
		if _, err := db.conn.Exec(s); err != nil {
			log.Printf("DB migration error: %v", err)
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

// CreatePlayer creates a new account (returns player ID)
func (db *DB) CreatePlayer(username, passHash string) (int64, error) {
	now := time.Now().UTC()
	if db.driver == DriverPostgres {
		var id int64
		err := db.conn.QueryRow(
			db.rebind("INSERT INTO players (username, pass_hash, created_at) VALUES (?, ?, ?) RETURNING id"),
			username, passHash, now,
		).Scan(&id)
		return id, err
	}
	res, err := db.conn.Exec(
		"INSERT INTO players (username, pass_hash, created_at) VALUES (?, ?, ?)",
		username, passHash, now,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// GetPlayerByUsername returns an account by username, or nil
func (db *DB) GetPlayerByUsername(username string) (*PlayerRow, error) {
	row := db.conn.QueryRow(
		db.rebind("SELECT id, username, pass_hash, created_at FROM players WHERE username = ?"),
		username,
	)
	p := &PlayerRow{}
	err := row.Scan(&p.ID, &p.Username, &p.PassHash, &p.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

// GetSetting returns a stored setting, or "" when unset
func (db *DB) GetSetting(key string) string {
	var v string
	err := db.conn.QueryRow(db.rebind("SELECT value FROM settings WHERE key = ?"), key).Scan(&v)
	if err != nil {
		return ""
	}
	return v
}

// SetSetting stores a setting, replacing any previous value
func (db *DB) SetSetting(key, value string) error {
	_, err := db.conn.Exec(db.rebind(
		`INSERT INTO settings (key, value) VALUES (?, ?)
		 ON CONFLICT (key) DO UPDATE SET value = excluded.value`),
		key, value,
	)
	return err
}

// InsertBatch writes events and, for run_end events, run records in one
// transaction
func (db *DB) InsertBatch(events []AnalyticsEvent) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	evStmt, err := tx.Prepare(db.rebind(
		`INSERT INTO events (event_type, player_id, data, created_at) VALUES (?, ?, ?, ?)`))
	if err != nil {
		return fmt.Errorf("prepare events: %w", err)
	}
	defer evStmt.Close()

	runStmt, err := tx.Prepare(db.rebind(
		`INSERT INTO runs (player_id, username, score, tier, seconds, reason, ended_at) VALUES (?, ?, ?, ?, ?, ?, ?)`))
	if err != nil {
		return fmt.Errorf("prepare runs: %w", err)
	}
	defer runStmt.Close()

	for _, evt := range events {
		pid := sql.NullInt64{Int64: evt.PlayerID, Valid: evt.PlayerID > 0}
		data := sql.NullString{String: evt.Data, Valid: evt.Data != ""}
		if _, err := evStmt.Exec(evt.Type, pid, data, evt.Timestamp); err != nil {
			log.Printf("store: insert event error: %v", err)
			continue
		}
		if evt.Run == nil {
			continue
		}
		r := evt.Run
		if _, err := runStmt.Exec(pid, r.Username, r.Score, int(r.Tier), r.Seconds, r.Reason, evt.Timestamp); err != nil {
			log.Printf("store: insert run error: %v", err)
		}
	}
	return tx.Commit()
}

// CountEvents returns how many events of a type were stored
func (db *DB) CountEvents(evtType string) (int, error) {
	var n int
	err := db.conn.QueryRow(db.rebind("SELECT COUNT(*) FROM events WHERE event_type = ?"), evtType).Scan(&n)
	return n, err
}

// Leaderboard returns the best runs, highest score first
func (db *DB) Leaderboard(limit int) ([]LeaderboardEntry, error) {
	if limit <= 0 {
		limit = defaultLeaderboardLimit
	}
	if limit > maxLeaderboardLimit {
		limit = maxLeaderboardLimit
	}
	rows, err := db.conn.Query(db.rebind(
		`SELECT username, score, tier, seconds, ended_at FROM runs
		 ORDER BY score DESC, seconds DESC, id ASC LIMIT ?`), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make([]LeaderboardEntry, 0, limit)
	rank := 1
	for rows.Next() {
		var e LeaderboardEntry
		if err := rows.Scan(&e.Username, &e.Score, &e.Tier, &e.Seconds, &e.EndedAt); err != nil {
			return nil, err
		}
		e.Rank = rank
		rank++
		result = append(result, e)
	}
	return result, rows.Err()
}

// UsernameExists checks if a username is claimed
func (db *DB) UsernameExists(username string) (bool, error) {
	var count int
	err := db.conn.QueryRow(db.rebind("SELECT COUNT(*) FROM players WHERE username = ?"), username).Scan(&count)
	return count > 0, err
}
