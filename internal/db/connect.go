package db

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib" // driver: pgx
	_ "modernc.org/sqlite"             // driver: sqlite
)

type Driver string

const (
	DriverSQLite   Driver = "sqlite"
	DriverPostgres Driver = "postgres"
)

// Open opens a DB and ensures schema exists.
func Open(ctx context.Context, driver Driver, dsn string) (*sql.DB, error) {
	var drvName string
	switch driver {
	case DriverSQLite:
		drvName = "sqlite" // modernc driver
		if dsn == "" {
			dsn = "file:gradeassist.db?cache=shared&mode=rwc&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
		}
	case DriverPostgres:
		drvName = "pgx" // pgx stdlib driver
		if dsn == "" {
			dsn = "postgres://localhost:5432/gradeassist?sslmode=disable"
		}
	default:
		return nil, fmt.Errorf("unsupported driver: %s", driver)
	}

	db, err := sql.Open(drvName, dsn)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	if err := ensureSchema(ctx, db, driver); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	return db, nil
}

func ensureSchema(ctx context.Context, db *sql.DB, driver Driver) error {
	var schema string
	switch driver {
	case DriverSQLite:
		schema = schemaSQLite
	case DriverPostgres:
		schema = schemaPostgres
	}
	_, err := db.ExecContext(ctx, schema)
	return err
}

const schemaSQLite = `
PRAGMA foreign_keys=ON;

CREATE TABLE IF NOT EXISTS users (
  id TEXT PRIMARY KEY,
  email TEXT NOT NULL UNIQUE,
  first_name TEXT NOT NULL DEFAULT '',
  last_name TEXT NOT NULL DEFAULT '',
  password_hash TEXT NOT NULL,
  role TEXT NOT NULL DEFAULT 'instructor',
  is_active INTEGER NOT NULL DEFAULT 1,
  created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS password_resets (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
  token_hash TEXT NOT NULL UNIQUE, -- sha256 hex; the token itself is never stored
  created_at INTEGER NOT NULL,
  expires_at INTEGER NOT NULL,
  used_at INTEGER
);

CREATE TABLE IF NOT EXISTS courses (
  id TEXT PRIMARY KEY,
  owner_user_id TEXT NOT NULL,
  code TEXT NOT NULL,
  title TEXT NOT NULL DEFAULT '',
  term TEXT NOT NULL DEFAULT '',
  created_at INTEGER NOT NULL,
  UNIQUE (owner_user_id, code, term)
);

CREATE TABLE IF NOT EXISTS sessions (
  id TEXT PRIMARY KEY,
  course_id TEXT NOT NULL REFERENCES courses(id) ON DELETE CASCADE,
  owner_user_id TEXT NOT NULL,
  name TEXT NOT NULL,
  created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS criteria (
  id TEXT PRIMARY KEY,
  session_id TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
  question_no INTEGER NOT NULL,
  label TEXT NOT NULL DEFAULT '',
  position INTEGER NOT NULL,
  UNIQUE (session_id, question_no)
);

CREATE TABLE IF NOT EXISTS summary_stats (
  id TEXT PRIMARY KEY,
  criteria_id TEXT NOT NULL REFERENCES criteria(id) ON DELETE CASCADE,
  seq INTEGER NOT NULL,
  team TEXT NOT NULL,
  recipient TEXT NOT NULL,
  recipient_email TEXT,
  total_points REAL NOT NULL DEFAULT 0,
  average_points REAL
);

CREATE TABLE IF NOT EXISTS summary_points (
  summary_id TEXT NOT NULL REFERENCES summary_stats(id) ON DELETE CASCADE,
  idx INTEGER NOT NULL,
  value REAL,
  PRIMARY KEY (summary_id, idx)
);

CREATE TABLE IF NOT EXISTS pa_not_submitted (
  session_id TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
  team TEXT NOT NULL,
  name TEXT NOT NULL,
  email TEXT,
  PRIMARY KEY (session_id, team, name)
);

CREATE TABLE IF NOT EXISTS grading_configs (
  session_id TEXT PRIMARY KEY REFERENCES sessions(id) ON DELETE CASCADE,
  pa_weight REAL NOT NULL DEFAULT 10,
  num_criteria INTEGER NOT NULL DEFAULT 0,
  penalty_percent REAL NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS group_marks (
  session_id TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
  team TEXT NOT NULL,
  group_mark REAL NOT NULL,
  updated_at INTEGER NOT NULL,
  PRIMARY KEY (session_id, team)
);

CREATE TABLE IF NOT EXISTS event_log (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  site_id TEXT NOT NULL DEFAULT 'local',
  typ TEXT NOT NULL,    -- e.g., ExportUploaded
  key TEXT NOT NULL,    -- natural key: sessionID
  data TEXT NOT NULL,   -- JSON payload
  created_at INTEGER NOT NULL
);
`

const schemaPostgres = `
CREATE TABLE IF NOT EXISTS users (
  id TEXT PRIMARY KEY,
  email TEXT NOT NULL UNIQUE,
  first_name TEXT NOT NULL DEFAULT '',
  last_name TEXT NOT NULL DEFAULT '',
  password_hash TEXT NOT NULL,
  role TEXT NOT NULL DEFAULT 'instructor',
  is_active INTEGER NOT NULL DEFAULT 1,
  created_at BIGINT NOT NULL
);

CREATE TABLE IF NOT EXISTS password_resets (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
  token_hash TEXT NOT NULL UNIQUE,
  created_at BIGINT NOT NULL,
  expires_at BIGINT NOT NULL,
  used_at BIGINT
);

CREATE TABLE IF NOT EXISTS courses (
  id TEXT PRIMARY KEY,
  owner_user_id TEXT NOT NULL,
  code TEXT NOT NULL,
  title TEXT NOT NULL DEFAULT '',
  term TEXT NOT NULL DEFAULT '',
  created_at BIGINT NOT NULL,
  UNIQUE (owner_user_id, code, term)
);

CREATE TABLE IF NOT EXISTS sessions (
  id TEXT PRIMARY KEY,
  course_id TEXT NOT NULL REFERENCES courses(id) ON DELETE CASCADE,
  owner_user_id TEXT NOT NULL,
  name TEXT NOT NULL,
  created_at BIGINT NOT NULL
);

CREATE TABLE IF NOT EXISTS criteria (
  id TEXT PRIMARY KEY,
  session_id TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
  question_no INTEGER NOT NULL,
  label TEXT NOT NULL DEFAULT '',
  position INTEGER NOT NULL,
  UNIQUE (session_id, question_no)
);

CREATE TABLE IF NOT EXISTS summary_stats (
  id TEXT PRIMARY KEY,
  criteria_id TEXT NOT NULL REFERENCES criteria(id) ON DELETE CASCADE,
  seq INTEGER NOT NULL,
  team TEXT NOT NULL,
  recipient TEXT NOT NULL,
  recipient_email TEXT,
  total_points DOUBLE PRECISION NOT NULL DEFAULT 0,
  average_points DOUBLE PRECISION
);

CREATE TABLE IF NOT EXISTS summary_points (
  summary_id TEXT NOT NULL REFERENCES summary_stats(id) ON DELETE CASCADE,
  idx INTEGER NOT NULL,
  value DOUBLE PRECISION,
  PRIMARY KEY (summary_id, idx)
);

CREATE TABLE IF NOT EXISTS pa_not_submitted (
  session_id TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
  team TEXT NOT NULL,
  name TEXT NOT NULL,
  email TEXT,
  PRIMARY KEY (session_id, team, name)
);

CREATE TABLE IF NOT EXISTS grading_configs (
  session_id TEXT PRIMARY KEY REFERENCES sessions(id) ON DELETE CASCADE,
  pa_weight DOUBLE PRECISION NOT NULL DEFAULT 10,
  num_criteria INTEGER NOT NULL DEFAULT 0,
  penalty_percent DOUBLE PRECISION NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS group_marks (
  session_id TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
  team TEXT NOT NULL,
  group_mark DOUBLE PRECISION NOT NULL,
  updated_at BIGINT NOT NULL,
  PRIMARY KEY (session_id, team)
);

CREATE TABLE IF NOT EXISTS event_log (
  id BIGSERIAL PRIMARY KEY,
  site_id TEXT NOT NULL DEFAULT 'local',
  typ TEXT NOT NULL,
  key TEXT NOT NULL,
  data TEXT NOT NULL,
  created_at BIGINT NOT NULL
);
`
