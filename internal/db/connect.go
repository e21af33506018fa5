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
			dsn = "file:fexa.db?cache=shared&mode=rwc&_pragma=busy_timeout(5000)"
		}
	case DriverPostgres:
		drvName = "pgx" // pgx stdlib driver
		if dsn == "" {
			dsn = "postgres://localhost:5432/fexa?sslmode=disable"
		}
	default:
		return nil, fmt.Errorf("unsupported driver: %s", driver)
	}

	db, err := sql.Open(drvName, dsn)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}

	if err := ensureSchema(ctx, db, driver); err != nil {
		return nil, err
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

CREATE TABLE IF NOT EXISTS exams (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  year INTEGER NOT NULL,
  season TEXT NOT NULL,
  UNIQUE (year, season)
);

CREATE TABLE IF NOT EXISTS questions (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  exam_id INTEGER NOT NULL REFERENCES exams(id) ON DELETE CASCADE,
  question_number INTEGER NOT NULL,
  question_type TEXT NOT NULL,
  question_text TEXT NOT NULL,
  has_image INTEGER NOT NULL DEFAULT 0,
  has_choice_table INTEGER NOT NULL DEFAULT 0,
  choice_table_format TEXT NOT NULL DEFAULT 'none',
  choice_table_markdown TEXT,
  UNIQUE (exam_id, question_number, question_type)
);

CREATE TABLE IF NOT EXISTS choices (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  question_id INTEGER NOT NULL REFERENCES questions(id) ON DELETE CASCADE,
  choice_label TEXT NOT NULL,
  choice_text TEXT NOT NULL,
  has_image INTEGER NOT NULL DEFAULT 0,
  is_table_format INTEGER NOT NULL DEFAULT 0,
  table_headers TEXT,
  table_data TEXT
);

CREATE TABLE IF NOT EXISTS question_images (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  question_id INTEGER NOT NULL REFERENCES questions(id) ON DELETE CASCADE,
  filename TEXT NOT NULL,
  alt_text TEXT NOT NULL DEFAULT '',
  storage_key TEXT,
  is_uploaded INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS choice_images (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  choice_id INTEGER NOT NULL REFERENCES choices(id) ON DELETE CASCADE,
  filename TEXT NOT NULL,
  alt_text TEXT NOT NULL DEFAULT '',
  storage_key TEXT,
  is_uploaded INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS import_runs (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  exam_id INTEGER NOT NULL REFERENCES exams(id) ON DELETE CASCADE,
  source_file TEXT NOT NULL,
  questions_new INTEGER NOT NULL DEFAULT 0,
  questions_reregistered INTEGER NOT NULL DEFAULT 0,
  questions_skipped INTEGER NOT NULL DEFAULT 0,
  questions_failed INTEGER NOT NULL DEFAULT 0,
  total_images INTEGER NOT NULL DEFAULT 0,
  import_status TEXT NOT NULL,
  error_log TEXT,
  started_at INTEGER NOT NULL,
  finished_at INTEGER NOT NULL
);
`

const schemaPostgres = `
CREATE TABLE IF NOT EXISTS exams (
  id BIGSERIAL PRIMARY KEY,
  year INTEGER NOT NULL,
  season TEXT NOT NULL,
  UNIQUE (year, season)
);

CREATE TABLE IF NOT EXISTS questions (
  id BIGSERIAL PRIMARY KEY,
  exam_id BIGINT NOT NULL REFERENCES exams(id) ON DELETE CASCADE,
  question_number INTEGER NOT NULL,
  question_type TEXT NOT NULL,
  question_text TEXT NOT NULL,
  has_image BOOLEAN NOT NULL DEFAULT FALSE,
  has_choice_table BOOLEAN NOT NULL DEFAULT FALSE,
  choice_table_format TEXT NOT NULL DEFAULT 'none',
  choice_table_markdown TEXT,
  UNIQUE (exam_id, question_number, question_type)
);

CREATE TABLE IF NOT EXISTS choices (
  id BIGSERIAL PRIMARY KEY,
  question_id BIGINT NOT NULL REFERENCES questions(id) ON DELETE CASCADE,
  choice_label TEXT NOT NULL,
  choice_text TEXT NOT NULL,
  has_image BOOLEAN NOT NULL DEFAULT FALSE,
  is_table_format BOOLEAN NOT NULL DEFAULT FALSE,
  table_headers TEXT,
  table_data TEXT
);

CREATE TABLE IF NOT EXISTS question_images (
  id BIGSERIAL PRIMARY KEY,
  question_id BIGINT NOT NULL REFERENCES questions(id) ON DELETE CASCADE,
  filename TEXT NOT NULL,
  alt_text TEXT NOT NULL DEFAULT '',
  storage_key TEXT,
  is_uploaded BOOLEAN NOT NULL DEFAULT FALSE
);

CREATE TABLE IF NOT EXISTS choice_images (
  id BIGSERIAL PRIMARY KEY,
  choice_id BIGINT NOT NULL REFERENCES choices(id) ON DELETE CASCADE,
  filename TEXT NOT NULL,
  alt_text TEXT NOT NULL DEFAULT '',
  storage_key TEXT,
  is_uploaded BOOLEAN NOT NULL DEFAULT FALSE
);

CREATE TABLE IF NOT EXISTS import_runs (
  id BIGSERIAL PRIMARY KEY,
  exam_id BIGINT NOT NULL REFERENCES exams(id) ON DELETE CASCADE,
  source_file TEXT NOT NULL,
  questions_new INTEGER NOT NULL DEFAULT 0,
  questions_reregistered INTEGER NOT NULL DEFAULT 0,
  questions_skipped INTEGER NOT NULL DEFAULT 0,
  questions_failed INTEGER NOT NULL DEFAULT 0,
  total_images INTEGER NOT NULL DEFAULT 0,
  import_status TEXT NOT NULL,
  error_log TEXT,
  started_at BIGINT NOT NULL,
  finished_at BIGINT NOT NULL
);
`
