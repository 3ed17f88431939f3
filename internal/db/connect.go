package db

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	_ "github.com/go-sql-driver/mysql" // driver: mysql
	_ "github.com/jackc/pgx/v5/stdlib" // driver: pgx
	_ "modernc.org/sqlite"             // driver: sqlite
)

type Driver string

const (
	DriverSQLite   Driver = "sqlite"
	DriverPostgres Driver = "postgres"
	DriverMySQL    Driver = "mysql"
)

// Open opens a DB and ensures schema exists.
func Open(ctx context.Context, driver Driver, dsn string) (*sql.DB, error) {
	var drvName string
	switch driver {
	case DriverSQLite:
		drvName = "sqlite" // modernc driver
		if dsn == "" {
			dsn = "file:mockprep.db?cache=shared&mode=rwc&_pragma=busy_timeout(5000)"
		}
	case DriverPostgres:
		drvName = "pgx" // pgx stdlib driver
		if dsn == "" {
			dsn = "postgres://localhost:5432/mockprep?sslmode=disable"
		}
	case DriverMySQL:
		drvName = "mysql"
		if dsn == "" {
			dsn = "root@tcp(localhost:3306)/mockprep?parseTime=true&charset=utf8mb4"
		}
	default:
		return nil, fmt.Errorf("unsupported driver: %s", driver)
	}

	db, err := sql.Open(drvName, dsn)
	if err != nil {
		return nil, err
	}
	if driver == DriverSQLite {
		// a single connection also keeps ":memory:" databases coherent
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}

	if err := EnsureSchema(ctx, db, driver); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	return db, nil
}

// EnsureSchema creates the tables for driver if they are missing.
func EnsureSchema(ctx context.Context, db *sql.DB, driver Driver) error {
	var stmts []string
	switch driver {
	case DriverSQLite:
		stmts = schemaSQLite
	case DriverPostgres:
		stmts = schemaPostgres
	case DriverMySQL:
		stmts = schemaMySQL
	default:
		return fmt.Errorf("unsupported driver: %s", driver)
	}
	for _, s := range stmts {
		if _, err := db.ExecContext(ctx, s); err != nil {
			return err
		}
	}
	return nil
}

// Rebind rewrites '?' placeholders into the driver's native form.
// Queries in this module are written with '?'; postgres wants $1..$n.
func Rebind(driver Driver, query string) string {
	if driver != DriverPostgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}

var schemaSQLite = []string{
	`PRAGMA foreign_keys=ON`,
	`CREATE TABLE IF NOT EXISTS tags (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  seq INTEGER NOT NULL
)`,
	`CREATE TABLE IF NOT EXISTS questions (
  id TEXT PRIMARY KEY,
  body TEXT NOT NULL,
  seq INTEGER NOT NULL
)`,
	`CREATE TABLE IF NOT EXISTS question_groups (
  id TEXT PRIMARY KEY,
  body TEXT NOT NULL,
  seq INTEGER NOT NULL
)`,
	`CREATE TABLE IF NOT EXISTS tests (
  id TEXT PRIMARY KEY,
  body TEXT NOT NULL,
  seq INTEGER NOT NULL
)`,
	`CREATE TABLE IF NOT EXISTS test_sessions (
  id TEXT PRIMARY KEY,
  test_id TEXT NOT NULL,
  question_ids TEXT NOT NULL,
  question_group_ids TEXT NOT NULL,
  started_at INTEGER NOT NULL
)`,
	`CREATE INDEX IF NOT EXISTS idx_test_sessions_test ON test_sessions(test_id)`,
	`CREATE TABLE IF NOT EXISTS test_attempts (
  id TEXT PRIMARY KEY,
  session_id TEXT NOT NULL REFERENCES test_sessions(id),
  status TEXT NOT NULL,
  score INTEGER NOT NULL DEFAULT 0,
  total_questions INTEGER NOT NULL DEFAULT 0,
  answers TEXT NOT NULL,
  started_at INTEGER NOT NULL,
  completed_at INTEGER
)`,
	`CREATE INDEX IF NOT EXISTS idx_test_attempts_session ON test_attempts(session_id)`,
	`CREATE TABLE IF NOT EXISTS event_log (
  seq INTEGER PRIMARY KEY AUTOINCREMENT,
  site_id TEXT NOT NULL DEFAULT 'local',
  typ TEXT NOT NULL,
  event_key TEXT NOT NULL,
  data TEXT NOT NULL,
  created_at INTEGER NOT NULL
)`,
	`CREATE TABLE IF NOT EXISTS relay_cursor (
  name TEXT PRIMARY KEY,
  seq INTEGER NOT NULL
)`,
}

var schemaPostgres = []string{
	`CREATE TABLE IF NOT EXISTS tags (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  seq INTEGER NOT NULL
)`,
	`CREATE TABLE IF NOT EXISTS questions (
  id TEXT PRIMARY KEY,
  body TEXT NOT NULL,
  seq INTEGER NOT NULL
)`,
	`CREATE TABLE IF NOT EXISTS question_groups (
  id TEXT PRIMARY KEY,
  body TEXT NOT NULL,
  seq INTEGER NOT NULL
)`,
	`CREATE TABLE IF NOT EXISTS tests (
  id TEXT PRIMARY KEY,
  body TEXT NOT NULL,
  seq INTEGER NOT NULL
)`,
	`CREATE TABLE IF NOT EXISTS test_sessions (
  id TEXT PRIMARY KEY,
  test_id TEXT NOT NULL,
  question_ids TEXT NOT NULL,
  question_group_ids TEXT NOT NULL,
  started_at BIGINT NOT NULL
)`,
	`CREATE INDEX IF NOT EXISTS idx_test_sessions_test ON test_sessions(test_id)`,
	`CREATE TABLE IF NOT EXISTS test_attempts (
  id TEXT PRIMARY KEY,
  session_id TEXT NOT NULL REFERENCES test_sessions(id),
  status TEXT NOT NULL,
  score INTEGER NOT NULL DEFAULT 0,
  total_questions INTEGER NOT NULL DEFAULT 0,
  answers TEXT NOT NULL,
  started_at BIGINT NOT NULL,
  completed_at BIGINT
)`,
	`CREATE INDEX IF NOT EXISTS idx_test_attempts_session ON test_attempts(session_id)`,
	`CREATE TABLE IF NOT EXISTS event_log (
  seq BIGSERIAL PRIMARY KEY,
  site_id TEXT NOT NULL DEFAULT 'local',
  typ TEXT NOT NULL,
  event_key TEXT NOT NULL,
  data TEXT NOT NULL,
  created_at BIGINT NOT NULL
)`,
	`CREATE TABLE IF NOT EXISTS relay_cursor (
  name TEXT PRIMARY KEY,
  seq BIGINT NOT NULL
)`,
}

// MySQL cannot index unbounded TEXT, so ids are VARCHAR.
var schemaMySQL = []string{
	`CREATE TABLE IF NOT EXISTS tags (
  id VARCHAR(64) PRIMARY KEY,
  name VARCHAR(255) NOT NULL,
  seq INT NOT NULL
)`,
	`CREATE TABLE IF NOT EXISTS questions (
  id VARCHAR(64) PRIMARY KEY,
  body LONGTEXT NOT NULL,
  seq INT NOT NULL
)`,
	`CREATE TABLE IF NOT EXISTS question_groups (
  id VARCHAR(64) PRIMARY KEY,
  body LONGTEXT NOT NULL,
  seq INT NOT NULL
)`,
	`CREATE TABLE IF NOT EXISTS tests (
  id VARCHAR(64) PRIMARY KEY,
  body LONGTEXT NOT NULL,
  seq INT NOT NULL
)`,
	`CREATE TABLE IF NOT EXISTS test_sessions (
  id VARCHAR(64) PRIMARY KEY,
  test_id VARCHAR(64) NOT NULL,
  question_ids LONGTEXT NOT NULL,
  question_group_ids LONGTEXT NOT NULL,
  started_at BIGINT NOT NULL,
  INDEX idx_test_sessions_test (test_id)
)`,
	`CREATE TABLE IF NOT EXISTS test_attempts (
  id VARCHAR(64) PRIMARY KEY,
  session_id VARCHAR(64) NOT NULL,
  status VARCHAR(32) NOT NULL,
  score INT NOT NULL DEFAULT 0,
  total_questions INT NOT NULL DEFAULT 0,
  answers LONGTEXT NOT NULL,
  started_at BIGINT NOT NULL,
  completed_at BIGINT NULL,
  INDEX idx_test_attempts_session (session_id),
  FOREIGN KEY (session_id) REFERENCES test_sessions(id)
)`,
	`CREATE TABLE IF NOT EXISTS event_log (
  seq BIGINT AUTO_INCREMENT PRIMARY KEY,
  site_id VARCHAR(64) NOT NULL DEFAULT 'local',
  typ VARCHAR(64) NOT NULL,
  event_key VARCHAR(64) NOT NULL,
  data LONGTEXT NOT NULL,
  created_at BIGINT NOT NULL
)`,
	`CREATE TABLE IF NOT EXISTS relay_cursor (
  name VARCHAR(64) PRIMARY KEY,
  seq BIGINT NOT NULL
)`,
}
