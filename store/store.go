package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus"
)

var (
	// logger instance
	log = logrus.New()
)

// SetLogLevel changes the level of the store's logger.
func SetLogLevel(level logrus.Level) {
	log.SetLevel(level)
}

// Dialect names both the SQL flavour and the database/sql driver.
type Dialect string

const (
	DialectPostgres Dialect = "postgres"
	DialectSQLite   Dialect = "sqlite3"
)

func ParseDialect(s string) (Dialect, error) {
	switch Dialect(s) {
	case DialectPostgres, DialectSQLite:
		return Dialect(s), nil
	}
	return "", fmt.Errorf("Unknown history driver %q", s)
}

func (d Dialect) placeholder(n int) string {
	if d == DialectPostgres {
		return fmt.Sprintf("$%d", n)
	}
	return "?"
}

// Entry is one evaluated line. Exactly one of Result and Error is set.
type Entry struct {
	ID         int64
	Expression string
	Result     string
	Error      string
	CreatedAt  time.Time
}

// Store keeps evaluation history in a SQL database.
type Store struct {
	db      *sql.DB
	dialect Dialect
}

// Open connects to the database and brings its schema up to date.
func Open(ctx context.Context, driver string, dsn string) (*Store, error) {
	dialect, err := ParseDialect(driver)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(string(dialect), dsn)
	if err != nil {
		return nil, err
	}
	if dialect == DialectSQLite {
		// one writer at a time, otherwise concurrent inserts hit SQLITE_BUSY
		db.SetMaxOpenConns(1)
	}

	if err = db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}

	applied, err := RunMigrations(ctx, db, dialect)
	if err != nil {
		db.Close()
		return nil, err
	}

	log.WithFields(map[string]interface{}{
		"driver":  dialect,
		"applied": applied,
	}).Debug("history store opened")

	return &Store{db: db, dialect: dialect}, nil
}

func (s *Store) Dialect() Dialect {
	return s.dialect
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Record saves an entry and returns its id. A zero CreatedAt is replaced by
// the current time.
func (s *Store) Record(ctx context.Context, e Entry) (int64, error) {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}

	q := fmt.Sprintf(
		"INSERT INTO history (expression, result, error, created_at) VALUES (%s, %s, %s, %s)",
		s.dialect.placeholder(1),
		s.dialect.placeholder(2),
		s.dialect.placeholder(3),
		s.dialect.placeholder(4))
	args := []interface{}{e.Expression, nullString(e.Result), nullString(e.Error), e.CreatedAt}

	if s.dialect == DialectPostgres {
		var id int64
		err := s.db.QueryRowContext(ctx, q+" RETURNING id", args...).Scan(&id)
		return id, err
	}

	res, err := s.db.ExecContext(ctx, q, args...)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// Recent returns up to limit entries, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	q := fmt.Sprintf(
		"SELECT id, expression, result, error, created_at FROM history ORDER BY id DESC LIMIT %s",
		s.dialect.placeholder(1))
	rows, err := s.db.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		var e Entry
		var result, errText sql.NullString
		if err := rows.Scan(&e.ID, &e.Expression, &result, &errText, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.Result = result.String
		e.Error = errText.String
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
