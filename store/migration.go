package store

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
	"time"
)

//go:embed migrations
var embeddedMigrations embed.FS

type Migration struct {
	Name    string
	UpSQL   string
	DownSQL string
}

// ReadMigrations loads every *.sql file under dir in fsys. "name.up.sql" and
// "name.down.sql" are paired by name and the result is sorted by name.
func ReadMigrations(fsys fs.FS, dir string) ([]*Migration, error) {
	files, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, err
	}

	migrations := map[string]*Migration{}

	withMigration := func(name string) *Migration {
		m, ok := migrations[name]
		if !ok {
			m = &Migration{
				Name: name,
			}
			migrations[name] = m
		}
		return m
	}

	// Load all migration files into migrations map
	for _, file := range files {
		if file.IsDir() || !strings.HasSuffix(file.Name(), ".sql") {
			continue
		}
		bytes, err := fs.ReadFile(fsys, path.Join(dir, file.Name()))
		if err != nil {
			return nil, err
		}

		name, isUp := parseMigrationFileName(file.Name())
		migration := withMigration(name)
		if isUp {
			migration.UpSQL = string(bytes)
		} else {
			migration.DownSQL = string(bytes)
		}
	}

	// Sort keys lexicographically
	keys := []string{}
	for k := range migrations {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	// Make result slice
	result := []*Migration{}
	for _, k := range keys {
		result = append(result, migrations[k])
	}
	return result, nil
}

// DialectMigrations returns the built-in history migrations for a dialect.
func DialectMigrations(dialect Dialect) ([]*Migration, error) {
	return ReadMigrations(embeddedMigrations, path.Join("migrations", string(dialect)))
}

func parseMigrationFileName(fileName string) (string, bool) {
	return getMigrationName(fileName), getUpness(fileName)
}

func getMigrationName(fileName string) string {
	dotParts := strings.Split(fileName, ".")
	return dotParts[0]
}

func getUpness(fileName string) bool {
	return !strings.HasSuffix(fileName, ".down.sql")
}

// RunMigrations applies the dialect's migrations that are not yet recorded
// in the migrations table and returns the names it applied.
func RunMigrations(ctx context.Context, db *sql.DB, dialect Dialect) ([]string, error) {
	migrations, err := DialectMigrations(dialect)
	if err != nil {
		return nil, err
	}
	return ApplyMigrations(ctx, db, dialect, migrations)
}

func ApplyMigrations(ctx context.Context, db *sql.DB, dialect Dialect, migrations []*Migration) ([]string, error) {
	err := requireMigrationsTable(ctx, db)
	if err != nil {
		return nil, err
	}

	done, err := appliedMigrations(ctx, db)
	if err != nil {
		return nil, err
	}

	applied := []string{}
	for _, migration := range migrations {
		if done[migration.Name] {
			continue
		}
		err = execMigration(ctx, db, dialect, migration)
		if err != nil {
			return applied, err
		}
		log.WithField("migration", migration.Name).Debug("applied migration")
		applied = append(applied, migration.Name)
	}

	return applied, nil
}

// RevertLastMigration runs the down script of the most recently applied
// migration. It returns an empty name when nothing has been applied.
func RevertLastMigration(ctx context.Context, db *sql.DB, dialect Dialect) (string, error) {
	migrations, err := DialectMigrations(dialect)
	if err != nil {
		return "", err
	}

	err = requireMigrationsTable(ctx, db)
	if err != nil {
		return "", err
	}

	done, err := appliedMigrations(ctx, db)
	if err != nil {
		return "", err
	}

	for i := len(migrations) - 1; i >= 0; i-- {
		m := migrations[i]
		if !done[m.Name] {
			continue
		}
		if m.DownSQL == "" {
			return "", fmt.Errorf("Migration %s has no down script", m.Name)
		}

		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return "", err
		}
		if _, err = tx.ExecContext(ctx, m.DownSQL); err != nil {
			tx.Rollback()
			return "", fmt.Errorf("Reverting migration %s: %w", m.Name, err)
		}
		q := fmt.Sprintf("DELETE FROM migrations WHERE name = %s", dialect.placeholder(1))
		if _, err = tx.ExecContext(ctx, q, m.Name); err != nil {
			tx.Rollback()
			return "", err
		}
		return m.Name, tx.Commit()
	}

	return "", nil
}

func requireMigrationsTable(ctx context.Context, db *sql.DB) error {
	q := "CREATE TABLE IF NOT EXISTS migrations (name VARCHAR(200) PRIMARY KEY, applied_at TIMESTAMP NOT NULL)"
	_, err := db.ExecContext(ctx, q)
	return err
}

func appliedMigrations(ctx context.Context, db *sql.DB) (map[string]bool, error) {
	rows, err := db.QueryContext(ctx, "SELECT name FROM migrations")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	done := map[string]bool{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		done[name] = true
	}
	return done, rows.Err()
}

func execMigration(ctx context.Context, db *sql.DB, dialect Dialect, migration *Migration) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	if _, err = tx.ExecContext(ctx, migration.UpSQL); err != nil {
		tx.Rollback()
		return fmt.Errorf("Applying migration %s: %w", migration.Name, err)
	}

	q := fmt.Sprintf(
		"INSERT INTO migrations (name, applied_at) VALUES (%s, %s)",
		dialect.placeholder(1),
		dialect.placeholder(2))
	if _, err = tx.ExecContext(ctx, q, migration.Name, time.Now().UTC()); err != nil {
		tx.Rollback()
		return err
	}

	return tx.Commit()
}
