package identity

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

const migrationTable = "schema_migrations"

// MigrationsDir is the root of the embedded migration files
const MigrationsDir = "data/sql/migrations"

// ApplyMigrations executes embedded migrations from migrationRoot at most
// once per file. Files run in lexical order inside their own transaction.
func ApplyMigrations(sqlDB *sql.DB, migrationFS fs.FS, migrationRoot string) error {
	if sqlDB == nil {
		return goerrors.New("sql db is required", goerrors.CategoryInternal)
	}

	root := strings.TrimSpace(migrationRoot)
	if root == "" {
		root = MigrationsDir
	}

	entries, err := fs.ReadDir(migrationFS, root)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "read migrations dir")
	}

	var sqlFiles []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".sql") {
			sqlFiles = append(sqlFiles, entry.Name())
		}
	}
	sort.Strings(sqlFiles)

	createSQL := fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %s (
    name TEXT PRIMARY KEY,
    applied_at INTEGER NOT NULL
);
`, migrationTable)
	if _, err := sqlDB.Exec(createSQL); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "ensure migration table")
	}

	for _, file := range sqlFiles {
		applied, err := migrationApplied(sqlDB, file)
		if err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "check migration "+file)
		}
		if applied {
			continue
		}

		content, err := fs.ReadFile(migrationFS, path.Join(root, file))
		if err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "read migration "+file)
		}

		if strings.TrimSpace(string(content)) == "" {
			continue
		}

		tx, err := sqlDB.BeginTx(context.Background(), nil)
		if err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "begin migration transaction "+file)
		}

		if _, err := tx.Exec(string(content)); err != nil {
			_ = tx.Rollback()
			return goerrors.Wrap(err, goerrors.CategoryInternal, "exec migration "+file)
		}

		if _, err := tx.Exec(
			fmt.Sprintf("INSERT OR IGNORE INTO %s (name, applied_at) VALUES (?, ?)", migrationTable),
			file,
			time.Now().UTC().UnixMilli(),
		); err != nil {
			_ = tx.Rollback()
			return goerrors.Wrap(err, goerrors.CategoryInternal, "record migration "+file)
		}

		if err := tx.Commit(); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "commit migration "+file)
		}
	}

	return nil
}

func migrationApplied(sqlDB *sql.DB, name string) (bool, error) {
	var found int
	row := sqlDB.QueryRow("SELECT 1 FROM "+migrationTable+" WHERE name = ?", name)
	err := row.Scan(&found)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
