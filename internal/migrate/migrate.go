// Package migrate applies the embedded MySQL schema.
package migrate

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"slices"
	"strings"
)

//go:embed sql/*.sql
var embedded embed.FS

const createLedger = `
CREATE TABLE IF NOT EXISTS schema_migrations (
  name VARCHAR(255) NOT NULL,
  applied_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
  PRIMARY KEY (name)
) ENGINE=InnoDB`

// Apply runs the bundled schema migrations that have not been applied yet.
func Apply(ctx context.Context, db *sql.DB) error {
	sub, err := fs.Sub(embedded, "sql")
	if err != nil {
		return err
	}
	return ApplyFS(ctx, db, sub)
}

// ApplyFS applies every *.sql file at the root of fsys in name order and
// records each one in schema_migrations. Files already recorded are skipped.
func ApplyFS(ctx context.Context, db *sql.DB, fsys fs.FS) error {
	files, err := migrationFiles(fsys)
	if err != nil {
		return err
	}

	if _, err := db.ExecContext(ctx, createLedger); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}
	applied, err := appliedNames(ctx, db)
	if err != nil {
		return err
	}

	for _, name := range files {
		if _, done := applied[name]; done {
			continue
		}
		src, err := fs.ReadFile(fsys, name)
		if err != nil {
			return err
		}
		for i, stmt := range splitStatements(string(src)) {
			if _, err := db.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("migration %s statement %d: %w", name, i+1, err)
			}
		}
		if _, err := db.ExecContext(ctx, `INSERT INTO schema_migrations (name) VALUES (?)`, name); err != nil {
			return fmt.Errorf("record migration %s: %w", name, err)
		}
	}
	return nil
}

func migrationFiles(fsys fs.FS) ([]string, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, err
	}
	var files []string
	for _, e := range entries {
		if !e.IsDir() && strings.EqualFold(path.Ext(e.Name()), ".sql") {
			files = append(files, e.Name())
		}
	}
	slices.Sort(files)
	return files, nil
}

func appliedNames(ctx context.Context, db *sql.DB) (map[string]struct{}, error) {
	rows, err := db.QueryContext(ctx, `SELECT name FROM schema_migrations`)
	if err != nil {
		return nil, fmt.Errorf("read schema_migrations: %w", err)
	}
	defer rows.Close()

	out := make(map[string]struct{})
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		out[name] = struct{}{}
	}
	return out, rows.Err()
}

// splitStatements splits on semicolons that end a line and drops full-line
// "--" comments. The driver runs one statement per Exec unless
// multiStatements is enabled.
func splitStatements(src string) []string {
	var (
		out []string
		cur strings.Builder
	)
	flush := func() {
		if s := strings.TrimSuffix(strings.TrimSpace(cur.String()), ";"); strings.TrimSpace(s) != "" {
			out = append(out, strings.TrimSpace(s))
		}
		cur.Reset()
	}
	for _, line := range strings.Split(src, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "--") {
			continue
		}
		cur.WriteString(line)
		cur.WriteByte('\n')
		if strings.HasSuffix(trimmed, ";") {
			flush()
		}
	}
	flush()
	return out
}
