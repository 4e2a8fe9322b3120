package database

import (
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strconv"
	"strings"
)

//go:embed migrations/*.sql
var schemaFS embed.FS

// schemaStep is one embedded DDL file. The numeric filename prefix fixes the
// apply order; the stem (filename without extension) keys the ledger row.
type schemaStep struct {
	seq  int
	stem string
	ddl  string
}

func schemaSteps() ([]schemaStep, error) {
	names, err := fs.Glob(schemaFS, "migrations/*.sql")
	if err != nil {
		return nil, fmt.Errorf("list schema files: %w", err)
	}
	steps := make([]schemaStep, 0, len(names))
	for _, name := range names {
		data, err := schemaFS.ReadFile(name)
		if err != nil {
			return nil, fmt.Errorf("read schema file %s: %w", name, err)
		}
		if strings.TrimSpace(string(data)) == "" {
			return nil, fmt.Errorf("schema file %s is empty", name)
		}
		stem := strings.TrimSuffix(strings.TrimPrefix(name, "migrations/"), ".sql")
		prefix, _, _ := strings.Cut(stem, "_")
		seq, err := strconv.Atoi(prefix)
		if err != nil {
			return nil, fmt.Errorf("schema file %s lacks a numeric prefix: %w", name, err)
		}
		steps = append(steps, schemaStep{seq: seq, stem: stem, ddl: string(data)})
	}
	sort.Slice(steps, func(i, j int) bool { return steps[i].seq < steps[j].seq })
	for i := 1; i < len(steps); i++ {
		if steps[i].seq == steps[i-1].seq {
			return nil, fmt.Errorf("schema files %s and %s share sequence %d",
				steps[i-1].stem, steps[i].stem, steps[i].seq)
		}
	}
	return steps, nil
}

// applySchema brings the database up to the embedded schema. Applied steps
// are recorded in schema_migrations, so opening an existing database only
// runs the steps it has not seen. Everything happens in one transaction.
func (d *DB) applySchema() error {
	steps, err := schemaSteps()
	if err != nil {
		return err
	}

	tx, err := d.db.Begin()
	if err != nil {
		return fmt.Errorf("begin schema transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.Exec("CREATE TABLE IF NOT EXISTS schema_migrations (version TEXT PRIMARY KEY)"); err != nil {
		return fmt.Errorf("ensure schema ledger: %w", err)
	}

	for _, step := range steps {
		applied, err := schemaApplied(tx, step.stem)
		if err != nil {
			return err
		}
		if applied {
			continue
		}
		if _, err := tx.Exec(step.ddl); err != nil {
			return fmt.Errorf("apply schema step %s: %w", step.stem, err)
		}
		if _, err := tx.Exec("INSERT INTO schema_migrations (version) VALUES (?)", step.stem); err != nil {
			return fmt.Errorf("record schema step %s: %w", step.stem, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema changes: %w", err)
	}
	return nil
}

func schemaApplied(tx *sql.Tx, version string) (bool, error) {
	var n int
	if err := tx.QueryRow("SELECT COUNT(1) FROM schema_migrations WHERE version = ?", version).Scan(&n); err != nil {
		return false, fmt.Errorf("query schema ledger: %w", err)
	}
	return n > 0, nil
}
