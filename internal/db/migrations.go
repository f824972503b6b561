package db

import (
	"context"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"time"

	"github.com/jmoiron/sqlx"
)

// Migration - SQL файл миграции и отметка о его применении.
type Migration struct {
	Name      string
	AppliedAt *time.Time
}

// ListMigrations возвращает .sql файлы каталога в порядке применения.
func ListMigrations(fsys fs.FS) ([]string, error) {
	names, err := fs.Glob(fsys, "*.sql")
	if err != nil {
		return nil, fmt.Errorf("migrations: некорректный шаблон: %w", err)
	}
	sort.Strings(names)
	return names, nil
}

// RunMigrations применяет ещё не выполненные миграции из fsys.
// Каждый файл выполняется в своей транзакции вместе с записью в schema_migrations.
// Возвращает имена миграций, применённых в этом запуске.
func RunMigrations(ctx context.Context, conn *sqlx.DB, fsys fs.FS) ([]string, error) {
	states, err := MigrationStatus(ctx, conn, fsys)
	if err != nil {
		return nil, err
	}

	var applied []string
	for _, m := range states {
		if m.AppliedAt != nil {
			continue
		}
		if err := applyMigration(ctx, conn, fsys, m.Name); err != nil {
			return applied, err
		}
		applied = append(applied, m.Name)
	}
	return applied, nil
}

// MigrationStatus сопоставляет файлы миграций с записями schema_migrations.
func MigrationStatus(ctx context.Context, conn *sqlx.DB, fsys fs.FS) ([]Migration, error) {
	if _, err := conn.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			name TEXT PRIMARY KEY,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`); err != nil {
		return nil, fmt.Errorf("migrations: не удалось создать schema_migrations: %w", err)
	}

	names, err := ListMigrations(fsys)
	if err != nil {
		return nil, err
	}

	var rows []struct {
		Name      string    `db:"name"`
		AppliedAt time.Time `db:"applied_at"`
	}
	if err := conn.SelectContext(ctx, &rows, `SELECT name, applied_at FROM schema_migrations`); err != nil {
		return nil, fmt.Errorf("migrations: не удалось прочитать schema_migrations: %w", err)
	}
	done := make(map[string]time.Time, len(rows))
	for _, r := range rows {
		done[r.Name] = r.AppliedAt
	}

	states := make([]Migration, 0, len(names))
	for _, name := range names {
		m := Migration{Name: name}
		if at, ok := done[name]; ok {
			m.AppliedAt = &at
		}
		states = append(states, m)
	}
	return states, nil
}

func applyMigration(ctx context.Context, conn *sqlx.DB, fsys fs.FS, name string) error {
	body, err := fs.ReadFile(fsys, name)
	if err != nil {
		return fmt.Errorf("migrations: не удалось прочитать %s: %w", name, err)
	}

	tx, err := conn.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("migrations: не удалось начать транзакцию для %s: %w", name, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, string(body)); err != nil {
		return fmt.Errorf("migrations: ошибка в %s: %w", path.Base(name), err)
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO schema_migrations (name) VALUES ($1)`, name); err != nil {
		return fmt.Errorf("migrations: не удалось отметить %s: %w", name, err)
	}
	return tx.Commit()
}
