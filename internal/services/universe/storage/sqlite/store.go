// Package sqlite persists save slots in a SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/louisbranch/starpatch/internal/platform/storage/sqlitemigrate"
	"github.com/louisbranch/starpatch/internal/services/universe/storage"
	"github.com/louisbranch/starpatch/internal/services/universe/storage/sqlite/migrations"
	_ "modernc.org/sqlite"
)

// Store provides SQLite-backed save slot persistence.
type Store struct {
	sqlDB *sql.DB
	now   func() time.Time
}

// Open opens a save store at path and applies migrations.
func Open(ctx context.Context, path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	cleanPath := filepath.Clean(path)
	dsn := cleanPath + "?_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := sqlitemigrate.ApplyMigrations(ctx, sqlDB, migrations.FS, migrations.Root); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB, now: time.Now}, nil
}

// Close releases the SQLite connection. It is nil-safe.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// LoadSave returns the slot's diff list in applied order.
func (s *Store) LoadSave(ctx context.Context, slot string) (storage.SaveRecord, error) {
	if err := ctx.Err(); err != nil {
		return storage.SaveRecord{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.SaveRecord{}, fmt.Errorf("storage is not configured")
	}
	slot = strings.TrimSpace(slot)
	if slot == "" {
		return storage.SaveRecord{}, storage.ErrSlotRequired
	}

	var updatedAt int64
	err := s.sqlDB.QueryRowContext(ctx, `SELECT updated_at FROM saves WHERE slot = ?`, slot).Scan(&updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return storage.SaveRecord{}, storage.ErrNotFound
	}
	if err != nil {
		return storage.SaveRecord{}, fmt.Errorf("load save %s: %w", slot, err)
	}

	diffs, err := s.diffs(ctx, slot)
	if err != nil {
		return storage.SaveRecord{}, err
	}
	return storage.SaveRecord{
		Slot:      slot,
		Diffs:     diffs,
		UpdatedAt: time.UnixMilli(updatedAt).UTC(),
	}, nil
}

func (s *Store) diffs(ctx context.Context, slot string) ([]string, error) {
	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT name
FROM save_diffs
WHERE slot = ?
ORDER BY position
`, slot)
	if err != nil {
		return nil, fmt.Errorf("list save diffs %s: %w", slot, err)
	}
	defer rows.Close()

	var diffs []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan save diff: %w", err)
		}
		diffs = append(diffs, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate save diffs: %w", err)
	}
	return diffs, nil
}

// SaveApplied replaces the slot's diff list in one transaction.
func (s *Store) SaveApplied(ctx context.Context, slot string, diffs []string) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	slot = strings.TrimSpace(slot)
	if slot == "" {
		return storage.ErrSlotRequired
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save %s: %w", slot, err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `
INSERT INTO saves (slot, updated_at) VALUES (?, ?)
ON CONFLICT(slot) DO UPDATE SET updated_at = excluded.updated_at
`, slot, s.now().UTC().UnixMilli()); err != nil {
		return fmt.Errorf("upsert save %s: %w", slot, err)
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM save_diffs WHERE slot = ?`, slot); err != nil {
		return fmt.Errorf("clear save diffs %s: %w", slot, err)
	}
	for position, name := range diffs {
		if _, err = tx.ExecContext(ctx,
			`INSERT INTO save_diffs (slot, position, name) VALUES (?, ?, ?)`,
			slot, position, name,
		); err != nil {
			return fmt.Errorf("insert save diff %s: %w", name, err)
		}
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit save %s: %w", slot, err)
	}
	return nil
}

// ListSaves returns every slot ordered by name.
func (s *Store) ListSaves(ctx context.Context) ([]storage.SaveRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}

	rows, err := s.sqlDB.QueryContext(ctx, `SELECT slot, updated_at FROM saves ORDER BY slot`)
	if err != nil {
		return nil, fmt.Errorf("list saves: %w", err)
	}
	var records []storage.SaveRecord
	for rows.Next() {
		var record storage.SaveRecord
		var updatedAt int64
		if err := rows.Scan(&record.Slot, &updatedAt); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("scan save: %w", err)
		}
		record.UpdatedAt = time.UnixMilli(updatedAt).UTC()
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, fmt.Errorf("iterate saves: %w", err)
	}
	_ = rows.Close()

	for i := range records {
		diffs, err := s.diffs(ctx, records[i].Slot)
		if err != nil {
			return nil, err
		}
		records[i].Diffs = diffs
	}
	return records, nil
}

var _ storage.SaveStore = (*Store)(nil)
