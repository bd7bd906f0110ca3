package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/grocerybutler/backend/internal/domain"
)

// InventoryRepository implements domain.InventoryRepository
type InventoryRepository struct {
	db *sql.DB
}

const inventoryColumns = `key, id, display_name, category, status, default_quantity, default_unit, search_term, notes, last_status_change`

// Get loads one entry by key
func (r *InventoryRepository) Get(ctx context.Context, key string) (*domain.InventoryEntry, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+inventoryColumns+` FROM inventory WHERE key = ?`, key)
	entry, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrInventoryItemNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load inventory %q: %w", key, err)
	}
	return entry, nil
}

// Upsert inserts or replaces an entry. The original id is kept on conflict.
func (r *InventoryRepository) Upsert(ctx context.Context, e *domain.InventoryEntry) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO inventory (`+inventoryColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET
		   display_name = excluded.display_name,
		   category = excluded.category,
		   status = excluded.status,
		   default_quantity = excluded.default_quantity,
		   default_unit = excluded.default_unit,
		   search_term = excluded.search_term,
		   notes = excluded.notes,
		   last_status_change = excluded.last_status_change`,
		e.Key, e.ID, e.DisplayName, string(e.Category), string(e.Status), e.DefaultQuantity,
		e.DefaultUnit, e.SearchTerm, e.Notes, formatTime(e.LastStatusChange),
	)
	if err != nil {
		return fmt.Errorf("upsert inventory %q: %w", e.Key, err)
	}
	return nil
}

// Delete removes an entry
func (r *InventoryRepository) Delete(ctx context.Context, key string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM inventory WHERE key = ?`, key)
	if err != nil {
		return fmt.Errorf("delete inventory %q: %w", key, err)
	}
	return expectOneRow(res, domain.ErrInventoryItemNotFound)
}

// List returns every entry ordered by key
func (r *InventoryRepository) List(ctx context.Context) ([]domain.InventoryEntry, error) {
	return r.query(ctx, `SELECT `+inventoryColumns+` FROM inventory ORDER BY key`)
}

// ListByStatus returns entries in any of statuses, oldest status change first
func (r *InventoryRepository) ListByStatus(ctx context.Context, statuses ...domain.InventoryStatus) ([]domain.InventoryEntry, error) {
	if len(statuses) == 0 {
		return nil, nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(statuses)), ", ")
	args := make([]any, len(statuses))
	for i, s := range statuses {
		args[i] = string(s)
	}
	return r.query(ctx,
		`SELECT `+inventoryColumns+` FROM inventory WHERE status IN (`+placeholders+`)
		 ORDER BY last_status_change, key`, args...)
}

func (r *InventoryRepository) query(ctx context.Context, q string, args ...any) ([]domain.InventoryEntry, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query inventory: %w", err)
	}
	defer rows.Close()

	var entries []domain.InventoryEntry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *entry)
	}
	return entries, rows.Err()
}

func scanEntry(row rowScanner) (*domain.InventoryEntry, error) {
	var (
		e                domain.InventoryEntry
		category, status string
		changed          string
	)
	if err := row.Scan(&e.Key, &e.ID, &e.DisplayName, &category, &status, &e.DefaultQuantity,
		&e.DefaultUnit, &e.SearchTerm, &e.Notes, &changed); err != nil {
		return nil, err
	}
	e.Category = domain.Category(category)
	e.Status = domain.InventoryStatus(status)

	var err error
	if e.LastStatusChange, err = parseTime(changed); err != nil {
		return nil, err
	}
	return &e, nil
}
