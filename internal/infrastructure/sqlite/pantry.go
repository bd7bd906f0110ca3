package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/grocerybutler/backend/internal/domain"
)

// PantryRepository implements domain.PantryRepository
type PantryRepository struct {
	db *sql.DB
}

// List returns the staples ordered by key
func (r *PantryRepository) List(ctx context.Context) ([]domain.PantryStaple, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT key, display_name, category FROM pantry_staples ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("list pantry staples: %w", err)
	}
	defer rows.Close()

	var staples []domain.PantryStaple
	for rows.Next() {
		var (
			s        domain.PantryStaple
			category string
		)
		if err := rows.Scan(&s.Key, &s.DisplayName, &category); err != nil {
			return nil, err
		}
		s.Category = domain.Category(category)
		staples = append(staples, s)
	}
	return staples, rows.Err()
}

// Add inserts a staple; a duplicate key is domain.ErrStapleExists
func (r *PantryRepository) Add(ctx context.Context, staple *domain.PantryStaple) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO pantry_staples (key, display_name, category) VALUES (?, ?, ?)`,
		staple.Key, staple.DisplayName, string(staple.Category))
	if isUniqueViolation(err) {
		return domain.ErrStapleExists
	}
	if err != nil {
		return fmt.Errorf("insert pantry staple %q: %w", staple.Key, err)
	}
	return nil
}

// Delete removes a staple
func (r *PantryRepository) Delete(ctx context.Context, key string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM pantry_staples WHERE key = ?`, key)
	if err != nil {
		return fmt.Errorf("delete pantry staple %q: %w", key, err)
	}
	return expectOneRow(res, domain.ErrStapleNotFound)
}

// Exists reports whether key is a staple
func (r *PantryRepository) Exists(ctx context.Context, key string) (bool, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM pantry_staples WHERE key = ?`, key).Scan(&n); err != nil {
		return false, fmt.Errorf("check pantry staple %q: %w", key, err)
	}
	return n > 0, nil
}
