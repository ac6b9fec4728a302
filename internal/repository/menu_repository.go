// This file defines repository methods for the menu module.  Menu items are
// plain CRUD over the `menu_items` table; there is no stock or ordering
// logic here.  Only available items should be exposed on the public menu.
package repository

import (
	"context"
	"database/sql"

	"github.com/tablekeep/restaurant-manager/internal/model"
)

// MenuRepo encapsulates all database queries related to menu items.  It
// depends on a sql.DB connection which is configured at startup and may be
// injected in tests.
type MenuRepo struct {
	db *sql.DB
}

func NewMenuRepo(db *sql.DB) *MenuRepo { return &MenuRepo{db: db} }

// Create inserts a new menu item.  On success the item's ID, CreatedAt and
// UpdatedAt fields are populated so callers receive a full record.
func (r *MenuRepo) Create(ctx context.Context, m *model.MenuItem) error {
	const qInsert = "INSERT INTO menu_items (name, description, category, price_cents, is_available) VALUES (?,?,?,?,?)"
	res, err := r.db.ExecContext(ctx, qInsert, m.Name, m.Description, m.Category, m.PriceCents, m.IsAvailable)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	m.ID = uint64(id)

	const qSelect = "SELECT created_at, updated_at FROM menu_items WHERE id=?"
	return r.db.QueryRowContext(ctx, qSelect, m.ID).Scan(&m.CreatedAt, &m.UpdatedAt)
}

// GetByID fetches a single menu item.
func (r *MenuRepo) GetByID(ctx context.Context, id uint64) (model.MenuItem, error) {
	var m model.MenuItem
	err := r.db.QueryRowContext(ctx,
		"SELECT id,name,description,category,price_cents,is_available,created_at,updated_at FROM menu_items WHERE id=? LIMIT 1",
		id).Scan(&m.ID, &m.Name, &m.Description, &m.Category, &m.PriceCents, &m.IsAvailable, &m.CreatedAt, &m.UpdatedAt)
	if err == sql.ErrNoRows {
		return m, ErrMenuItemNotFound
	}
	return m, err
}

// List returns menu items.  When availableOnly is true, hidden items are
// filtered out; the public menu endpoint passes true, staff views pass false.
func (r *MenuRepo) List(ctx context.Context, availableOnly bool) ([]model.MenuItem, error) {
	q := "SELECT id,name,description,category,price_cents,is_available,created_at,updated_at FROM menu_items"
	if availableOnly {
		q += " WHERE is_available=1"
	}
	q += " ORDER BY category, name"

	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.MenuItem, 0)
	for rows.Next() {
		var m model.MenuItem
		if err := rows.Scan(&m.ID, &m.Name, &m.Description, &m.Category, &m.PriceCents, &m.IsAvailable, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, err
		}
		items = append(items, m)
	}
	return items, rows.Err()
}

// Update rewrites the mutable columns of an item.  ErrMenuItemNotFound is
// returned when the id matches no row.
func (r *MenuRepo) Update(ctx context.Context, m *model.MenuItem) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE menu_items SET name=?, description=?, category=?, price_cents=?, is_available=? WHERE id=?",
		m.Name, m.Description, m.Category, m.PriceCents, m.IsAvailable, m.ID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		// RowsAffected is 0 both for a missing row and for a no-op update;
		// confirm existence before reporting not found.
		if _, err := r.GetByID(ctx, m.ID); err != nil {
			return err
		}
	}
	return nil
}

// Delete removes an item.
func (r *MenuRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM menu_items WHERE id=?", id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrMenuItemNotFound
	}
	return nil
}
