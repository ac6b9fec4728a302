package model

import "time"

// MenuItem mirrors the `menu_items` table.  Prices are stored in cents to
// avoid floating point drift.  IsAvailable hides an item from the public
// menu without deleting it.
type MenuItem struct {
	ID          uint64    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	PriceCents  uint32    `json:"price_cents"`
	IsAvailable bool      `json:"is_available"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
