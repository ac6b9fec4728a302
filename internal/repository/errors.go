// Package repository defines error values that are reused across multiple
// repositories.  These sentinel values allow higher layers such as handlers
// to distinguish between failure scenarios without inspecting driver errors.
package repository

import "errors"

// ErrUserExists is returned when an insert would violate the unique email
// index.  Handlers translate this into an HTTP 409 response with a generic
// message so the colliding field is not leaked.
var ErrUserExists = errors.New("user already exists")

// ErrMenuItemNotFound is returned when a menu item lookup or update matches
// no row.  Handlers translate this into an HTTP 404 response.
var ErrMenuItemNotFound = errors.New("menu item not found")
