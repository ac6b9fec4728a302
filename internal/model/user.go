package model

import "time"

// Role names stored in the users.role column.  The set is closed; anything
// else is rejected at registration time.
const (
	RoleOwner   = "owner"
	RoleManager = "manager"
	RoleStaff   = "staff"
)

// ValidRole reports whether s is one of the known role names.
func ValidRole(s string) bool {
	return s == RoleOwner || s == RoleManager || s == RoleStaff
}

// User represents an application user record as stored in the `users` table.
// Each field corresponds to a column in the database.  The password hash is
// never serialized into an API response; handlers build separate sanitized
// response types instead.
//
// Fields:
//
//	ID             – primary key identifier of the user.
//	Email          – unique email address, stored trimmed and lower-cased.
//	PasswordHash   – bcrypt hashed password.
//	FirstName      – given name as entered at registration.
//	LastName       – family name as entered at registration.
//	Phone          – optional contact number.
//	RestaurantName – display name of the user's restaurant.
//	Role           – one of RoleOwner, RoleManager, RoleStaff.
//	CreatedAt      – timestamp of creation.
//	UpdatedAt      – timestamp of last update.
type User struct {
	ID             uint64    // users.id
	Email          string    // users.email
	PasswordHash   string    // users.password_hash
	FirstName      string    // users.first_name
	LastName       string    // users.last_name
	Phone          string    // users.phone (may be empty)
	RestaurantName string    // users.restaurant_name
	Role           string    // users.role
	CreatedAt      time.Time // users.created_at
	UpdatedAt      time.Time // users.updated_at
}
