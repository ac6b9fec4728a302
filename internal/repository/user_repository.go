package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/tablekeep/restaurant-manager/internal/model"
)

// UserRepo is the credential store.  It owns every query against the `users`
// table.  Uniqueness of emails is enforced by the unique index on
// users.email, so two concurrent registrations with the same address cannot
// both succeed: the second insert fails with MySQL error 1062 and is mapped
// to ErrUserExists.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

// Create inserts a user and returns its ID.  The email is normalized to
// trimmed lower case before the insert so lookups stay case-insensitive.
// The password must already be hashed by the caller.
func (r *UserRepo) Create(ctx context.Context, u *model.User) (uint64, error) {
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (email, password_hash, first_name, last_name, phone, restaurant_name, role) VALUES (?,?,?,?,?,?,?)",
		u.Email, u.PasswordHash, u.FirstName, u.LastName, u.Phone, u.RestaurantName, u.Role)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return 0, ErrUserExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	u.ID = uint64(id)
	return u.ID, nil
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	var u model.User
	err := r.DB.QueryRowContext(ctx,
		"SELECT id,email,password_hash,first_name,last_name,phone,restaurant_name,role,created_at,updated_at FROM users WHERE email=? LIMIT 1",
		email).Scan(&u.ID, &u.Email, &u.PasswordHash, &u.FirstName, &u.LastName, &u.Phone, &u.RestaurantName, &u.Role, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	var u model.User
	err := r.DB.QueryRowContext(ctx,
		"SELECT id,email,password_hash,first_name,last_name,phone,restaurant_name,role,created_at,updated_at FROM users WHERE id=? LIMIT 1",
		id).Scan(&u.ID, &u.Email, &u.PasswordHash, &u.FirstName, &u.LastName, &u.Phone, &u.RestaurantName, &u.Role, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}
