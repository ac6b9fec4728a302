// Package queue defines message payloads exchanged over the message broker
// plus the publisher and consumer that move them.
package queue

// UserRegisteredEvent is published when registration succeeds.  It feeds the
// CRM signup trail and carries enough information for downstream consumers
// to log or notify without querying the primary database.  No password
// material ever enters the event.
type UserRegisteredEvent struct {
	UserID         uint64 `json:"user_id"`
	Email          string `json:"email"`
	FirstName      string `json:"first_name"`
	LastName       string `json:"last_name"`
	RestaurantName string `json:"restaurant_name"`
	Role           string `json:"role"`
	RegisteredAt   string `json:"registered_at"`
}
