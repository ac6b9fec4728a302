// Package ratelimit implements the fixed-window attempt limiter gating
// registration and login.  Counters are keyed by (client address, operation
// class); the window and the per-class ceilings come from configuration.
//
// Two backends exist: Redis, where increment-and-compare runs atomically in
// a Lua script, and an in-memory mutex-guarded map used when Redis is
// unavailable and in tests.  Registration consumes quota on every attempt
// (Hit).  Login is checked before the credentials are examined (Check) and
// only consumes quota when the credentials turn out to be wrong
// (RecordFailure) so legitimate repeated logins are never penalized.
package ratelimit

import (
	"context"
	"time"
)

// Decision is the outcome of a limiter query.
type Decision struct {
	Allowed    bool          // whether the gated operation may proceed
	Remaining  int           // attempts left in the current window
	RetryAfter time.Duration // how long until the window resets (when denied)
}

// Limiter is the capability interface consumed by the middleware and the
// auth handlers.  All methods operate on a fully-built key such as
// "rl:login:203.0.113.9".
type Limiter interface {
	// Hit increments the counter for key and compares it against limit.
	Hit(ctx context.Context, key string, limit int) (Decision, error)
	// Check compares the current counter against limit without incrementing.
	Check(ctx context.Context, key string, limit int) (Decision, error)
	// RecordFailure increments the counter for key without comparing.
	RecordFailure(ctx context.Context, key string) error
}

// Key joins the namespace prefix, operation class and client address into a
// counter key.
func Key(prefix, class, addr string) string {
	if addr == "" {
		addr = "unknown"
	}
	return prefix + ":" + class + ":" + addr
}
