package middleware

import (
	"math"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/tablekeep/restaurant-manager/internal/config"
	"github.com/tablekeep/restaurant-manager/internal/ratelimit"
)

// RegisterRateLimit gates POST /api/register.  Every attempt consumes quota,
// successful or not, so the limiter both checks and increments in one call.
// When the limiter is disabled (test mode) or absent, requests pass through.
func RegisterRateLimit(cfg config.RateLimitConfig, l ratelimit.Limiter) echo.MiddlewareFunc {
	if !cfg.Enabled || l == nil {
		return passthrough
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := ratelimit.Key(cfg.Prefix, "register", c.RealIP())
			d, err := l.Hit(c.Request().Context(), key, cfg.RegisterLimit)
			if err != nil {
				// Fail open: a broken limiter should not block signups.
				c.Logger().Warnf("rate limiter error for %s: %v", key, err)
				return next(c)
			}
			return respond(c, next, cfg.RegisterLimit, d)
		}
	}
}

// LoginRateLimit gates POST /api/login.  Only failed attempts count toward
// the ceiling, so this middleware checks the counter without incrementing;
// the login handler records a failure after the credentials are rejected.
func LoginRateLimit(cfg config.RateLimitConfig, l ratelimit.Limiter) echo.MiddlewareFunc {
	if !cfg.Enabled || l == nil {
		return passthrough
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := ratelimit.Key(cfg.Prefix, "login", c.RealIP())
			d, err := l.Check(c.Request().Context(), key, cfg.LoginFailLimit)
			if err != nil {
				c.Logger().Warnf("rate limiter error for %s: %v", key, err)
				return next(c)
			}
			return respond(c, next, cfg.LoginFailLimit, d)
		}
	}
}

func passthrough(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error { return next(c) }
}

func respond(c echo.Context, next echo.HandlerFunc, limit int, d ratelimit.Decision) error {
	c.Response().Header().Set("X-RateLimit-Limit", strconv.Itoa(limit))
	c.Response().Header().Set("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
	if d.Allowed {
		return next(c)
	}
	secs := int(math.Ceil(d.RetryAfter.Seconds()))
	if secs < 0 {
		secs = 0
	}
	c.Response().Header().Set("Retry-After", strconv.Itoa(secs))
	return c.JSON(http.StatusTooManyRequests, echo.Map{
		"error":       "rate limit exceeded",
		"retry_after": secs,
	})
}
