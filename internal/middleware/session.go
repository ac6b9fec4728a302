package middleware // middleware provides shared request processing for handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/tablekeep/restaurant-manager/internal/repository"
	"github.com/tablekeep/restaurant-manager/internal/utils"
)

// SessionAuth returns an Echo middleware that authenticates requests via the
// session cookie and injects the token's identity into the request context.
// Handlers behind it can read `c.Get("user_id")` (uint64), `c.Get("role")`
// (string) and `c.Get("session_id")` (the token's jti).
//
// The checks run in a fixed order so clients see predictable errors:
// cookie presence, then signature and expiry, then the revocation registry.
// Whether the identity still resolves to a user is the handler's concern,
// since only some endpoints need the full record.
func SessionAuth(secret string, revoked repository.RevocationStore) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			cookie, err := c.Cookie(utils.SessionCookieName)
			if err != nil || cookie.Value == "" {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "not authenticated"})
			}

			claims, err := utils.VerifySessionToken(secret, cookie.Value)
			if err != nil {
				if errors.Is(err, utils.ErrTokenExpired) {
					return c.JSON(http.StatusUnauthorized, echo.Map{"error": "session expired"})
				}
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "not authenticated"})
			}

			isRevoked, err := revoked.IsRevoked(c.Request().Context(), claims.ID)
			if err != nil {
				// A broken registry must not silently resurrect logged-out
				// sessions; reject with a generic server error instead.
				log.Printf("revocation check failed: %v", err)
				return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
			}
			if isRevoked {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "session revoked"})
			}

			c.Set("user_id", claims.UserID)
			c.Set("role", claims.Role)
			c.Set("session_id", claims.ID)
			return next(c)
		}
	}
}
