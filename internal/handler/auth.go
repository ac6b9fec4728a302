package handler

import (
	"context"
	"database/sql"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/tablekeep/restaurant-manager/internal/config"
	"github.com/tablekeep/restaurant-manager/internal/model"
	"github.com/tablekeep/restaurant-manager/internal/queue"
	"github.com/tablekeep/restaurant-manager/internal/ratelimit"
	"github.com/tablekeep/restaurant-manager/internal/repository"
	"github.com/tablekeep/restaurant-manager/internal/utils"
)

// UserStore is the credential-store surface the auth handlers need.  The
// MySQL-backed repository.UserRepo satisfies it in production; tests inject
// an in-memory fake so suites run isolated and in parallel.
type UserStore interface {
	Create(ctx context.Context, u *model.User) (uint64, error)
	GetByEmail(ctx context.Context, email string) (model.User, error)
	GetByID(ctx context.Context, id uint64) (model.User, error)
}

// SignupPublisher forwards a registration event to the CRM trail.  Publish
// failures are logged by the publisher and ignored here: the broker is never
// on the registration critical path.
type SignupPublisher func(ctx context.Context, ev queue.UserRegisteredEvent) error

// AuthHandler is the session service.  It orchestrates the credential store,
// password hasher, token issuer, revocation registry and rate limiter for
// the register/login/me/logout endpoints.  All state is injected so tests
// can run against disposable instances.
type AuthHandler struct {
	Cfg     config.Config
	RL      config.RateLimitConfig
	Users   UserStore
	Revoked repository.RevocationStore
	Limiter ratelimit.Limiter
	Publish SignupPublisher
}

func NewAuthHandler(cfg config.Config, rl config.RateLimitConfig, users UserStore, revoked repository.RevocationStore, limiter ratelimit.Limiter, publish SignupPublisher) *AuthHandler {
	return &AuthHandler{Cfg: cfg, RL: rl, Users: users, Revoked: revoked, Limiter: limiter, Publish: publish}
}

// ----- DTOs -----

type registerReq struct {
	FirstName      string `json:"firstName"`
	LastName       string `json:"lastName"`
	Email          string `json:"email"`
	Password       string `json:"password"`
	RestaurantName string `json:"restaurantName"`
	Role           string `json:"role"`
	Phone          string `json:"phone"`
}
type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// registeredResp is the sanitized view returned on registration.  No
// password material ever leaves the handler.
type registeredResp struct {
	ID    uint64 `json:"id"`
	Email string `json:"email"`
}

// userResp is the sanitized profile returned by Me.
type userResp struct {
	ID             uint64    `json:"id"`
	Email          string    `json:"email"`
	FirstName      string    `json:"firstName"`
	LastName       string    `json:"lastName"`
	Phone          string    `json:"phone,omitempty"`
	RestaurantName string    `json:"restaurantName"`
	Role           string    `json:"role"`
	CreatedAt      time.Time `json:"createdAt"`
}

func sanitize(u model.User) userResp {
	return userResp{
		ID:             u.ID,
		Email:          u.Email,
		FirstName:      u.FirstName,
		LastName:       u.LastName,
		Phone:          u.Phone,
		RestaurantName: u.RestaurantName,
		Role:           u.Role,
		CreatedAt:      u.CreatedAt,
	}
}

// Register: validate, reject duplicates, hash, create, emit CRM event.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.FirstName = strings.TrimSpace(req.FirstName)
	req.LastName = strings.TrimSpace(req.LastName)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.RestaurantName = strings.TrimSpace(req.RestaurantName)
	req.Role = strings.ToLower(strings.TrimSpace(req.Role))
	req.Phone = strings.TrimSpace(req.Phone)

	if fe := utils.ValidateRegistration(req.FirstName, req.LastName, req.Email, req.Password, req.RestaurantName, req.Role, req.Phone); fe != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": fe.Error(), "field": fe.Field})
	}

	hash, err := utils.HashPassword(req.Password, h.Cfg.BcryptCost)
	if err != nil {
		c.Logger().Errorf("hash password: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u := &model.User{
		Email:          req.Email,
		PasswordHash:   hash,
		FirstName:      req.FirstName,
		LastName:       req.LastName,
		Phone:          req.Phone,
		RestaurantName: req.RestaurantName,
		Role:           req.Role,
	}
	uid, err := h.Users.Create(ctx, u)
	if err != nil {
		if err == repository.ErrUserExists {
			// Generic on purpose: the message must not reveal which field
			// collided.
			return c.JSON(http.StatusConflict, echo.Map{"error": "user already exists"})
		}
		c.Logger().Errorf("create user: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}

	if h.Publish != nil {
		_ = h.Publish(ctx, queue.UserRegisteredEvent{
			UserID:         uid,
			Email:          req.Email,
			FirstName:      req.FirstName,
			LastName:       req.LastName,
			RestaurantName: req.RestaurantName,
			Role:           req.Role,
			RegisteredAt:   time.Now().UTC().Format(time.RFC3339),
		})
	}

	return c.JSON(http.StatusCreated, registeredResp{ID: uid, Email: req.Email})
}

// Login: verify credentials and set the session cookie.  Unknown email and
// wrong password produce the identical response so the endpoint cannot be
// used to enumerate accounts.  Only these credential failures consume
// rate-limit quota; a successful login never does.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if fe := utils.ValidateEmail(req.Email); fe != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": fe.Error(), "field": fe.Field})
	}
	if req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "password: is required", "field": "password"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByEmail(ctx, req.Email)
	if err != nil {
		if err == sql.ErrNoRows {
			return h.loginFailed(c)
		}
		c.Logger().Errorf("query user: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
	if !utils.VerifyPassword(u.PasswordHash, req.Password) {
		return h.loginFailed(c)
	}

	tok, err := utils.NewSessionToken(h.Cfg.JWTSecret, u.ID, u.Role, h.Cfg.SessionTTLMin)
	if err != nil {
		c.Logger().Errorf("issue session token: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
	h.setSessionCookie(c, tok)

	// The token lives only in the cookie; the body is an acknowledgment.
	return c.JSON(http.StatusOK, echo.Map{"message": "logged in"})
}

// loginFailed records the failed attempt against the limiter and returns the
// unified credentials error.
func (h *AuthHandler) loginFailed(c echo.Context) error {
	if h.RL.Enabled && h.Limiter != nil {
		key := ratelimit.Key(h.RL.Prefix, "login", c.RealIP())
		if err := h.Limiter.RecordFailure(c.Request().Context(), key); err != nil {
			c.Logger().Warnf("record login failure for %s: %v", key, err)
		}
	}
	return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
}

// Me returns the sanitized profile of the session's user.  SessionAuth has
// already checked cookie presence, signature/expiry and revocation, in that
// order; the remaining check is whether the identity still resolves to a
// user.
func (h *AuthHandler) Me(c echo.Context) error {
	uid, ok := c.Get("user_id").(uint64)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "not authenticated"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByID(ctx, uid)
	if err != nil {
		if err == sql.ErrNoRows {
			// Account deleted since the token was issued.
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "not authenticated"})
		}
		c.Logger().Errorf("load user: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"user": sanitize(u)})
}

// Logout revokes the session carried by the cookie, if any, and clears the
// cookie.  It always succeeds: logging out without a session is not an
// error, and calling it twice is harmless.
func (h *AuthHandler) Logout(c echo.Context) error {
	if cookie, err := c.Cookie(utils.SessionCookieName); err == nil && cookie.Value != "" {
		// Only a token that would still verify needs a revocation entry; an
		// expired or garbled one is already rejected everywhere.
		if claims, err := utils.VerifySessionToken(h.Cfg.JWTSecret, cookie.Value); err == nil {
			ttl := time.Until(claims.Exp)
			if err := h.Revoked.Revoke(c.Request().Context(), claims.ID, ttl); err != nil {
				c.Logger().Errorf("revoke session %s: %v", claims.ID, err)
				return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
			}
		}
	}
	h.clearSessionCookie(c)
	return c.JSON(http.StatusOK, echo.Map{"message": "logged out"})
}

// ----- cookie helpers -----

func (h *AuthHandler) setSessionCookie(c echo.Context, tok utils.SessionToken) {
	c.SetCookie(&http.Cookie{
		Name:     utils.SessionCookieName,
		Value:    tok.Token,
		Path:     "/",
		Expires:  tok.Exp,
		MaxAge:   h.Cfg.SessionTTLMin * 60,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
		Secure:   h.Cfg.IsProd(),
	})
}

func (h *AuthHandler) clearSessionCookie(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     utils.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
		Secure:   h.Cfg.IsProd(),
	})
}
