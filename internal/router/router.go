package router // package router defines how HTTP routes are registered for the API

import (
	"net/http"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"

	"github.com/tablekeep/restaurant-manager/internal/config"
	"github.com/tablekeep/restaurant-manager/internal/handler"
	"github.com/tablekeep/restaurant-manager/internal/middleware"
	"github.com/tablekeep/restaurant-manager/internal/model"
	"github.com/tablekeep/restaurant-manager/internal/ratelimit"
	"github.com/tablekeep/restaurant-manager/internal/repository"
)

// RegisterRoutes applies the baseline middleware stack and the routes that
// require no dependencies.  Request logging and panic recovery come from
// Echo's middleware; CORS is restricted to the configured origin allow-list
// with credentials enabled so the session cookie can travel.
func RegisterRoutes(e *echo.Echo, origins []string) {
	e.Use(echomw.Logger())
	e.Use(echomw.Recover())
	if len(origins) > 0 {
		e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
			AllowOrigins:     origins,
			AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
			AllowCredentials: true,
		}))
	}
	e.GET("/healthz", handler.Health)
}

// RegisterAuth wires the session lifecycle endpoints.  Registration and
// login sit behind their rate-limit gates; /api/me requires a valid,
// unrevoked session; logout is best-effort and never requires one.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, rl config.RateLimitConfig, limiter ratelimit.Limiter, revoked repository.RevocationStore) {
	g := e.Group("/api")
	g.POST("/register", a.Register, middleware.RegisterRateLimit(rl, limiter))
	g.POST("/login", a.Login, middleware.LoginRateLimit(rl, limiter))
	g.POST("/logout", a.Logout)
	g.GET("/me", a.Me, middleware.SessionAuth(a.Cfg.JWTSecret, revoked))
}

// RegisterMenu wires the menu module: staff CRUD behind session + role
// middleware, and the public read-only menu behind the response cache.
func RegisterMenu(e *echo.Echo, m *handler.MenuHandler, p *handler.PublicMenuHandler, jwtSecret string, revoked repository.RevocationStore, cacheCfg config.CacheConfig, rdb *redis.Client) {
	menu := e.Group("/api/menu", middleware.SessionAuth(jwtSecret, revoked))
	menu.GET("", m.ListItems, middleware.RequireRole(model.RoleOwner, model.RoleManager, model.RoleStaff))
	menu.POST("", m.CreateItem, middleware.RequireRole(model.RoleOwner, model.RoleManager))
	menu.PUT("/:id", m.UpdateItem, middleware.RequireRole(model.RoleOwner, model.RoleManager))
	menu.DELETE("/:id", m.DeleteItem, middleware.RequireRole(model.RoleOwner, model.RoleManager))

	e.GET("/api/public/menu", p.GetMenu, middleware.ResponseCache(cacheCfg, rdb))
}
