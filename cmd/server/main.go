package main // Entry point package

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/tablekeep/restaurant-manager/internal/config"
	"github.com/tablekeep/restaurant-manager/internal/database"
	"github.com/tablekeep/restaurant-manager/internal/handler"
	"github.com/tablekeep/restaurant-manager/internal/queue"
	"github.com/tablekeep/restaurant-manager/internal/ratelimit"
	"github.com/tablekeep/restaurant-manager/internal/repository"
	"github.com/tablekeep/restaurant-manager/internal/router"
)

func main() {
	// .env is a dev convenience; in prod the environment is the source of
	// truth and the file is simply absent.
	_ = godotenv.Load()

	cfg := config.Load()
	rlCfg := config.LoadRateLimitConfig(cfg.Env)
	cacheCfg := config.LoadCacheConfig()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer db.Close()

	users := repository.NewUserRepo(db)
	menu := repository.NewMenuRepo(db)

	// Redis backs the rate limiter, the revocation registry and the public
	// response cache.  When it is unreachable the security gates stay up on
	// in-memory state (single-instance limitation) and caching is skipped.
	rdb := config.NewRedisClient()
	var revoked repository.RevocationStore
	var limiter ratelimit.Limiter
	if rdb != nil {
		revoked = repository.NewRedisRevocationStore(rdb, "revoked")
		limiter = ratelimit.NewRedisLimiter(rdb, rlCfg.Window)
	} else {
		log.Printf("redis unavailable; using in-memory revocation and rate limiting")
		revoked = repository.NewMemoryRevocationStore()
		limiter = ratelimit.NewMemoryLimiter(rlCfg.Window)
	}

	// CRM signup trail: consume user.registered events in the background.
	go queue.StartSignupConsumer()

	auth := handler.NewAuthHandler(cfg, rlCfg, users, revoked, limiter, queue.PublishUserRegistered)
	menuHandler := handler.NewMenuHandler(menu)
	publicMenu := handler.NewPublicMenuHandler(menu)

	e := echo.New()
	e.HideBanner = true
	router.RegisterRoutes(e, cfg.CORSOrigins)
	router.RegisterAuth(e, auth, rlCfg, limiter, revoked)
	router.RegisterMenu(e, menuHandler, publicMenu, cfg.JWTSecret, revoked, cacheCfg, rdb)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)

	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
