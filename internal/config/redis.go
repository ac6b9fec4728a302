package config

// This file defines a Redis client constructor for the application.  Redis
// backs the rate limiter, the session revocation registry and the public
// response cache.  The client parameters are loaded from environment
// variables.  If the connection fails during startup, the function returns
// nil and callers fall back to in-memory implementations.

import (
	"context"
	"crypto/tls"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// NewRedisClient instantiates a Redis client using environment variables.
// Supported variables are:
//
//	REDIS_URL – full redis:// or rediss:// URL (takes precedence)
//	REDIS_HOST and REDIS_PORT – hostname and port of the Redis server
//	REDIS_PASSWORD – optional password
//	REDIS_DB – database number (default 0)
//	REDIS_TLS – enable TLS when "true" or "1"
//
// The returned client may be nil if a connection cannot be established.
func NewRedisClient() *redis.Client {
	var opts *redis.Options
	if url := os.Getenv("REDIS_URL"); url != "" {
		parsed, err := redis.ParseURL(url)
		if err != nil {
			return nil
		}
		opts = parsed
	} else {
		host := os.Getenv("REDIS_HOST")
		if host == "" {
			host = "localhost"
		}
		port := os.Getenv("REDIS_PORT")
		if port == "" {
			port = "6379"
		}
		dbNum := 0
		if dbStr := os.Getenv("REDIS_DB"); dbStr != "" {
			if n, err := strconv.Atoi(dbStr); err == nil {
				dbNum = n
			}
		}
		var tlsConf *tls.Config
		if tlsEnv := os.Getenv("REDIS_TLS"); strings.EqualFold(tlsEnv, "true") || tlsEnv == "1" {
			tlsConf = &tls.Config{InsecureSkipVerify: true}
		}
		opts = &redis.Options{
			Addr:      host + ":" + port,
			Password:  os.Getenv("REDIS_PASSWORD"),
			DB:        dbNum,
			TLSConfig: tlsConf,
		}
	}
	client := redis.NewClient(opts)
	// Ping the server with a short timeout.  Return nil on failure.
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil
	}
	return client
}
