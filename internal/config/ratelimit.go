package config

import (
	"os"
	"strconv"
	"time"
)

// RateLimitConfig controls the fixed-window limiter that gates registration
// and login.  Registration uses a lower ceiling than login because account
// creation is rarer and more abuse-prone.  The login ceiling applies to
// failed attempts only; successful logins never consume quota.
type RateLimitConfig struct {
	Enabled         bool          // master switch; forced off in test mode
	Window          time.Duration // trailing window shared by both classes
	RegisterLimit   int           // max registration attempts per window
	LoginFailLimit  int           // max failed login attempts per window
	Prefix          string        // key namespace for the backing store
}

// LoadRateLimitConfig reads environment variables to build a RateLimitConfig.
// Defaults match the documented contract: 15-minute window, 5 registrations,
// 10 failed logins.  When the application environment is "test" the limiter
// is disabled regardless of RATE_LIMIT_ENABLED so suites stay deterministic.
func LoadRateLimitConfig(env string) RateLimitConfig {
	cfg := RateLimitConfig{
		Enabled:        envBool("RATE_LIMIT_ENABLED", true),
		Window:         envDur("RATE_LIMIT_WINDOW", 15*time.Minute),
		RegisterLimit:  envInt("RATE_LIMIT_REGISTER", 5),
		LoginFailLimit: envInt("RATE_LIMIT_LOGIN_FAILURES", 10),
		Prefix:         envStr("RATE_LIMIT_PREFIX", "rl"),
	}
	if env == "test" {
		cfg.Enabled = false
	}
	if cfg.RegisterLimit < 1 {
		cfg.RegisterLimit = 1
	}
	if cfg.LoginFailLimit < 1 {
		cfg.LoginFailLimit = 1
	}
	if cfg.Window <= 0 {
		cfg.Window = 15 * time.Minute
	}
	return cfg
}

func envStr(k, d string) string { if v := os.Getenv(k); v != "" { return v }; return d }
func envBool(k string, d bool) bool {
	v := os.Getenv(k)
	if v == "" { return d }
	switch v {
	case "1", "true", "TRUE", "True", "yes", "YES", "on", "ON": return true
	case "0", "false", "FALSE", "False", "no", "NO", "off", "OFF": return false
	}
	return d
}
func envInt(k string, d int) int {
	v := os.Getenv(k); if v == "" { return d }
	if n, err := strconv.Atoi(v); err == nil { return n }
	return d
}
func envDur(k string, d time.Duration) time.Duration {
	v := os.Getenv(k); if v == "" { return d }
	if dur, err := time.ParseDuration(v); err == nil { return dur }
	return d
}
