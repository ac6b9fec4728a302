package config // package config loads application configuration from environment variables

import (
	"log"     // log is used to report configuration errors and halt execution
	"os"      // os provides access to environment variables
	"strings" // strings splits the CORS origin list
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.  The types reflect how the values are used in
// the application: strings for identifiers and secrets, ints for durations and costs.
type Config struct {
	Env           string   // application environment ("dev", "test", "prod")
	Port          string   // HTTP port to listen on
	DBUser        string   // database username
	DBPass        string   // database password (optional)
	DBHost        string   // database host address
	DBPort        string   // database port number
	DBName        string   // database name
	JWTSecret     string   // secret used to sign session tokens
	SessionTTLMin int      // session token time-to-live in minutes
	BcryptCost    int      // bcrypt cost for password hashing
	CORSOrigins   []string // origins allowed to call the API with credentials
}

// Load reads configuration values from environment variables and returns a
// Config.  Required variables are enforced by must() and missing values
// cause the program to exit with a fatal log message.  In production the
// signing secret must be at least 32 characters; short secrets are only
// tolerated in dev and test.
func Load() Config {
	cfg := Config{
		Env:           must("APP_ENV"),      // environment (dev/test/prod)
		Port:          must("APP_PORT"),     // port to bind the HTTP server
		DBUser:        must("DB_USER"),      // database user
		DBPass:        os.Getenv("DB_PASS"), // database password (empty allowed)
		DBHost:        must("DB_HOST"),      // database host
		DBPort:        must("DB_PORT"),      // database port
		DBName:        must("DB_NAME"),      // database name
		JWTSecret:     must("JWT_SECRET"),   // secret used for signing session tokens
		SessionTTLMin: envInt("SESSION_TTL_MIN", 120),
		BcryptCost:    envInt("BCRYPT_COST", 12),
		CORSOrigins:   splitOrigins(os.Getenv("CORS_ORIGINS")),
	}
	if cfg.IsProd() && len(cfg.JWTSecret) < 32 {
		log.Fatalf("JWT_SECRET must be at least 32 characters in prod (got %d)", len(cfg.JWTSecret))
	}
	return cfg
}

// IsProd reports whether the app runs in production.  The Secure cookie flag
// and the secret length check key off this.
func (c Config) IsProd() bool { return c.Env == "prod" }

// IsTest reports whether the app runs under the automated test environment.
// Rate limiting is disabled entirely in test mode.
func (c Config) IsTest() bool { return c.Env == "test" }

// must retrieves the value of a required environment variable.  If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

func splitOrigins(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
