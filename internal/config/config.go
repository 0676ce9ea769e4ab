package config // package config loads application configuration from environment variables

import (
	"fmt"
	"log"
	"os"
)

// minSecretLen is the minimum number of bytes accepted for the JWT
// signing secret outside of development.
const minSecretLen = 32

// placeholderSecrets lists values that ship in sample .env files and
// must never reach a deployed environment.
var placeholderSecrets = map[string]bool{
	"secret":            true,
	"changeme":          true,
	"change-me":         true,
	"devsecret":         true,
	"change-this-secret": true,
}

// Config holds all runtime configuration values. Each field
// corresponds to an environment variable. Types reflect how the
// values are used: strings for identifiers and secrets, ints for
// durations and costs.
type Config struct {
	Env            string // application environment (e.g. "dev", "prod")
	Port           string // HTTP port to listen on
	DBUser         string // database username
	DBPass         string // database password (optional)
	DBHost         string // database host address
	DBPort         string // database port number
	DBName         string // database name
	JWTSecret      string // secret used to sign JWTs
	AccessTTLMin   int    // access token time-to-live in minutes
	RefreshTTLMult int    // refresh token TTL as a multiple of the access TTL
	BcryptCost     int    // bcrypt cost for password hashing
}

// Load reads configuration from environment variables and returns a
// Config. Required variables are enforced by must() and missing
// values cause the program to exit with a fatal log message.
func Load() Config {
	cfg := Config{
		Env:            must("APP_ENV"),
		Port:           must("APP_PORT"),
		DBUser:         must("DB_USER"),
		DBPass:         os.Getenv("DB_PASS"), // empty allowed
		DBHost:         must("DB_HOST"),
		DBPort:         must("DB_PORT"),
		DBName:         must("DB_NAME"),
		JWTSecret:      must("JWT_SECRET"),
		AccessTTLMin:   envInt("ACCESS_TOKEN_TTL_MIN", 60),
		RefreshTTLMult: envInt("REFRESH_TTL_MULT", 7),
		BcryptCost:     envInt("BCRYPT_COST", 12),
	}
	if err := cfg.ValidateSecret(); err != nil {
		log.Fatal(err)
	}
	return cfg
}

// ValidateSecret rejects short or placeholder signing secrets in any
// non-development environment. A token service signed with a secret
// from a sample .env file is silently insecure; refusing to start is
// the only safe behavior.
func (c Config) ValidateSecret() error {
	if c.Env == "dev" {
		return nil
	}
	if len(c.JWTSecret) < minSecretLen {
		return fmt.Errorf("JWT_SECRET must be at least %d bytes in env %q", minSecretLen, c.Env)
	}
	if placeholderSecrets[c.JWTSecret] {
		return fmt.Errorf("JWT_SECRET is a known placeholder value; refusing to start in env %q", c.Env)
	}
	return nil
}

// must retrieves the value of a required environment variable. If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}
