package config

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateSecretRejectsShortSecretInProd(t *testing.T) {
	cfg := Config{Env: "prod", JWTSecret: "short"}
	assert.Error(t, cfg.ValidateSecret())
}

func TestValidateSecretRejectsPlaceholders(t *testing.T) {
	for placeholder := range placeholderSecrets {
		cfg := Config{Env: "prod", JWTSecret: placeholder}
		assert.Error(t, cfg.ValidateSecret(), "placeholder %q", placeholder)
	}
}

func TestValidateSecretAcceptsStrongSecret(t *testing.T) {
	cfg := Config{Env: "prod", JWTSecret: strings.Repeat("x", minSecretLen)}
	assert.NoError(t, cfg.ValidateSecret())
}

func TestValidateSecretSkippedInDev(t *testing.T) {
	cfg := Config{Env: "dev", JWTSecret: "devsecret"}
	assert.NoError(t, cfg.ValidateSecret())
}
