package config

import (
	"os"
	"strconv"
	"time"
)

// Server captures process-level configuration.
type Server struct {
	Addr          string
	DatabaseURL   string
	RedisURL      string
	JWTSigningKey string
	// SessionTTL bounds bearer token validity. Default 7 days.
	SessionTTL time.Duration
	// BcryptCost is the adaptive hashing cost factor.
	BcryptCost  int
	TokenIssuer string
}

// FromEnv builds a Server config from environment variables so main stays
// lean. The JWT signing key is threaded into the token service explicitly;
// it is never read from a package global.
func FromEnv() Server {
	addr := os.Getenv("ALUMNET_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	jwtSigningKey := os.Getenv("JWT_SIGNING_KEY")
	if jwtSigningKey == "" {
		// Development fallback; override in production.
		jwtSigningKey = "dev-secret-key-change-in-production"
	}

	sessionTTL := 7 * 24 * time.Hour
	if raw := os.Getenv("SESSION_TTL"); raw != "" {
		if d, err := time.ParseDuration(raw); err == nil && d > 0 {
			sessionTTL = d
		}
	}

	bcryptCost := 12
	if raw := os.Getenv("BCRYPT_COST"); raw != "" {
		if c, err := strconv.Atoi(raw); err == nil && c >= 10 {
			bcryptCost = c
		}
	}

	issuer := os.Getenv("TOKEN_ISSUER")
	if issuer == "" {
		issuer = "alumnet"
	}

	return Server{
		Addr:          addr,
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		RedisURL:      os.Getenv("REDIS_URL"),
		JWTSigningKey: jwtSigningKey,
		SessionTTL:    sessionTTL,
		BcryptCost:    bcryptCost,
		TokenIssuer:   issuer,
	}
}
