// Package token issues and verifies the signed bearer tokens that prove
// identity between requests, plus the opaque random tokens used for
// verification and password reset.
package token

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	id "alumnet/pkg/domain"
)

// Token errors. Services translate these into coded domain errors.
var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token expired")
)

// Config defines signing settings. The key is explicit construction-time
// configuration so tests can run with distinct keys.
type Config struct {
	SigningKey []byte
	TTL        time.Duration
	Issuer     string
}

// Service signs and verifies session tokens.
type Service struct {
	config Config
}

// NewService constructs a token service. A zero TTL defaults to 7 days.
func NewService(config Config) *Service {
	if config.TTL <= 0 {
		config.TTL = 7 * 24 * time.Hour
	}
	return &Service{config: config}
}

// Claims is the session token payload. The subject binds the user id; jti
// supports revocation. Role is informational only; the guard always
// reloads the user, so a stale role claim cannot escalate.
type Claims struct {
	Role string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// Session is the verified content of a bearer token.
type Session struct {
	UserID    id.UserID
	JTI       string
	ExpiresAt time.Time
}

// Issue signs a time-limited bearer token binding the user id.
func (s *Service) Issue(userID id.UserID, role id.Role, now time.Time) (string, error) {
	claims := &Claims{
		Role: role.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.config.TTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    s.config.Issuer,
			ID:        uuid.New().String(),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.config.SigningKey)
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}
	return signed, nil
}

// Verify checks signature and validity window and returns the bound
// session.
//
// Errors: ErrExpiredToken past expiry, ErrInvalidToken for everything else.
func (s *Service) Verify(tokenString string) (*Session, error) {
	if tokenString == "" {
		return nil, ErrInvalidToken
	}
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.config.SigningKey, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	userID, err := id.ParseUserID(claims.Subject)
	if err != nil {
		return nil, ErrInvalidToken
	}
	session := &Session{UserID: userID, JTI: claims.ID}
	if claims.ExpiresAt != nil {
		session.ExpiresAt = claims.ExpiresAt.Time
	}
	return session, nil
}

// TTL returns the configured token validity window.
func (s *Service) TTL() time.Duration { return s.config.TTL }

// NewOpaque returns a random token with 256 bits of entropy, hex encoded.
// Used for verification and password-reset tokens.
func NewOpaque() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate opaque token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// HashOpaque returns the sha256 hex digest stored in place of an opaque
// token. Lookup is by exact digest, so no constant-time comparison is
// needed at the store.
func HashOpaque(plaintext string) string {
	sum := sha256.Sum256([]byte(plaintext))
	return hex.EncodeToString(sum[:])
}
