package auth

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/inkwell-books/inkwell/internal/shared"
)

// Claims carried inside access tokens. Role is informational only; the
// middleware always reloads the user row before building the principal, so
// stale tokens cannot smuggle an old role past a role change.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// TokenManager issues and verifies HS256 access tokens and keeps a redis
// denylist of revoked token ids.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
	redis  *redis.Client
}

// NewTokenManager constructs a TokenManager.
func NewTokenManager(secret string, ttl time.Duration, redisClient *redis.Client) *TokenManager {
	return &TokenManager{secret: []byte(secret), ttl: ttl, redis: redisClient}
}

// TTL returns the configured token lifetime.
func (m *TokenManager) TTL() time.Duration {
	return m.ttl
}

// Issue signs a new access token for the user.
func (m *TokenManager) Issue(user *User) (string, error) {
	now := time.Now().UTC()
	claims := Claims{
		Role: string(user.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(user.ID, 10),
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("auth: sign token: %w", err)
	}
	return signed, nil
}

// Parse verifies the signature and expiry and returns the claims.
func (m *TokenManager) Parse(raw string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("auth: invalid token: %w", shared.ErrUnauthenticated)
	}
	return claims, nil
}

// UserID extracts the numeric subject.
func (c *Claims) UserID() (int64, error) {
	id, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("auth: malformed subject: %w", shared.ErrUnauthenticated)
	}
	return id, nil
}

func denylistKey(jti string) string {
	return "auth:denylist:" + jti
}

// Revoke denylists the token id until its natural expiry.
func (m *TokenManager) Revoke(ctx context.Context, claims *Claims) error {
	if m.redis == nil || claims.ID == "" {
		return nil
	}
	ttl := time.Until(claims.ExpiresAt.Time)
	if ttl <= 0 {
		return nil
	}
	return m.redis.Set(ctx, denylistKey(claims.ID), "1", ttl).Err()
}

// IsRevoked reports whether the token id has been denylisted.
func (m *TokenManager) IsRevoked(ctx context.Context, jti string) (bool, error) {
	if m.redis == nil || jti == "" {
		return false, nil
	}
	_, err := m.redis.Get(ctx, denylistKey(jti)).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
