package server

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const dashboardAudience = "dashboard"

var (
	errMissingToken = errors.New("token is required")
	errExpiredToken = errors.New("token has expired")
	errInvalidToken = errors.New("invalid token")
)

// dashboardTokens issues short-lived HS256 tokens that let a teacher who
// passed Basic Auth subscribe to the notifier.
type dashboardTokens struct {
	secret []byte
	ttl    time.Duration
}

// newDashboardTokens returns nil when no secret is configured; the
// notifier channel is then open.
func newDashboardTokens(secret string, ttl time.Duration) *dashboardTokens {
	if secret == "" {
		return nil
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &dashboardTokens{secret: []byte(secret), ttl: ttl}
}

func (t *dashboardTokens) Issue(user string) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   user,
		Audience:  jwt.ClaimStrings{dashboardAudience},
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("sign dashboard token: %w", err)
	}
	return signed, nil
}

func (t *dashboardTokens) Verify(raw string) error {
	if raw == "" {
		return errMissingToken
	}
	_, err := jwt.ParseWithClaims(raw, &jwt.RegisteredClaims{}, func(token *jwt.Token) (any, error) {
		return t.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithAudience(dashboardAudience))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return errExpiredToken
		}
		return errInvalidToken
	}
	return nil
}
