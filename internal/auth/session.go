package auth

import (
	"errors"
	"time"

	"backoffice/internal/domain"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid token")

// UserMetadata is the profile block the auth provider embeds in session tokens.
type UserMetadata struct {
	Role       string `json:"role"`
	Department string `json:"department"`
}

type Claims struct {
	Email        string       `json:"email,omitempty"`
	UserMetadata UserMetadata `json:"user_metadata"`
	jwt.RegisteredClaims
}

// Session is the signed-in agent as seen by handlers.
type Session struct {
	AgentID    string
	Email      string
	Role       domain.Role
	Department string
}

// ParseSession validates an HS256 session token issued by the auth provider.
func ParseSession(secret, tokenString string) (*Session, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, ErrInvalidToken
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	return &Session{
		AgentID:    claims.Subject,
		Email:      claims.Email,
		Role:       domain.Role(claims.UserMetadata.Role),
		Department: claims.UserMetadata.Department,
	}, nil
}

// SignSession mints a token in the provider's format. Used by local tooling and tests.
func SignSession(secret string, s Session, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Email: s.Email,
		UserMetadata: UserMetadata{
			Role:       string(s.Role),
			Department: s.Department,
		},
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   s.AgentID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}
