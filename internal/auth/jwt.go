// Package auth validates the HS256 access tokens issued by the identity
// service. Only admin endpoints on this service require authentication.
package auth

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"github.com/grovemarket/search-service/pkg/middleware"
)

type accessClaims struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// NewValidator returns a TokenValidator that verifies HS256 signatures with
// the shared secret and extracts the user id and role claims.
func NewValidator(secret string) middleware.TokenValidator {
	key := []byte(secret)

	return func(token string) (*middleware.Claims, error) {
		parsed, err := jwt.ParseWithClaims(token, &accessClaims{}, func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
			}
			return key, nil
		})
		if err != nil {
			return nil, fmt.Errorf("parse token: %w", err)
		}

		claims, ok := parsed.Claims.(*accessClaims)
		if !ok || !parsed.Valid {
			return nil, fmt.Errorf("invalid token claims")
		}
		if claims.UserID == "" {
			return nil, fmt.Errorf("token missing user_id claim")
		}

		return &middleware.Claims{
			UserID: claims.UserID,
			Role:   claims.Role,
		}, nil
	}
}
