package session

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/fleetwatch/fleet-client/models"
)

// The client has no signing key, so claims are read without signature
// verification. The backend remains the authority; these helpers only fill
// gaps in the login response and catch obviously stale tokens early.

// RoleFromToken extracts the role claim from a bearer token.
func RoleFromToken(token string) (models.Role, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return "", fmt.Errorf("failed to parse token: %w", err)
	}
	role, ok := claims["role"].(string)
	if !ok {
		return "", fmt.Errorf("token carries no role claim")
	}
	return models.ParseRole(role)
}

// TokenExpired reports whether the token carries an exp claim in the past.
// Tokens without an exp claim are treated as unexpired.
func TokenExpired(token string) bool {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return true
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return exp.Before(time.Now())
}
