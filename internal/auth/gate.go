package auth

import (
	"context"
	"strings"

	"github.com/google/uuid"

	apperrors "github.com/spec-kit/timetracker/pkg/util"
)

// UserChecker confirms that a token subject still exists.
type UserChecker interface {
	Exists(ctx context.Context, id string) (bool, error)
}

// Gate resolves an Authorization header to a user id.
type Gate struct {
	tokens *TokenManager
	users  UserChecker
}

// NewGate constructs a gate.
func NewGate(tokens *TokenManager, users UserChecker) *Gate {
	return &Gate{tokens: tokens, users: users}
}

// Resolve validates the bearer token and returns the user id it names.
// Every failure except a store error is reported as UNAUTHORIZED.
func (g *Gate) Resolve(ctx context.Context, authHeader string) (string, error) {
	if authHeader == "" {
		return "", apperrors.NewUnauthorized("Unauthorized Access")
	}

	parts := strings.SplitN(strings.TrimSpace(authHeader), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", apperrors.NewUnauthorized("Unauthorized Access")
	}

	claims, err := g.tokens.ParseToken(strings.TrimSpace(parts[1]))
	if err != nil {
		return "", apperrors.NewUnauthorized("Unauthorized Access")
	}
	if _, err := uuid.Parse(claims.UserID); err != nil {
		return "", apperrors.NewUnauthorized("Unauthorized Access")
	}

	ok, err := g.users.Exists(ctx, claims.UserID)
	if err != nil {
		return "", apperrors.NewInternalError(err)
	}
	if !ok {
		return "", apperrors.NewUnauthorized("Unauthorized Access")
	}
	return claims.UserID, nil
}
