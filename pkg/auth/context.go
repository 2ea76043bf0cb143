package auth

import (
	"context"
	"errors"
)

// UserContext represents the authenticated caller
type UserContext struct {
	UserID string
	Email  string
	Roles  []string
}

type contextKey string

const userContextKey contextKey = "user"

// ErrNoUser is returned when a request carries no authenticated user
var ErrNoUser = errors.New("user not found in context")

// SetUserInContext adds user to context
func SetUserInContext(ctx context.Context, user *UserContext) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}

// GetUserFromContext extracts user from context
func GetUserFromContext(ctx context.Context) (*UserContext, error) {
	user, ok := ctx.Value(userContextKey).(*UserContext)
	if !ok || user == nil {
		return nil, ErrNoUser
	}
	return user, nil
}

// UserIDFromContext returns the caller id, or "" when unauthenticated
func UserIDFromContext(ctx context.Context) string {
	user, err := GetUserFromContext(ctx)
	if err != nil {
		return ""
	}
	return user.UserID
}
