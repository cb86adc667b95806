package common

import (
	"context"

	"linklist-backend/domain/core/valueobjects"
)

// ContextKey represents a context key type
type ContextKey string

const (
	ContextKeyUserID   ContextKey = "user_id"
	ContextKeyUsername ContextKey = "username"
	ContextKeyRoles    ContextKey = "user_roles"
)

// WithIdentity stores the authenticated caller on the context
func WithIdentity(ctx context.Context, userID, username string, roles []string) context.Context {
	ctx = context.WithValue(ctx, ContextKeyUserID, userID)
	ctx = context.WithValue(ctx, ContextKeyUsername, username)
	return context.WithValue(ctx, ContextKeyRoles, roles)
}

// GetUserID extracts user ID from context
func GetUserID(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(ContextKeyUserID).(string)
	return userID, ok && userID != ""
}

// GetUserRoles extracts user roles from context
func GetUserRoles(ctx context.Context) ([]string, bool) {
	roles, ok := ctx.Value(ContextKeyRoles).([]string)
	return roles, ok
}

// CallerFromContext builds the domain caller from the authenticated identity
func CallerFromContext(ctx context.Context) (valueobjects.Caller, bool) {
	userID, ok := GetUserID(ctx)
	if !ok {
		return valueobjects.Caller{}, false
	}
	username, _ := ctx.Value(ContextKeyUsername).(string)
	roles, _ := GetUserRoles(ctx)
	return valueobjects.NewCaller(userID, username, roles...), true
}
