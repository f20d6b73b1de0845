package middleware

import (
	"context"

	"go-cms-app/internal/data"
)

// contextKey defines a custom type for context keys to avoid collisions.
type contextKey string

const userContextKey = contextKey("user")

// AnonymousSubject is the subject of requests without a session.
const AnonymousSubject = "anonymous"

// UserInfo represents the essential user information stored in the session and request context.
type UserInfo struct {
	Subject string   `json:"subject"`
	Roles   []string `json:"roles,omitempty"`
}

// GetUserInfo retrieves the user information from the request context.
func GetUserInfo(ctx context.Context) *UserInfo {
	if userInfo, ok := ctx.Value(userContextKey).(*UserInfo); ok {
		return userInfo
	}
	return &UserInfo{Subject: AnonymousSubject}
}

// SetUserInfo adds the user information to the request context. The subject
// is also recorded as the actor of audit entries written during the request.
func SetUserInfo(ctx context.Context, userInfo *UserInfo) context.Context {
	ctx = data.WithActor(ctx, userInfo.Subject)
	return context.WithValue(ctx, userContextKey, userInfo)
}

