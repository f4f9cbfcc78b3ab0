// Package ctxkeys holds the request context keys shared by the API
// middleware and handlers. It is a leaf package to avoid import cycles.
package ctxkeys

import "context"

// Key is the named type for API context keys.
type Key string

const (
	// ClientID is the authenticated API client, set by the auth middleware.
	ClientID Key = "client_id"

	// Permissions holds the []string of tool permissions from the token.
	Permissions Key = "permissions"
)

func WithValue(ctx context.Context, key Key, value string) context.Context {
	return context.WithValue(ctx, key, value)
}

func WithPermissions(ctx context.Context, permissions []string) context.Context {
	return context.WithValue(ctx, Permissions, permissions)
}

// ClientIDFrom returns the authenticated client id, or "" when the request
// was not authenticated.
func ClientIDFrom(ctx context.Context) string {
	v, _ := ctx.Value(ClientID).(string)
	return v
}

// PermissionsFrom reports the token permissions and whether a token was seen.
func PermissionsFrom(ctx context.Context) ([]string, bool) {
	v, ok := ctx.Value(Permissions).([]string)
	return v, ok
}
