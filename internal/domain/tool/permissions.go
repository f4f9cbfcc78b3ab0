package tool

import (
	"context"
	"slices"
)

// PermissionAll grants every tool.
const PermissionAll = "*"

type grantsKey struct{}

// WithGrantedPermissions makes the dispatcher check each tool's
// RequiredPermissions against granted for calls made with the returned
// context. A nil granted grants nothing. Contexts without a grant are not
// checked.
func WithGrantedPermissions(ctx context.Context, granted []string) context.Context {
	return context.WithValue(ctx, grantsKey{}, slices.Clone(granted))
}

// GrantedPermissions returns the grant set by WithGrantedPermissions.
func GrantedPermissions(ctx context.Context) ([]string, bool) {
	granted, ok := ctx.Value(grantsKey{}).([]string)
	return granted, ok
}

// CheckPermissions fails with ErrPermissionDenied naming the first required
// permission of desc that granted lacks.
func CheckPermissions(desc Descriptor, granted []string) error {
	if slices.Contains(granted, PermissionAll) {
		return nil
	}
	for _, p := range desc.RequiredPermissions {
		if !slices.Contains(granted, p) {
			return &Error{
				Kind:    KindPermissionDenied,
				Tool:    desc.Name,
				Message: "missing permission " + p,
			}
		}
	}
	return nil
}
