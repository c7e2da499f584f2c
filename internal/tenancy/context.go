// Package tenancy carries the authenticated organization scope through request
// contexts. Every API call is implicitly scoped to exactly one organization.
package tenancy

import "context"

type ctxKey string

const (
	orgKey  ctxKey = "thrivewell.org_id"
	userKey ctxKey = "thrivewell.user_id"
	roleKey ctxKey = "thrivewell.role"
)

// Roles recognized by the platform.
const (
	RoleAdmin    = "organization_admin"
	RoleEmployee = "employee"
)

// WithOrgID stores the org id in context.
func WithOrgID(ctx context.Context, orgID string) context.Context {
	return context.WithValue(ctx, orgKey, orgID)
}

// OrgIDFromContext extracts the org id if present.
func OrgIDFromContext(ctx context.Context) (string, bool) {
	val, ok := ctx.Value(orgKey).(string)
	return val, ok && val != ""
}

// WithUser stores the authenticated user id and role in context.
func WithUser(ctx context.Context, userID int64, role string) context.Context {
	ctx = context.WithValue(ctx, userKey, userID)
	return context.WithValue(ctx, roleKey, role)
}

// UserIDFromContext extracts the authenticated user id if present.
func UserIDFromContext(ctx context.Context) (int64, bool) {
	val, ok := ctx.Value(userKey).(int64)
	return val, ok && val > 0
}

// RoleFromContext extracts the authenticated role if present.
func RoleFromContext(ctx context.Context) (string, bool) {
	val, ok := ctx.Value(roleKey).(string)
	return val, ok && val != ""
}
