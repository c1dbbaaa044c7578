package auth

import "context"

type contextKey string

const ownerKey contextKey = "owner_id"

// WithOwner returns a context carrying the authenticated owner id.
func WithOwner(ctx context.Context, ownerID string) context.Context {
	return context.WithValue(ctx, ownerKey, ownerID)
}

// OwnerFromContext returns the authenticated owner id set by the bearer
// middleware. ok is false when the request never passed authentication.
func OwnerFromContext(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(ownerKey).(string)
	return v, ok && v != ""
}
