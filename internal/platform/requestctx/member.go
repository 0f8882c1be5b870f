// Package requestctx carries authenticated request identity through context.
package requestctx

import "context"

// memberIDContextKey is the context key for authenticated member identity.
type memberIDContextKey struct{}

// WithMemberID stores a member identifier in context.
func WithMemberID(ctx context.Context, memberID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, memberIDContextKey{}, memberID)
}

// MemberIDFromContext returns the member identifier stored in context.
func MemberIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	value, _ := ctx.Value(memberIDContextKey{}).(string)
	return value
}
