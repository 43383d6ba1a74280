package recipeAuth

import "context"

type clientIPContextKey struct{}
type actorIDContextKey struct{}

// WithClientIP attaches the caller's IP address to ctx. The engine uses it
// for the per-IP login throttle and in audit events.
func WithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, clientIPContextKey{}, ip)
}

// WithActorID attaches the ID of the authenticated user performing an
// administrative action, such as locking another account.
func WithActorID(ctx context.Context, actorID string) context.Context {
	return context.WithValue(ctx, actorIDContextKey{}, actorID)
}

func clientIPFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	ip, _ := ctx.Value(clientIPContextKey{}).(string)
	return ip
}

func actorIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	actor, _ := ctx.Value(actorIDContextKey{}).(string)
	return actor
}
