package audit

import "context"

type contextKey struct{}

// WithClientIP stores the caller's address for events logged under ctx.
func WithClientIP(ctx context.Context, ip string) context.Context {
	if ip == "" {
		return ctx
	}
	return context.WithValue(ctx, contextKey{}, ip)
}

// ClientIPFromContext returns the address stored by WithClientIP, or "".
func ClientIPFromContext(ctx context.Context) string {
	ip, _ := ctx.Value(contextKey{}).(string)
	return ip
}
