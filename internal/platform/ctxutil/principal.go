package ctxutil

import "context"

type principalKey struct{}

// Principal is the authenticated caller behind a request.
type Principal struct {
	Subject string
	Role    string
}

func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

func GetPrincipal(ctx context.Context) *Principal {
	if p, ok := ctx.Value(principalKey{}).(*Principal); ok {
		return p
	}
	return nil
}

// Actor names the principal for audit records, falling back to "anonymous".
func Actor(ctx context.Context) string {
	if p := GetPrincipal(ctx); p != nil && p.Subject != "" {
		return p.Subject
	}
	return "anonymous"
}
