package auth

import (
	"context"

	"github.com/secmon-lab/relmap/pkg/domain/model"
)

// Principal is the authenticated caller extracted from a bearer token
type Principal struct {
	UserID model.UserID
	TeamID model.TeamID
	Email  string
}

type ctxPrincipalKey struct{}

// ContextWithPrincipal stores p in ctx
func ContextWithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, ctxPrincipalKey{}, p)
}

// PrincipalFromContext returns the principal in ctx, or nil
func PrincipalFromContext(ctx context.Context) *Principal {
	p, _ := ctx.Value(ctxPrincipalKey{}).(*Principal)
	return p
}
