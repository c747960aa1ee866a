package web

import (
	"context"

	"github.com/dmitrijs2005/sitekeeper/internal/server/models"
)

type ctxKeyIdentity struct{}
type ctxKeyRequestID struct{}

// Identity is the authenticated caller of a request: the raw session token
// taken from the cookie and the user it resolved to.
type Identity struct {
	Token string
	User  *models.User
}

// WithIdentity returns a copy of ctx carrying id.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, ctxKeyIdentity{}, id)
}

// IdentityFrom reports the identity stored by the session middleware, if any.
func IdentityFrom(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(ctxKeyIdentity{}).(Identity)
	if !ok || id.User == nil {
		return Identity{}, false
	}
	return id, true
}

// RequestID returns the id assigned to the request by the access log
// middleware, or an empty string.
func RequestID(ctx context.Context) string {
	v, _ := ctx.Value(ctxKeyRequestID{}).(string)
	return v
}
