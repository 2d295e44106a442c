package api

import (
	"context"

	"github.com/listenupapp/shelfmark/internal/authz"
	"github.com/listenupapp/shelfmark/internal/domain"
	domainerrors "github.com/listenupapp/shelfmark/internal/errors"
)

// Principal is the authenticated caller of a request.
type Principal struct {
	User      *domain.User
	SessionID string
}

// ctxKey is the type for context keys to avoid collisions.
type ctxKey string

const principalKey ctxKey = "principal"

func withPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// PrincipalFrom returns the caller stored by the auth middleware, or nil when the
// request is anonymous.
func PrincipalFrom(ctx context.Context) *Principal {
	p, _ := ctx.Value(principalKey).(*Principal)
	return p
}

// role returns the caller's role; anonymous when unauthenticated.
func (p *Principal) role() domain.Role {
	if p == nil || p.User == nil {
		return domain.RoleAnonymous
	}
	return p.User.Role
}

// userID returns the caller's id, or 0 when anonymous.
func (p *Principal) userID() int64 {
	if p == nil || p.User == nil {
		return 0
	}
	return p.User.ID
}

// authorize checks the caller against the role policy. An anonymous caller that is
// refused gets 401 so clients know to log in; a logged-in caller gets 403.
func (s *Server) authorize(ctx context.Context, obj authz.Object, act authz.Action) (*Principal, error) {
	p := PrincipalFrom(ctx)
	if err := s.enforcer.Require(p.role(), obj, act); err != nil {
		if p == nil {
			return nil, domainerrors.Unauthorized("authentication required")
		}
		return nil, err
	}
	return p, nil
}

// requireUser returns the logged-in caller or 401.
func (s *Server) requireUser(ctx context.Context) (*Principal, error) {
	p := PrincipalFrom(ctx)
	if p == nil || p.User == nil {
		return nil, domainerrors.Unauthorized("authentication required")
	}
	return p, nil
}
