package actor

import (
	"context"
	"strings"
)

// Permissions evaluated by the declaration core. The gateway in front of this
// service authenticates the caller and forwards the granted set verbatim; the
// core only checks membership.
const (
	PermView   = "declarations.view"
	PermWrite  = "declarations.write"
	PermManage = "declarations.manage"
)

// Actor is the verified caller identity handed over by the periphery.
type Actor struct {
	ID          string
	Permissions []string
}

func (a Actor) Can(permission string) bool {
	for _, p := range a.Permissions {
		if p == permission {
			return true
		}
	}
	return false
}

// IsManager reports whether the actor carries the elevated permission used
// for deletes and cross-actor updates.
func (a Actor) IsManager() bool {
	return a.Can(PermManage)
}

// ParsePermissions splits a comma-separated permission header value.
func ParsePermissions(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, p)
	}
	return out
}

type contextKey struct{}

func WithActor(ctx context.Context, a Actor) context.Context {
	return context.WithValue(ctx, contextKey{}, a)
}

func FromContext(ctx context.Context) (Actor, bool) {
	a, ok := ctx.Value(contextKey{}).(Actor)
	return a, ok
}
