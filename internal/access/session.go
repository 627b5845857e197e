// Package access decides which dashboard views a session may open.
package access

import (
	"context"
	"slices"
	"time"
)

type Permission string

const (
	Dispatch     Permission = "dispatch"
	CreateUsers  Permission = "create_users"
	Comptability Permission = "comptability"
)

// Session is an authenticated operator. UpstreamToken is the bearer token
// issued by the dispatch API and never leaves the server.
type Session struct {
	ID            string       `json:"id"`
	Username      string       `json:"username"`
	Store         string       `json:"store"`
	Permissions   []Permission `json:"permissions"`
	UpstreamToken string       `json:"-"`
	IssuedAt      time.Time    `json:"issued_at"`
	ExpiresAt     time.Time    `json:"expires_at"`
}

func PermissionsFrom(names []string) []Permission {
	perms := make([]Permission, 0, len(names))
	for _, n := range names {
		perms = append(perms, Permission(n))
	}
	return perms
}

func (s *Session) Has(p Permission) bool {
	return s != nil && slices.Contains(s.Permissions, p)
}

// Grants reports whether the session holds every required permission.
func (s *Session) Grants(required []Permission) bool {
	if s == nil {
		return false
	}
	for _, p := range required {
		if !s.Has(p) {
			return false
		}
	}
	return true
}

func (s *Session) Expired(now time.Time) bool {
	return s == nil || !now.Before(s.ExpiresAt)
}

type sessionKey struct{}

func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, s)
}

func FromContext(ctx context.Context) (*Session, bool) {
	s, ok := ctx.Value(sessionKey{}).(*Session)
	return s, ok && s != nil
}
