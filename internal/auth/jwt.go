// Package auth signs and verifies the dashboard session cookie.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"gitlab.ozon.dev/pupkingeorgij/dispatch-dashboard/internal/access"
)

var ErrInvalidToken = errors.New("invalid session token")

// claims carry only what the browser may read; the upstream token stays in
// the session store.
type claims struct {
	Store       string   `json:"store"`
	Permissions []string `json:"perms"`
	jwt.RegisteredClaims
}

type Issuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewIssuer(secret string, ttl time.Duration) *Issuer {
	return &Issuer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// NewSession fills in the id and lifetime of a session for a fresh login.
func (i *Issuer) NewSession(username, store string, perms []access.Permission, upstreamToken string) *access.Session {
	now := i.now().Truncate(time.Second)
	return &access.Session{
		ID:            uuid.NewString(),
		Username:      username,
		Store:         store,
		Permissions:   perms,
		UpstreamToken: upstreamToken,
		IssuedAt:      now,
		ExpiresAt:     now.Add(i.ttl),
	}
}

func (i *Issuer) Issue(s *access.Session) (string, error) {
	perms := make([]string, 0, len(s.Permissions))
	for _, p := range s.Permissions {
		perms = append(perms, string(p))
	}
	c := claims{
		Store:       s.Store,
		Permissions: perms,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   s.Username,
			ID:        s.ID,
			IssuedAt:  jwt.NewNumericDate(s.IssuedAt),
			ExpiresAt: jwt.NewNumericDate(s.ExpiresAt),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("sign session: %w", err)
	}
	return token, nil
}

// Parse verifies token and returns the session it describes. The returned
// session has no upstream token.
func (i *Issuer) Parse(token string) (*access.Session, error) {
	var c claims
	parsed, err := jwt.ParseWithClaims(token, &c, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return i.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !parsed.Valid || c.ID == "" || c.Subject == "" {
		return nil, ErrInvalidToken
	}

	s := &access.Session{
		ID:          c.ID,
		Username:    c.Subject,
		Store:       c.Store,
		Permissions: access.PermissionsFrom(c.Permissions),
		ExpiresAt:   c.ExpiresAt.Time,
	}
	if c.IssuedAt != nil {
		s.IssuedAt = c.IssuedAt.Time
	}
	return s, nil
}
