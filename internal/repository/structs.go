package repository

import (
	"errors"
	"time"
)

var ErrObjectNotFound = errors.New("not found")

// Operator is an account allowed on the ops endpoints. Dashboard users live in
// the dispatch API, not here.
type Operator struct {
	ID        int64     `db:"id"`
	Username  string    `db:"username"`
	Password  string    `db:"password"`
	CreatedAt time.Time `db:"created_at"`
}

// SessionRecord is a dashboard session as persisted; it holds the upstream
// token, so rows never leave the server.
type SessionRecord struct {
	ID            string     `db:"id"`
	Username      string     `db:"username"`
	Store         string     `db:"store"`
	Permissions   []string   `db:"permissions"`
	UpstreamToken string     `db:"upstream_token"`
	IssuedAt      time.Time  `db:"issued_at"`
	ExpiresAt     time.Time  `db:"expires_at"`
	RevokedAt     *time.Time `db:"revoked_at"`
}
