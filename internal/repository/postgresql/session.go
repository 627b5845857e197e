package postgresql

import (
	"context"
	"fmt"
	"time"

	"github.com/georgysavva/scany/pgxscan"

	"gitlab.ozon.dev/pupkingeorgij/dispatch-dashboard/internal/access"
	"gitlab.ozon.dev/pupkingeorgij/dispatch-dashboard/internal/db"
	"gitlab.ozon.dev/pupkingeorgij/dispatch-dashboard/internal/repository"
)

const (
	insertSessionQuery = `INSERT INTO sessions (id, username, store, permissions, upstream_token, issued_at, expires_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)`

	liveSessionQuery = `SELECT id, username, store, permissions, upstream_token, issued_at, expires_at, revoked_at
FROM sessions
WHERE id = $1 AND revoked_at IS NULL AND expires_at > now()`

	revokeSessionQuery = `UPDATE sessions SET revoked_at = now() WHERE id = $1 AND revoked_at IS NULL`

	purgeSessionsQuery = `DELETE FROM sessions WHERE expires_at < $1`
)

// SessionRepo persists dashboard sessions so they outlive the process and a
// logout stays effective after a restart.
type SessionRepo struct {
	db db.DB
}

func NewSessionRepo(db db.DB) *SessionRepo {
	return &SessionRepo{db: db}
}

func (r *SessionRepo) Save(ctx context.Context, s *access.Session) error {
	perms := make([]string, 0, len(s.Permissions))
	for _, p := range s.Permissions {
		perms = append(perms, string(p))
	}
	_, err := r.db.Exec(ctx, insertSessionQuery,
		s.ID, s.Username, s.Store, perms, s.UpstreamToken, s.IssuedAt, s.ExpiresAt)
	if err != nil {
		return fmt.Errorf("failed to insert session %s: %w", s.ID, err)
	}
	return nil
}

// Load returns a live session. Revoked, expired and unknown ids all yield
// repository.ErrObjectNotFound.
func (r *SessionRepo) Load(ctx context.Context, id string) (*access.Session, error) {
	var rec repository.SessionRecord
	if err := r.db.Get(ctx, &rec, liveSessionQuery, id); err != nil {
		if pgxscan.NotFound(err) {
			return nil, repository.ErrObjectNotFound
		}
		return nil, fmt.Errorf("failed to load session %s: %w", id, err)
	}
	return &access.Session{
		ID:            rec.ID,
		Username:      rec.Username,
		Store:         rec.Store,
		Permissions:   access.PermissionsFrom(rec.Permissions),
		UpstreamToken: rec.UpstreamToken,
		IssuedAt:      rec.IssuedAt,
		ExpiresAt:     rec.ExpiresAt,
	}, nil
}

func (r *SessionRepo) Revoke(ctx context.Context, id string) error {
	if _, err := r.db.Exec(ctx, revokeSessionQuery, id); err != nil {
		return fmt.Errorf("failed to revoke session %s: %w", id, err)
	}
	return nil
}

// DeleteExpired removes sessions whose token expired before cutoff.
func (r *SessionRepo) DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx, purgeSessionsQuery, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired sessions: %w", err)
	}
	return tag.RowsAffected(), nil
}
