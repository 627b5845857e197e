package cache

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"gitlab.ozon.dev/pupkingeorgij/dispatch-dashboard/internal/access"
)

// SessionCache keeps live sessions by id and remembers revoked ids until
// their token would have expired anyway.
type SessionCache struct {
	mu      sync.RWMutex
	cache   map[string]*access.Session
	revoked map[string]time.Time
	logger  *zap.Logger
}

func NewSessionCache(logger *zap.Logger) *SessionCache {
	return &SessionCache{
		cache:   make(map[string]*access.Session),
		revoked: make(map[string]time.Time),
		logger:  logger,
	}
}

func (c *SessionCache) Get(id string) (*access.Session, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s, found := c.cache[id]
	if !found {
		return nil, false
	}
	sessionCopy := *s
	return &sessionCopy, true
}

// Set registers a session. Revoked ids are refused.
func (c *SessionCache) Set(s *access.Session) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, gone := c.revoked[s.ID]; gone {
		return false
	}
	sessionCopy := *s
	c.cache[s.ID] = &sessionCopy
	c.logger.Debug("Cache: set session", zap.String("session_id", s.ID), zap.String("username", s.Username))
	return true
}

func (c *SessionCache) Revoke(s *access.Session) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.cache, s.ID)
	c.revoked[s.ID] = s.ExpiresAt
	c.logger.Debug("Cache: revoked session", zap.String("session_id", s.ID))
}

func (c *SessionCache) Revoked(id string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, gone := c.revoked[id]
	return gone
}

func (c *SessionCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.cache)
}

// Purge drops sessions and revocations that expired before now.
func (c *SessionCache) Purge(now time.Time) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	purged := 0
	for id, s := range c.cache {
		if s.Expired(now) {
			delete(c.cache, id)
			purged++
		}
	}
	for id, exp := range c.revoked {
		if !now.Before(exp) {
			delete(c.revoked, id)
		}
	}
	return purged
}

// RunJanitor purges expired entries every interval until ctx is done.
func (c *SessionCache) RunJanitor(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if n := c.Purge(now); n > 0 {
				c.logger.Info("Cache: purged expired sessions", zap.Int("count", n))
			}
		}
	}
}
