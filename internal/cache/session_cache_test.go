package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"gitlab.ozon.dev/pupkingeorgij/dispatch-dashboard/internal/access"
)

func TestSessionCache(t *testing.T) {
	c := NewSessionCache(zap.NewNop())
	now := time.Now()
	s := &access.Session{ID: "a", Username: "marie", ExpiresAt: now.Add(time.Hour)}

	require.True(t, c.Set(s))
	got, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, "marie", got.Username)

	got.Username = "changed"
	again, _ := c.Get("a")
	assert.Equal(t, "marie", again.Username)

	c.Revoke(s)
	_, ok = c.Get("a")
	assert.False(t, ok)
	assert.True(t, c.Revoked("a"))
	assert.False(t, c.Set(s))
}

func TestSessionCache_Purge(t *testing.T) {
	c := NewSessionCache(zap.NewNop())
	now := time.Now()
	c.Set(&access.Session{ID: "old", ExpiresAt: now.Add(-time.Minute)})
	c.Set(&access.Session{ID: "live", ExpiresAt: now.Add(time.Hour)})
	c.Revoke(&access.Session{ID: "gone", ExpiresAt: now.Add(-time.Second)})

	assert.Equal(t, 1, c.Purge(now))
	assert.Equal(t, 1, c.Len())
	assert.False(t, c.Revoked("gone"))
}
