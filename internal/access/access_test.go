package access

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func session(perms ...Permission) *Session {
	now := time.Now()
	return &Session{
		ID:          "s1",
		Username:    "marie",
		Store:       "1",
		Permissions: perms,
		IssuedAt:    now,
		ExpiresAt:   now.Add(time.Hour),
	}
}

func TestGrants(t *testing.T) {
	s := session(Dispatch, CreateUsers)

	assert.True(t, s.Grants(nil))
	assert.True(t, s.Grants([]Permission{Dispatch}))
	assert.True(t, s.Grants([]Permission{Dispatch, CreateUsers}))
	assert.False(t, s.Grants([]Permission{Comptability}))
	assert.False(t, s.Grants([]Permission{Dispatch, Comptability}))

	var none *Session
	assert.False(t, none.Grants(nil))

	dispatchOnly := session(Dispatch)
	assert.False(t, dispatchOnly.Grants([]Permission{Dispatch, CreateUsers}))
}

func TestResolve(t *testing.T) {
	dispatcher := session(Dispatch)
	expired := session(Dispatch)
	expired.ExpiresAt = time.Now().Add(-time.Minute)

	tests := []struct {
		name    string
		path    string
		session *Session
		want    Decision
	}{
		{name: "login is public", path: "/login", want: Public},
		{name: "home needs a session", path: "/", want: RedirectLogin},
		{name: "home with session", path: "/", session: dispatcher, want: Granted},
		{name: "report granted", path: "/rapport", session: dispatcher, want: Granted},
		{name: "trailing slash", path: "/rapport/", session: dispatcher, want: Granted},
		{name: "psl denied", path: "/psl", session: dispatcher, want: Denied},
		{name: "signup denied", path: "/signup", session: dispatcher, want: Denied},
		{name: "expired session", path: "/rapport", session: expired, want: RedirectLogin},
		{name: "driver page only needs a session", path: "/driver-page/42", session: session(), want: Granted},
		{name: "driver page without id", path: "/driver-page/", session: dispatcher, want: Unmatched},
		{name: "asset", path: "/static/js/main.js", session: nil, want: Unmatched},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Resolve(tt.path, tt.session))
		})
	}
}

func TestNavigation(t *testing.T) {
	nav := Navigation(session(Comptability))

	var paths []string
	for _, v := range nav {
		paths = append(paths, v.Path)
	}
	assert.Equal(t, []string{"/", "/psl"}, paths)
	assert.Empty(t, Navigation(nil))
}

func TestContext(t *testing.T) {
	_, ok := FromContext(context.Background())
	assert.False(t, ok)

	s := session(Dispatch)
	got, ok := FromContext(WithSession(context.Background(), s))
	require.True(t, ok)
	assert.Same(t, s, got)
}
