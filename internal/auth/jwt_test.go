package auth

import (
	"encoding/base64"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gitlab.ozon.dev/pupkingeorgij/dispatch-dashboard/internal/access"
)

const secret = "0123456789abcdef0123"

func TestIssueParse(t *testing.T) {
	issuer := NewIssuer(secret, time.Hour)
	s := issuer.NewSession("marie", "3", []access.Permission{access.Dispatch}, "upstream-token")

	token, err := issuer.Issue(s)
	require.NoError(t, err)

	got, err := issuer.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, s.ID, got.ID)
	assert.Equal(t, "marie", got.Username)
	assert.Equal(t, "3", got.Store)
	assert.Empty(t, got.UpstreamToken)
	assert.True(t, got.Has(access.Dispatch))
	assert.True(t, got.ExpiresAt.Equal(s.ExpiresAt))
}

func TestIssue_KeepsUpstreamTokenOut(t *testing.T) {
	issuer := NewIssuer(secret, time.Hour)
	token, err := issuer.Issue(issuer.NewSession("marie", "3", []access.Permission{access.Dispatch}, "upstream-token"))
	require.NoError(t, err)

	parts := strings.Split(token, ".")
	require.Len(t, parts, 3)
	payload, err := base64.RawURLEncoding.DecodeString(parts[1])
	require.NoError(t, err)

	var fields map[string]any
	require.NoError(t, json.Unmarshal(payload, &fields))
	assert.Equal(t, "marie", fields["sub"])
	assert.NotContains(t, string(payload), "upstream-token")
	assert.NotContains(t, fields, "upt")
}

func TestParse_Expired(t *testing.T) {
	issuer := NewIssuer(secret, time.Hour)
	issuer.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	token, err := issuer.Issue(issuer.NewSession("marie", "3", nil, "t"))
	require.NoError(t, err)

	_, err = NewIssuer(secret, time.Hour).Parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParse_WrongSecret(t *testing.T) {
	issuer := NewIssuer(secret, time.Hour)
	token, err := issuer.Issue(issuer.NewSession("marie", "3", nil, "t"))
	require.NoError(t, err)

	_, err = NewIssuer("another-secret-value!", time.Hour).Parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParse_RejectsOtherAlgorithms(t *testing.T) {
	c := jwt.MapClaims{"sub": "marie", "jti": "x", "exp": time.Now().Add(time.Hour).Unix()}
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, c).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = NewIssuer(secret, time.Hour).Parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
