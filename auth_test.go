package blackjack

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func newTestAuth(t *testing.T) *Authenticator {
	t.Helper()
	a, err := NewAuthenticator([]byte(testSecret), "blackjack-test")
	require.NoError(t, err)
	return a
}

func TestAuthenticatorRoundTrip(t *testing.T) {
	a := newTestAuth(t)
	token, err := a.IssueToken(42, time.Hour)
	require.NoError(t, err)

	p, err := a.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, PlayerID(42), p)
}

func TestAuthenticatorRejects(t *testing.T) {
	a := newTestAuth(t)

	expired, err := a.IssueToken(1, -time.Minute)
	require.NoError(t, err)

	other, err := NewAuthenticator([]byte("another-secret-of-32-bytes-long!"), "blackjack-test")
	require.NoError(t, err)
	forged, err := other.IssueToken(1, time.Hour)
	require.NoError(t, err)

	wrongIssuer, err := NewAuthenticator([]byte(testSecret), "someone-else")
	require.NoError(t, err)
	misissued, err := wrongIssuer.IssueToken(1, time.Hour)
	require.NoError(t, err)

	zero, err := a.IssueToken(0, time.Hour)
	require.NoError(t, err)

	testCases := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"garbage", "not-a-token"},
		{"expired", expired},
		{"forged", forged},
		{"issuer", misissued},
		{"zero player", zero},
	}

	for _, tc := range testCases {
		_, err := a.ParseToken(tc.token)
		assert.ErrorIs(t, err, ErrUnauthenticated, tc.name)
	}
}

func TestNewAuthenticatorShortSecret(t *testing.T) {
	_, err := NewAuthenticator([]byte("short"), "")
	assert.Error(t, err)
}

func TestAuthenticateRequest(t *testing.T) {
	a := newTestAuth(t)
	token, err := a.IssueToken(7, time.Hour)
	require.NoError(t, err)

	r := httptest.NewRequest("GET", "/games/x", nil)
	r.Header.Set("Authorization", "Bearer "+token)
	p, err := a.Authenticate(r)
	require.NoError(t, err)
	assert.Equal(t, PlayerID(7), p)

	r = httptest.NewRequest("GET", "/ws?token="+token, nil)
	p, err = a.Authenticate(r)
	require.NoError(t, err)
	assert.Equal(t, PlayerID(7), p)

	r = httptest.NewRequest("GET", "/games/x", nil)
	r.Header.Set("Authorization", "Basic abc")
	_, err = a.Authenticate(r)
	assert.ErrorIs(t, err, ErrUnauthenticated)
}
