package token

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NordCoder/Tokenus/internal/platform"
)

var (
	accessSecret  = []byte("test-access-secret")
	refreshSecret = []byte("test-refresh-secret")
)

func issuerAt(t *testing.T, now time.Time) *Issuer {
	t.Helper()
	i, err := NewIssuer(Config{
		AccessSecret:  accessSecret,
		RefreshSecret: refreshSecret,
		Now:           func() time.Time { return now },
	})
	require.NoError(t, err)
	return i
}

func TestNewIssuer_SecretValidation(t *testing.T) {
	_, err := NewIssuer(Config{AccessSecret: nil, RefreshSecret: refreshSecret})
	assert.Error(t, err)

	_, err = NewIssuer(Config{AccessSecret: accessSecret, RefreshSecret: nil})
	assert.Error(t, err)

	_, err = NewIssuer(Config{AccessSecret: accessSecret, RefreshSecret: accessSecret})
	assert.Error(t, err)
}

func TestAccessToken_RoundTrip(t *testing.T) {
	now := time.Now().UTC()
	i := issuerAt(t, now)
	uid := uuid.New()

	raw, err := i.IssueAccess(uid, platform.Web)
	require.NoError(t, err)

	claims, err := i.VerifyAccess(raw)
	require.NoError(t, err)
	assert.Equal(t, uid.String(), claims.UserID)
	assert.Equal(t, "web", claims.Platform)
	assert.Equal(t, TypeAccess, claims.Type)
	assert.Equal(t, now.Add(15*time.Minute).Unix(), claims.ExpiresAt.Unix())
}

func TestAccessToken_ExpiresAfter15Minutes(t *testing.T) {
	now := time.Now().UTC()
	uid := uuid.New()

	raw, err := issuerAt(t, now).IssueAccess(uid, platform.Web)
	require.NoError(t, err)

	_, err = issuerAt(t, now.Add(14*time.Minute)).VerifyAccess(raw)
	assert.NoError(t, err)

	_, err = issuerAt(t, now.Add(16*time.Minute)).VerifyAccess(raw)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestRefreshToken_LifetimeByPlatform(t *testing.T) {
	now := time.Now().UTC()
	uid := uuid.New()

	tests := []struct {
		name     string
		platform platform.Platform
		okAfter  time.Duration
		deadBy   time.Duration
	}{
		{"mobile gets 30 days", platform.Mobile, 29 * 24 * time.Hour, 31 * 24 * time.Hour},
		{"web gets 7 days", platform.Web, 6 * 24 * time.Hour, 8 * 24 * time.Hour},
		{"flutter falls through to 7 days", platform.Flutter, 6 * 24 * time.Hour, 8 * 24 * time.Hour},
		{"unknown falls through to 7 days", platform.Unknown, 6 * 24 * time.Hour, 8 * 24 * time.Hour},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			raw, err := issuerAt(t, now).IssueRefresh(uid, tc.platform)
			require.NoError(t, err)

			_, err = issuerAt(t, now.Add(tc.okAfter)).VerifyRefresh(raw)
			assert.NoError(t, err)

			_, err = issuerAt(t, now.Add(tc.deadBy)).VerifyRefresh(raw)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestCrossVerification_AlwaysFails(t *testing.T) {
	i := issuerAt(t, time.Now().UTC())
	uid := uuid.New()

	access, err := i.IssueAccess(uid, platform.Web)
	require.NoError(t, err)
	refresh, err := i.IssueRefresh(uid, platform.Web)
	require.NoError(t, err)

	_, err = i.VerifyRefresh(access)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = i.VerifyAccess(refresh)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerify_RejectsGarbageAndTampering(t *testing.T) {
	i := issuerAt(t, time.Now().UTC())

	_, err := i.VerifyAccess("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)

	raw, err := i.IssueAccess(uuid.New(), platform.Web)
	require.NoError(t, err)

	_, err = i.VerifyAccess(raw + "x")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestRefreshTTL_Policy(t *testing.T) {
	i := issuerAt(t, time.Now().UTC())

	assert.Equal(t, 30*24*time.Hour, i.RefreshTTL(platform.Mobile))
	assert.Equal(t, 7*24*time.Hour, i.RefreshTTL(platform.Web))
	assert.Equal(t, 7*24*time.Hour, i.RefreshTTL(platform.Postman))
	assert.Equal(t, 7*24*time.Hour, i.RefreshTTL(platform.Script))
}
