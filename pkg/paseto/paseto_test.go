package pasetotoken

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T, mode Mode) *Manager {
	t.Helper()
	ks, err := GenerateKeyStrings(mode)
	require.NoError(t, err)
	keys, err := LoadKeys(ks)
	require.NoError(t, err)
	m, err := New(Config{Mode: mode, Issuer: "medcenter", Audience: "api.test", AccessTTL: time.Hour}, keys)
	require.NoError(t, err)
	return m
}

func TestIssueAndVerify(t *testing.T) {
	for _, mode := range []Mode{ModeLocal, ModePublic} {
		t.Run(string(mode), func(t *testing.T) {
			m := newTestManager(t, mode)
			sid := uuid.New()

			tok, err := m.IssueAccess(7, sid)
			require.NoError(t, err)

			claims, err := m.Verify(tok)
			require.NoError(t, err)
			assert.Equal(t, int64(7), claims.UserID)
			assert.Equal(t, sid, claims.SessionID)
			assert.Equal(t, TokenTypeAccess, claims.Type)
			assert.True(t, claims.ExpiresAt.After(claims.IssuedAt))
		})
	}
}

func TestVerifyRejects(t *testing.T) {
	m := newTestManager(t, ModeLocal)
	tok, err := m.IssueAccess(7, uuid.New())
	require.NoError(t, err)

	t.Run("expired", func(t *testing.T) {
		later := *m
		later.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
		_, err := later.Verify(tok)
		var invalid ErrInvalidToken
		assert.True(t, errors.As(err, &invalid))
	})

	t.Run("other key", func(t *testing.T) {
		other := newTestManager(t, ModeLocal)
		_, err := other.Verify(tok)
		assert.Error(t, err)
	})

	t.Run("other audience", func(t *testing.T) {
		aud := *m
		aud.cfg.Audience = "elsewhere"
		_, err := aud.Verify(tok)
		assert.Error(t, err)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := m.Verify("v4.local.not-a-token")
		assert.Error(t, err)
	})
}

func TestIssueAccessRejectsZeroUser(t *testing.T) {
	m := newTestManager(t, ModeLocal)
	_, err := m.IssueAccess(0, uuid.New())
	assert.Error(t, err)
}

func TestLoadKeys(t *testing.T) {
	_, err := LoadKeys(KeyStrings{Mode: ModeLocal})
	assert.Error(t, err)

	_, err = LoadKeys(KeyStrings{Mode: "jwt"})
	assert.Error(t, err)

	pub, err := GenerateKeyStrings(ModePublic)
	require.NoError(t, err)
	verifyOnly, err := LoadKeys(KeyStrings{Mode: ModePublic, PublicHex: pub.PublicHex})
	require.NoError(t, err)
	assert.Nil(t, verifyOnly.Secret)
	assert.NotNil(t, verifyOnly.Public)
}
