package jwt

import (
	"context"
	"testing"
	"time"

	"geckohub/internal/ports/auth"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	m, err := NewManager(Options{Secret: "test-secret", Issuer: "geckohub", AccessTTL: time.Minute, RefreshTTL: time.Hour})
	require.NoError(t, err)
	return m
}

func TestManager_IssueAndVerify(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	pair, err := m.Issue(ctx, auth.Claims{UserID: 9, Email: "leo@example.com", IsAdmin: true})
	require.NoError(t, err)
	require.NotEmpty(t, pair.Access)
	require.NotEmpty(t, pair.Refresh)

	c, err := m.Verify(ctx, pair.Access)
	require.NoError(t, err)
	assert.Equal(t, auth.Claims{UserID: 9, Email: "leo@example.com", IsAdmin: true}, c)

	c, err = m.VerifyRefresh(ctx, pair.Refresh)
	require.NoError(t, err)
	assert.Equal(t, int64(9), c.UserID)
}

func TestManager_TokenTypesAreNotInterchangeable(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	pair, err := m.Issue(ctx, auth.Claims{UserID: 1})
	require.NoError(t, err)

	_, err = m.Verify(ctx, pair.Refresh)
	assert.ErrorIs(t, err, ErrWrongTokenType)

	_, err = m.VerifyRefresh(ctx, pair.Access)
	assert.ErrorIs(t, err, ErrWrongTokenType)
}

func TestManager_Expired(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	base := time.Now()
	m.now = func() time.Time { return base }
	pair, err := m.Issue(ctx, auth.Claims{UserID: 1})
	require.NoError(t, err)

	m.now = func() time.Time { return base.Add(2 * time.Minute) }
	_, err = m.Verify(ctx, pair.Access)
	assert.Error(t, err)
}

func TestManager_RejectsForeignSignature(t *testing.T) {
	m := newTestManager(t)
	other, err := NewManager(Options{Secret: "other", Issuer: "geckohub"})
	require.NoError(t, err)

	pair, err := other.Issue(context.Background(), auth.Claims{UserID: 1})
	require.NoError(t, err)

	_, err = m.Verify(context.Background(), pair.Access)
	assert.Error(t, err)
}

func TestManager_EmptySecret(t *testing.T) {
	_, err := NewManager(Options{})
	assert.ErrorIs(t, err, ErrNotConfigured)
}
