package identity_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	identity "github.com/goliatone/go-identity"
)

func newTestActivation(t *testing.T, m *fakeManager) (*identity.Activation, *identity.TokenServiceImpl) {
	t.Helper()
	ts := identity.NewTokenService([]byte("test-signing-key"), "go-identity-test", nil)
	return identity.NewActivation(m, ts), ts
}

func TestActivate(t *testing.T) {
	m := newFakeManager()
	activation, _ := newTestActivation(t, m)

	u := seedUser(t, m, "pending", "super-secret-pw")
	u.Active = false

	err := activation.Activate(context.Background(), u.ID)
	require.NoError(t, err)
	assert.True(t, u.Active)

	// reactivating an already active account is not an error
	err = activation.Activate(context.Background(), u.ID)
	assert.NoError(t, err)
}

func TestActivateUnknownID(t *testing.T) {
	m := newFakeManager()
	activation, _ := newTestActivation(t, m)

	err := activation.Activate(context.Background(), uuid.New())
	assert.ErrorIs(t, err, identity.ErrUserNotFound)
}

func TestActivateFromToken(t *testing.T) {
	m := newFakeManager()
	activation, ts := newTestActivation(t, m)

	u := seedUser(t, m, "pending", "super-secret-pw")
	u.Active = false

	raw, err := ts.Sign(identity.NewActivationClaims(u, "user"), time.Hour)
	require.NoError(t, err)

	err = activation.ActivateFromToken(context.Background(), raw)
	require.NoError(t, err)
	assert.True(t, u.Active)
}

func TestActivateFromExpiredToken(t *testing.T) {
	m := newFakeManager()
	activation, ts := newTestActivation(t, m)

	u := seedUser(t, m, "pending", "super-secret-pw")
	u.Active = false

	raw, err := ts.Sign(identity.NewActivationClaims(u, "user"), time.Millisecond)
	require.NoError(t, err)

	time.Sleep(10 * time.Millisecond)

	err = activation.ActivateFromToken(context.Background(), raw)
	assert.ErrorIs(t, err, identity.ErrTokenExpired)
	assert.False(t, u.Active)
}

func TestActivateFromGarbageToken(t *testing.T) {
	m := newFakeManager()
	activation, _ := newTestActivation(t, m)

	err := activation.ActivateFromToken(context.Background(), "not.a.token")
	assert.Error(t, err)
	assert.Empty(t, m.users.activated)
}
