package identity_test

import (
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	identity "github.com/goliatone/go-identity"
)

func TestNewLoginClaims(t *testing.T) {
	user := &identity.User{
		ID:        uuid.New(),
		Username:  "alice",
		Name:      "Alice Doe",
		Email:     "alice@example.com",
		Phone:     "+15550100",
		AvatarURL: "http://api.example.com/media/avatar/alice.png?aZ3",
		Role:      &identity.Role{Name: "user"},
		Groups: []*identity.Group{
			{Name: "staff"},
			{Name: "billing"},
		},
	}
	session := &identity.Session{ID: uuid.New(), UserID: user.ID}

	claims := identity.NewLoginClaims(user, session)

	assert.Equal(t, user.ID.String(), claims.UserID())
	assert.Equal(t, user.ID.String(), claims.Subject)
	assert.Equal(t, "alice", claims.Username)
	assert.Equal(t, "user", claims.RoleName)
	assert.Equal(t, []string{"staff", "billing"}, claims.Groups)
	assert.Equal(t, session.ID.String(), claims.SessionID)

	id, err := claims.UserUUID()
	require.NoError(t, err)
	assert.Equal(t, user.ID, id)
}

func TestNewLoginClaimsNilSession(t *testing.T) {
	user := &identity.User{ID: uuid.New(), Username: "alice"}

	claims := identity.NewLoginClaims(user, nil)
	assert.Empty(t, claims.SessionID)
}

func TestScopedClaimsCarryNoProfile(t *testing.T) {
	user := &identity.User{
		ID:       uuid.New(),
		Username: "alice",
		Email:    "alice@example.com",
		Phone:    "+15550100",
		Role:     &identity.Role{Name: "user"},
	}

	tests := []struct {
		name   string
		claims *identity.TokenClaims
	}{
		{name: "Activation", claims: identity.NewActivationClaims(user, "user")},
		{name: "Recovery", claims: identity.NewRecoveryClaims(user)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, user.ID.String(), tt.claims.UserID())
			assert.Equal(t, "alice", tt.claims.Username)
			assert.Equal(t, "user", tt.claims.RoleName)

			// no email, phone, or session leaks into emailed tokens
			assert.Empty(t, tt.claims.Email)
			assert.Empty(t, tt.claims.Phone)
			assert.Empty(t, tt.claims.SessionID)
		})
	}
}

func TestUserIDFallsBackToSubject(t *testing.T) {
	claims := &identity.TokenClaims{}
	claims.RegisteredClaims = jwt.RegisteredClaims{Subject: "subject-id"}

	assert.Equal(t, "subject-id", claims.UserID())
}

func TestUserUUIDRejectsGarbage(t *testing.T) {
	claims := &identity.TokenClaims{UID: "not-a-uuid"}

	_, err := claims.UserUUID()
	assert.Error(t, err)
}
