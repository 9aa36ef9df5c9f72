package identity

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenClaims is the claim set embedded in every token this package
// issues. Login tokens carry the full profile plus a session reference;
// activation and recovery tokens carry id, username, and role name only.
type TokenClaims struct {
	jwt.RegisteredClaims
	UID       string   `json:"uid,omitempty"`
	Username  string   `json:"username,omitempty"`
	Name      string   `json:"name,omitempty"`
	Email     string   `json:"email,omitempty"`
	Phone     string   `json:"phone,omitempty"`
	RoleName  string   `json:"role,omitempty"`
	Groups    []string `json:"groups,omitempty"`
	AvatarURL string   `json:"avatar_url,omitempty"`
	SessionID string   `json:"sid,omitempty"`
}

// UserID returns the account id the token was issued for
func (c *TokenClaims) UserID() string {
	if c.UID != "" {
		return c.UID
	}
	return c.RegisteredClaims.Subject
}

// UserUUID parses the account id claim
func (c *TokenClaims) UserUUID() (uuid.UUID, error) {
	return uuid.Parse(c.UserID())
}

// Expires returns the expiration time
func (c *TokenClaims) Expires() time.Time {
	if c.RegisteredClaims.ExpiresAt != nil {
		return c.RegisteredClaims.ExpiresAt.Time
	}
	return time.Time{}
}

// Issued returns the issued at time
func (c *TokenClaims) Issued() time.Time {
	if c.RegisteredClaims.IssuedAt != nil {
		return c.RegisteredClaims.IssuedAt.Time
	}
	return time.Time{}
}

// NewLoginClaims builds the claim set for a login token: full profile
// plus the freshly created session reference.
func NewLoginClaims(user *User, session *Session) *TokenClaims {
	claims := &TokenClaims{
		UID:       user.ID.String(),
		Username:  user.Username,
		Name:      user.Name,
		Email:     user.Email,
		Phone:     user.Phone,
		RoleName:  user.RoleName(),
		Groups:    user.GroupNames(),
		AvatarURL: user.AvatarURL,
	}
	claims.RegisteredClaims.Subject = user.ID.String()
	if session != nil {
		claims.SessionID = session.ID.String()
	}
	return claims
}

// NewActivationClaims builds the claim set for an activation token.
func NewActivationClaims(user *User, roleName string) *TokenClaims {
	claims := &TokenClaims{
		UID:      user.ID.String(),
		Username: user.Username,
		RoleName: roleName,
	}
	claims.RegisteredClaims.Subject = user.ID.String()
	return claims
}

// NewRecoveryClaims builds the claim set for a password recovery token.
func NewRecoveryClaims(user *User) *TokenClaims {
	claims := &TokenClaims{
		UID:      user.ID.String(),
		Username: user.Username,
		RoleName: user.RoleName(),
	}
	claims.RegisteredClaims.Subject = user.ID.String()
	return claims
}
