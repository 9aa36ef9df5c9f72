package identity

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// DefaultRoleName is the role assigned to self-registered accounts
const DefaultRoleName = "user"

// User is the account model. Deletion is a soft-delete flag; deleted
// accounts are excluded from every default query.
type User struct {
	bun.BaseModel `bun:"table:users,alias:usr"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Username      string     `bun:"username,notnull,unique" json:"username,omitempty"`
	Email         string     `bun:"email,notnull,unique" json:"email,omitempty"`
	Name          string     `bun:"name" json:"name,omitempty"`
	Phone         string     `bun:"phone" json:"phone,omitempty"`
	PasswordHash  string     `bun:"password_hash" json:"-"`
	Avatar        string     `bun:"avatar" json:"avatar,omitempty"`
	AvatarURL     string     `bun:"avatar_url" json:"avatar_url,omitempty"`
	Active        bool       `bun:"active" json:"active"`
	RoleID        uuid.UUID  `bun:"role_id,nullzero,type:uuid" json:"role_id,omitempty"`
	Role          *Role      `bun:"rel:belongs-to,join:role_id=id" json:"role,omitempty"`
	Groups        []*Group   `bun:"m2m:user_groups,join:User=Group" json:"groups,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
	DeletedAt     *time.Time `bun:"deleted_at,soft_delete,nullzero" json:"deleted_at,omitempty"`
}

// RoleName returns the resolved role name, empty when the reference has
// not been populated.
func (u *User) RoleName() string {
	if u == nil || u.Role == nil {
		return ""
	}
	return u.Role.Name
}

// GroupNames returns the resolved group names in relation order.
func (u *User) GroupNames() []string {
	if u == nil || len(u.Groups) == 0 {
		return nil
	}
	names := make([]string, 0, len(u.Groups))
	for _, g := range u.Groups {
		if g != nil {
			names = append(names, g.Name)
		}
	}
	return names
}

// Role is an opaque authorization reference; this package only ever
// resolves it by name.
type Role struct {
	bun.BaseModel `bun:"table:roles,alias:rol"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Name          string     `bun:"name,notnull,unique" json:"name,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
}

// Group is an opaque authorization reference
type Group struct {
	bun.BaseModel `bun:"table:groups,alias:grp"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Name          string     `bun:"name,notnull,unique" json:"name,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
}

// UserGroup is the users<->groups join model
type UserGroup struct {
	bun.BaseModel `bun:"table:user_groups,alias:ug"`
	UserID        uuid.UUID `bun:"user_id,pk,type:uuid" json:"user_id,omitempty"`
	User          *User     `bun:"rel:belongs-to,join:user_id=id" json:"-"`
	GroupID       uuid.UUID `bun:"group_id,pk,type:uuid" json:"group_id,omitempty"`
	Group         *Group    `bun:"rel:belongs-to,join:group_id=id" json:"-"`
}

// Session is the record the default SessionStore writes on login
type Session struct {
	bun.BaseModel `bun:"table:sessions,alias:ses"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	UserID        uuid.UUID  `bun:"user_id,notnull,type:uuid" json:"user_id,omitempty"`
	User          *User      `bun:"rel:belongs-to,join:user_id=id" json:"user,omitempty"`
	IP            string     `bun:"ip" json:"ip,omitempty"`
	UserAgent     string     `bun:"user_agent" json:"user_agent,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
}

// LoginFailure is the record the default LoginFailureSink writes on a
// password mismatch
type LoginFailure struct {
	bun.BaseModel `bun:"table:login_failures,alias:lf"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Username      string     `bun:"username,notnull" json:"username,omitempty"`
	IP            string     `bun:"ip" json:"ip,omitempty"`
	UserAgent     string     `bun:"user_agent" json:"user_agent,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
}
