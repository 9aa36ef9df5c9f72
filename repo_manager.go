package identity

import (
	"context"
	"database/sql"
	"errors"
	"log"

	"github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"
)

// RepositoryManager exposes all repositories
type RepositoryManager interface {
	repository.Validator
	repository.TransactionManager
	Users() Users
	Roles() Roles
	Groups() Groups
	Sessions() Sessions
	LoginFailures() LoginFailures
}

type mngr struct {
	db            *bun.DB
	users         Users
	roles         Roles
	groups        Groups
	sessions      Sessions
	loginFailures LoginFailures
}

// NewRepositoryManager wires the default bun-backed repositories. The
// users<->groups join model is registered here so relation queries can
// resolve group references.
func NewRepositoryManager(db *bun.DB) RepositoryManager {
	db.RegisterModel((*UserGroup)(nil))

	return &mngr{
		db:            db,
		users:         NewUsersRepository(db),
		roles:         NewRolesRepository(db),
		groups:        NewGroupsRepository(db),
		sessions:      NewSessionsRepository(db),
		loginFailures: NewLoginFailuresRepository(db),
	}
}

func (m mngr) Validate() error {
	if m.users == nil {
		return errors.New("repository users should be initialized")
	}

	if m.roles == nil {
		return errors.New("repository roles should be initialized")
	}

	if m.groups == nil {
		return errors.New("repository groups should be initialized")
	}

	if m.sessions == nil {
		return errors.New("repository sessions should be initialized")
	}

	if m.loginFailures == nil {
		return errors.New("repository loginFailures should be initialized")
	}

	return nil
}

func (m mngr) MustValidate() {
	if err := m.Validate(); err != nil {
		log.Panic(err)
	}
}

func (m mngr) RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return m.db.RunInTx(ctx, opts, f)
	}
}

func (m mngr) Users() Users {
	return m.users
}

func (m mngr) Roles() Roles {
	return m.roles
}

func (m mngr) Groups() Groups {
	return m.groups
}

func (m mngr) Sessions() Sessions {
	return m.sessions
}

func (m mngr) LoginFailures() LoginFailures {
	return m.loginFailures
}
