package identity_test

import (
	"context"
	"database/sql"
	"io"
	"sync"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"

	identity "github.com/goliatone/go-identity"
)

// fakeUsers overrides the methods the flows exercise; the embedded
// interface covers the rest of the repository surface.
type fakeUsers struct {
	identity.Users

	mu        sync.Mutex
	byName    map[string]*identity.User
	byEmail   map[string]*identity.User
	byID      map[uuid.UUID]*identity.User
	created   []*identity.User
	deleted   []uuid.UUID
	activated []uuid.UUID
	passwords map[uuid.UUID]string
	avatars   map[uuid.UUID][2]string

	createErr   error
	activateErr error
	updateErr   error
	storeErr    error
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{
		byName:    map[string]*identity.User{},
		byEmail:   map[string]*identity.User{},
		byID:      map[uuid.UUID]*identity.User{},
		passwords: map[uuid.UUID]string{},
		avatars:   map[uuid.UUID][2]string{},
	}
}

func (f *fakeUsers) add(u *identity.User) *identity.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	f.byName[u.Username] = u
	f.byEmail[u.Email] = u
	f.byID[u.ID] = u
	return u
}

func (f *fakeUsers) FindByUsername(ctx context.Context, username string) (*identity.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.byName[username]; ok {
		return u, nil
	}
	return nil, identity.ErrUserNotFound
}

func (f *fakeUsers) FindByEmail(ctx context.Context, email string) (*identity.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.byEmail[email]; ok {
		return u, nil
	}
	return nil, identity.ErrUserNotFound
}

func (f *fakeUsers) FindByID(ctx context.Context, id uuid.UUID) (*identity.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.byID[id]; ok {
		return u, nil
	}
	return nil, identity.ErrUserNotFound
}

func (f *fakeUsers) CreateTx(ctx context.Context, tx bun.IDB, record *identity.User, criteria ...repository.InsertCriteria) (*identity.User, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.mu.Lock()
	f.created = append(f.created, record)
	f.mu.Unlock()
	return f.add(record), nil
}

func (f *fakeUsers) Activate(ctx context.Context, id uuid.UUID) error {
	if f.activateErr != nil {
		return f.activateErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byID[id]
	if !ok {
		return identity.ErrUserNotFound
	}
	u.Active = true
	f.activated = append(f.activated, id)
	return nil
}

func (f *fakeUsers) UpdatePassword(ctx context.Context, id uuid.UUID, hash string) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byID[id]; !ok {
		return identity.ErrUserNotFound
	}
	f.passwords[id] = hash
	return nil
}

func (f *fakeUsers) UpdateAvatar(ctx context.Context, id uuid.UUID, filename, url string) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.avatars[id] = [2]string{filename, url}
	return nil
}

func (f *fakeUsers) ReplaceGroupsTx(ctx context.Context, tx bun.IDB, id uuid.UUID, groupIDs []uuid.UUID) error {
	return nil
}

func (f *fakeUsers) SoftDelete(ctx context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byID[id]
	if !ok {
		return identity.ErrUserNotFound
	}
	delete(f.byName, u.Username)
	delete(f.byEmail, u.Email)
	delete(f.byID, id)
	f.deleted = append(f.deleted, id)
	return nil
}

// fakeRoles answers FindRoleByName from a fixed set.
type fakeRoles struct {
	identity.Roles
	roles map[string]*identity.Role
}

func newFakeRoles(names ...string) *fakeRoles {
	f := &fakeRoles{roles: map[string]*identity.Role{}}
	for _, n := range names {
		f.roles[n] = &identity.Role{ID: uuid.New(), Name: n}
	}
	return f
}

func (f *fakeRoles) FindRoleByName(ctx context.Context, name string) (*identity.Role, error) {
	if r, ok := f.roles[name]; ok {
		return r, nil
	}
	return nil, identity.ErrRoleNotFound
}

// fakeSessions records created sessions.
type fakeSessions struct {
	identity.Sessions
	mu      sync.Mutex
	created []*identity.Session
	err     error
}

func (f *fakeSessions) CreateSession(ctx context.Context, user *identity.User, req identity.RequestContext) (*identity.Session, error) {
	if f.err != nil {
		return nil, f.err
	}
	s := &identity.Session{
		ID:        uuid.New(),
		UserID:    user.ID,
		IP:        req.IP,
		UserAgent: req.UserAgent,
	}
	f.mu.Lock()
	f.created = append(f.created, s)
	f.mu.Unlock()
	return s, nil
}

// fakeFailures signals each recorded failure on a channel so tests can
// wait for the fire-and-forget notification.
type fakeFailures struct {
	identity.LoginFailures
	recorded chan string
}

func newFakeFailures() *fakeFailures {
	return &fakeFailures{recorded: make(chan string, 8)}
}

func (f *fakeFailures) RecordFailure(ctx context.Context, username string, req identity.RequestContext) error {
	f.recorded <- username
	return nil
}

// memoryMailer captures dispatched messages.
type memoryMailer struct {
	sent chan identity.Message
	err  error
}

func newMemoryMailer() *memoryMailer {
	return &memoryMailer{sent: make(chan identity.Message, 8)}
}

func (m *memoryMailer) Send(ctx context.Context, msg identity.Message) error {
	if m.err != nil {
		return m.err
	}
	m.sent <- msg
	return nil
}

// fakeManager satisfies RepositoryManager for flow tests; RunInTx runs
// the callback with a zero transaction since the fakes ignore it.
type fakeManager struct {
	users    *fakeUsers
	roles    *fakeRoles
	sessions *fakeSessions
	failures *fakeFailures
}

func newFakeManager() *fakeManager {
	return &fakeManager{
		users:    newFakeUsers(),
		roles:    newFakeRoles(identity.DefaultRoleName),
		sessions: &fakeSessions{},
		failures: newFakeFailures(),
	}
}

func (m *fakeManager) Validate() error { return nil }
func (m *fakeManager) MustValidate()   {}

func (m *fakeManager) RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error {
	return f(ctx, bun.Tx{})
}

func (m *fakeManager) Users() identity.Users                 { return m.users }
func (m *fakeManager) Roles() identity.Roles                 { return m.roles }
func (m *fakeManager) Groups() identity.Groups               { return nil }
func (m *fakeManager) Sessions() identity.Sessions           { return m.sessions }
func (m *fakeManager) LoginFailures() identity.LoginFailures { return m.failures }

var _ identity.RepositoryManager = (*fakeManager)(nil)

// memoryStore is an in-memory storage.Store. It records whether the
// Put context carried a deadline so tests can assert writes are bounded.
type memoryStore struct {
	mu          sync.Mutex
	blobs       map[string][]byte
	err         error
	sawDeadline bool
}

func newMemoryStore() *memoryStore {
	return &memoryStore{blobs: map[string][]byte{}}
}

func (s *memoryStore) Put(ctx context.Context, name string, r io.Reader) error {
	if _, ok := ctx.Deadline(); ok {
		s.mu.Lock()
		s.sawDeadline = true
		s.mu.Unlock()
	}
	if s.err != nil {
		return s.err
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.blobs[name] = data
	s.mu.Unlock()
	return nil
}
