package identity

import (
	"context"
)

// Auther orchestrates credential verification, session creation, and
// login token issuance.
type Auther struct {
	users    Users
	sessions SessionStore
	failures LoginFailureSink
	tokens   TokenService
	cfg      Config
	logger   Logger
}

// NewAuthenticator returns a new Auther backed by the manager's default
// session and login-failure repositories.
func NewAuthenticator(repo RepositoryManager, tokens TokenService, cfg Config) *Auther {
	return &Auther{
		users:    repo.Users(),
		sessions: repo.Sessions(),
		failures: repo.LoginFailures(),
		tokens:   tokens,
		cfg:      cfg.WithDefaults(),
		logger:   defLogger{},
	}
}

func (s *Auther) WithLogger(logger Logger) *Auther {
	s.logger = logger
	return s
}

// WithSessionStore overrides the session collaborator.
func (s *Auther) WithSessionStore(store SessionStore) *Auther {
	s.sessions = store
	return s
}

// WithLoginFailureSink overrides the failure tracking collaborator.
func (s *Auther) WithLoginFailureSink(sink LoginFailureSink) *Auther {
	s.failures = sink
	return s
}

// Login authenticates by username (not email) among non-deleted
// accounts and returns a signed login token carrying the full profile
// claims plus the new session reference.
//
// The active flag is not consulted here: inactive accounts can still
// authenticate. Flagged as an open question rather than silently fixed.
func (s *Auther) Login(ctx context.Context, username, password string, req RequestContext) (string, error) {
	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		return "", err
	}

	if err := ComparePasswordAndHash(password, user.PasswordHash); err != nil {
		s.recordFailure(username, req)
		return "", ErrMismatchedHashAndPassword
	}

	session, err := s.sessions.CreateSession(ctx, user, req)
	if err != nil {
		// a session we cannot record should not mint a token that
		// references it
		s.logger.Error("failed to create session for %s: %v", username, err)
		return "", err
	}

	token, err := s.tokens.Sign(NewLoginClaims(user, session), s.cfg.LoginTokenTTL)
	if err != nil {
		return "", err
	}

	return token, nil
}

// recordFailure notifies the abuse tracking collaborator on its own
// goroutine. Best-effort: a sink failure is logged and swallowed.
func (s *Auther) recordFailure(username string, req RequestContext) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
		defer cancel()

		if err := s.failures.RecordFailure(ctx, username, req); err != nil {
			s.logger.Error("failed to record login failure for %s: %v", username, err)
		}
	}()
}
