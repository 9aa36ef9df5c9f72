package identity

import (
	"context"

	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

// Recovery issues password reset links and applies password changes.
type Recovery struct {
	users  Users
	tokens TokenService
	emails *EmailManager
	cfg    Config
	logger Logger
}

func NewRecovery(repo RepositoryManager, tokens TokenService, emails *EmailManager, cfg Config) *Recovery {
	return &Recovery{
		users:  repo.Users(),
		tokens: tokens,
		emails: emails,
		cfg:    cfg.WithDefaults(),
		logger: defLogger{},
	}
}

func (r *Recovery) WithLogger(logger Logger) *Recovery {
	r.logger = logger
	return r
}

// RequestRecovery issues a recovery-scoped token for a known email and
// dispatches the reset link. Success is reported as soon as the token is
// issued; delivery is fire-and-forget.
func (r *Recovery) RequestRecovery(ctx context.Context, email string) error {
	user, err := r.users.FindByEmail(ctx, email)
	if err != nil {
		if goerrors.Is(err, ErrUserNotFound) {
			return ErrEmailNotFound
		}
		return err
	}

	token, err := r.tokens.Sign(NewRecoveryClaims(user), r.cfg.RecoveryTokenTTL)
	if err != nil {
		return err
	}

	url := joinURL(r.cfg.WebURL, "/reset-password/", token)
	to := user.Email

	r.emails.DispatchAsync(func(ctx context.Context) error {
		return r.emails.Recovery(ctx, to, url)
	})

	return nil
}

// PasswordChangeStatus is the soft outcome of a change attempt. A
// confirmation mismatch is a status, not an error.
type PasswordChangeStatus struct {
	Changed bool   `json:"changed"`
	Message string `json:"message"`
}

// ChangePassword hashes and persists a new password when the
// confirmation matches.
//
// This operation does not require the current password; any caller with
// an account id can change it. That matches the behavior this flow
// replaces and is flagged as an open question, not silently fixed.
func (r *Recovery) ChangePassword(ctx context.Context, id uuid.UUID, password, passwordVerify string) (*PasswordChangeStatus, error) {
	if password != passwordVerify {
		return &PasswordChangeStatus{
			Changed: false,
			Message: "passwords do not match",
		}, nil
	}

	hash, err := HashPassword(password)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()

	if err := r.users.UpdatePassword(ctx, id, hash); err != nil {
		return nil, err
	}

	return &PasswordChangeStatus{
		Changed: true,
		Message: "password changed",
	}, nil
}

// ChangePasswordFromToken verifies a recovery-scoped token and changes
// the password for the account it references.
func (r *Recovery) ChangePasswordFromToken(ctx context.Context, raw, password, passwordVerify string) (*PasswordChangeStatus, error) {
	claims, err := r.tokens.Validate(raw)
	if err != nil {
		return nil, err
	}

	id, err := claims.UserUUID()
	if err != nil {
		return nil, ErrTokenMalformed
	}

	return r.ChangePassword(ctx, id, password, passwordVerify)
}
