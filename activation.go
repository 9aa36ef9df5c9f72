package identity

import (
	"context"

	"github.com/google/uuid"
)

// Activation consumes activation references and flips accounts active.
type Activation struct {
	repo   RepositoryManager
	tokens TokenService
	logger Logger
}

func NewActivation(repo RepositoryManager, tokens TokenService) *Activation {
	return &Activation{
		repo:   repo,
		tokens: tokens,
		logger: defLogger{},
	}
}

func (a *Activation) WithLogger(logger Logger) *Activation {
	a.logger = logger
	return a
}

// Activate sets the account active. It is idempotent: reactivating an
// already-active account is not an error. A missing id surfaces as
// ErrUserNotFound, a failed write as an update failure; the two are
// deliberately distinguishable.
func (a *Activation) Activate(ctx context.Context, id uuid.UUID) error {
	ctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()

	return a.repo.Users().Activate(ctx, id)
}

// ActivateFromToken verifies a registration-scoped token and activates
// the account it references. Token failures (expired, bad signature,
// malformed) propagate as-is.
func (a *Activation) ActivateFromToken(ctx context.Context, raw string) error {
	claims, err := a.tokens.Validate(raw)
	if err != nil {
		return err
	}

	id, err := claims.UserUUID()
	if err != nil {
		return ErrTokenMalformed
	}

	return a.Activate(ctx, id)
}
