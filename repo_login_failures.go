package identity

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// LoginFailures records failed login attempts. Call sites treat it as
// best-effort; a sink failure never fails the login flow itself.
type LoginFailures interface {
	repository.Repository[*LoginFailure]
	LoginFailureSink
}

type loginFailures struct {
	repository.Repository[*LoginFailure]
	db *bun.DB
}

var (
	_ LoginFailures    = (*loginFailures)(nil)
	_ LoginFailureSink = (*loginFailures)(nil)
)

func NewLoginFailuresRepository(db *bun.DB) LoginFailures {
	repo := repository.NewRepository[*LoginFailure](db, repository.ModelHandlers[*LoginFailure]{
		NewRecord: func() *LoginFailure { return &LoginFailure{} },
		GetID: func(f *LoginFailure) uuid.UUID {
			if f == nil {
				return uuid.Nil
			}
			return f.ID
		},
		SetID: func(f *LoginFailure, id uuid.UUID) {
			if f != nil {
				f.ID = id
			}
		},
		GetIdentifier: func() string {
			return "id"
		},
	})

	return &loginFailures{
		Repository: repo,
		db:         db,
	}
}

func (a *loginFailures) RecordFailure(ctx context.Context, username string, req RequestContext) error {
	now := time.Now()
	record := &LoginFailure{
		ID:        uuid.New(),
		Username:  username,
		IP:        req.IP,
		UserAgent: req.UserAgent,
		CreatedAt: &now,
	}

	if _, err := a.Repository.Create(ctx, record); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to record login failure")
	}

	return nil
}
