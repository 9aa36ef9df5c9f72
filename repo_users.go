package identity

import (
	"context"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

var ActivateUserSQL = `UPDATE "users" AS "usr"
SET
	"active" = TRUE,
	"updated_at" = ?
WHERE
	"usr"."deleted_at" IS NULL
AND (
	"usr"."id" = ?
) RETURNING *;`

var UpdateUserPasswordSQL = `UPDATE "users" AS "usr"
SET
	"password_hash" = ?,
	"updated_at" = ?
WHERE
	"usr"."deleted_at" IS NULL
AND (
	"usr"."id" = ?
) RETURNING *;`

var UpdateUserAvatarSQL = `UPDATE "users" AS "usr"
SET
	"avatar" = ?,
	"avatar_url" = ?,
	"updated_at" = ?
WHERE
	"usr"."deleted_at" IS NULL
AND (
	"usr"."id" = ?
) RETURNING *;`

// DefaultPageSize caps directory pages when the caller passes no limit
const DefaultPageSize = 20

// DirectoryQuery is the filtered, sorted, paginated account listing
// request. Page numbers are 1-indexed.
type DirectoryQuery struct {
	Limit     int
	Page      int
	Search    string
	OrderBy   string
	OrderDesc bool
}

// DirectoryPage is one page of the filtered set. TotalCount is the full
// match count, not the page size.
type DirectoryPage struct {
	Users      []*User
	TotalCount int
	Page       int
}

// directorySortColumns whitelists sortable fields; anything else is a
// validation failure rather than raw SQL.
var directorySortColumns = map[string]string{
	"name":       "name",
	"username":   "username",
	"email":      "email",
	"phone":      "phone",
	"active":     "active",
	"created_at": "created_at",
	"updated_at": "updated_at",
}

// Users is the account repository. The Find* lookups and ListDirectory
// are the domain queries (non-deleted only, role and groups resolved);
// the embedded generic repository keeps its own id-as-string surface.
type Users interface {
	repository.Repository[*User]

	FindByID(ctx context.Context, id uuid.UUID) (*User, error)
	FindByUsername(ctx context.Context, username string) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)

	Create(ctx context.Context, record *User, criteria ...repository.InsertCriteria) (*User, error)
	CreateTx(ctx context.Context, tx bun.IDB, record *User, criteria ...repository.InsertCriteria) (*User, error)

	Activate(ctx context.Context, id uuid.UUID) error
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error
	UpdateAvatar(ctx context.Context, id uuid.UUID, filename, url string) error
	ReplaceGroupsTx(ctx context.Context, tx bun.IDB, id uuid.UUID, groupIDs []uuid.UUID) error
	SoftDelete(ctx context.Context, id uuid.UUID) error

	ListDirectory(ctx context.Context, q DirectoryQuery) (*DirectoryPage, error)
}

type users struct {
	repository.Repository[*User]
	db *bun.DB
}

var (
	_ Users                        = (*users)(nil)
	_ repository.Repository[*User] = (*users)(nil)
)

func NewUsersRepository(db *bun.DB) Users {
	repo := repository.NewRepository[*User](db, repository.ModelHandlers[*User]{
		NewRecord: func() *User { return &User{} },
		GetID: func(u *User) uuid.UUID {
			if u == nil {
				return uuid.Nil
			}
			return u.ID
		},
		SetID: func(u *User, id uuid.UUID) {
			if u != nil {
				u.ID = id
			}
		},
		GetIdentifier: func() string {
			return "username"
		},
	})

	return &users{
		Repository: repo,
		db:         db,
	}
}

func (a *users) Create(ctx context.Context, record *User, criteria ...repository.InsertCriteria) (*User, error) {
	return a.CreateTx(ctx, a.db, record, criteria...)
}

func (a *users) CreateTx(ctx context.Context, tx bun.IDB, record *User, criteria ...repository.InsertCriteria) (*User, error) {
	prepareUserDefaults(record)
	return a.Repository.CreateTx(ctx, tx, record, criteria...)
}

func (a *users) FindByID(ctx context.Context, id uuid.UUID) (*User, error) {
	return a.getOne(ctx, "?TableAlias.id = ?", id)
}

func (a *users) FindByUsername(ctx context.Context, username string) (*User, error) {
	return a.getOne(ctx, "?TableAlias.username = ?", username)
}

func (a *users) FindByEmail(ctx context.Context, email string) (*User, error) {
	return a.getOne(ctx, "?TableAlias.email = ?", email)
}

// getOne resolves the role and group references in the same lookup, the
// two-step "fetch, then resolve references" the flows rely on.
func (a *users) getOne(ctx context.Context, where string, arg any) (*User, error) {
	record := &User{}
	err := a.db.NewSelect().
		Model(record).
		Relation("Role").
		Relation("Groups").
		Where(where, arg).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, ErrUserNotFound
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve user")
	}

	return record, nil
}

// Activate flips the account active. Reactivating an already-active
// account is not an error; an id that does not resolve is.
func (a *users) Activate(ctx context.Context, id uuid.UUID) error {
	res, err := a.Repository.Raw(ctx, ActivateUserSQL, time.Now(), id.String())
	if err != nil {
		return goerrors.Wrap(err, ErrUpdateFailed.Category, "failed to activate user").
			WithTextCode(ErrUpdateFailed.TextCode)
	}

	if len(res) == 0 {
		return ErrUserNotFound
	}

	return nil
}

func (a *users) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	res, err := a.Repository.Raw(ctx, UpdateUserPasswordSQL, passwordHash, time.Now(), id.String())
	if err != nil {
		return goerrors.Wrap(err, ErrUpdateFailed.Category, "failed to update password").
			WithTextCode(ErrUpdateFailed.TextCode)
	}

	if len(res) == 0 {
		return ErrUserNotFound
	}

	return nil
}

func (a *users) UpdateAvatar(ctx context.Context, id uuid.UUID, filename, url string) error {
	res, err := a.Repository.Raw(ctx, UpdateUserAvatarSQL, filename, url, time.Now(), id.String())
	if err != nil {
		return goerrors.Wrap(err, ErrUpdateFailed.Category, "failed to update avatar").
			WithTextCode(ErrUpdateFailed.TextCode)
	}

	if len(res) == 0 {
		return ErrUserNotFound
	}

	return nil
}

// ReplaceGroupsTx swaps the account's group references inside the
// caller's transaction.
func (a *users) ReplaceGroupsTx(ctx context.Context, tx bun.IDB, id uuid.UUID, groupIDs []uuid.UUID) error {
	if _, err := tx.NewDelete().
		Model((*UserGroup)(nil)).
		Where("user_id = ?", id).
		Exec(ctx); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to clear group references")
	}

	if len(groupIDs) == 0 {
		return nil
	}

	links := make([]*UserGroup, 0, len(groupIDs))
	for _, gid := range groupIDs {
		links = append(links, &UserGroup{UserID: id, GroupID: gid})
	}

	if _, err := tx.NewInsert().Model(&links).Exec(ctx); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to assign group references")
	}

	return nil
}

// SoftDelete marks the account deleted. The record stays in the store
// but drops out of every default query.
func (a *users) SoftDelete(ctx context.Context, id uuid.UUID) error {
	res, err := a.db.NewDelete().
		Model((*User)(nil)).
		Where("?TableAlias.id = ?", id).
		Exec(ctx)
	if err != nil {
		return goerrors.Wrap(err, ErrUpdateFailed.Category, "failed to delete user").
			WithTextCode(ErrUpdateFailed.TextCode)
	}

	if rows, err := res.RowsAffected(); err == nil && rows == 0 {
		return ErrUserNotFound
	}

	return nil
}

// ListDirectory implements the directory query: deleted accounts are
// excluded by construction, search is a case-insensitive OR of substring
// matches over name, username, email, and phone.
func (a *users) ListDirectory(ctx context.Context, q DirectoryQuery) (*DirectoryPage, error) {
	if q.Limit <= 0 {
		q.Limit = DefaultPageSize
	}
	if q.Page < 1 {
		q.Page = 1
	}

	records := []*User{}
	query := a.db.NewSelect().
		Model(&records).
		Relation("Role").
		Relation("Groups")

	if search := strings.TrimSpace(q.Search); search != "" {
		like := "%" + strings.ToLower(search) + "%"
		query = query.WhereGroup(" AND ", func(sq *bun.SelectQuery) *bun.SelectQuery {
			return sq.
				Where("LOWER(?TableAlias.name) LIKE ?", like).
				WhereOr("LOWER(?TableAlias.username) LIKE ?", like).
				WhereOr("LOWER(?TableAlias.email) LIKE ?", like).
				WhereOr("LOWER(?TableAlias.phone) LIKE ?", like)
		})
	}

	if q.OrderBy != "" {
		column, ok := directorySortColumns[q.OrderBy]
		if !ok {
			return nil, goerrors.New("unknown sort field", goerrors.CategoryValidation).
				WithMetadata(map[string]any{"order_by": q.OrderBy})
		}
		direction := "ASC"
		if q.OrderDesc {
			direction = "DESC"
		}
		query = query.Order("usr." + column + " " + direction)
	}

	total, err := query.
		Limit(q.Limit).
		Offset((q.Page - 1) * q.Limit).
		ScanAndCount(ctx)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to list users")
	}

	return &DirectoryPage{
		Users:      records,
		TotalCount: total,
		Page:       q.Page,
	}, nil
}

func prepareUserDefaults(record *User) {
	if record == nil {
		return
	}

	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}

	now := time.Now()
	if record.CreatedAt == nil {
		record.CreatedAt = &now
	}
	if record.UpdatedAt == nil {
		record.UpdatedAt = &now
	}
}
