package identity

import (
	"context"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/google/uuid"
	"github.com/nyaruka/phonenumbers"
	"github.com/uptrace/bun"
)

// storeTimeout bounds a single logical store operation
const storeTimeout = 10 * time.Second

// Registrar creates and administers accounts. Self-service registration
// assigns the default role, leaves the account inactive, and dispatches
// an activation link; the administrative variant takes role and active
// state from the caller and sends nothing.
type Registrar struct {
	repo   RepositoryManager
	roles  RoleProvider
	tokens TokenService
	emails *EmailManager
	cfg    Config
	logger Logger
}

// NewRegistrar returns a Registrar using the manager's own role
// repository for default-role lookup.
func NewRegistrar(repo RepositoryManager, tokens TokenService, emails *EmailManager, cfg Config) *Registrar {
	return &Registrar{
		repo:   repo,
		roles:  repo.Roles(),
		tokens: tokens,
		emails: emails,
		cfg:    cfg.WithDefaults(),
		logger: defLogger{},
	}
}

func (g *Registrar) WithLogger(logger Logger) *Registrar {
	g.logger = logger
	return g
}

// WithRoleProvider overrides the role lookup collaborator.
func (g *Registrar) WithRoleProvider(provider RoleProvider) *Registrar {
	g.roles = provider
	return g
}

type RegisterInput struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
}

func (r RegisterInput) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Username, validation.Required, validation.Length(1, 100)),
		validation.Field(&r.Password, validation.Required, validation.Length(8, 100)),
		validation.Field(&r.Name, validation.Length(0, 200)),
		validation.Field(&r.Email, validation.Required, validation.Length(6, 100), is.Email),
	)
}

type RegisterResult struct {
	ID    uuid.UUID `json:"id"`
	Email string    `json:"email"`
}

// Register creates a self-service account. It returns as soon as the
// record is persisted; activation email dispatch is fire-and-forget.
func (g *Registrar) Register(ctx context.Context, input RegisterInput) (*RegisterResult, error) {
	if err := input.Validate(); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryValidation, "invalid registration input")
	}

	role, err := g.roles.FindRoleByName(ctx, DefaultRoleName)
	if err != nil {
		return nil, err
	}

	hash, err := HashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	phone, err := normalizePhone(input.Phone, g.cfg.PhoneRegion)
	if err != nil {
		return nil, err
	}

	user := &User{
		Username:     input.Username,
		Email:        input.Email,
		Name:         input.Name,
		Phone:        phone,
		PasswordHash: hash,
		Active:       false,
		RoleID:       role.ID,
	}

	ctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()

	err = g.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		created, err := g.repo.Users().CreateTx(ctx, tx, user)
		if err != nil {
			return wrapDuplicate(err, map[string]any{
				"username": input.Username,
				"email":    input.Email,
			})
		}
		user = created
		return nil
	})
	if err != nil {
		return nil, err
	}

	g.dispatchActivation(user, role.Name)

	return &RegisterResult{ID: user.ID, Email: user.Email}, nil
}

// dispatchActivation issues the activation token and hands the email off
// without gating the registration result on delivery.
func (g *Registrar) dispatchActivation(user *User, roleName string) {
	token, err := g.tokens.Sign(NewActivationClaims(user, roleName), g.cfg.RegistrationTokenTTL)
	if err != nil {
		g.logger.Error("failed to issue activation token for %s: %v", user.Email, err)
		return
	}

	url := joinURL(g.cfg.WebURL, "/activation-user/", token)
	email := user.Email

	g.emails.DispatchAsync(func(ctx context.Context) error {
		return g.emails.Activation(ctx, email, url)
	})
}

type CreateUserInput struct {
	Username  string      `json:"username"`
	Password  string      `json:"password"`
	Name      string      `json:"name"`
	Email     string      `json:"email"`
	Phone     string      `json:"phone"`
	RoleID    uuid.UUID   `json:"role_id"`
	Groups    []uuid.UUID `json:"groups"`
	Active    bool        `json:"active"`
	UseHashid bool        `json:"-"`
}

func (r CreateUserInput) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Username, validation.Required, validation.Length(1, 100)),
		validation.Field(&r.Password, validation.Required, validation.Length(8, 100)),
		validation.Field(&r.Email, validation.Required, validation.Length(6, 100), is.Email),
		validation.Field(&r.RoleID, validation.Required, validation.By(validateUUIDNotNil)),
	)
}

// CreateUser is the administrative create: role and active state come
// from the caller, no activation token or email is produced.
func (g *Registrar) CreateUser(ctx context.Context, input CreateUserInput) (*User, error) {
	if err := input.Validate(); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryValidation, "invalid user input")
	}

	hash, err := HashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	phone, err := normalizePhone(input.Phone, g.cfg.PhoneRegion)
	if err != nil {
		return nil, err
	}

	user := &User{
		Username:     input.Username,
		Email:        input.Email,
		Name:         input.Name,
		Phone:        phone,
		PasswordHash: hash,
		Active:       input.Active,
		RoleID:       input.RoleID,
	}

	if input.UseHashid {
		if id, err := hashid.NewUUID(input.Email); err == nil {
			user.ID = id
		}
	}

	ctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()

	err = g.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		created, err := g.repo.Users().CreateTx(ctx, tx, user)
		if err != nil {
			return wrapDuplicate(err, map[string]any{
				"username": input.Username,
				"email":    input.Email,
			})
		}
		user = created

		if len(input.Groups) > 0 {
			return g.repo.Users().ReplaceGroupsTx(ctx, tx, user.ID, input.Groups)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return g.repo.Users().FindByID(ctx, user.ID)
}

type UpdateUserInput struct {
	Username string      `json:"username"`
	Name     string      `json:"name"`
	Email    string      `json:"email"`
	Phone    string      `json:"phone"`
	RoleID   uuid.UUID   `json:"role_id"`
	Active   *bool       `json:"active"`
	Groups   []uuid.UUID `json:"groups"`
	// SetGroups distinguishes "replace with empty set" from "untouched"
	SetGroups bool `json:"-"`
}

// UpdateUser applies an administrative profile update and touches
// UpdatedAt. Role and group references are re-resolved on the way out.
func (g *Registrar) UpdateUser(ctx context.Context, id uuid.UUID, input UpdateUserInput) (*User, error) {
	ctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()

	err := g.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		user, err := g.repo.Users().FindByID(ctx, id)
		if err != nil {
			return err
		}

		if input.Username != "" {
			user.Username = input.Username
		}
		if input.Name != "" {
			user.Name = input.Name
		}
		if input.Email != "" {
			user.Email = input.Email
		}
		if input.Phone != "" {
			phone, err := normalizePhone(input.Phone, g.cfg.PhoneRegion)
			if err != nil {
				return err
			}
			user.Phone = phone
		}
		if input.RoleID != uuid.Nil {
			user.RoleID = input.RoleID
		}
		if input.Active != nil {
			user.Active = *input.Active
		}

		now := time.Now()
		user.UpdatedAt = &now
		user.Role = nil
		user.Groups = nil

		if _, err := g.repo.Users().UpdateTx(ctx, tx, user, repository.UpdateByID(id.String())); err != nil {
			return wrapDuplicate(err, map[string]any{
				"username": input.Username,
				"email":    input.Email,
			})
		}

		if input.SetGroups || len(input.Groups) > 0 {
			return g.repo.Users().ReplaceGroupsTx(ctx, tx, id, input.Groups)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return g.repo.Users().FindByID(ctx, id)
}

// DeleteUser soft-deletes the account; the underlying record survives.
func (g *Registrar) DeleteUser(ctx context.Context, id uuid.UUID) error {
	ctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()

	return g.repo.Users().SoftDelete(ctx, id)
}

func validateUUIDNotNil(value any) error {
	id, ok := value.(uuid.UUID)
	if !ok || id == uuid.Nil {
		return goerrors.New("must be a valid reference", goerrors.CategoryValidation)
	}
	return nil
}

// normalizePhone formats phone numbers to E.164. Empty input passes
// through; unparseable input is a validation failure.
func normalizePhone(phone, region string) (string, error) {
	trimmed := strings.TrimSpace(phone)
	if trimmed == "" {
		return "", nil
	}

	parsed, err := phonenumbers.Parse(trimmed, region)
	if err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryValidation, "invalid phone number").
			WithMetadata(map[string]any{"phone": phone})
	}

	if !phonenumbers.IsValidNumber(parsed) {
		return "", goerrors.New("invalid phone number", goerrors.CategoryValidation).
			WithMetadata(map[string]any{"phone": phone})
	}

	return phonenumbers.Format(parsed, phonenumbers.E164), nil
}

func joinURL(base string, parts ...string) string {
	url := strings.TrimRight(base, "/")
	for _, p := range parts {
		url += p
	}
	return url
}
