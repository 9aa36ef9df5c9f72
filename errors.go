package identity

import (
	"strings"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
)

const (
	// TextCodeEmptyPassword flags an empty plaintext password
	TextCodeEmptyPassword = "EMPTY_PASSWORD"
	// TextCodeInvalidCredentials flags a password mismatch
	TextCodeInvalidCredentials = "INVALID_CREDENTIALS"
	// TextCodeUserNotFound flags a username lookup miss
	TextCodeUserNotFound = "USER_NOT_FOUND"
	// TextCodeEmailNotFound flags an email lookup miss
	TextCodeEmailNotFound = "EMAIL_NOT_FOUND"
	// TextCodeRoleNotFound flags a missing role, fatal to registration
	TextCodeRoleNotFound = "ROLE_NOT_FOUND"
	// TextCodeDuplicateAccount flags a username/email uniqueness violation
	TextCodeDuplicateAccount = "DUPLICATE_ACCOUNT"
	// TextCodeUpdateFailed flags a store write failure
	TextCodeUpdateFailed = "UPDATE_FAILED"
	// TextCodeTokenExpired flags a token past its expiry
	TextCodeTokenExpired = "TOKEN_EXPIRED"
	// TextCodeTokenSignature flags a tampered or mis-keyed token
	TextCodeTokenSignature = "TOKEN_SIGNATURE"
	// TextCodeTokenMalformed flags an undecodable token
	TextCodeTokenMalformed = "TOKEN_MALFORMED"
)

// ErrNoEmptyString rejects empty plaintext passwords before hashing
var ErrNoEmptyString = goerrors.New("password must not be empty", goerrors.CategoryValidation).
	WithTextCode(TextCodeEmptyPassword)

// ErrMismatchedHashAndPassword is the single failure we surface for a
// password mismatch. Non-match is an expected result, not an internal error.
var ErrMismatchedHashAndPassword = goerrors.New("invalid credentials", goerrors.CategoryAuth).
	WithTextCode(TextCodeInvalidCredentials)

// ErrUserNotFound is returned when a username or id does not resolve
// among non-deleted accounts
var ErrUserNotFound = goerrors.New("user not found", goerrors.CategoryNotFound).
	WithTextCode(TextCodeUserNotFound)

// ErrEmailNotFound is returned by the recovery flow for unknown emails
var ErrEmailNotFound = goerrors.New("no account with that email", goerrors.CategoryNotFound).
	WithTextCode(TextCodeEmailNotFound)

// ErrRoleNotFound means the default role is missing; registration cannot
// proceed and we do not retry
var ErrRoleNotFound = goerrors.New("role not found", goerrors.CategoryNotFound).
	WithTextCode(TextCodeRoleNotFound)

// ErrUpdateFailed is a store write failure on an existing record,
// distinguishable from a lookup miss
var ErrUpdateFailed = goerrors.New("failed to update record", goerrors.CategoryInternal).
	WithTextCode(TextCodeUpdateFailed)

// ErrTokenExpired is returned when verification fails on expiry alone
var ErrTokenExpired = goerrors.New("token is expired", goerrors.CategoryAuth).
	WithTextCode(TextCodeTokenExpired)

// ErrTokenSignature is returned for tampered tokens or a mismatched key
var ErrTokenSignature = goerrors.New("token signature is invalid", goerrors.CategoryAuth).
	WithTextCode(TextCodeTokenSignature)

// ErrTokenMalformed is returned for tokens we cannot decode at all
var ErrTokenMalformed = goerrors.New("token is malformed", goerrors.CategoryBadInput).
	WithTextCode(TextCodeTokenMalformed)

// IsDuplicate reports whether err is a store-enforced uniqueness
// violation. The unique constraint is the sole deduplication mechanism;
// we never check-then-write.
//
// The repository layer types postgres and cgo-sqlite duplicates as
// CategoryDatabaseDuplicate. Drivers it has no typed mapping for (the
// transpiled sqlite behind sqliteshim, mysql) pass the raw driver error
// through the wrap chain, so we also walk the chain for the known
// messages.
func IsDuplicate(err error) bool {
	if err == nil {
		return false
	}

	if goerrors.HasCategory(err, repository.CategoryDatabaseDuplicate) {
		return true
	}

	for e := err; e != nil; e = goerrors.Unwrap(e) {
		msg := e.Error()
		if strings.Contains(msg, "UNIQUE constraint failed") ||
			strings.Contains(msg, "duplicate key value") ||
			strings.Contains(msg, "Duplicate entry") {
			return true
		}
	}

	return false
}

// wrapDuplicate converts a uniqueness violation into a field-level
// validation failure; anything else becomes an internal error.
func wrapDuplicate(err error, fields map[string]any) error {
	if IsDuplicate(err) {
		return goerrors.Wrap(err, goerrors.CategoryConflict, "account already exists").
			WithTextCode(TextCodeDuplicateAccount).
			WithMetadata(fields)
	}
	return goerrors.Wrap(err, goerrors.CategoryInternal, "could not persist account")
}
