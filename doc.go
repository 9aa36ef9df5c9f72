// Package identity implements the user identity and authentication
// lifecycle: credential verification, signed-token issuance, account
// registration and activation, password recovery and change, paginated
// directory search, and avatar asset assignment.
//
// Flows:
//   - Registrar creates accounts. Self-registration resolves the
//     default role, hashes the password, persists an inactive account,
//     and dispatches an activation link; returning the result never
//     waits on email delivery. CreateUser is the administrative
//     variant.
//   - Auther verifies credentials against non-deleted accounts,
//     registers a session, and mints a login token carrying the full
//     profile claims. Password mismatches notify the login-failure
//     collaborator best-effort.
//   - Activation flips accounts active, idempotently, from an id or a
//     registration-scoped token.
//   - Recovery issues reset links for known emails and applies password
//     changes; a confirmation mismatch is a soft status, not an error.
//   - AvatarManager streams uploads into a storage.Store, waiting for
//     the write to complete before recording the cache-busted URL.
//
// Collaborators (role lookup, sessions, login failures, email dispatch,
// blob storage) are injected interfaces with bun, SendGrid, and
// S3-backed defaults. Tokens are stateless HS256 claim sets; validity
// is signature and expiry alone, there is no revocation list.
package identity
