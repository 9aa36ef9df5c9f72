package identity

import (
	"context"
	"fmt"
)

// Logger is the minimal logging surface the package needs. Collaborator
// failures (mail, sessions, failure tracking) are logged through this and
// never propagated to the caller.
type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// RequestContext carries the transport-level request attributes we attach
// to sessions and login failure records.
type RequestContext struct {
	IP        string
	UserAgent string
}

// RoleProvider resolves opaque role references by name.
type RoleProvider interface {
	FindRoleByName(ctx context.Context, name string) (*Role, error)
}

// SessionStore registers a session for an authenticated user.
type SessionStore interface {
	CreateSession(ctx context.Context, user *User, req RequestContext) (*Session, error)
}

// LoginFailureSink records failed login attempts for abuse tracking.
// Callers treat it as fire-and-forget.
type LoginFailureSink interface {
	RecordFailure(ctx context.Context, username string, req RequestContext) error
}

// Message is an outbound email.
type Message struct {
	From    string
	To      string
	Subject string
	Text    string
	HTML    string
}

// Mailer dispatches messages. Implementations live outside the core flows
// so they can be swapped in tests.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] IDENTITY "+newline(format), args...)
}

func (d defLogger) Warn(format string, args ...any) {
	fmt.Printf("[WRN] IDENTITY "+newline(format), args...)
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Printf("[INF] IDENTITY "+newline(format), args...)
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Printf("[DBG] IDENTITY "+newline(format), args...)
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}
