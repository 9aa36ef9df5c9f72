package identity

import (
	"context"
	"fmt"
	"time"
)

// dispatchTimeout bounds a single email dispatch attempt
const dispatchTimeout = 15 * time.Second

// EmailManager builds the two message kinds this package produces and
// hands them to the injected Mailer. Dispatch failures are logged, never
// surfaced: a lost activation email still leaves an account that can be
// activated through a regenerated link.
type EmailManager struct {
	mailer  Mailer
	appName string
	from    string
	logger  Logger
}

// NewEmailManager creates an EmailManager bound to a Mailer.
func NewEmailManager(mailer Mailer, cfg Config) *EmailManager {
	return &EmailManager{
		mailer:  mailer,
		appName: cfg.AppName,
		from:    cfg.MailFrom,
		logger:  defLogger{},
	}
}

func (m *EmailManager) WithLogger(logger Logger) *EmailManager {
	m.logger = logger
	return m
}

// Activation sends the account activation message.
func (m *EmailManager) Activation(ctx context.Context, to, url string) error {
	return m.send(ctx, Message{
		From:    m.from,
		To:      to,
		Subject: fmt.Sprintf("%s - Account Activation", m.appName),
		Text:    fmt.Sprintf("Activate your account from the link: %s", url),
		HTML:    fmt.Sprintf(`<p>Activate your account from the link: <a href="%s">%s</a></p>`, url, url),
	})
}

// Recovery sends the password recovery message.
func (m *EmailManager) Recovery(ctx context.Context, to, url string) error {
	return m.send(ctx, Message{
		From:    m.from,
		To:      to,
		Subject: fmt.Sprintf("%s - Password Recovery", m.appName),
		Text:    fmt.Sprintf("Reset your password from the link: %s", url),
		HTML:    fmt.Sprintf(`<p>Reset your password from the link: <a href="%s">%s</a></p>`, url, url),
	})
}

func (m *EmailManager) send(ctx context.Context, msg Message) error {
	if m.mailer == nil {
		m.logger.Warn("no mailer configured, dropping message to %s", msg.To)
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, dispatchTimeout)
	defer cancel()

	if err := m.mailer.Send(ctx, msg); err != nil {
		m.logger.Error("failed to dispatch %q to %s: %v", msg.Subject, msg.To, err)
		return err
	}

	return nil
}

// DispatchAsync fires send on its own goroutine with a detached context
// so the primary operation's outcome never waits on delivery.
func (m *EmailManager) DispatchAsync(send func(ctx context.Context) error) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), dispatchTimeout)
		defer cancel()

		// send logs its own failure; nothing to do with the error here
		_ = send(ctx)
	}()
}
