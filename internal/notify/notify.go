package notify

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"strings"

	"gopkg.in/gomail.v2"

	"bookreview/internal/config"
)

// Mailer sends account emails.
type Mailer interface {
	SendWelcome(ctx context.Context, toEmail, name string) error
}

// sender delivers one message; gomail.Dialer satisfies it.
type sender interface {
	DialAndSend(m ...*gomail.Message) error
}

// EmailNotifier sends mail over SMTP. With no SMTP host configured it logs and skips.
type EmailNotifier struct {
	cfg    config.SMTPConfig
	dialer sender
	logger *slog.Logger
}

// NewEmailNotifier creates a new mail notifier.
func NewEmailNotifier(cfg config.SMTPConfig, logger *slog.Logger) *EmailNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &EmailNotifier{
		cfg:    cfg,
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Pass),
		logger: logger,
	}
}

func (n *EmailNotifier) configured() bool {
	return n.cfg.Host != "" && n.cfg.From != ""
}

// SendWelcome greets a newly registered user.
func (n *EmailNotifier) SendWelcome(ctx context.Context, toEmail, name string) error {
	if !n.configured() {
		n.logger.Debug("smtp not configured, skip welcome mail")
		return nil
	}
	if strings.TrimSpace(toEmail) == "" {
		return fmt.Errorf("empty recipient")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	m := gomail.NewMessage()
	m.SetHeader("From", n.cfg.From)
	m.SetHeader("To", toEmail)
	m.SetHeader("Subject", "Welcome to Book Review")
	m.SetBody("text/html", welcomeBody(name))

	if err := n.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("send email: %w", err)
	}

	n.logger.Info("welcome email sent", slog.String("to", toEmail))
	return nil
}

func welcomeBody(name string) string {
	return fmt.Sprintf(`<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <h2 style="color: #333;">Welcome, %s!</h2>
  <p>Your account is ready. Start adding books and sharing reviews.</p>
</div>`, html.EscapeString(name))
}
