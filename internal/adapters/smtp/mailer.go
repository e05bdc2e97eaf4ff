// Package smtp implements the notification mailer on an SMTP relay.
package smtp

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/smtp"
	"strconv"
	"time"

	"github.com/jordan-wright/email"

	"github.com/quantstream/marketd/internal/domain/notify"
	"github.com/quantstream/marketd/internal/platform/config"
	"github.com/quantstream/marketd/internal/ports"
)

// Compile-time interface check.
var _ ports.Mailer = (*Mailer)(nil)

// Mailer delivers strategy notifications over SMTP. When mail is disabled in
// the configuration every Send is a logged no-op, which keeps the feed
// pipeline identical across environments.
type Mailer struct {
	cfg    config.MailConfig
	logger *slog.Logger

	// send is swapped in tests to avoid a live SMTP connection.
	send func(e *email.Email, addr string, auth smtp.Auth) error
}

// New creates a Mailer for the given relay configuration.
func New(cfg config.MailConfig, logger *slog.Logger) *Mailer {
	return &Mailer{
		cfg:    cfg,
		logger: logger,
		send: func(e *email.Email, addr string, auth smtp.Auth) error {
			return e.Send(addr, auth)
		},
	}
}

// Send delivers the notification to the configured mailing list. The
// context is checked before dialing; SMTP itself has no cancellation.
func (m *Mailer) Send(ctx context.Context, n notify.Notification) error {
	if !m.cfg.Enabled {
		m.logger.DebugContext(ctx, "mail disabled, dropping notification",
			slog.String("notification", n.String()),
		)
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	e := email.NewEmail()
	e.From = m.cfg.From
	e.To = m.cfg.To
	e.Subject = fmt.Sprintf("%s %s signal: %s", n.Symbol, n.Strategy, n.Label)
	e.Text = []byte(fmt.Sprintf("%s\n\nTriggered at %s\n",
		n.String(), n.Time.Format(time.RFC3339)))

	var auth smtp.Auth
	if m.cfg.Username != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}

	addr := net.JoinHostPort(m.cfg.Host, strconv.Itoa(m.cfg.Port))
	if err := m.send(e, addr, auth); err != nil {
		return fmt.Errorf("sending notification mail via %s: %w", addr, err)
	}

	m.logger.InfoContext(ctx, "notification mail sent",
		slog.String("symbol", n.Symbol),
		slog.String("strategy", n.Strategy),
		slog.String("label", n.Label),
		slog.Int("recipients", len(m.cfg.To)),
	)
	return nil
}
