package ports

import (
	"context"

	"github.com/quantstream/marketd/internal/domain/notify"
)

// Mailer is the delivery port for strategy notifications.
// Implemented by the SMTP adapter. Cooldown throttling happens before this
// port is called; every Send is meant to go out.
type Mailer interface {
	Send(ctx context.Context, n notify.Notification) error
}
