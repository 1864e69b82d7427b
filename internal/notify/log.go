package notify

import (
	"context"

	"github.com/josh-kwaku/heritage-ledger/internal/logging"
)

// LogDispatcher records notifications in the request log. It is used when no
// queue is configured.
type LogDispatcher struct {
	dispatch
}

var _ Dispatcher = (*LogDispatcher)(nil)

func NewLogDispatcher() *LogDispatcher {
	d := &LogDispatcher{}
	d.dispatch = dispatch{p: d}
	return d
}

func (d *LogDispatcher) publish(ctx context.Context, msg Message) error {
	log := logging.FromContext(ctx)
	switch {
	case msg.Alert != nil:
		log.Info("notification",
			"kind", msg.Kind,
			"email", msg.Alert.Email,
			"amount", msg.Alert.Amount.StringFixed(2),
			"transaction_id", msg.Alert.TransactionID,
		)
	case msg.AuthCode != nil:
		// never log the code itself
		log.Info("notification", "kind", msg.Kind, "email", msg.AuthCode.Email, "expires_at", msg.AuthCode.ExpiresAt)
	}
	return nil
}
