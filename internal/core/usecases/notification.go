package usecases

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/samirrijal/kehillah/internal/pkg/logging"
)

// LogNotifier is a NotificationService that only logs. It stands in when no
// push provider is configured.
type LogNotifier struct {
	log zerolog.Logger
}

// NewLogNotifier creates a LogNotifier.
func NewLogNotifier() *LogNotifier {
	return &LogNotifier{log: logging.For("notifier")}
}

// SendPush logs the notification.
func (n *LogNotifier) SendPush(_ context.Context, userID, title, body string) error {
	n.log.Info().Str("user_id", userID).Str("title", title).Str("body", body).Msg("push")
	return nil
}
