package notifier

import (
	"context"
	"log/slog"

	"github.com/marwo/buddyfit/pkg/entity"
)

// Slog is the sink for local runs without a broker: events land in the log.
type Slog struct{}

func NewSlog() *Slog {
	return &Slog{}
}

func (s *Slog) Emit(_ context.Context, event entity.NotificationEvent) error {
	slog.Info("notification",
		slog.String("user_id", event.UserID.String()),
		slog.String("kind", string(event.Kind)),
		slog.String("title", event.Title),
	)
	return nil
}
