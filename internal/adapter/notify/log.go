package notify

import (
	"context"

	"go.uber.org/zap"

	"github.com/cactuswealth/wealth-analytics/internal/domain"
)

// LogNotifier writes notifications to the log. It is used when no queue is configured.
type LogNotifier struct {
	Logger *zap.Logger
}

func (l LogNotifier) Notify(_ context.Context, n domain.Notification) error {
	if l.Logger != nil {
		l.Logger.Info("notification",
			zap.String("user_id", n.UserID.String()),
			zap.String("message", n.Message),
		)
	}
	return nil
}
