package worker

import (
	"go.uber.org/zap"

	"github.com/spec-kit/mvura-console/internal/service"
)

// StartNotificationWorker subscribes the notifier to ticket and client events.
// Handlers run inline on the publishing goroutine.
func StartNotificationWorker(notifier *service.NotificationService, logger *zap.Logger) {
	if notifier == nil {
		return
	}
	notifier.RegisterHandlers()
	if logger != nil {
		logger.Info("notification handlers registered")
	}
}
