package worker

import (
	"go.uber.org/zap"

	"github.com/sigetic/helpdesk/internal/service"
)

// StartNotificationWorker registers notification handlers on the event
// dispatcher and logs which delivery channels are live.
func StartNotificationWorker(notificationService *service.NotificationService, logger *zap.Logger) {
	if notificationService == nil {
		return
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	notificationService.RegisterHandlers()

	channels := notificationService.EnabledChannels()
	if len(channels) == 0 {
		logger.Warn("notification worker started without delivery channels")
		return
	}
	logger.Info("notification worker started", zap.Strings("channels", channels))
}
