package notifications

import (
	"context"
	"log/slog"

	"shuttle/internal/logging"
)

// Sink adapts the notification service to the scheduler's audit fan-out so
// drained-sweep rows reach ntfy alongside the ledger. Delivery failures are
// logged and swallowed; a down notification endpoint must not stall a worker.
type Sink struct {
	service Service
	logger  *slog.Logger
}

// NewSink wraps a notification service for use as an audit sink.
func NewSink(service Service, logger *slog.Logger) *Sink {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Sink{service: service, logger: logger}
}

func (s *Sink) AppendLog(ctx context.Context, module, message string) error {
	if s == nil || s.service == nil {
		return nil
	}
	if err := s.service.NotifySweepCompleted(ctx, module, message); err != nil {
		s.logger.Warn("sweep notification failed", logging.Error(err))
	}
	return nil
}
