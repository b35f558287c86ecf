package notify

import (
	"context"

	"go.uber.org/zap"
)

// Kind identifies the notification event type.
type Kind string

const (
	KindBookingConfirmation  Kind = "booking_confirmation"
	KindFeedbackConfirmation Kind = "feedback_confirmation"
)

// Event is one notification handed to a Dispatcher.
type Event struct {
	Kind      Kind
	Recipient string
	Payload   map[string]any
}

// Dispatcher delivers notification events. Delivery is best-effort: callers
// log errors and never let a failed dispatch affect the operation that
// produced the event.
type Dispatcher interface {
	Notify(ctx context.Context, e Event) error
}

// LogDispatcher is the default Dispatcher; it records events to the log
// instead of delivering them anywhere. Real delivery channels (email, chat)
// live behind the same interface outside this service.
type LogDispatcher struct {
	logger *zap.Logger
}

var _ Dispatcher = (*LogDispatcher)(nil)

func NewLogDispatcher(logger *zap.Logger) *LogDispatcher {
	return &LogDispatcher{logger: logger}
}

func (d *LogDispatcher) Notify(_ context.Context, e Event) error {
	d.logger.Info("notification dispatched",
		zap.String("kind", string(e.Kind)),
		zap.String("recipient", e.Recipient),
		zap.Any("payload", e.Payload),
	)
	return nil
}
