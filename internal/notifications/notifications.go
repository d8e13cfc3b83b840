package notifications

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"filemonitor/internal/config"
	"filemonitor/internal/logging"
)

// Message is one notification request.
type Message struct {
	Title string
	Body  string
	// Icon is an icon name or path; empty means no icon.
	Icon string
}

// Sink delivers notifications. Implementations must be safe to call from the
// daemon event loop; errors are reported but never retried.
type Sink interface {
	Notify(ctx context.Context, msg Message) error
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(ctx context.Context, msg Message) error

// Notify calls f.
func (f SinkFunc) Notify(ctx context.Context, msg Message) error {
	return f(ctx, msg)
}

// TestMessage is dispatched by the test-notify command.
func TestMessage(appName string) Message {
	appName = strings.TrimSpace(appName)
	if appName == "" {
		appName = "filemonitor"
	}
	return Message{
		Title: appName + " - Test",
		Body:  "Notification system test",
		Icon:  "dialog-information",
	}
}

// NewService builds the sink described by the notification configuration.
// When no transport is enabled a no-op sink is returned.
func NewService(cfg *config.Config, logger *slog.Logger) Sink {
	if cfg == nil {
		return Noop()
	}
	logger = logging.NewComponentLogger(logger, "notifications")

	var sinks []Sink
	if cfg.Notifications.Desktop {
		sinks = append(sinks, NewDesktop(cfg.Notifications.AppName, cfg.Notifications.ExpireTimeoutMS, cfg.Notifications.RequestTimeout))
	}
	if topic := strings.TrimSpace(cfg.Notifications.NtfyTopic); topic != "" {
		sinks = append(sinks, NewNtfy(topic, cfg.Notifications.AppName, cfg.Notifications.RequestTimeout))
	}

	switch len(sinks) {
	case 0:
		logger.Info("no notification transport enabled; notifications are discarded",
			logging.String(logging.FieldEventType, "notifications_disabled"))
		return Noop()
	case 1:
		return sinks[0]
	default:
		return Fanout(sinks...)
	}
}

type fanout struct {
	sinks []Sink
}

// Fanout returns a sink delivering every message to all sinks. A failing sink
// does not prevent delivery to the others; the failures are joined.
func Fanout(sinks ...Sink) Sink {
	filtered := make([]Sink, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			filtered = append(filtered, s)
		}
	}
	return &fanout{sinks: filtered}
}

func (f *fanout) Notify(ctx context.Context, msg Message) error {
	var errs []error
	for i, s := range f.sinks {
		if err := s.Notify(ctx, msg); err != nil {
			errs = append(errs, fmt.Errorf("sink %d: %w", i, err))
		}
	}
	return errors.Join(errs...)
}

type noopSink struct{}

func (noopSink) Notify(context.Context, Message) error { return nil }

// Noop returns a sink that discards every message.
func Noop() Sink { return noopSink{} }
