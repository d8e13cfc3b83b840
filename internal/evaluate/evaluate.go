package evaluate

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/ncruces/go-strftime"

	"filemonitor/internal/logging"
	"filemonitor/internal/monitor"
	"filemonitor/internal/notifications"
)

const fallbackBody = "There was an error in the verification process"

// StatFunc reads file metadata. os.Stat is used when nil.
type StatFunc func(path string) (os.FileInfo, error)

// Pass holds the collaborators of an evaluation pass. The zero value is usable
// and reads the real filesystem, the wall clock and the local time zone, while
// discarding notifications.
type Pass struct {
	Sink     notifications.Sink
	Stat     StatFunc
	Now      func() time.Time
	Location *time.Location
	Logger   *slog.Logger
}

// Result summarises one pass.
type Result struct {
	Checked  int       `json:"checked"`
	Stale    int       `json:"stale"`
	Failed   int       `json:"failed"`
	Notified int       `json:"notified"`
	Finished time.Time `json:"finished"`
}

// Run evaluates every entry in order. It never returns early; the result is
// informational only.
func (p *Pass) Run(ctx context.Context, entries []monitor.Entry) Result {
	logger := p.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	stat := p.Stat
	if stat == nil {
		stat = os.Stat
	}
	now := time.Now
	if p.Now != nil {
		now = p.Now
	}

	var result Result
	for _, entry := range entries {
		result.Checked++
		info, err := stat(entry.Path)
		if err != nil {
			result.Failed++
			logging.WarnWithContext(logger, "cannot read monitored file", "entry_stat_failed",
				logging.String(logging.FieldPath, entry.Path),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check that the file exists and is readable, or remove it from the list"),
				logging.String(logging.FieldImpact, "verification failure notification sent instead of staleness check"),
			)
			if p.dispatch(ctx, logger, Message(entry, nil, nil)) {
				result.Notified++
			}
			continue
		}

		modTime := info.ModTime()
		if !IsStale(modTime, now(), entry.TimeoutSeconds) {
			logger.Debug("file fresh", logging.String(logging.FieldPath, entry.Path))
			continue
		}
		result.Stale++
		logger.Info("file stale",
			logging.String(logging.FieldPath, entry.Path),
			logging.Time("modified", modTime),
			logging.Int64("timeout_seconds", entry.TimeoutSeconds),
			logging.String(logging.FieldEventType, "entry_stale"),
		)
		if p.dispatch(ctx, logger, Message(entry, &modTime, p.Location)) {
			result.Notified++
		}
	}

	result.Finished = now()
	return result
}

func (p *Pass) dispatch(ctx context.Context, logger *slog.Logger, msg notifications.Message) bool {
	if p.Sink == nil {
		return false
	}
	if err := p.Sink.Notify(ctx, msg); err != nil {
		logging.WarnWithContext(logger, "notification delivery failed", "notification_failed",
			logging.String("title", msg.Title),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "run 'filemonitor test-notify' to check the notification setup"),
			logging.String(logging.FieldImpact, "the user was not alerted; the entry is checked again next pass"),
		)
		return false
	}
	return true
}

// IsStale reports whether a file last modified at modTime has exceeded its
// timeout at now. Reaching the timeout exactly counts as stale. Whole seconds
// are compared, so no timeout can overflow a time.Duration.
func IsStale(modTime, now time.Time, timeoutSeconds int64) bool {
	elapsed := int64(now.Sub(modTime) / time.Second)
	return elapsed >= timeoutSeconds
}

// Message builds the notification for an entry. A nil modTime produces the
// verification failure message.
func Message(entry monitor.Entry, modTime *time.Time, loc *time.Location) notifications.Message {
	if modTime == nil {
		return notifications.Message{
			Title: "Failed to verify " + entry.Path,
			Body:  fallbackBody,
			Icon:  entry.Icon,
		}
	}
	if loc == nil {
		loc = time.Local
	}
	return notifications.Message{
		Title: entry.Summary,
		Body:  strftime.Format(entry.MessageTemplate, modTime.In(loc)),
		Icon:  entry.Icon,
	}
}
