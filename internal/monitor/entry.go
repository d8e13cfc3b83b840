package monitor

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"filemonitor/internal/duration"
)

// Entry is one monitored file and its notification template.
type Entry struct {
	Path            string
	TimeoutSeconds  int64
	Summary         string
	MessageTemplate string
	Icon            string
}

// ErrInvalidEntry reports an entry that cannot be registered.
var ErrInvalidEntry = errors.New("invalid monitored entry")

// DefaultMessageTemplate builds the body used when no message is supplied.
// The displayed path is escaped so it is never read as a time placeholder.
func DefaultMessageTemplate(displayPath string) string {
	return "File " + strings.ReplaceAll(displayPath, "%", "%%") + " untouched since %x %X"
}

// Validate checks the entry invariants enforced at the registration boundary.
func (e Entry) Validate() error {
	if strings.TrimSpace(e.Path) == "" {
		return fmt.Errorf("%w: path is required", ErrInvalidEntry)
	}
	if !filepath.IsAbs(e.Path) {
		return fmt.Errorf("%w: path %q is not absolute", ErrInvalidEntry, e.Path)
	}
	if e.TimeoutSeconds <= 0 {
		return fmt.Errorf("%w: timeout must be greater than zero", ErrInvalidEntry)
	}
	if e.TimeoutSeconds > duration.MaxSeconds {
		return fmt.Errorf("%w: timeout %ds exceeds the maximum of %ds", ErrInvalidEntry, e.TimeoutSeconds, duration.MaxSeconds)
	}
	return nil
}

// WithDefaults fills in the optional fields.
func (e Entry) WithDefaults() Entry {
	if e.MessageTemplate == "" {
		e.MessageTemplate = DefaultMessageTemplate(e.Path)
	}
	return e
}
