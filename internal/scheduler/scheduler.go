// Package scheduler arms the repeating timer that drives evaluation passes.
//
// The scheduler does not run callbacks itself. The owner selects on C() in its
// event loop and runs the pass there, so ticks never overlap with each other
// or with control requests.
package scheduler

import (
	"errors"
	"fmt"
	"time"

	"filemonitor/internal/duration"
)

var (
	// ErrNotArmed is returned by Reconfigure before Start.
	ErrNotArmed = errors.New("scheduler not armed")
	// ErrAlreadyArmed is returned by Start on an armed scheduler.
	ErrAlreadyArmed = errors.New("scheduler already armed")
)

// Ticker is the subset of time.Ticker the scheduler needs.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// TickerFactory creates a ticker firing every d.
type TickerFactory func(d time.Duration) Ticker

type realTicker struct {
	t *time.Ticker
}

func (r realTicker) C() <-chan time.Time { return r.t.C }

func (r realTicker) Stop() { r.t.Stop() }

// NewRealTicker wraps time.NewTicker.
func NewRealTicker(d time.Duration) Ticker {
	return realTicker{t: time.NewTicker(d)}
}

// Scheduler is either idle or armed with a repeating ticker. It is not safe for
// concurrent use; one goroutine owns it.
type Scheduler struct {
	newTicker TickerFactory
	ticker    Ticker
	period    int64
}

// New returns an idle scheduler. A nil factory uses real tickers.
func New(factory TickerFactory) *Scheduler {
	if factory == nil {
		factory = NewRealTicker
	}
	return &Scheduler{newTicker: factory}
}

// Start arms the scheduler with periodSeconds.
func (s *Scheduler) Start(periodSeconds int64) error {
	if s.ticker != nil {
		return ErrAlreadyArmed
	}
	if err := checkPeriod(periodSeconds); err != nil {
		return err
	}
	s.arm(periodSeconds)
	return nil
}

// Reconfigure replaces the armed ticker with one firing every periodSeconds.
// On error the current ticker keeps running unchanged.
func (s *Scheduler) Reconfigure(periodSeconds int64) error {
	if err := checkPeriod(periodSeconds); err != nil {
		return err
	}
	if s.ticker == nil {
		return ErrNotArmed
	}
	s.ticker.Stop()
	s.arm(periodSeconds)
	return nil
}

// Stop disarms the scheduler. Stopping an idle scheduler is a no-op.
func (s *Scheduler) Stop() {
	if s.ticker == nil {
		return
	}
	s.ticker.Stop()
	s.ticker = nil
}

// C returns the channel of the current ticker, or nil when idle. A nil channel
// blocks forever in a select, which is what an idle scheduler should do.
// Callers must re-read C after Reconfigure.
func (s *Scheduler) C() <-chan time.Time {
	if s.ticker == nil {
		return nil
	}
	return s.ticker.C()
}

// Armed reports whether a ticker is installed.
func (s *Scheduler) Armed() bool {
	return s.ticker != nil
}

// Period returns the armed period in seconds, or 0 when idle.
func (s *Scheduler) Period() int64 {
	if s.ticker == nil {
		return 0
	}
	return s.period
}

func (s *Scheduler) arm(periodSeconds int64) {
	s.ticker = s.newTicker(time.Duration(periodSeconds) * time.Second)
	s.period = periodSeconds
}

func checkPeriod(periodSeconds int64) error {
	if err := duration.CheckRange(periodSeconds); err != nil {
		return fmt.Errorf("timer period %ds: %w", periodSeconds, err)
	}
	return nil
}
