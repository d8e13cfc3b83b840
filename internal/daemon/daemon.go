package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"filemonitor/internal/config"
	"filemonitor/internal/duration"
	"filemonitor/internal/evaluate"
	"filemonitor/internal/logging"
	"filemonitor/internal/monitor"
	"filemonitor/internal/notifications"
	"filemonitor/internal/scheduler"
)

var (
	// ErrAlreadyRunning means another daemon holds the session lock.
	ErrAlreadyRunning = errors.New("filemonitor daemon already running")
	// ErrTransportUnavailable means the lock or socket could not be set up at all.
	ErrTransportUnavailable = errors.New("daemon transport unavailable")
	// ErrStopped is returned for control requests after the loop has exited.
	ErrStopped = errors.New("daemon stopped")
)

// Option customises a Daemon.
type Option func(*Daemon)

// WithClock replaces time.Now for staleness checks.
func WithClock(now func() time.Time) Option {
	return func(d *Daemon) { d.now = now }
}

// WithTickerFactory replaces the real ticker used by the scheduler.
func WithTickerFactory(factory scheduler.TickerFactory) Option {
	return func(d *Daemon) { d.tickerFactory = factory }
}

// WithStat replaces os.Stat for the evaluation pass.
func WithStat(stat evaluate.StatFunc) Option {
	return func(d *Daemon) { d.stat = stat }
}

// WithSessionID sets the run identifier reported by Status.
func WithSessionID(id string) Option {
	return func(d *Daemon) { d.sessionID = id }
}

type request struct {
	name string
	fn   func() error
	done chan error
}

// Daemon is the long-running monitor. Fields marked loop-owned are only read
// or written by the goroutine executing Run.
type Daemon struct {
	cfg       *config.Config
	logger    *slog.Logger
	sink      notifications.Sink
	sessionID string

	now           func() time.Time
	stat          evaluate.StatFunc
	tickerFactory scheduler.TickerFactory

	lockPath string
	lock     *flock.Flock
	acquired atomic.Bool

	// loop-owned
	registry *monitor.Registry
	sched    *scheduler.Scheduler
	pass     *evaluate.Pass
	lastPass *evaluate.Result
	stopping bool
	loopCtx  context.Context

	requests  chan request
	loopDone  chan struct{}
	startOnce sync.Once
	running   atomic.Bool
	startedAt time.Time
}

// Status is a snapshot of daemon state.
type Status struct {
	Running       bool
	PID           int
	SessionID     string
	StartedAt     time.Time
	PeriodSeconds int64
	Entries       int
	LockPath      string
	SocketPath    string
	LastPass      *evaluate.Result
}

// New constructs a daemon. The sink receives every notification; a nil sink
// discards them.
func New(cfg *config.Config, logger *slog.Logger, sink notifications.Sink, opts ...Option) (*Daemon, error) {
	if cfg == nil {
		return nil, errors.New("daemon requires config")
	}
	if sink == nil {
		sink = notifications.Noop()
	}
	d := &Daemon{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "daemon"),
		sink:     sink,
		now:      time.Now,
		lockPath: cfg.LockPath(),
		registry: monitor.NewRegistry(),
		requests: make(chan request),
		loopDone: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.sessionID == "" {
		d.sessionID = uuid.NewString()
	}
	d.lock = flock.New(d.lockPath)
	d.sched = scheduler.New(d.tickerFactory)
	d.pass = &evaluate.Pass{
		Sink:   d.sink,
		Stat:   d.stat,
		Now:    d.now,
		Logger: logging.NewComponentLogger(logger, "evaluate"),
	}
	return d, nil
}

// Acquire takes the session-wide singleton lock.
func (d *Daemon) Acquire() error {
	if d.acquired.Load() {
		return nil
	}
	if err := os.MkdirAll(d.cfg.Paths.RuntimeDir, 0o700); err != nil {
		return fmt.Errorf("%w: create runtime directory: %v", ErrTransportUnavailable, err)
	}
	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("%w: acquire lock %s: %v", ErrTransportUnavailable, d.lockPath, err)
	}
	if !ok {
		return ErrAlreadyRunning
	}
	d.acquired.Store(true)
	d.logger.Debug("singleton lock acquired", logging.String("lock", d.lockPath))
	return nil
}

// Release drops the singleton lock.
func (d *Daemon) Release() {
	if !d.acquired.Swap(false) {
		return
	}
	if err := d.lock.Unlock(); err != nil {
		logging.WarnWithContext(d.logger, "failed to release daemon lock", "lock_release_failed",
			logging.String("lock", d.lockPath),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "remove the lock file if no daemon is running"),
		)
	}
}

// Run arms the scheduler with the configured default period and processes
// events until StopServer is called or ctx is cancelled. Acquire must have
// succeeded first.
func (d *Daemon) Run(ctx context.Context) error {
	if !d.acquired.Load() {
		return errors.New("daemon lock not acquired")
	}
	started := false
	d.startOnce.Do(func() { started = true })
	if !started {
		return errors.New("daemon already ran")
	}
	defer close(d.loopDone)

	period := d.cfg.DefaultPeriodSeconds()
	if err := d.sched.Start(period); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}
	defer d.sched.Stop()

	d.loopCtx = ctx
	d.startedAt = d.now()
	d.running.Store(true)
	defer d.running.Store(false)

	api := newAPIServer(d.cfg, d, d.logger)
	if err := api.start(); err != nil {
		return err
	}
	defer api.stop()

	d.logger.Info("filemonitor daemon started",
		logging.String("lock", d.lockPath),
		logging.Int64(logging.FieldPeriod, period),
		logging.String(logging.FieldEventType, "daemon_start"),
	)

	for !d.stopping {
		select {
		case <-ctx.Done():
			d.logger.Info("daemon context cancelled", logging.String(logging.FieldEventType, "daemon_cancelled"))
			return nil
		case <-d.sched.C():
			_ = d.execute("evaluation pass", func() error {
				d.runPass()
				return nil
			})
		case req := <-d.requests:
			req.done <- d.execute(req.name, req.fn)
		}
	}
	d.logger.Info("filemonitor daemon stopped", logging.String(logging.FieldEventType, "daemon_stop"))
	return nil
}

// Done is closed once Run has returned.
func (d *Daemon) Done() <-chan struct{} {
	return d.loopDone
}

// execute runs one event, turning a panic into an error so the loop survives.
func (d *Daemon) execute(name string, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			logging.ErrorWithContext(d.logger, "event handler panicked", "event_panic",
				logging.String("event", name),
				logging.Any("panic", r),
			)
			err = fmt.Errorf("%s: internal error: %v", name, r)
		}
	}()
	return fn()
}

func (d *Daemon) runPass() evaluate.Result {
	ctx := d.loopCtx
	if ctx == nil {
		ctx = context.Background()
	}
	entries := d.registry.List()
	result := d.pass.Run(context.WithoutCancel(ctx), entries)
	d.lastPass = &result
	d.logger.Debug("evaluation pass completed",
		logging.Int("checked", result.Checked),
		logging.Int("stale", result.Stale),
		logging.Int("failed", result.Failed),
		logging.String(logging.FieldEventType, "pass_completed"),
	)
	return result
}

// submit hands fn to the loop and waits for it to complete.
func (d *Daemon) submit(ctx context.Context, name string, fn func() error) error {
	req := request{name: name, fn: fn, done: make(chan error, 1)}
	select {
	case d.requests <- req:
	case <-d.loopDone:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
	return <-req.done
}

// AddFile registers entry, replacing any entry with the same path. The path
// must already be canonical.
func (d *Daemon) AddFile(ctx context.Context, entry monitor.Entry) error {
	if err := entry.Validate(); err != nil {
		return err
	}
	entry = entry.WithDefaults()
	return d.submit(ctx, "add file", func() error {
		d.registry.Add(entry)
		d.logger.Info("file added",
			logging.String(logging.FieldPath, entry.Path),
			logging.Int64("timeout_seconds", entry.TimeoutSeconds),
			logging.String(logging.FieldEventType, "file_added"),
		)
		return nil
	})
}

// RemoveFile unregisters path and reports whether it was monitored.
func (d *Daemon) RemoveFile(ctx context.Context, path string) (bool, error) {
	var found bool
	err := d.submit(ctx, "remove file", func() error {
		found = d.registry.Remove(path)
		if found {
			d.logger.Info("file removed",
				logging.String(logging.FieldPath, path),
				logging.String(logging.FieldEventType, "file_removed"),
			)
		}
		return nil
	})
	return found, err
}

// ListFiles returns a copy of the registry in order.
func (d *Daemon) ListFiles(ctx context.Context) ([]monitor.Entry, error) {
	var entries []monitor.Entry
	err := d.submit(ctx, "list files", func() error {
		entries = d.registry.List()
		return nil
	})
	return entries, err
}

// SetTimer changes the polling period. Periods outside 1..duration.MaxSeconds
// are rejected and the current timer keeps running.
func (d *Daemon) SetTimer(ctx context.Context, periodSeconds int64) error {
	if err := duration.CheckRange(periodSeconds); err != nil {
		return fmt.Errorf("timer period %ds: %w", periodSeconds, err)
	}
	return d.submit(ctx, "set timer", func() error {
		if err := d.sched.Reconfigure(periodSeconds); err != nil {
			return err
		}
		d.logger.Info("timer reconfigured",
			logging.Int64(logging.FieldPeriod, periodSeconds),
			logging.String(logging.FieldEventType, "timer_reconfigured"),
		)
		return nil
	})
}

// StopServer asks the loop to exit after the current event.
func (d *Daemon) StopServer(ctx context.Context) error {
	return d.submit(ctx, "stop server", func() error {
		d.stopping = true
		return nil
	})
}

// CheckNow runs one evaluation pass immediately.
func (d *Daemon) CheckNow(ctx context.Context) (evaluate.Result, error) {
	var result evaluate.Result
	err := d.submit(ctx, "check now", func() error {
		result = d.runPass()
		return nil
	})
	return result, err
}

// TestNotification sends a test message through the configured sink. Unlike
// pass notifications, delivery errors are returned.
func (d *Daemon) TestNotification(ctx context.Context) error {
	return d.submit(ctx, "test notification", func() error {
		return d.sink.Notify(ctx, notifications.TestMessage(d.cfg.Notifications.AppName))
	})
}

// Status reports the daemon state. A daemon whose loop is not running reports
// Running=false without error.
func (d *Daemon) Status(ctx context.Context) (Status, error) {
	status := Status{
		PID:        os.Getpid(),
		SessionID:  d.sessionID,
		LockPath:   d.lockPath,
		SocketPath: d.cfg.SocketPath(),
	}
	if !d.running.Load() {
		return status, nil
	}
	err := d.submit(ctx, "status", func() error {
		status.Running = true
		status.StartedAt = d.startedAt
		status.PeriodSeconds = d.sched.Period()
		status.Entries = d.registry.Len()
		if d.lastPass != nil {
			last := *d.lastPass
			status.LastPass = &last
		}
		return nil
	})
	if errors.Is(err, ErrStopped) {
		return status, nil
	}
	return status, err
}

// SessionID returns the run identifier.
func (d *Daemon) SessionID() string {
	return d.sessionID
}
