package ipc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"os"
	"sync"
	"time"

	"filemonitor/internal/daemon"
	"filemonitor/internal/evaluate"
	"filemonitor/internal/logging"
	"filemonitor/internal/monitor"
)

// closeGrace bounds how long Close waits for in-flight calls (notably the
// StopServer reply) before dropping idle connections.
const closeGrace = 2 * time.Second

// Server exposes daemon control via JSON-RPC over a Unix domain socket.
type Server struct {
	path      string
	daemon    *daemon.Daemon
	logger    *slog.Logger
	listener  net.Listener
	rpcServer *rpc.Server

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu    sync.Mutex
	conns map[net.Conn]struct{}
}

// ServerOption customises a Server.
type ServerOption func(*service)

// WithLogPath makes Status report the daemon's current log file.
func WithLogPath(path string) ServerOption {
	return func(s *service) { s.logPath = path }
}

// NewServer binds the socket at path. The caller must hold the daemon's
// singleton lock, since any existing socket file is removed first. Bind
// failures are reported as daemon.ErrTransportUnavailable.
func NewServer(ctx context.Context, path string, d *daemon.Daemon, logger *slog.Logger, opts ...ServerOption) (*Server, error) {
	if d == nil {
		return nil, errors.New("ipc server requires daemon")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	logger = logging.NewComponentLogger(logger, "ipc")

	if err := os.RemoveAll(path); err != nil {
		return nil, fmt.Errorf("%w: remove existing socket: %v", daemon.ErrTransportUnavailable, err)
	}

	listener, err := net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("%w: listen on socket: %v", daemon.ErrTransportUnavailable, err)
	}
	if err := os.Chmod(path, 0o600); err != nil {
		logger.Debug("socket chmod failed", logging.Error(err))
	}

	svc := &service{daemon: d, logger: logger, ctx: ctx, socketPath: path}
	for _, opt := range opts {
		opt(svc)
	}
	rpcServer := rpc.NewServer()
	if err := rpcServer.RegisterName(ServiceName, svc); err != nil {
		listener.Close()
		return nil, fmt.Errorf("register rpc service: %w", err)
	}

	serverCtx, cancel := context.WithCancel(ctx)
	return &Server{
		path:      path,
		daemon:    d,
		logger:    logger,
		listener:  listener,
		rpcServer: rpcServer,
		ctx:       serverCtx,
		cancel:    cancel,
		conns:     make(map[net.Conn]struct{}),
	}, nil
}

// Serve starts accepting RPC connections until Close is called.
func (s *Server) Serve() {
	s.logger.Debug("IPC server listening", logging.String("socket", s.path))
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for {
			conn, err := s.listener.Accept()
			if err != nil {
				select {
				case <-s.ctx.Done():
					return
				default:
				}
				if errors.Is(err, net.ErrClosed) {
					return
				}
				logging.WarnWithContext(s.logger, "accept failed", "ipc_accept_failed",
					logging.Error(err),
					logging.String(logging.FieldImpact, "IPC clients may fail to connect"),
					logging.String(logging.FieldErrorHint, "check socket permissions and restart the daemon if needed"))
				continue
			}
			s.track(conn, true)
			s.wg.Add(1)
			go func(c net.Conn) {
				defer s.wg.Done()
				defer s.track(c, false)
				s.rpcServer.ServeCodec(jsonrpc.NewServerCodec(c))
			}(conn)
		}
	}()
}

func (s *Server) track(c net.Conn, add bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if add {
		s.conns[c] = struct{}{}
	} else {
		delete(s.conns, c)
	}
}

// Close stops accepting connections, gives in-flight calls a short grace
// period, then drops remaining connections and removes the socket file.
func (s *Server) Close() {
	s.cancel()
	if s.listener != nil {
		_ = s.listener.Close()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(closeGrace):
		s.mu.Lock()
		for c := range s.conns {
			_ = c.Close()
		}
		s.mu.Unlock()
		<-done
	}

	if err := os.RemoveAll(s.path); err != nil {
		logging.WarnWithContext(s.logger, "failed to remove socket", "ipc_socket_cleanup_failed",
			logging.String("socket", s.path),
			logging.Error(err),
			logging.String(logging.FieldImpact, "stale IPC socket left behind; the next start replaces it"),
			logging.String(logging.FieldErrorHint, "remove the socket file manually"))
	}
}

type service struct {
	daemon     *daemon.Daemon
	logger     *slog.Logger
	ctx        context.Context
	socketPath string
	logPath    string
}

func (s *service) AddFile(req AddFileRequest, resp *AddFileResponse) error {
	s.logger.Debug("add file requested", logging.String(logging.FieldPath, req.Path))
	err := s.daemon.AddFile(s.ctx, monitor.Entry{
		Path:            req.Path,
		TimeoutSeconds:  req.TimeoutSeconds,
		Summary:         req.Summary,
		MessageTemplate: req.Message,
		Icon:            req.Icon,
	})
	if err != nil {
		return err
	}
	resp.Added = true
	return nil
}

func (s *service) RemoveFile(req RemoveFileRequest, resp *RemoveFileResponse) error {
	s.logger.Debug("remove file requested", logging.String(logging.FieldPath, req.Path))
	found, err := s.daemon.RemoveFile(s.ctx, req.Path)
	if err != nil {
		return err
	}
	resp.Found = found
	return nil
}

func (s *service) ListFiles(_ ListFilesRequest, resp *ListFilesResponse) error {
	entries, err := s.daemon.ListFiles(s.ctx)
	if err != nil {
		return err
	}
	resp.Files = make([]FileEntry, 0, len(entries))
	for _, e := range entries {
		resp.Files = append(resp.Files, FileEntry{
			Path:           e.Path,
			TimeoutSeconds: e.TimeoutSeconds,
			Summary:        e.Summary,
			Message:        e.MessageTemplate,
			Icon:           e.Icon,
		})
	}
	return nil
}

func (s *service) SetTimer(req SetTimerRequest, resp *SetTimerResponse) error {
	s.logger.Debug("set timer requested", logging.Int64(logging.FieldPeriod, req.PeriodSeconds))
	if err := s.daemon.SetTimer(s.ctx, req.PeriodSeconds); err != nil {
		return err
	}
	resp.Applied = true
	return nil
}

func (s *service) StopServer(_ StopRequest, resp *StopResponse) error {
	s.logger.Info("daemon stop requested via IPC", logging.String(logging.FieldEventType, "daemon_stop_requested"))
	if err := s.daemon.StopServer(s.ctx); err != nil {
		return err
	}
	resp.Stopping = true
	return nil
}

func (s *service) Status(_ StatusRequest, resp *StatusResponse) error {
	status, err := s.daemon.Status(s.ctx)
	if err != nil {
		return err
	}
	resp.Running = status.Running
	resp.PID = status.PID
	resp.SessionID = status.SessionID
	resp.StartedAt = status.StartedAt
	resp.PeriodSeconds = status.PeriodSeconds
	resp.Entries = status.Entries
	resp.LockPath = status.LockPath
	resp.SocketPath = s.socketPath
	resp.LogPath = s.logPath
	if status.LastPass != nil {
		summary := passSummary(*status.LastPass)
		resp.LastPass = &summary
	}
	return nil
}

func (s *service) CheckNow(_ CheckRequest, resp *CheckResponse) error {
	result, err := s.daemon.CheckNow(s.ctx)
	if err != nil {
		return err
	}
	resp.PassSummary = passSummary(result)
	return nil
}

func (s *service) TestNotification(_ TestNotificationRequest, resp *TestNotificationResponse) error {
	if err := s.daemon.TestNotification(s.ctx); err != nil {
		resp.Sent = false
		resp.Message = err.Error()
		return nil
	}
	resp.Sent = true
	resp.Message = "test notification sent"
	return nil
}

func passSummary(r evaluate.Result) PassSummary {
	return PassSummary{
		Checked:  r.Checked,
		Stale:    r.Stale,
		Failed:   r.Failed,
		Notified: r.Notified,
		Finished: r.Finished,
	}
}
