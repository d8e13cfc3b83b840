package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"filemonitor/internal/config"
	"filemonitor/internal/duration"
	"filemonitor/internal/evaluate"
	"filemonitor/internal/logging"
)

const apiShutdownTimeout = 5 * time.Second

// apiServer exposes GET /api/status and GET /api/files as JSON on a loopback
// address. A nil *apiServer is a disabled endpoint.
type apiServer struct {
	bind   string
	logger *slog.Logger
	daemon *Daemon
	server *http.Server
	addr   net.Addr
}

type apiStatus struct {
	Running       bool             `json:"running"`
	PID           int              `json:"pid"`
	SessionID     string           `json:"session_id"`
	StartedAt     time.Time        `json:"started_at"`
	PeriodSeconds int64            `json:"period_seconds"`
	Period        string           `json:"period"`
	Entries       int              `json:"entries"`
	LastPass      *evaluate.Result `json:"last_pass,omitempty"`
}

type apiEntry struct {
	Path           string `json:"path"`
	TimeoutSeconds int64  `json:"timeout_seconds"`
	Timeout        string `json:"timeout"`
	Summary        string `json:"summary"`
	Message        string `json:"message"`
	Icon           string `json:"icon,omitempty"`
}

func newAPIServer(cfg *config.Config, d *Daemon, logger *slog.Logger) *apiServer {
	if cfg == nil || d == nil || strings.TrimSpace(cfg.API.Bind) == "" {
		return nil
	}
	s := &apiServer{
		bind:   strings.TrimSpace(cfg.API.Bind),
		logger: logging.NewComponentLogger(logger, "api-server"),
		daemon: d,
	}
	s.server = &http.Server{
		Handler:           s.routes(cfg.API.Token),
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       time.Minute,
	}
	return s
}

func (s *apiServer) routes(token string) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/status", authMiddleware(token, s.handleStatus))
	mux.HandleFunc("GET /api/files", authMiddleware(token, s.handleFiles))
	return mux
}

// start binds the listener synchronously so a bad address fails daemon startup,
// then serves in the background.
func (s *apiServer) start() error {
	if s == nil {
		return nil
	}
	ln, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen on %s: %w", s.bind, err)
	}
	s.addr = ln.Addr()
	go func() {
		if err := s.server.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
			logging.ErrorWithContext(s.logger, "api server stopped", "api_server_failed",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check api.bind in the config"),
			)
		}
	}()
	s.logger.Info("api server listening", logging.String("address", s.addr.String()))
	return nil
}

func (s *apiServer) stop() {
	if s == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), apiShutdownTimeout)
	defer cancel()
	if err := s.server.Shutdown(ctx); err != nil {
		s.server.Close()
	}
}

func (s *apiServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	st, err := s.daemon.Status(r.Context())
	if err != nil {
		writeAPIError(w, http.StatusServiceUnavailable, err)
		return
	}
	writeAPIJSON(w, http.StatusOK, apiStatus{
		Running:       st.Running,
		PID:           st.PID,
		SessionID:     st.SessionID,
		StartedAt:     st.StartedAt,
		PeriodSeconds: st.PeriodSeconds,
		Period:        duration.Format(st.PeriodSeconds),
		Entries:       st.Entries,
		LastPass:      st.LastPass,
	})
}

func (s *apiServer) handleFiles(w http.ResponseWriter, r *http.Request) {
	entries, err := s.daemon.ListFiles(r.Context())
	if err != nil {
		writeAPIError(w, http.StatusServiceUnavailable, err)
		return
	}
	files := make([]apiEntry, len(entries))
	for i, e := range entries {
		files[i] = apiEntry{
			Path:           e.Path,
			TimeoutSeconds: e.TimeoutSeconds,
			Timeout:        duration.Format(e.TimeoutSeconds),
			Summary:        e.Summary,
			Message:        e.MessageTemplate,
			Icon:           e.Icon,
		}
	}
	writeAPIJSON(w, http.StatusOK, struct {
		Files []apiEntry `json:"files"`
	}{files})
}

func writeAPIJSON(w http.ResponseWriter, code int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeAPIError(w http.ResponseWriter, code int, err error) {
	writeAPIJSON(w, code, map[string]string{"error": err.Error()})
}
