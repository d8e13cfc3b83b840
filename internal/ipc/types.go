package ipc

import "time"

// ServiceName is the JSON-RPC service prefix.
const ServiceName = "FileMonitor"

// FileEntry is one monitored file on the wire.
type FileEntry struct {
	Path           string `json:"path"`
	TimeoutSeconds int64  `json:"timeout_seconds"`
	Summary        string `json:"summary"`
	Message        string `json:"message"`
	Icon           string `json:"icon"`
}

// AddFileRequest registers a file. Message and Icon are optional.
type AddFileRequest struct {
	Path           string `json:"path"`
	TimeoutSeconds int64  `json:"timeout_seconds"`
	Summary        string `json:"summary"`
	Message        string `json:"message,omitempty"`
	Icon           string `json:"icon,omitempty"`
}

// AddFileResponse reports whether the entry was stored.
type AddFileResponse struct {
	Added bool `json:"added"`
}

// RemoveFileRequest unregisters a file.
type RemoveFileRequest struct {
	Path string `json:"path"`
}

// RemoveFileResponse reports whether the path was monitored.
type RemoveFileResponse struct {
	Found bool `json:"found"`
}

// ListFilesRequest lists monitored files.
type ListFilesRequest struct{}

// ListFilesResponse contains the registry in order.
type ListFilesResponse struct {
	Files []FileEntry `json:"files"`
}

// SetTimerRequest changes the polling period.
type SetTimerRequest struct {
	PeriodSeconds int64 `json:"period_seconds"`
}

// SetTimerResponse reports whether the period was applied.
type SetTimerResponse struct {
	Applied bool `json:"applied"`
}

// StopRequest asks the daemon to shut down.
type StopRequest struct{}

// StopResponse acknowledges a stop request.
type StopResponse struct {
	Stopping bool `json:"stopping"`
}

// StatusRequest fetches daemon status.
type StatusRequest struct{}

// PassSummary describes the most recent evaluation pass.
type PassSummary struct {
	Checked  int       `json:"checked"`
	Stale    int       `json:"stale"`
	Failed   int       `json:"failed"`
	Notified int       `json:"notified"`
	Finished time.Time `json:"finished"`
}

// StatusResponse represents daemon status information.
type StatusResponse struct {
	Running       bool         `json:"running"`
	PID           int          `json:"pid"`
	SessionID     string       `json:"session_id"`
	StartedAt     time.Time    `json:"started_at"`
	PeriodSeconds int64        `json:"period_seconds"`
	Entries       int          `json:"entries"`
	LockPath      string       `json:"lock_path"`
	SocketPath    string       `json:"socket_path"`
	LogPath       string       `json:"log_path"`
	LastPass      *PassSummary `json:"last_pass,omitempty"`
}

// CheckRequest runs an evaluation pass immediately.
type CheckRequest struct{}

// CheckResponse summarises the pass.
type CheckResponse struct {
	PassSummary
}

// TestNotificationRequest triggers a test notification.
type TestNotificationRequest struct{}

// TestNotificationResponse reports the test result.
type TestNotificationResponse struct {
	Sent    bool   `json:"sent"`
	Message string `json:"message"`
}
