package daemon

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"filemonitor/internal/logging"
	"filemonitor/internal/monitor"
	"filemonitor/internal/testsupport"
)

func runTestDaemon(t *testing.T) *Daemon {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	d, err := New(cfg, logging.NewNop(), nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := d.Acquire(); err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = d.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-d.Done()
		d.Release()
	})
	return d
}

func TestAPIServerHandleFiles(t *testing.T) {
	d := runTestDaemon(t)
	if err := d.AddFile(context.Background(), monitor.Entry{Path: "/srv/backup.tar", TimeoutSeconds: 5400, Summary: "backup"}); err != nil {
		t.Fatalf("AddFile: %v", err)
	}
	srv := &apiServer{daemon: d}

	req := httptest.NewRequest(http.MethodGet, "/api/files", nil)
	w := httptest.NewRecorder()
	srv.handleFiles(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 OK, got %d", w.Code)
	}
	var resp struct {
		Files []apiEntry `json:"files"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp.Files) != 1 {
		t.Fatalf("expected 1 file, got %d", len(resp.Files))
	}
	if resp.Files[0].Timeout != "1h30m" || resp.Files[0].Summary != "backup" {
		t.Fatalf("unexpected entry %+v", resp.Files[0])
	}
}

func TestAPIServerHandleStatus(t *testing.T) {
	d := runTestDaemon(t)
	if _, err := d.ListFiles(context.Background()); err != nil {
		t.Fatalf("ListFiles: %v", err)
	}
	srv := &apiServer{daemon: d}

	w := httptest.NewRecorder()
	srv.handleStatus(w, httptest.NewRequest(http.MethodGet, "/api/status", nil))

	var resp apiStatus
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !resp.Running || resp.Period != "15m" || resp.SessionID == "" {
		t.Fatalf("unexpected status %+v", resp)
	}

	w = httptest.NewRecorder()
	srv.routes("").ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/status", nil))
	if w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("POST status code = %d", w.Code)
	}
}

func TestAuthMiddleware(t *testing.T) {
	handler := authMiddleware("secret", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	tests := []struct {
		header string
		want   int
	}{
		{"", http.StatusUnauthorized},
		{"Bearer wrong", http.StatusUnauthorized},
		{"secret", http.StatusUnauthorized},
		{"Bearer secret", http.StatusNoContent},
	}
	for _, tc := range tests {
		req := httptest.NewRequest(http.MethodGet, "/api/status", nil)
		if tc.header != "" {
			req.Header.Set("Authorization", tc.header)
		}
		w := httptest.NewRecorder()
		handler(w, req)
		if w.Code != tc.want {
			t.Errorf("Authorization %q: code %d, want %d", tc.header, w.Code, tc.want)
		}
	}
}

func TestAPIServerServesOverTCP(t *testing.T) {
	d := runTestDaemon(t)
	cfg := testsupport.NewConfig(t, testsupport.WithAPIBind("127.0.0.1:0"))
	cfg.API.Token = "secret"

	srv := newAPIServer(cfg, d, logging.NewNop())
	if err := srv.start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	t.Cleanup(srv.stop)

	url := "http://" + srv.addr.String() + "/api/files"
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET without token: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("missing token status = %d", resp.StatusCode)
	}

	req, _ := http.NewRequest(http.MethodGet, url, nil)
	req.Header.Set("Authorization", "Bearer secret")
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET with token: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Fatalf("content type = %q", ct)
	}
}

func TestNewAPIServerDisabledWithoutBind(t *testing.T) {
	if srv := newAPIServer(testsupport.NewConfig(t), &Daemon{}, nil); srv != nil {
		t.Fatal("expected nil server when api.bind is empty")
	}
	var srv *apiServer
	if err := srv.start(); err != nil {
		t.Fatalf("nil start: %v", err)
	}
	srv.stop()
}
