package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const userAgent = "filemonitor/0.1.0"

type ntfySink struct {
	endpoint string
	appName  string
	client   *http.Client
}

// NewNtfy returns a sink publishing to the ntfy topic URL. requestTimeout is in
// seconds; non-positive values fall back to ten seconds.
func NewNtfy(endpoint, appName string, requestTimeout int) Sink {
	timeout := time.Duration(requestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &ntfySink{
		endpoint: strings.TrimSpace(endpoint),
		appName:  strings.TrimSpace(appName),
		client:   &http.Client{Timeout: timeout},
	}
}

func (n *ntfySink) Notify(ctx context.Context, msg Message) error {
	if n == nil || n.client == nil || n.endpoint == "" {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(msg.Body))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if title := strings.TrimSpace(msg.Title); title != "" {
		req.Header.Set("Title", title)
	}
	tags := []string{"filemonitor"}
	if n.appName != "" && n.appName != "filemonitor" {
		tags = append(tags, n.appName)
	}
	req.Header.Set("Tags", strings.Join(tags, ","))
	// ntfy only accepts URLs as icons; names from the icon theme are dropped.
	if icon := strings.TrimSpace(msg.Icon); strings.HasPrefix(icon, "http://") || strings.HasPrefix(icon, "https://") {
		req.Header.Set("Icon", icon)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}
