package config

import (
	"errors"
	"fmt"
	"math"
	"net"
	"strings"

	"filemonitor/internal/duration"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateScheduler(); err != nil {
		return err
	}
	if err := c.validateNotifications(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	if err := c.validateAPI(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateScheduler() error {
	if _, err := duration.ParsePositive(c.Scheduler.DefaultPeriod); err != nil {
		return fmt.Errorf("scheduler.default_period: %w (expected %s)", err, duration.Grammar)
	}
	return nil
}

func (c *Config) validateNotifications() error {
	if c.Notifications.ExpireTimeoutMS < -1 {
		return errors.New("notifications.expire_timeout_ms must be -1 (server default), 0 (never) or positive")
	}
	if c.Notifications.ExpireTimeoutMS > math.MaxInt32 {
		return fmt.Errorf("notifications.expire_timeout_ms must not exceed %d", math.MaxInt32)
	}
	if c.Notifications.RequestTimeout < 0 {
		return errors.New("notifications.request_timeout must be positive")
	}
	topic := c.Notifications.NtfyTopic
	if topic != "" && !strings.HasPrefix(topic, "http://") && !strings.HasPrefix(topic, "https://") {
		return fmt.Errorf("notifications.ntfy_topic must be a full http(s) URL, got %q", topic)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q (use console or json)", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	if c.Logging.RetentionDays < 0 {
		return errors.New("logging.retention_days must be zero (keep forever) or positive")
	}
	return nil
}

func (c *Config) validateAPI() error {
	if c.API.Bind == "" {
		return nil
	}
	host, _, err := net.SplitHostPort(c.API.Bind)
	if err != nil {
		return fmt.Errorf("api.bind: %w", err)
	}
	if host == "localhost" {
		return nil
	}
	ip := net.ParseIP(host)
	if ip == nil || !ip.IsLoopback() {
		return fmt.Errorf("api.bind must be a loopback address, got %q", c.API.Bind)
	}
	return nil
}
