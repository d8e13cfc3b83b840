package main

import (
	"fmt"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"filemonitor/internal/config"
	"filemonitor/internal/daemonctl"
	"filemonitor/internal/ipc"
)

// skipConfigAnnotation marks commands that must work without a loadable config.
const skipConfigAnnotation = "skipConfigLoad"

// commandContext carries the global flags and the lazily loaded config shared
// by every subcommand of one invocation.
type commandContext struct {
	socketFlag string
	configFlag string

	loadOnce sync.Once
	cfg      *config.Config
	loadErr  error
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.loadOnce.Do(func() {
		c.cfg, _, _, c.loadErr = config.Load(c.configPath())
	})
	return c.cfg, c.loadErr
}

func (c *commandContext) configValue() *config.Config {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil
	}
	return cfg
}

func (c *commandContext) configPath() string { return strings.TrimSpace(c.configFlag) }

// socketOverride is the --socket value, empty when the config decides.
func (c *commandContext) socketOverride() string { return strings.TrimSpace(c.socketFlag) }

func (c *commandContext) socketPath() string {
	if socket := c.socketOverride(); socket != "" {
		return socket
	}
	cfg := c.configValue()
	if cfg == nil {
		fallback := config.Default()
		cfg = &fallback
	}
	return cfg.SocketPath()
}

// withClient dials the daemon for the duration of fn.
func (c *commandContext) withClient(fn func(*ipc.Client) error) error {
	client, err := c.dialClient()
	if err != nil {
		return err
	}
	defer client.Close()
	return fn(client)
}

func (c *commandContext) dialClient() (*ipc.Client, error) {
	socket := c.socketPath()
	client, err := ipc.Dial(socket)
	if err == nil {
		return client, nil
	}
	if daemonctl.IsDaemonUnavailable(err) {
		return nil, fmt.Errorf("%w (socket %s)", daemonctl.ErrDaemonNotRunning, socket)
	}
	return nil, fmt.Errorf("connect to daemon: %w", err)
}

func skipsConfig(cmd *cobra.Command) bool {
	for ; cmd != nil; cmd = cmd.Parent() {
		if cmd.Annotations[skipConfigAnnotation] == "true" {
			return true
		}
	}
	return false
}
