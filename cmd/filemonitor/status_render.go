package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/mattn/go-isatty"

	"filemonitor/internal/duration"
	"filemonitor/internal/ipc"
	"filemonitor/internal/preflight"
)

type statusKind int

const (
	statusInfo statusKind = iota
	statusOK
	statusWarn
	statusError
)

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
	ansiBlue   = "\x1b[34m"
)

var statusKinds = map[statusKind]struct{ label, color string }{
	statusInfo:  {"INFO", ansiBlue},
	statusOK:    {"OK", ansiGreen},
	statusWarn:  {"WARN", ansiYellow},
	statusError: {"ERROR", ansiRed},
}

const (
	statusLabelWidth = 22
	statusIndent     = "  "
)

// statusReport accumulates the sectioned key/value lines printed by status.
type statusReport struct {
	colorize bool
	lines    []string
}

func (r *statusReport) section(title string) {
	if len(r.lines) > 0 {
		r.lines = append(r.lines, "")
	}
	heading := "== " + strings.TrimSpace(title) + " =="
	rule := strings.Repeat("-", len(heading))
	if r.colorize {
		heading, rule = ansiBlue+heading+ansiReset, ansiBlue+rule+ansiReset
	}
	r.lines = append(r.lines, heading, rule)
}

func (r *statusReport) add(label string, kind statusKind, message string) {
	r.lines = append(r.lines, renderStatusLine(label, kind, message, r.colorize))
}

func statusLines(resp *ipc.StatusResponse, colorize bool) []string {
	r := &statusReport{colorize: colorize}
	r.section("Daemon")
	if resp == nil || !resp.Running {
		r.add("Server", statusError, "Not running")
		return r.lines
	}
	r.add("Server", statusOK, fmt.Sprintf("Running (pid %d)", resp.PID))
	r.add("Session", statusInfo, resp.SessionID)
	r.add("Started", statusInfo, formatTimestamp(resp.StartedAt))
	r.add("Check period", statusInfo, duration.Format(resp.PeriodSeconds))
	r.add("Monitored files", statusInfo, strconv.Itoa(resp.Entries))
	r.add("Socket", statusInfo, resp.SocketPath)
	r.add("Lock", statusInfo, resp.LockPath)
	if resp.LogPath != "" {
		r.add("Log", statusInfo, resp.LogPath)
	}

	r.section("Last Check")
	pass := resp.LastPass
	if pass == nil {
		r.add("Pass", statusInfo, "No check has run yet")
		return r.lines
	}
	r.add("Finished", statusInfo, formatTimestamp(pass.Finished))
	r.add("Result", passKind(*pass), passSummaryText(*pass))
	return r.lines
}

func passKind(pass ipc.PassSummary) statusKind {
	if pass.Failed > 0 {
		return statusError
	}
	if pass.Stale > 0 {
		return statusWarn
	}
	return statusOK
}

func preflightLines(results []preflight.Result, colorize bool) []string {
	r := &statusReport{colorize: colorize}
	r.section("Environment")
	for _, res := range results {
		kind := statusOK
		if !res.Passed {
			kind = statusWarn
		}
		r.add(res.Name, kind, res.Detail)
	}
	return r.lines
}

func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return "unknown"
	}
	return t.Local().Format(time.DateTime)
}

// renderStatusLine formats "  Label:   [KIND] message", wrapped in the kind's
// color when colorize is set.
func renderStatusLine(label string, kind statusKind, message string, colorize bool) string {
	style, ok := statusKinds[kind]
	if !ok {
		style = statusKinds[statusInfo]
	}
	value := "[" + style.label + "]"
	if message != "" {
		value += " " + message
	}
	line := fmt.Sprintf("%s%-*s %s", statusIndent, statusLabelWidth, label+":", value)
	if colorize {
		line = style.color + line + ansiReset
	}
	return line
}

func shouldColorize(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
