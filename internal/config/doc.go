// Package config loads, normalizes, and validates filemonitor configuration.
//
// It supplies defaults, expands user paths (including tilde shortcuts), reads
// TOML files and honours XDG_RUNTIME_DIR when placing the daemon socket and
// lock. The Config type centralizes every knob the daemon and CLI need so the
// runtime directory, scheduler period and notification sinks are resolved in
// one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, a parsed default period, and clear validation errors.
package config
