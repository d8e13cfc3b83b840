// Package preflight checks the environment the daemon relies on: writable
// runtime and log directories and reachable notification transports.
//
// The CLI "filemonitor status" command prints these results next to the
// daemon state. Checks for disabled transports are skipped.
package preflight
