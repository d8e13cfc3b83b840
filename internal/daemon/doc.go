// Package daemon owns the monitored-file registry and the polling scheduler.
//
// A single goroutine (Run) processes timer ticks and control requests one at a
// time. Control methods such as AddFile or SetTimer may be called from any
// goroutine; they hand a closure to the loop and block until it has run, so
// the registry and scheduler are never touched concurrently. Acquire enforces
// one daemon per user session through an flock on the runtime directory.
//
// Transport lives elsewhere: internal/ipc exposes these methods over a Unix
// socket and the optional HTTP status endpoint here only reads.
package daemon
