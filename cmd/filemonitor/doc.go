// Package main hosts the filemonitor CLI entrypoint and command graph.
//
// The Cobra command tree turns terminal invocations into IPC calls against
// the per-session daemon: registering and removing files, listing the
// registry, changing the polling period and stopping the server. The hidden
// "daemon" subcommand is what "start --detach" launches in the background.
//
// Argument checking that needs the caller's filesystem view (path
// canonicalization, duration parsing) happens here before a request is sent.
package main
