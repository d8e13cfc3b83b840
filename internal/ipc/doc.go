// Package ipc exposes the daemon over JSON-RPC on a Unix domain socket and
// ships the matching client used by the CLI.
//
// The socket lives in the per-session runtime directory, so the socket path is
// the "well-known name" clients use to find the single daemon of a session.
// Request and response DTOs are defined here; the server converts them to and
// from daemon/monitor types so the wire format stays independent of internals.
package ipc
