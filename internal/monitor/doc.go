// Package monitor holds the in-memory registry of watched files.
//
// An Entry describes one file, its staleness threshold and the notification
// that is raised once the file has been left untouched for longer than the
// threshold. The Registry keeps entries in insertion order keyed by their
// canonical path. It performs no locking: the daemon event loop is its only
// owner, and everything that leaves the loop is a copy.
package monitor
