// Package logs reads the daemon's log files for "filemonitor logs".
//
// Tail returns the last lines of a file with bounded memory. Follow polls for
// appended lines and starts over when the file is truncated or when the
// filemonitor.log pointer is moved to a new run's file.
package logs
