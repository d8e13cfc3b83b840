// Package notifications delivers stale-file alerts to the user.
//
// Every transport implements the small Sink interface. The desktop sink calls
// org.freedesktop.Notifications over the session D-Bus; the ntfy sink
// publishes to an ntfy topic when one is configured. NewService assembles the
// configured transports into a fan-out sink so the evaluation pass depends on
// one value only and never needs to know how many transports exist.
package notifications
