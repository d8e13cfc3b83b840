// Package logging builds the slog loggers used by filemonitor.
//
// New picks a console or JSON handler and writes to a terminal, a run log file
// or both. Records from one daemon run share a session_id, which only the JSON
// output shows. WarnWithContext and ErrorWithContext fill in the event_type,
// error_hint and impact keys that operators filter on. CleanupOldLogs prunes
// run logs past the retention window.
package logging
