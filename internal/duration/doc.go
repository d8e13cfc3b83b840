// Package duration parses the compact interval strings accepted by the CLI and
// configuration, such as "90s", "15m" or "1d2h3m4s", into whole seconds.
//
// A specification is one or more <digits><unit> fields where the unit is one
// of s, m, h or d. Fields may repeat and appear in any order; they are summed.
// Whitespace between fields is ignored. Zero is a valid parse result: callers
// that need a strictly positive interval use ParsePositive, which reports
// ErrNonPositiveDuration separately from ErrMalformedDuration.
package duration
