// Package evaluate implements one evaluation pass over the monitored entries.
//
// A pass stats every entry, compares the modification time against the
// entry's timeout and hands a notification to the sink for each stale or
// unreadable file. Failures stay local to the entry that produced them:
// a missing file yields the "Failed to verify" notification, a sink error is
// logged and dropped, and the pass always reaches the last entry.
package evaluate
