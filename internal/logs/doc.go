// Package logs reads the tolk log file for the `tolk logs` command.
//
// Tail returns the last N lines or everything after a byte offset, and can
// wait for new lines to arrive. Follow loops over Tail until the context is
// cancelled. Reads are line-bounded so memory use stays flat on large logs.
package logs
