// Package preflight provides readiness checks for the filesystem paths, the
// queue database, and the translation backend that a run depends on.
//
// The CLI "tolk check" command runs RunAll and prints one line per check.
// Model reachability is only checked when the backend supports a health
// probe; backends without one report as skipped.
package preflight
