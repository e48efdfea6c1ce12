// Package logging builds the slog loggers used across tolk.
//
// Two formats are available: "console" renders a readable header line per
// record (component, batch, chunk) followed by indented fields, and "json"
// emits one object per line. When paths.log_dir is set, a JSON copy of every
// record is appended to tolk.log as well.
//
// Context helpers pull batch id, chunk id, and workflow stage from a context
// so call sites only attach the fields that are specific to the event.
package logging
