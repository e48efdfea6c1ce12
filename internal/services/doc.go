// Package services defines shared utilities consumed by the workflow and the
// translation backends.
//
// Key responsibilities:
//   - Context helpers that stamp batch IDs, chunk IDs, and stage names for
//     logging.
//   - Structured error markers plus the Wrap helper so backends can tag
//     failures as transient (worth retrying) or permanent.
//
// Backends classify their own failures; the workflow only asks IsRetryable.
package services
