// Package main hosts the tolk CLI entrypoint and command graph.
//
// Running tolk without a subcommand translates the configured document:
// the source is split into chunks, each chunk is sent to the configured
// model, and the translations are joined into the output directory. An
// interrupted or failed run resumes from the first untranslated chunk the
// next time it is invoked.
//
// The remaining commands inspect and maintain that state (status, reset,
// chunk, check, logs), scaffold configuration (config init, config
// validate, keyring set), or probe ntfy delivery (test-notify). Keep this package lean: behavior lives in the internal
// packages and is surfaced here through flags.
package main
