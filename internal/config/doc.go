// Package config loads, normalizes, and validates tolk configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files (or the legacy flat config.json), and honours
// environment fallbacks such as TOLK_API_KEY. Relative directories resolve
// against the working directory so the resources/output/database layout
// works out of the box.
//
// Always obtain settings through this package so downstream code receives
// normalized language codes, absolute paths, and clear validation errors.
package config
