// Package language provides language code normalization and display names.
//
// Source and target languages arrive from configuration and CLI flags in
// several shapes (ISO 639-1, ISO 639-2, English words, BCP 47 tags). This
// package folds them into one canonical code for storage and output file
// names, and produces the English display names chat-style models need in
// their prompts.
package language
