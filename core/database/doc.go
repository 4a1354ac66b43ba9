// Package database manages the optional MySQL connection used by the
// database audit sink. Sync runs work without it; when configured, run
// summaries and per-record change details are persisted per run.
package database
