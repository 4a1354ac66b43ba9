// Package server holds configuration for the HTTP trigger surface. The
// server itself is assembled in cmd/start.go; sync units normally run from
// cron via the CLI, but the trigger endpoints allow on-demand runs.
package server
