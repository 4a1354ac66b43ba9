// Package archive persists full run reports to S3-compatible object
// storage, one JSON object per run. It is an optional audit sink: the
// spreadsheet-facing audit tabs hold the human-readable trail, the archive
// holds the complete machine-readable one.
package archive
