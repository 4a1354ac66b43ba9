// Package glide talks to the Glide Big Tables function API. A Table adapts
// one table to the engine's RecordStore; the Client underneath paginates
// reads via startAt/next tokens and chunks mutation batches so a large run
// never produces an oversized mutateTables call. All clients can share one
// inflight semaphore to keep concurrent sync units inside the API rate
// budget.
package glide
