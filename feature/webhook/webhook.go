// Package webhook emits run lifecycle events to an external HTTP endpoint.
// Emission is best-effort: unless strict mode is on, a dead endpoint never
// fails a sync run.
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"tablesync/core/engine"

	"go.uber.org/zap"
)

// Config holds webhook emitter settings.
type Config struct {
	// URL is the endpoint to POST events to. Empty disables emission.
	URL string `mapstructure:"url" default:""`
	// Secret is sent in the x-sync-secret header when set.
	Secret string `mapstructure:"secret" default:""`
	// TimeoutSeconds is the per-attempt request timeout.
	TimeoutSeconds int `mapstructure:"timeout_seconds" default:"8"`
	// Retries is how many times a failed emission is retried.
	Retries int `mapstructure:"retries" default:"2"`
	// Strict propagates emission failures to the caller.
	Strict bool `mapstructure:"strict" default:"false"`
}

// Event is the wire shape of one webhook delivery.
type Event struct {
	EventType string         `json:"event_type"`
	Payload   map[string]any `json:"payload"`
	Meta      map[string]any `json:"meta"`
}

// Emitter posts events with bounded retries.
type Emitter struct {
	cfg  Config
	http *http.Client
	log  *zap.Logger
}

// NewEmitter builds an emitter from config.
func NewEmitter(cfg Config, log *zap.Logger) *Emitter {
	timeout := cfg.TimeoutSeconds
	if timeout <= 0 {
		timeout = 8
	}
	return &Emitter{
		cfg:  cfg,
		http: &http.Client{Timeout: time.Duration(timeout) * time.Second},
		log:  log,
	}
}

// Enabled reports whether an endpoint is configured.
func (e *Emitter) Enabled() bool { return e.cfg.URL != "" }

// RunFinished emits a run_finished (or run_aborted) event for a completed
// engine run. The returned error is always nil unless strict mode is on.
func (e *Emitter) RunFinished(ctx context.Context, res *engine.RunResult) error {
	eventType := "run_finished"
	if res.Aborted {
		eventType = "run_aborted"
	}
	return e.Emit(ctx, Event{
		EventType: eventType,
		Payload: map[string]any{
			"run_id":    res.RunID,
			"unit":      res.Unit,
			"mode":      string(res.Mode),
			"creates":   res.Summary.Creates,
			"updates":   res.Summary.Updates,
			"skips":     res.Summary.Skips,
			"conflicts": res.Summary.Conflicts,
			"applied":   res.Summary.Applied,
			"failed":    res.Summary.Failed,
			"error":     res.Error,
		},
		Meta: map[string]any{
			"started_at":  res.StartedAt.Format(time.RFC3339),
			"finished_at": res.FinishedAt.Format(time.RFC3339),
		},
	})
}

// Emit posts one event. Attempts = retries + the first try, with linearly
// growing sleeps between attempts.
func (e *Emitter) Emit(ctx context.Context, ev Event) error {
	if !e.Enabled() {
		return nil
	}
	if ev.Payload == nil {
		ev.Payload = map[string]any{}
	}
	if ev.Meta == nil {
		ev.Meta = map[string]any{}
	}

	body, err := json.Marshal(ev)
	if err != nil {
		return e.fail(ev.EventType, err)
	}

	var lastErr error
	for attempt := 1; attempt <= e.cfg.Retries+1; attempt++ {
		lastErr = e.post(ctx, body)
		if lastErr == nil {
			return nil
		}
		if attempt <= e.cfg.Retries {
			select {
			case <-time.After(time.Duration(attempt) * 400 * time.Millisecond):
			case <-ctx.Done():
				return e.fail(ev.EventType, ctx.Err())
			}
		}
	}
	return e.fail(ev.EventType, lastErr)
}

func (e *Emitter) post(ctx context.Context, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.cfg.URL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if e.cfg.Secret != "" {
		req.Header.Set("x-sync-secret", e.cfg.Secret)
	}

	resp, err := e.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook status %d", resp.StatusCode)
	}
	return nil
}

func (e *Emitter) fail(eventType string, err error) error {
	if e.cfg.Strict {
		return fmt.Errorf("webhook %s: %w", eventType, err)
	}
	e.log.Warn("webhook emission failed", zap.String("event_type", eventType), zap.Error(err))
	return nil
}
