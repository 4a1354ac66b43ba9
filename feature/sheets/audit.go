package sheets

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"tablesync/core/audit"
	"tablesync/core/engine"

	"go.uber.org/zap"
)

// cellClipLimit bounds audit cell size; Sheets rejects cells over 50k chars.
const cellClipLimit = 45000

// appendChunkRows bounds rows per append call to stay under request limits.
const appendChunkRows = 1000

var detailHeader = []string{
	"timestamp", "run_id", "action", "key", "target", "column", "old_value", "new_value",
}

var summaryHeader = []string{
	"timestamp", "run_id", "unit", "mode", "local_rows", "remote_rows",
	"creates", "updates", "skips", "conflicts", "applied", "failed",
	"result", "error_message",
}

// AuditLogger appends per-field change rows and one summary row per run to
// dedicated spreadsheet tabs. Failures are logged and swallowed: audit must
// never fail a finished run.
type AuditLogger struct {
	client     *Client
	detailsTab string
	summaryTab string
	log        *zap.Logger
}

// NewAuditLogger builds a sheet audit sink from config.
func NewAuditLogger(client *Client, cfg Config, log *zap.Logger) *AuditLogger {
	return &AuditLogger{
		client:     client,
		detailsTab: cfg.AuditDetailsTab,
		summaryTab: cfg.AuditSummaryTab,
		log:        log,
	}
}

var _ audit.Logger = (*AuditLogger)(nil)

func (a *AuditLogger) Record(ctx context.Context, res *engine.RunResult) {
	ts := res.StartedAt.Format("2006-01-02 15:04:05")

	var details [][]string
	for _, c := range res.Changes.Creates {
		payload, _ := json.Marshal(c.Record.Fields)
		details = append(details, []string{
			ts, res.RunID, "create", c.Key, string(c.Target),
			"(row)", "", audit.Clip(string(payload), cellClipLimit),
		})
	}
	for _, c := range res.Changes.Updates {
		for _, d := range c.Diffs {
			details = append(details, []string{
				ts, res.RunID, "update", c.Key, string(c.Target),
				d.Field, audit.Clip(d.Old, cellClipLimit), audit.Clip(d.New, cellClipLimit),
			})
		}
	}
	for _, c := range res.Changes.Conflicts {
		details = append(details, []string{
			ts, res.RunID, "conflict", c.Key, "", "", "", c.Reason,
		})
	}

	if err := a.appendChunked(ctx, a.detailsTab, details); err != nil {
		a.log.Warn("audit detail append failed", zap.String("run_id", res.RunID), zap.Error(err))
	}

	result := "ok"
	if res.Aborted {
		result = "aborted"
	} else if res.Summary.Failed > 0 {
		result = "partial"
	}
	summary := []string{
		ts, res.RunID, res.Unit, string(res.Mode),
		strconv.Itoa(res.Summary.LocalRows), strconv.Itoa(res.Summary.RemoteRows),
		strconv.Itoa(res.Summary.Creates), strconv.Itoa(res.Summary.Updates),
		strconv.Itoa(res.Summary.Skips), strconv.Itoa(res.Summary.Conflicts),
		strconv.Itoa(res.Summary.Applied), strconv.Itoa(res.Summary.Failed),
		result, audit.Clip(res.Error, cellClipLimit),
	}
	if err := a.appendChunked(ctx, a.summaryTab, [][]string{summary}); err != nil {
		a.log.Warn("audit summary append failed", zap.String("run_id", res.RunID), zap.Error(err))
	}
}

func (a *AuditLogger) appendChunked(ctx context.Context, tab string, rows [][]string) error {
	for start := 0; start < len(rows); start += appendChunkRows {
		end := start + appendChunkRows
		if end > len(rows) {
			end = len(rows)
		}
		rng := fmt.Sprintf("'%s'!A1", tab)
		if _, err := a.client.AppendValues(ctx, rng, rows[start:end]); err != nil {
			return err
		}
	}
	return nil
}

// EnsureTabs writes the audit headers so a fresh spreadsheet gets labeled
// columns. Called once at startup.
func (a *AuditLogger) EnsureTabs(ctx context.Context) error {
	for tab, header := range map[string][]string{
		a.detailsTab: detailHeader,
		a.summaryTab: summaryHeader,
	} {
		rows, err := a.client.GetValues(ctx, fmt.Sprintf("'%s'!1:1", tab))
		if err != nil {
			return err
		}
		if len(rows) > 0 && len(rows[0]) > 0 {
			continue
		}
		rng := fmt.Sprintf("'%s'!A1:%s1", tab, colLetter(len(header)))
		if err := a.client.UpdateValues(ctx, rng, [][]string{header}); err != nil {
			return err
		}
	}
	return nil
}
