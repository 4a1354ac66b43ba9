// Package auditdb persists run results to MySQL for durable audit history.
// Runs and their field-level changes land in run_summaries and
// change_details; both survive log rotation and spreadsheet cleanups.
package auditdb

import (
	"context"
	"encoding/json"

	"tablesync/core/audit"
	"tablesync/core/engine"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// valueClipLimit bounds stored old/new values.
const valueClipLimit = 45000

// detailBatchSize bounds rows per insert statement.
const detailBatchSize = 500

// Logger writes run results to the audit database. Failures are logged and
// swallowed: audit must never fail a finished run.
type Logger struct {
	db  *gorm.DB
	log *zap.Logger
}

// NewLogger wraps an open database handle.
func NewLogger(db *gorm.DB, log *zap.Logger) *Logger {
	return &Logger{db: db, log: log}
}

var _ audit.Logger = (*Logger)(nil)

// Migrate creates or updates the audit tables. Called once at startup.
func (l *Logger) Migrate() error {
	return l.db.AutoMigrate(&RunSummary{}, &ChangeDetail{})
}

func (l *Logger) Record(ctx context.Context, res *engine.RunResult) {
	summary := RunSummary{
		RunID:      res.RunID,
		Unit:       res.Unit,
		Mode:       string(res.Mode),
		StartedAt:  res.StartedAt,
		FinishedAt: res.FinishedAt,
		LocalRows:  res.Summary.LocalRows,
		RemoteRows: res.Summary.RemoteRows,
		Creates:    res.Summary.Creates,
		Updates:    res.Summary.Updates,
		Skips:      res.Summary.Skips,
		Conflicts:  res.Summary.Conflicts,
		Applied:    res.Summary.Applied,
		Failed:     res.Summary.Failed,
		Duplicates: len(res.Duplicates),
		Aborted:    res.Aborted,
		Error:      audit.Clip(res.Error, valueClipLimit),
	}
	if err := l.db.WithContext(ctx).Create(&summary).Error; err != nil {
		l.log.Warn("audit summary insert failed", zap.String("run_id", res.RunID), zap.Error(err))
		return
	}

	details := l.details(res)
	if len(details) == 0 {
		return
	}
	if err := l.db.WithContext(ctx).CreateInBatches(details, detailBatchSize).Error; err != nil {
		l.log.Warn("audit detail insert failed", zap.String("run_id", res.RunID), zap.Error(err))
	}
}

func (l *Logger) details(res *engine.RunResult) []ChangeDetail {
	var details []ChangeDetail
	for _, c := range res.Changes.Creates {
		payload, _ := json.Marshal(c.Record.Fields)
		details = append(details, ChangeDetail{
			RunID: res.RunID, Unit: res.Unit, Action: "create",
			SyncKey: c.Key, Target: string(c.Target),
			Field: "(row)", NewValue: audit.Clip(string(payload), valueClipLimit),
		})
	}
	for _, c := range res.Changes.Updates {
		for _, d := range c.Diffs {
			details = append(details, ChangeDetail{
				RunID: res.RunID, Unit: res.Unit, Action: "update",
				SyncKey: c.Key, Target: string(c.Target), Field: d.Field,
				OldValue: audit.Clip(d.Old, valueClipLimit),
				NewValue: audit.Clip(d.New, valueClipLimit),
			})
		}
	}
	for _, c := range res.Changes.Conflicts {
		details = append(details, ChangeDetail{
			RunID: res.RunID, Unit: res.Unit, Action: "conflict",
			SyncKey: c.Key, Reason: c.Reason,
		})
	}
	return details
}
