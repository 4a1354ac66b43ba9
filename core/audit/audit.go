package audit

import (
	"context"
	"fmt"

	"tablesync/core/engine"

	"go.uber.org/zap"
)

// Logger receives the result of one finished (or aborted) engine run.
// Implementations must be fire-and-forget from the caller's perspective:
// they swallow and log their own failures.
type Logger interface {
	Record(ctx context.Context, res *engine.RunResult)
}

// Multi fans a run result out to several sinks in order.
type Multi []Logger

func (m Multi) Record(ctx context.Context, res *engine.RunResult) {
	for _, l := range m {
		l.Record(ctx, res)
	}
}

// ZapLogger writes the run summary and per-record outcomes to the
// application log. It is always installed; durable sinks are optional.
type ZapLogger struct {
	Log *zap.Logger
}

func (z *ZapLogger) Record(_ context.Context, res *engine.RunResult) {
	log := z.Log.With(
		zap.String("run_id", res.RunID),
		zap.String("unit", res.Unit),
		zap.String("mode", string(res.Mode)),
	)

	log.Info("run summary",
		zap.Int("local_rows", res.Summary.LocalRows),
		zap.Int("remote_rows", res.Summary.RemoteRows),
		zap.Int("creates", res.Summary.Creates),
		zap.Int("updates", res.Summary.Updates),
		zap.Int("skips", res.Summary.Skips),
		zap.Int("conflicts", res.Summary.Conflicts),
		zap.Int("applied", res.Summary.Applied),
		zap.Int("failed", res.Summary.Failed),
		zap.Bool("aborted", res.Aborted),
	)

	for _, c := range res.Changes.Conflicts {
		log.Warn("unresolved conflict", zap.String("key", c.Key), zap.String("reason", c.Reason))
	}
	for _, o := range res.Outcomes {
		if o.Status == engine.StatusFailed {
			log.Warn("record failed",
				zap.String("key", o.Key),
				zap.String("op", string(o.Op)),
				zap.Int("attempts", o.Attempts),
				zap.String("error", o.Error),
			)
		}
	}
}

// Clip bounds a value for audit storage. Oversized cells (file lists,
// embedded JSON) otherwise blow up the audit payload.
func Clip(s string, limit int) string {
	if limit <= 0 || len(s) <= limit {
		return s
	}
	return s[:limit] + fmt.Sprintf("...(%dc)", len(s))
}
