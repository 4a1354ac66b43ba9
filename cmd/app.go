package cmd

import (
	"context"
	"time"

	"tablesync/core/archive"
	"tablesync/core/audit"
	"tablesync/core/config"
	"tablesync/core/database"
	"tablesync/core/engine"
	"tablesync/core/logger"
	"tablesync/core/runner"
	"tablesync/feature/auditdb"
	"tablesync/feature/glide"
	"tablesync/feature/sheets"
	"tablesync/feature/webhook"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
)

// app bundles the wired runtime shared by the sync and start commands.
type app struct {
	cfg    *config.Config
	log    *zap.Logger
	runner *runner.Runner
}

// bootstrap loads configuration and wires clients, audit sinks and the
// runner. Optional sinks (database, archive, sheet audit tabs) degrade to
// warnings when unavailable; the sync itself must not depend on them.
func bootstrap() (*app, error) {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		return nil, err
	}

	logg, err := logger.New(&cfg.Log)
	if err != nil {
		return nil, err
	}
	zap.ReplaceGlobals(logg)

	units, err := cfg.Units()
	if err != nil {
		return nil, err
	}

	sheetsClient := sheets.NewClient(cfg.Sheets)

	inflight := cfg.Glide.MaxInflight
	if inflight <= 0 {
		inflight = 4
	}
	glideClient := glide.NewClient(cfg.Glide, semaphore.NewWeighted(int64(inflight)))

	sinks := audit.Multi{&audit.ZapLogger{Log: logg}}

	if cfg.Database.Enabled {
		if db, err := database.Connect(cfg.Database); err != nil {
			logg.Warn("audit database unavailable", zap.Error(err))
		} else {
			dbSink := auditdb.NewLogger(db, logg)
			if err := dbSink.Migrate(); err != nil {
				logg.Warn("audit database migration failed", zap.Error(err))
			} else {
				sinks = append(sinks, dbSink)
				logg.Info("audit database connected")
			}
		}
	}

	if cfg.Archive.Enabled {
		client, err := archive.NewClient(cfg.Archive)
		if err != nil {
			logg.Warn("archive storage unavailable", zap.Error(err))
		} else {
			store := archive.NewStore(client, cfg.Archive.Bucket, logg)
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			err := store.EnsureBucket(ctx, cfg.Archive.Region)
			cancel()
			if err != nil {
				logg.Warn("archive bucket unavailable", zap.Error(err))
			} else {
				sinks = append(sinks, store)
				logg.Info("run archive enabled", zap.String("bucket", cfg.Archive.Bucket))
			}
		}
	}

	if cfg.Sheets.SpreadsheetID != "" && cfg.Sheets.AuditDetailsTab != "" {
		sheetAudit := sheets.NewAuditLogger(sheetsClient, cfg.Sheets, logg)
		ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
		err := sheetAudit.EnsureTabs(ctx)
		cancel()
		if err != nil {
			logg.Warn("sheet audit tabs unavailable", zap.Error(err))
		} else {
			sinks = append(sinks, sheetAudit)
		}
	}

	emitter := webhook.NewEmitter(cfg.Webhook, logg)
	if !emitter.Enabled() {
		emitter = nil
	}

	retry := engine.RetryPolicy{
		Attempts: cfg.Sync.RetryAttempts,
		Backoff:  time.Duration(cfg.Sync.RetryBackoffMS) * time.Millisecond,
	}

	r := runner.New(units, runner.DefaultFactory(sheetsClient, glideClient), sinks, emitter, retry, logg)

	return &app{cfg: cfg, log: logg, runner: r}, nil
}
