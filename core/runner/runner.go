// Package runner turns validated sync unit declarations into engine runs.
// It owns the shared store clients, dedupes concurrent triggers of the same
// unit and fans finished runs out to the audit sinks and the webhook.
package runner

import (
	"context"
	"fmt"

	"tablesync/core/audit"
	"tablesync/core/config"
	"tablesync/core/engine"
	"tablesync/feature/glide"
	"tablesync/feature/sheets"
	"tablesync/feature/webhook"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// StoreFactory builds a RecordStore for one endpoint of a unit.
type StoreFactory func(ep config.Endpoint) (engine.RecordStore, error)

// DefaultFactory binds endpoints to the shared sheets and glide clients.
func DefaultFactory(sheetsClient *sheets.Client, glideClient *glide.Client) StoreFactory {
	return func(ep config.Endpoint) (engine.RecordStore, error) {
		switch ep.Kind {
		case config.KindSheet:
			return sheets.NewTab(sheetsClient, ep.Table), nil
		case config.KindGlide:
			return glide.NewTable(glideClient, ep.Table), nil
		default:
			return nil, fmt.Errorf("unknown endpoint kind %q", ep.Kind)
		}
	}
}

// Runner executes sync units by name.
type Runner struct {
	units   map[string]config.Unit
	order   []string
	factory StoreFactory
	sink    audit.Logger
	hook    *webhook.Emitter
	retry   engine.RetryPolicy
	log     *zap.Logger

	// inflight collapses concurrent triggers of the same unit into one run.
	inflight singleflight.Group
}

// New builds a runner over the declared units. The webhook emitter may be
// nil.
func New(units []config.Unit, factory StoreFactory, sink audit.Logger, hook *webhook.Emitter, retry engine.RetryPolicy, log *zap.Logger) *Runner {
	byName := make(map[string]config.Unit, len(units))
	order := make([]string, 0, len(units))
	for _, u := range units {
		byName[u.Name] = u
		order = append(order, u.Name)
	}
	return &Runner{
		units:   byName,
		order:   order,
		factory: factory,
		sink:    sink,
		hook:    hook,
		retry:   retry,
		log:     log,
	}
}

// Names returns the unit names in declaration order.
func (r *Runner) Names() []string {
	return append([]string(nil), r.order...)
}

// Run executes one unit. A trigger arriving while the same unit is already
// running joins the in-flight run instead of starting a second one. The
// RunResult is non-nil whenever the engine started, including aborted runs.
func (r *Runner) Run(ctx context.Context, name string) (*engine.RunResult, error) {
	unit, ok := r.units[name]
	if !ok {
		return nil, fmt.Errorf("unknown sync unit %q", name)
	}

	v, err, shared := r.inflight.Do(name, func() (any, error) {
		return r.runUnit(ctx, unit)
	})
	if shared {
		r.log.Info("joined in-flight run", zap.String("unit", name))
	}

	res, _ := v.(*engine.RunResult)
	return res, err
}

func (r *Runner) runUnit(ctx context.Context, unit config.Unit) (*engine.RunResult, error) {
	local, err := r.factory(unit.Local)
	if err != nil {
		return nil, fmt.Errorf("unit %q: local store: %w", unit.Name, err)
	}
	remote, err := r.factory(unit.Remote)
	if err != nil {
		return nil, fmt.Errorf("unit %q: remote store: %w", unit.Name, err)
	}

	eng, err := engine.New(unit.Name, unit.Mode, local, remote, unit.Mapping, unit.ConflictPolicy, engine.Options{
		Filter:             unit.Filter,
		SkipEmptyOverwrite: unit.SkipEmptyOverwrite,
		Retry:              r.retry,
	}, r.log)
	if err != nil {
		return nil, fmt.Errorf("unit %q: %w", unit.Name, err)
	}

	res, runErr := eng.Run(ctx)
	if res != nil {
		r.sink.Record(ctx, res)
		if r.hook != nil {
			if hookErr := r.hook.RunFinished(ctx, res); hookErr != nil {
				return res, hookErr
			}
		}
	}
	return res, runErr
}

// RunAll executes every unit sequentially in declaration order. A failed unit
// does not stop the ones after it; the aggregate error reports how many
// failed.
func (r *Runner) RunAll(ctx context.Context) ([]*engine.RunResult, error) {
	results := make([]*engine.RunResult, 0, len(r.order))
	failed := 0
	for _, name := range r.order {
		res, err := r.Run(ctx, name)
		if res != nil {
			results = append(results, res)
		}
		if err != nil {
			failed++
			r.log.Error("unit run failed", zap.String("unit", name), zap.Error(err))
		}
		if ctx.Err() != nil {
			return results, ctx.Err()
		}
	}
	if failed > 0 {
		return results, fmt.Errorf("%d of %d units failed", failed, len(r.order))
	}
	return results, nil
}
