package rules

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"prop-risk-monitor/internal/domain"
	"prop-risk-monitor/internal/mt5"
	"prop-risk-monitor/internal/observability"
	"prop-risk-monitor/internal/secrets"
	"prop-risk-monitor/internal/storage"
)

// Engine is the top-level poll loop. Every cycle it lists active
// instances and drives decrypt -> connect -> summary -> evaluate for each
// one strictly sequentially, so concurrent sessions never pile up against
// the trading platform. A failure in one instance's pipeline is logged
// and does not abort the cycle for the others.
type Engine struct {
	instances storage.InstanceStore
	evaluator *Evaluator
	connector mt5.Connector
	box       *secrets.Box
	interval  time.Duration
	logger    *log.Logger
	now       func() time.Time
}

// EngineOptions contains dependencies for creating an Engine.
type EngineOptions struct {
	Instances storage.InstanceStore
	Evaluator *Evaluator
	Connector mt5.Connector
	Box       *secrets.Box
	Interval  time.Duration
	Logger    *log.Logger

	// Now overrides the clock, for tests. Defaults to time.Now.
	Now func() time.Time
}

// NewEngine creates a new Engine.
func NewEngine(opts EngineOptions) *Engine {
	interval := opts.Interval
	if interval == 0 {
		interval = DefaultConfig().PollInterval
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	now := opts.Now
	if now == nil {
		now = time.Now
	}

	return &Engine{
		instances: opts.Instances,
		evaluator: opts.Evaluator,
		connector: opts.Connector,
		box:       opts.Box,
		interval:  interval,
		logger:    logger,
		now:       now,
	}
}

// CycleStats summarizes one poll cycle.
type CycleStats struct {
	Instances int
	Checked   int
	Failed    int
}

// Run executes poll cycles until ctx is cancelled. A failed cycle is
// logged and retried on the next tick; there is no backoff.
func (e *Engine) Run(ctx context.Context) error {
	e.logger.Printf("Starting rule engine worker, poll interval %v", e.interval)

	for {
		start := time.Now()
		stats, err := e.RunCycle(ctx, e.now())
		if err != nil {
			e.logger.Printf("Cycle error: %v", err)
			observability.RecordCycle("error", time.Since(start).Seconds())
		} else {
			e.logger.Printf("Checked %d instances (%d failed)", stats.Instances, stats.Failed)
			observability.RecordCycle("ok", time.Since(start).Seconds())
			observability.UpdateLastSuccessfulCycle(float64(e.now().Unix()))
			observability.UpdateActiveInstances(stats.Instances)
		}

		select {
		case <-ctx.Done():
			e.logger.Println("Rule engine stopping...")
			return ctx.Err()
		case <-time.After(e.interval):
		}
	}
}

// RunCycle runs one poll cycle at the given instant. If listing the
// active instances fails the whole cycle is abandoned; otherwise each
// instance is evaluated in turn and per-instance failures are isolated.
func (e *Engine) RunCycle(ctx context.Context, now time.Time) (CycleStats, error) {
	var stats CycleStats

	instances, err := e.instances.ListActive(ctx)
	if err != nil {
		return stats, fmt.Errorf("list active instances: %w", err)
	}
	stats.Instances = len(instances)

	for _, inst := range instances {
		if err := e.checkInstance(ctx, inst, now); err != nil {
			e.logger.Printf("Rule check error for %s (login %s): %v", inst.InstanceID, inst.Login, err)
			observability.RecordCheckError(classifyError(err))
			stats.Failed++
			continue
		}
		observability.RecordInstanceChecked()
		stats.Checked++
	}

	return stats, nil
}

// checkInstance runs the full per-instance pipeline:
// decrypt -> connect -> summary -> evaluate.
func (e *Engine) checkInstance(ctx context.Context, inst *domain.ActiveInstance, now time.Time) error {
	password, err := e.box.Decrypt(inst.EncryptedInvestorPass)
	if err != nil {
		return fmt.Errorf("decrypt investor password: %w", err)
	}

	// The bridge does not promise session persistence, so reconnect
	// before every fetch.
	start := time.Now()
	if err := e.connector.Connect(ctx, inst.Login, password, inst.Server); err != nil {
		return err
	}
	observability.RecordBridgeLatency("connect", time.Since(start).Seconds())

	start = time.Now()
	summary, err := e.connector.AccountSummary(ctx, inst.Login)
	if err != nil {
		return err
	}
	observability.RecordBridgeLatency("summary", time.Since(start).Seconds())

	return e.evaluator.Check(ctx, inst, summary, now)
}

// classifyError maps a per-instance failure to a metrics label.
func classifyError(err error) string {
	switch {
	case errors.Is(err, secrets.ErrDecryption):
		return "decryption"
	case errors.Is(err, mt5.ErrConnection):
		return "connection"
	case errors.Is(err, mt5.ErrSummaryFetch):
		return "summary_fetch"
	default:
		return "persistence"
	}
}
