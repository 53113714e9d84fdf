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
	"prop-risk-monitor/internal/storage"
)

// Evaluator runs the drawdown rules for one instance per cycle. It always
// appends the current snapshot first, so history is current for the next
// cycle's baseline lookup even when no violation is found.
type Evaluator struct {
	history  storage.EquityHistoryStore
	balances storage.InitialBalanceStore
	recorder *Recorder
	cfg      Config
	loc      *time.Location
	logger   *log.Logger
}

// EvaluatorOptions contains dependencies for creating an Evaluator.
type EvaluatorOptions struct {
	History  storage.EquityHistoryStore
	Balances storage.InitialBalanceStore
	Recorder *Recorder
	Config   Config
	Logger   *log.Logger
}

// NewEvaluator creates a new Evaluator. It resolves the reset time zone
// once at construction.
func NewEvaluator(opts EvaluatorOptions) (*Evaluator, error) {
	loc, err := time.LoadLocation(opts.Config.ResetTimeZone)
	if err != nil {
		return nil, fmt.Errorf("load reset time zone %q: %w", opts.Config.ResetTimeZone, err)
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	return &Evaluator{
		history:  opts.History,
		balances: opts.Balances,
		recorder: opts.Recorder,
		cfg:      opts.Config,
		loc:      loc,
		logger:   logger,
	}, nil
}

// Check records the current snapshot and evaluates both drawdown rules
// for the instance at now.
func (e *Evaluator) Check(ctx context.Context, inst *domain.ActiveInstance, summary *mt5.AccountSummary, now time.Time) error {
	snap := &domain.EquitySnapshot{
		InstanceID: inst.InstanceID,
		Balance:    summary.Balance,
		Equity:     summary.Equity,
		RecordedAt: now.UnixMilli(),
	}
	if err := e.history.Insert(ctx, snap); err != nil {
		return fmt.Errorf("record equity snapshot: %w", err)
	}
	observability.RecordSnapshot()

	if err := e.checkDailyDrawdown(ctx, inst, summary, now); err != nil {
		return err
	}
	return e.checkTotalDrawdown(ctx, inst, summary, now)
}

// checkDailyDrawdown evaluates equity decline since the daily reset boundary.
func (e *Evaluator) checkDailyDrawdown(ctx context.Context, inst *domain.ActiveInstance, summary *mt5.AccountSummary, now time.Time) error {
	boundary := PrevResetBoundary(now, e.loc, e.cfg.ResetHour, e.cfg.ResetMinute)

	// First observation of the day: fall back to the current balance,
	// which yields a degenerate drawdown for this cycle.
	baseline := summary.Balance
	first, err := e.history.FirstSince(ctx, inst.InstanceID, boundary.UnixMilli())
	switch {
	case err == nil:
		baseline = first.Equity
	case errors.Is(err, storage.ErrNotFound):
	default:
		return fmt.Errorf("load daily baseline: %w", err)
	}

	if baseline <= 0 {
		e.logger.Printf("Baseline anomaly for %s: daily baseline %.2f, skipping daily_drawdown", inst.InstanceID, baseline)
		observability.RecordBaselineAnomaly(string(domain.RuleDailyDrawdown))
		return nil
	}

	dd := DrawdownPct(baseline, summary.Equity)
	switch {
	case dd >= e.cfg.DailyBreachPct:
		return e.recorder.Record(ctx, inst.InstanceID, domain.RuleDailyDrawdown, e.cfg.DailyBreachPct, dd, domain.SeverityBreach, now)
	case dd >= e.cfg.DailyWarningPct:
		return e.recorder.Record(ctx, inst.InstanceID, domain.RuleDailyDrawdown, e.cfg.DailyBreachPct, dd, domain.SeverityWarning, now)
	}
	return nil
}

// checkTotalDrawdown evaluates equity decline against the immutable
// initial balance. The rule only applies once an initial balance is
// recorded for the owning account.
func (e *Evaluator) checkTotalDrawdown(ctx context.Context, inst *domain.ActiveInstance, summary *mt5.AccountSummary, now time.Time) error {
	initial, err := e.balances.GetByAccountID(ctx, inst.AccountID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("load initial balance: %w", err)
	}

	if initial.Value <= 0 {
		e.logger.Printf("Baseline anomaly for %s: initial balance %.2f, skipping max_drawdown", inst.InstanceID, initial.Value)
		observability.RecordBaselineAnomaly(string(domain.RuleMaxDrawdown))
		return nil
	}

	dd := DrawdownPct(initial.Value, summary.Equity)
	if dd >= e.cfg.TotalBreachPct {
		return e.recorder.Record(ctx, inst.InstanceID, domain.RuleMaxDrawdown, e.cfg.TotalBreachPct, dd, domain.SeverityBreach, now)
	}
	return nil
}
