package rules

import (
	"context"
	"testing"
	"time"

	"prop-risk-monitor/internal/domain"
	"prop-risk-monitor/internal/mt5"
	"prop-risk-monitor/internal/storage/memory"
)

type evaluatorFixture struct {
	evaluator  *Evaluator
	history    *memory.EquityHistoryStore
	balances   *memory.InitialBalanceStore
	violations *memory.ViolationStore
	loc        *time.Location
}

func newEvaluatorFixture(t *testing.T) *evaluatorFixture {
	t.Helper()

	history := memory.NewEquityHistoryStore()
	balances := memory.NewInitialBalanceStore()
	violations := memory.NewViolationStore()
	recorder := NewRecorder(violations, time.Hour, nil)

	evaluator, err := NewEvaluator(EvaluatorOptions{
		History:  history,
		Balances: balances,
		Recorder: recorder,
		Config:   DefaultConfig(),
	})
	if err != nil {
		t.Fatalf("NewEvaluator failed: %v", err)
	}

	return &evaluatorFixture{
		evaluator:  evaluator,
		history:    history,
		balances:   balances,
		violations: violations,
		loc:        mustLoadLocation(t, "Asia/Tehran"),
	}
}

func (f *evaluatorFixture) seedBaseline(t *testing.T, instanceID string, equity float64, at time.Time) {
	t.Helper()

	err := f.history.Insert(context.Background(), &domain.EquitySnapshot{
		InstanceID: instanceID,
		Balance:    equity,
		Equity:     equity,
		RecordedAt: at.UnixMilli(),
	})
	if err != nil {
		t.Fatalf("seed baseline failed: %v", err)
	}
}

func (f *evaluatorFixture) violationsFor(t *testing.T, instanceID string) []*domain.RuleViolation {
	t.Helper()

	got, err := f.violations.ListByInstance(context.Background(), instanceID)
	if err != nil {
		t.Fatalf("ListByInstance failed: %v", err)
	}
	return got
}

var testInstance = &domain.ActiveInstance{
	InstanceID: "inst-1",
	AccountID:  "acct-1",
	Login:      "1001",
	Server:     "Broker-Demo",
}

func TestEvaluator_DailyWarning(t *testing.T) {
	f := newEvaluatorFixture(t)
	ctx := context.Background()

	now := time.Date(2024, 1, 10, 12, 0, 0, 0, f.loc)
	f.seedBaseline(t, "inst-1", 100000, time.Date(2024, 1, 10, 2, 0, 0, 0, f.loc))

	// 4% down: warning tier, inclusive
	err := f.evaluator.Check(ctx, testInstance, &mt5.AccountSummary{Balance: 100000, Equity: 96000}, now)
	if err != nil {
		t.Fatalf("Check failed: %v", err)
	}

	got := f.violationsFor(t, "inst-1")
	if len(got) != 1 {
		t.Fatalf("Expected 1 violation, got %d", len(got))
	}
	if got[0].Rule != domain.RuleDailyDrawdown {
		t.Errorf("Rule: got %s, want daily_drawdown", got[0].Rule)
	}
	if got[0].Severity != domain.SeverityWarning {
		t.Errorf("Severity: got %s, want warning", got[0].Severity)
	}
	if got[0].Threshold != 5.0 {
		t.Errorf("Threshold: got %f, want the rule threshold 5.0", got[0].Threshold)
	}
	if got[0].CurrentValue != 4.0 {
		t.Errorf("CurrentValue: got %f, want 4.0", got[0].CurrentValue)
	}
}

func TestEvaluator_DailyBreachInclusive(t *testing.T) {
	f := newEvaluatorFixture(t)
	ctx := context.Background()

	now := time.Date(2024, 1, 10, 12, 0, 0, 0, f.loc)
	f.seedBaseline(t, "inst-1", 100000, time.Date(2024, 1, 10, 2, 0, 0, 0, f.loc))

	// Exactly 5% down: breach, not warning, and only one row
	err := f.evaluator.Check(ctx, testInstance, &mt5.AccountSummary{Balance: 100000, Equity: 95000}, now)
	if err != nil {
		t.Fatalf("Check failed: %v", err)
	}

	got := f.violationsFor(t, "inst-1")
	if len(got) != 1 {
		t.Fatalf("Expected exactly 1 violation, got %d", len(got))
	}
	if got[0].Severity != domain.SeverityBreach {
		t.Errorf("Severity: got %s, want breach", got[0].Severity)
	}
	if got[0].CurrentValue != 5.0 {
		t.Errorf("CurrentValue: got %f, want 5.0", got[0].CurrentValue)
	}
}

func TestEvaluator_DailyNoViolation(t *testing.T) {
	f := newEvaluatorFixture(t)
	ctx := context.Background()

	now := time.Date(2024, 1, 10, 12, 0, 0, 0, f.loc)
	f.seedBaseline(t, "inst-1", 100000, time.Date(2024, 1, 10, 2, 0, 0, 0, f.loc))

	err := f.evaluator.Check(ctx, testInstance, &mt5.AccountSummary{Balance: 100000, Equity: 96500}, now)
	if err != nil {
		t.Fatalf("Check failed: %v", err)
	}

	if got := f.violationsFor(t, "inst-1"); len(got) != 0 {
		t.Errorf("Expected no violations at 3.5%% drawdown, got %d", len(got))
	}
}

func TestEvaluator_BaselineIgnoresPreviousDay(t *testing.T) {
	f := newEvaluatorFixture(t)
	ctx := context.Background()

	now := time.Date(2024, 1, 10, 12, 0, 0, 0, f.loc)

	// Record from before the 01:30 boundary must not serve as baseline
	f.seedBaseline(t, "inst-1", 200000, time.Date(2024, 1, 10, 1, 0, 0, 0, f.loc))
	f.seedBaseline(t, "inst-1", 100000, time.Date(2024, 1, 10, 2, 0, 0, 0, f.loc))

	// 4% off 100000, but 52% off the stale 200000
	err := f.evaluator.Check(ctx, testInstance, &mt5.AccountSummary{Balance: 100000, Equity: 96000}, now)
	if err != nil {
		t.Fatalf("Check failed: %v", err)
	}

	got := f.violationsFor(t, "inst-1")
	if len(got) != 1 {
		t.Fatalf("Expected 1 violation, got %d", len(got))
	}
	if got[0].Severity != domain.SeverityWarning {
		t.Errorf("Severity: got %s, want warning computed from today's baseline", got[0].Severity)
	}
}

func TestEvaluator_FirstCycleOfDayUsesOwnSnapshot(t *testing.T) {
	f := newEvaluatorFixture(t)
	ctx := context.Background()

	// No history at all: the snapshot recorded by this very check becomes
	// the earliest record of the day, so the drawdown is zero.
	now := time.Date(2024, 1, 10, 12, 0, 0, 0, f.loc)

	err := f.evaluator.Check(ctx, testInstance, &mt5.AccountSummary{Balance: 100000, Equity: 90000}, now)
	if err != nil {
		t.Fatalf("Check failed: %v", err)
	}

	if got := f.violationsFor(t, "inst-1"); len(got) != 0 {
		t.Errorf("Expected no daily violation on the first cycle of the day, got %d", len(got))
	}

	snaps, err := f.history.ListByInstance(ctx, "inst-1")
	if err != nil {
		t.Fatalf("ListByInstance failed: %v", err)
	}
	if len(snaps) != 1 {
		t.Errorf("Expected the snapshot to be recorded, got %d", len(snaps))
	}
}

func TestEvaluator_NonPositiveBaselineSkipsRule(t *testing.T) {
	f := newEvaluatorFixture(t)
	ctx := context.Background()

	now := time.Date(2024, 1, 10, 12, 0, 0, 0, f.loc)
	f.seedBaseline(t, "inst-1", 0, time.Date(2024, 1, 10, 2, 0, 0, 0, f.loc))

	err := f.evaluator.Check(ctx, testInstance, &mt5.AccountSummary{Balance: 100000, Equity: 90000}, now)
	if err != nil {
		t.Fatalf("Check should not fail on a baseline anomaly: %v", err)
	}

	if got := f.violationsFor(t, "inst-1"); len(got) != 0 {
		t.Errorf("Expected no violations with a zero baseline, got %d", len(got))
	}
}

func TestEvaluator_TotalBreach(t *testing.T) {
	f := newEvaluatorFixture(t)
	ctx := context.Background()

	now := time.Date(2024, 1, 10, 12, 0, 0, 0, f.loc)
	if err := f.balances.Insert(ctx, &domain.InitialBalance{AccountID: "acct-1", Value: 100000}); err != nil {
		t.Fatalf("seed initial balance failed: %v", err)
	}
	// Daily baseline equal to current equity keeps the daily rule quiet
	f.seedBaseline(t, "inst-1", 89000, time.Date(2024, 1, 10, 2, 0, 0, 0, f.loc))

	// 11% below the initial balance
	err := f.evaluator.Check(ctx, testInstance, &mt5.AccountSummary{Balance: 89000, Equity: 89000}, now)
	if err != nil {
		t.Fatalf("Check failed: %v", err)
	}

	got := f.violationsFor(t, "inst-1")
	if len(got) != 1 {
		t.Fatalf("Expected 1 violation, got %d", len(got))
	}
	if got[0].Rule != domain.RuleMaxDrawdown {
		t.Errorf("Rule: got %s, want max_drawdown", got[0].Rule)
	}
	if got[0].Severity != domain.SeverityBreach {
		t.Errorf("Severity: got %s, want breach", got[0].Severity)
	}
	if got[0].Threshold != 10.0 {
		t.Errorf("Threshold: got %f, want 10.0", got[0].Threshold)
	}
}

func TestEvaluator_TotalUnderThreshold(t *testing.T) {
	f := newEvaluatorFixture(t)
	ctx := context.Background()

	now := time.Date(2024, 1, 10, 12, 0, 0, 0, f.loc)
	if err := f.balances.Insert(ctx, &domain.InitialBalance{AccountID: "acct-1", Value: 100000}); err != nil {
		t.Fatalf("seed initial balance failed: %v", err)
	}
	f.seedBaseline(t, "inst-1", 91000, time.Date(2024, 1, 10, 2, 0, 0, 0, f.loc))

	// 9% down: no breach
	err := f.evaluator.Check(ctx, testInstance, &mt5.AccountSummary{Balance: 91000, Equity: 91000}, now)
	if err != nil {
		t.Fatalf("Check failed: %v", err)
	}

	if got := f.violationsFor(t, "inst-1"); len(got) != 0 {
		t.Errorf("Expected no violations at 9%% total drawdown, got %d", len(got))
	}
}

func TestEvaluator_TotalSkippedWithoutInitialBalance(t *testing.T) {
	f := newEvaluatorFixture(t)
	ctx := context.Background()

	now := time.Date(2024, 1, 10, 12, 0, 0, 0, f.loc)
	f.seedBaseline(t, "inst-1", 50000, time.Date(2024, 1, 10, 2, 0, 0, 0, f.loc))

	// Equity far below any plausible initial balance, but no row exists
	err := f.evaluator.Check(ctx, testInstance, &mt5.AccountSummary{Balance: 50000, Equity: 50000}, now)
	if err != nil {
		t.Fatalf("Check failed: %v", err)
	}

	if got := f.violationsFor(t, "inst-1"); len(got) != 0 {
		t.Errorf("Expected no violations without an initial balance row, got %d", len(got))
	}
}

func TestEvaluator_BothRulesCanFireInOneCheck(t *testing.T) {
	f := newEvaluatorFixture(t)
	ctx := context.Background()

	now := time.Date(2024, 1, 10, 12, 0, 0, 0, f.loc)
	if err := f.balances.Insert(ctx, &domain.InitialBalance{AccountID: "acct-1", Value: 100000}); err != nil {
		t.Fatalf("seed initial balance failed: %v", err)
	}
	f.seedBaseline(t, "inst-1", 95000, time.Date(2024, 1, 10, 2, 0, 0, 0, f.loc))

	// 6.3% below today's baseline and 11% below the initial balance
	err := f.evaluator.Check(ctx, testInstance, &mt5.AccountSummary{Balance: 89000, Equity: 89000}, now)
	if err != nil {
		t.Fatalf("Check failed: %v", err)
	}

	got := f.violationsFor(t, "inst-1")
	if len(got) != 2 {
		t.Fatalf("Expected both rules to record, got %d violations", len(got))
	}

	rules := map[domain.RuleType]bool{}
	for _, v := range got {
		rules[v.Rule] = true
		if v.Severity != domain.SeverityBreach {
			t.Errorf("Expected breach severity for %s, got %s", v.Rule, v.Severity)
		}
	}
	if !rules[domain.RuleDailyDrawdown] || !rules[domain.RuleMaxDrawdown] {
		t.Errorf("Expected daily_drawdown and max_drawdown, got %v", rules)
	}
}

func TestEvaluator_SnapshotRecordedEvenWhenQuiet(t *testing.T) {
	f := newEvaluatorFixture(t)
	ctx := context.Background()

	now := time.Date(2024, 1, 10, 12, 0, 0, 0, f.loc)
	f.seedBaseline(t, "inst-1", 100000, time.Date(2024, 1, 10, 2, 0, 0, 0, f.loc))

	err := f.evaluator.Check(ctx, testInstance, &mt5.AccountSummary{Balance: 100000, Equity: 99000}, now)
	if err != nil {
		t.Fatalf("Check failed: %v", err)
	}

	snaps, err := f.history.ListByInstance(ctx, "inst-1")
	if err != nil {
		t.Fatalf("ListByInstance failed: %v", err)
	}
	if len(snaps) != 2 {
		t.Fatalf("Expected seeded plus recorded snapshot, got %d", len(snaps))
	}
	if snaps[1].Equity != 99000 {
		t.Errorf("Recorded equity: got %f, want 99000", snaps[1].Equity)
	}
	if snaps[1].RecordedAt != now.UnixMilli() {
		t.Errorf("RecordedAt: got %d, want %d", snaps[1].RecordedAt, now.UnixMilli())
	}
}
