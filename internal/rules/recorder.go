package rules

import (
	"context"
	"fmt"
	"log"
	"time"

	"prop-risk-monitor/internal/domain"
	"prop-risk-monitor/internal/observability"
	"prop-risk-monitor/internal/storage"
)

// Recorder persists violation candidates, suppressing repeats of the same
// (instance, rule, severity) tuple inside the dedup window. A condition
// that persists across many poll cycles inside one window yields exactly
// one row; one recurring after the window elapses yields a new row.
type Recorder struct {
	store  storage.ViolationStore
	window time.Duration
	logger *log.Logger
}

// NewRecorder creates a new Recorder.
func NewRecorder(store storage.ViolationStore, window time.Duration, logger *log.Logger) *Recorder {
	if window == 0 {
		window = time.Hour
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Recorder{store: store, window: window, logger: logger}
}

// Record persists a violation candidate unless an equivalent one was
// detected within the trailing dedup window ending at now.
func (r *Recorder) Record(ctx context.Context, instanceID string, rule domain.RuleType, threshold, current float64, severity domain.Severity, now time.Time) error {
	sinceMs := now.Add(-r.window).UnixMilli()

	exists, err := r.store.ExistsSince(ctx, instanceID, rule, severity, sinceMs)
	if err != nil {
		return fmt.Errorf("check recent violations: %w", err)
	}
	if exists {
		observability.RecordViolationSuppressed(string(rule), string(severity))
		return nil
	}

	v := &domain.RuleViolation{
		InstanceID:   instanceID,
		Rule:         rule,
		Threshold:    threshold,
		CurrentValue: current,
		Severity:     severity,
		DetectedAt:   now.UnixMilli(),
	}
	if err := r.store.Insert(ctx, v); err != nil {
		return fmt.Errorf("insert violation: %w", err)
	}

	r.logger.Printf("VIOLATION DETECTED: %s on %s - %s (%.2f%%)", rule, instanceID, severity, current)
	observability.RecordViolation(string(rule), string(severity))
	return nil
}
