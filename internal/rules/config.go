// Package rules implements the risk-rule evaluation engine: the periodic
// worker that polls monitored instances, records equity snapshots,
// computes drawdown against rolling and fixed baselines, and records
// deduplicated violations.
package rules

import "time"

// Config holds the tunables of the rule engine.
type Config struct {
	// PollInterval is the pause between poll cycles.
	PollInterval time.Duration

	// DailyWarningPct and DailyBreachPct classify daily drawdown.
	// Both boundaries are inclusive.
	DailyWarningPct float64
	DailyBreachPct  float64

	// TotalBreachPct classifies total drawdown against the initial
	// balance. There is no warning tier for this rule.
	TotalBreachPct float64

	// ResetTimeZone, ResetHour, and ResetMinute define the daily reset
	// boundary in local civil time. The default aligns with the trading
	// platform's trading-day rollover, which is not UTC midnight.
	ResetTimeZone string
	ResetHour     int
	ResetMinute   int

	// DedupWindow is the trailing window inside which a repeated
	// (instance, rule, severity) violation is suppressed.
	DedupWindow time.Duration
}

// DefaultConfig returns the production configuration.
func DefaultConfig() Config {
	return Config{
		PollInterval:    60 * time.Second,
		DailyWarningPct: 4.0,
		DailyBreachPct:  5.0,
		TotalBreachPct:  10.0,
		ResetTimeZone:   "Asia/Tehran",
		ResetHour:       1,
		ResetMinute:     30,
		DedupWindow:     time.Hour,
	}
}
