package domain

// RuleType identifies a risk rule.
type RuleType string

// Risk rule types.
const (
	RuleDailyDrawdown RuleType = "daily_drawdown"
	RuleMaxDrawdown   RuleType = "max_drawdown"
)

// Severity classifies how far past a limit the account has moved.
type Severity string

// Violation severities.
const (
	SeverityWarning Severity = "warning" // approaching the limit
	SeverityBreach  Severity = "breach"  // limit exceeded
)

// RuleViolation is a detected breach or warning. Created by the violation
// recorder; never mutated or deleted by this service.
// Corresponds to rule_violations table in PostgreSQL.
type RuleViolation struct {
	ViolationID  string // assigned by the store on insert
	InstanceID   string
	Rule         RuleType
	Threshold    float64 // configured breach threshold for the rule, percent
	CurrentValue float64 // observed drawdown, percent
	Severity     Severity
	DetectedAt   int64 // Unix timestamp in milliseconds
}
