package rules

import "time"

// PrevResetBoundary returns the most recent instant T such that T equals
// hour:minute local civil time in loc on some calendar day and T <= now.
// If the wall time at now is before hour:minute, the boundary falls on the
// previous calendar day in loc.
func PrevResetBoundary(now time.Time, loc *time.Location, hour, minute int) time.Time {
	local := now.In(loc)
	boundary := time.Date(local.Year(), local.Month(), local.Day(), hour, minute, 0, 0, loc)
	if boundary.After(now) {
		boundary = boundary.AddDate(0, 0, -1)
	}
	return boundary
}

// DrawdownPct returns the percentage decline of current below baseline.
// Positive means current fell below baseline; negative values never cross
// any threshold. The caller must guard baseline <= 0.
func DrawdownPct(baseline, current float64) float64 {
	return (baseline - current) / baseline * 100
}
