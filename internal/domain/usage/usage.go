package usage

import "fmt"

// Period is the aggregation granularity.
type Period string

// Aggregation period constants.
const (
	PeriodDay   Period = "day"
	PeriodMonth Period = "month"
)

// ParsePeriod maps a query parameter to a Period. Empty selects PeriodMonth.
func ParsePeriod(s string) (Period, error) {
	switch Period(s) {
	case "", PeriodMonth:
		return PeriodMonth, nil
	case PeriodDay:
		return PeriodDay, nil
	default:
		return "", fmt.Errorf("invalid period %q (want day or month)", s)
	}
}

// Report is a completion token usage report for a time period.
type Report struct {
	period      Period
	periodStart int64
	periodEnd   int64
	calls       int64
	tokens      int64
	limit       int64
	remaining   int64
}

// NewReport creates a usage report. Timestamps are unix millis; limit 0 means unlimited.
func NewReport(period Period, start, end, calls, tokens, limit, remaining int64) Report {
	return Report{
		period:      period,
		periodStart: start,
		periodEnd:   end,
		calls:       calls,
		tokens:      tokens,
		limit:       limit,
		remaining:   remaining,
	}
}

// Period returns the aggregation granularity.
func (r *Report) Period() Period { return r.period }

// PeriodStart returns the period start timestamp (unix millis).
func (r *Report) PeriodStart() int64 { return r.periodStart }

// PeriodEnd returns the period end timestamp (unix millis).
func (r *Report) PeriodEnd() int64 { return r.periodEnd }

// Calls returns completion calls made by this process.
func (r *Report) Calls() int64 { return r.calls }

// Tokens returns tokens consumed in the period.
func (r *Report) Tokens() int64 { return r.tokens }

// Limit returns the token limit for the period (0 = unlimited).
func (r *Report) Limit() int64 { return r.limit }

// Remaining returns tokens left in the period (-1 = unlimited).
func (r *Report) Remaining() int64 { return r.remaining }

// IsExhausted reports whether a limited budget has no tokens left.
func (r *Report) IsExhausted() bool { return r.limit > 0 && r.remaining <= 0 }

// ResetsAt returns when the budget resets (unix millis).
func (r *Report) ResetsAt() int64 { return r.periodEnd }
