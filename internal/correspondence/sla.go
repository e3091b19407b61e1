package correspondence

import (
	"time"

	"github.com/google/uuid"
)

// Band is the derived SLA severity used by list badges. It is never
// stored; it is recomputed from percent-used on every read.
type Band string

// Severity bands.
const (
	BandOnTrack  Band = "on-track"
	BandAtRisk   Band = "at-risk"
	BandCritical Band = "critical"
)

const hoursPerDay = 24

// Policy maps request types to deadline lengths and derives SLA state.
// The zero value is unusable; build one from configuration.
type Policy struct {
	// DefaultDays applies to request types with no explicit deadline.
	DefaultDays int
	// Deadlines maps request type names to deadline day counts.
	Deadlines map[string]int
	// AtRiskPercent and CriticalPercent are the band thresholds:
	// percent-used above AtRiskPercent is at-risk, above CriticalPercent
	// critical.
	AtRiskPercent   float64
	CriticalPercent float64
}

// DeadlineDays returns the deadline length in days for a request type.
func (p Policy) DeadlineDays(requestType string) int {
	if days, ok := p.Deadlines[requestType]; ok && days > 0 {
		return days
	}
	return p.DefaultDays
}

// Elapsed returns the time consumed against the deadline as of now.
func Elapsed(receivedAt, now time.Time) time.Duration {
	return now.Sub(receivedAt)
}

// PercentUsed returns elapsed time as an unrounded percentage of the
// deadline. Values above 100 mean the deadline has passed; rounding is a
// display concern.
func PercentUsed(elapsed time.Duration, slaDays int) float64 {
	if slaDays <= 0 {
		return 0
	}
	elapsedDays := elapsed.Hours() / hoursPerDay
	return elapsedDays / float64(slaDays) * 100
}

// BandFor classifies a percent-used value against the policy thresholds.
func (p Policy) BandFor(percentUsed float64) Band {
	switch {
	case percentUsed > p.CriticalPercent:
		return BandCritical
	case percentUsed > p.AtRiskPercent:
		return BandAtRisk
	default:
		return BandOnTrack
	}
}

// IsOverdue reports whether an open record has consumed more than its
// deadline. Closed records are never overdue; a late answer is tracked
// separately as WasLate.
func IsOverdue(stage Stage, receivedAt time.Time, slaDays int, now time.Time) bool {
	if stage.Closed() {
		return false
	}
	return Elapsed(receivedAt, now).Hours()/hoursPerDay > float64(slaDays)
}

// WasLate reports whether a record was answered after its deadline.
// False for records that have not been answered.
func WasLate(rec Record) bool {
	if rec.RespondedAt == nil {
		return false
	}
	return rec.RespondedAt.Sub(rec.ReceivedAt).Hours()/hoursPerDay > float64(rec.SlaDays)
}

// Status is the derived display state of a record: what stage it is in,
// who owns it, how much of its deadline remains. Every field is computed
// from the record and the current instant.
type Status struct {
	RecordID      uuid.UUID `json:"recordId"`
	Stage         Stage     `json:"stage"`
	AssignedTo    *string   `json:"assignedTo,omitempty"`
	SlaDays       int       `json:"slaDays"`
	ElapsedDays   float64   `json:"elapsedDays"`
	RemainingDays float64   `json:"remainingDays"`
	PercentUsed   float64   `json:"percentUsed"`
	Band          Band      `json:"band"`
	Overdue       bool      `json:"overdue"`
	WasLate       bool      `json:"wasLate"`
}

// StatusOf derives the display state of a record as of now. For answered
// records the elapsed time is frozen at the response instant, so history
// pages and live pages agree.
func (p Policy) StatusOf(rec Record, now time.Time) Status {
	end := now
	if rec.RespondedAt != nil {
		end = *rec.RespondedAt
	}

	elapsed := Elapsed(rec.ReceivedAt, end)
	elapsedDays := elapsed.Hours() / hoursPerDay
	pct := PercentUsed(elapsed, rec.SlaDays)

	return Status{
		RecordID:      rec.ID,
		Stage:         rec.Stage,
		AssignedTo:    rec.AssignedTo,
		SlaDays:       rec.SlaDays,
		ElapsedDays:   elapsedDays,
		RemainingDays: float64(rec.SlaDays) - elapsedDays,
		PercentUsed:   pct,
		Band:          p.BandFor(pct),
		Overdue:       IsOverdue(rec.Stage, rec.ReceivedAt, rec.SlaDays, now),
		WasLate:       WasLate(rec),
	}
}
