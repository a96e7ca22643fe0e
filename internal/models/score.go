// internal/models/score.go
package models

import (
	"fmt"
	"strconv"
	"time"
)

// RiskLevel is the ordinal risk tier derived from a churn probability.
type RiskLevel string

const (
	RiskHigh   RiskLevel = "HIGH"
	RiskMedium RiskLevel = "MEDIUM"
	RiskLow    RiskLevel = "LOW"
	// RiskError marks rows the batch scorer could not score at all.
	RiskError RiskLevel = "ERROR"
)

// Unknown is the presentation sentinel for suppressed tenure estimates.
const Unknown = "-"

// ScoreResult is the output of scoring one caregiver. Created fresh per
// scoring call and never mutated afterwards.
type ScoreResult struct {
	CaregiverID string

	// ChurnProbability is on the 0-100 presentation scale, rounded to
	// 3 decimal places. Nil for ERROR rows.
	ChurnProbability *float64

	RiskLevel RiskLevel

	// DaysToQuitEst and EstimatedQuitDate are nil when the
	// presentation rule suppresses the estimate (LOW risk or a
	// near-zero remainder) and for ERROR rows.
	DaysToQuitEst     *int
	EstimatedQuitDate *time.Time

	// Err carries the error description for ERROR rows.
	Err string
}

// ErrorRowID names an ERROR row whose source record carried no
// identifier of its own.
func ErrorRowID(row int) string {
	return fmt.Sprintf("ERROR_%d", row)
}

// ProbabilityString renders the presentation-scale probability, empty
// for ERROR rows.
func (r ScoreResult) ProbabilityString() string {
	if r.ChurnProbability == nil {
		return ""
	}
	return strconv.FormatFloat(*r.ChurnProbability, 'f', -1, 64)
}

// DaysToQuitString renders the estimated days to quit, or the unknown
// sentinel.
func (r ScoreResult) DaysToQuitString() string {
	if r.DaysToQuitEst == nil {
		return Unknown
	}
	return strconv.Itoa(*r.DaysToQuitEst)
}

// QuitDateString renders the estimated quit date as an ISO date, or the
// unknown sentinel.
func (r ScoreResult) QuitDateString() string {
	if r.EstimatedQuitDate == nil {
		return Unknown
	}
	return r.EstimatedQuitDate.Format("2006-01-02")
}
