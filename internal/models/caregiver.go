// internal/models/caregiver.go
package models

// CaregiverRecord is one caregiver's raw attributes at scoring time.
// Numeric attributes are pointers so "missing" is distinguishable from
// zero: feature derivation treats nil as zero, the model preprocessor
// imputes nil with the training median.
type CaregiverRecord struct {
	CaregiverID string

	// TenureDays is cleaned upstream (negatives clamped to 0 during
	// training prep). The scoring path does not re-clamp, so live
	// inputs may exceed the 3650-day training cap.
	TenureDays float64

	Age               *float64
	WaitingDays       *float64
	TotalLeaveDays    *float64
	DaysWorkedPeriod  *float64
	WorkRatioPeriod   *float64
	Rank              *float64
	CompetencyScore   *float64
	PositiveFeedback  *float64
	Incidents         *float64
	AvgIncomePerShift *float64

	SalaryBand    string
	AgeBand       string
	CurrentStatus string
	HomeProvince  string

	// ChurnLabel is the ground-truth label where known (1 = already
	// churned). Only the population filter reads it.
	ChurnLabel *float64
}

// NumericOrZero unwraps an optional numeric attribute, treating
// missing as zero.
func NumericOrZero(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

// Float returns a pointer to v, for building records in one expression.
func Float(v float64) *float64 {
	return &v
}

// DerivedFeatures are computed per record at scoring and training time,
// never stored long-term.
type DerivedFeatures struct {
	IsActive   float64
	LeaveRatio float64
}
