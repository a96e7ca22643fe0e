// internal/features/derive.go

// Package features computes the derived features shared by the training
// prep and the scoring path. Both paths must agree on these formulas or
// the models see a different feature space than they were trained on.
package features

import "github.com/wecare247/churnwatch/internal/models"

// Derive computes the activity flag and leave ratio for one caregiver.
// Missing numeric attributes count as zero. Always succeeds.
//
// LeaveRatio uses a +1 denominator offset. That is the formula the
// models were trained with, and it makes the ratio total over
// tenure_days == 0 without a special case.
func Derive(rec models.CaregiverRecord) models.DerivedFeatures {
	var isActive float64
	if models.NumericOrZero(rec.DaysWorkedPeriod) > 0 {
		isActive = 1
	}

	leave := models.NumericOrZero(rec.TotalLeaveDays)
	tenure := rec.TenureDays
	if tenure < 0 {
		tenure = 0
	}

	return models.DerivedFeatures{
		IsActive:   isActive,
		LeaveRatio: leave / (tenure + 1),
	}
}
