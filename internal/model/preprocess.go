// internal/model/preprocess.go
package model

import (
	"fmt"

	"github.com/wecare247/churnwatch/internal/models"
)

// numericAccessors maps artifact column names onto record attributes.
// The derived columns come from the features package output, not the
// raw record.
var numericAccessors = map[string]func(models.CaregiverRecord, models.DerivedFeatures) *float64{
	"age":                  func(r models.CaregiverRecord, _ models.DerivedFeatures) *float64 { return r.Age },
	"waiting_days":         func(r models.CaregiverRecord, _ models.DerivedFeatures) *float64 { return r.WaitingDays },
	"total_leave_days":     func(r models.CaregiverRecord, _ models.DerivedFeatures) *float64 { return r.TotalLeaveDays },
	"days_worked_period":   func(r models.CaregiverRecord, _ models.DerivedFeatures) *float64 { return r.DaysWorkedPeriod },
	"work_ratio_period":    func(r models.CaregiverRecord, _ models.DerivedFeatures) *float64 { return r.WorkRatioPeriod },
	"rank":                 func(r models.CaregiverRecord, _ models.DerivedFeatures) *float64 { return r.Rank },
	"competency_score":     func(r models.CaregiverRecord, _ models.DerivedFeatures) *float64 { return r.CompetencyScore },
	"positive_feedback":    func(r models.CaregiverRecord, _ models.DerivedFeatures) *float64 { return r.PositiveFeedback },
	"incidents":            func(r models.CaregiverRecord, _ models.DerivedFeatures) *float64 { return r.Incidents },
	"avg_income_per_shift": func(r models.CaregiverRecord, _ models.DerivedFeatures) *float64 { return r.AvgIncomePerShift },
	"is_active":            func(_ models.CaregiverRecord, d models.DerivedFeatures) *float64 { return &d.IsActive },
	"leave_ratio":          func(_ models.CaregiverRecord, d models.DerivedFeatures) *float64 { return &d.LeaveRatio },
}

var categoricalAccessors = map[string]func(models.CaregiverRecord) string{
	"salary_band":    func(r models.CaregiverRecord) string { return r.SalaryBand },
	"age_band":       func(r models.CaregiverRecord) string { return r.AgeBand },
	"current_status": func(r models.CaregiverRecord) string { return r.CurrentStatus },
	"home_province":  func(r models.CaregiverRecord) string { return r.HomeProvince },
}

// Preprocessor turns a raw record plus derived features into the
// numeric vector the fitted model expects: numeric columns with median
// imputation for missing values, then one-hot encoded categoricals
// with unknown values encoded as all zeros.
type Preprocessor struct {
	numeric     []numericColumn
	categorical []categoricalColumn
	width       int
}

func newPreprocessor(spec preprocessorSpec) (*Preprocessor, error) {
	width := 0
	for _, col := range spec.Numeric {
		if _, ok := numericAccessors[col.Name]; !ok {
			return nil, fmt.Errorf("unknown numeric column %q", col.Name)
		}
		width++
	}
	for _, col := range spec.Categorical {
		if _, ok := categoricalAccessors[col.Name]; !ok {
			return nil, fmt.Errorf("unknown categorical column %q", col.Name)
		}
		if len(col.Values) == 0 {
			return nil, fmt.Errorf("categorical column %q has no values", col.Name)
		}
		width += len(col.Values)
	}
	if width == 0 {
		return nil, fmt.Errorf("preprocessor has no columns")
	}

	return &Preprocessor{
		numeric:     spec.Numeric,
		categorical: spec.Categorical,
		width:       width,
	}, nil
}

// Width is the length of the produced feature vector.
func (p *Preprocessor) Width() int {
	return p.width
}

// Transform builds the model input vector for one record.
func (p *Preprocessor) Transform(rec models.CaregiverRecord, derived models.DerivedFeatures) []float64 {
	out := make([]float64, 0, p.width)

	for _, col := range p.numeric {
		v := numericAccessors[col.Name](rec, derived)
		if v == nil {
			out = append(out, col.Median)
		} else {
			out = append(out, *v)
		}
	}

	for _, col := range p.categorical {
		raw := categoricalAccessors[col.Name](rec)
		for _, value := range col.Values {
			if raw == value {
				out = append(out, 1)
			} else {
				out = append(out, 0)
			}
		}
	}

	return out
}
