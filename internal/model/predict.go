// internal/model/predict.go
package model

import (
	"fmt"
	"math"

	"github.com/wecare247/churnwatch/internal/models"
)

// ChurnModel predicts the probability of a caregiver churning.
type ChurnModel struct {
	pre          *Preprocessor
	intercept    float64
	coefficients []float64
}

// LoadChurn loads and validates the churn bundle. Any failure is fatal
// for the run: scoring must not start without both models.
func LoadChurn(path string) (*ChurnModel, error) {
	b, pre, err := loadBundle(path, KindChurn)
	if err != nil {
		return nil, err
	}
	if b.Model.Type != "logistic_regression" {
		return nil, fmt.Errorf("churn bundle %s: unsupported model type %q", path, b.Model.Type)
	}
	return &ChurnModel{
		pre:          pre,
		intercept:    b.Model.Intercept,
		coefficients: b.Model.Coefficients,
	}, nil
}

// Transform runs the bundle's preprocessing stage.
func (m *ChurnModel) Transform(rec models.CaregiverRecord, derived models.DerivedFeatures) []float64 {
	return m.pre.Transform(rec, derived)
}

// PredictClassProbability returns the probability of the positive
// (churn) class, in [0,1].
func (m *ChurnModel) PredictClassProbability(x []float64) (float64, error) {
	z, err := dot(m.intercept, m.coefficients, x)
	if err != nil {
		return 0, err
	}
	p := 1 / (1 + math.Exp(-z))
	if math.IsNaN(p) {
		return 0, fmt.Errorf("non-finite churn probability")
	}
	return p, nil
}

// TenureModel predicts total expected tenure via a Weibull
// accelerated-failure-time fit.
type TenureModel struct {
	pre          *Preprocessor
	intercept    float64
	coefficients []float64
	shape        float64
}

// LoadTenure loads and validates the tenure bundle.
func LoadTenure(path string) (*TenureModel, error) {
	b, pre, err := loadBundle(path, KindTenure)
	if err != nil {
		return nil, err
	}
	if b.Model.Type != "weibull_aft" {
		return nil, fmt.Errorf("tenure bundle %s: unsupported model type %q", path, b.Model.Type)
	}
	if b.Model.Shape <= 0 {
		return nil, fmt.Errorf("tenure bundle %s: shape must be positive, got %g", path, b.Model.Shape)
	}
	return &TenureModel{
		pre:          pre,
		intercept:    b.Model.Intercept,
		coefficients: b.Model.Coefficients,
		shape:        b.Model.Shape,
	}, nil
}

// Transform runs the bundle's preprocessing stage.
func (m *TenureModel) Transform(rec models.CaregiverRecord, derived models.DerivedFeatures) []float64 {
	return m.pre.Transform(rec, derived)
}

// PredictMedianSurvival returns the median total tenure in days. The
// result may be non-finite or non-positive for extreme inputs; callers
// apply their own fallback policy.
func (m *TenureModel) PredictMedianSurvival(x []float64) (float64, error) {
	z, err := dot(m.intercept, m.coefficients, x)
	if err != nil {
		return 0, err
	}
	// Median of Weibull(scale, shape): scale * ln(2)^(1/shape), with
	// the linear predictor acting on the log of the scale.
	return math.Exp(z) * math.Pow(math.Ln2, 1/m.shape), nil
}

func dot(intercept float64, coefficients, x []float64) (float64, error) {
	if len(x) != len(coefficients) {
		return 0, fmt.Errorf("feature vector length %d, want %d", len(x), len(coefficients))
	}
	z := intercept
	for i, c := range coefficients {
		z += c * x[i]
	}
	return z, nil
}
