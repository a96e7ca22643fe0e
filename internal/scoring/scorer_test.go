// internal/scoring/scorer_test.go
package scoring

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wecare247/churnwatch/internal/common/logger"
	"github.com/wecare247/churnwatch/internal/models"
)

// ==========================
// Test Helper Functions
// ==========================

var testToday = time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)

// fakeChurn routes a per-caregiver probability through the
// Transform/Predict contract. A caregiver listed in fail makes the
// predict call error, mimicking a model blow-up.
type fakeChurn struct {
	probs map[string]float64
	fail  map[string]bool
}

func (f fakeChurn) Transform(rec models.CaregiverRecord, _ models.DerivedFeatures) []float64 {
	if f.fail[rec.CaregiverID] {
		return []float64{math.NaN()}
	}
	return []float64{f.probs[rec.CaregiverID]}
}

func (f fakeChurn) PredictClassProbability(x []float64) (float64, error) {
	if math.IsNaN(x[0]) {
		return 0, errors.New("churn model exploded")
	}
	return x[0], nil
}

// fakeTenure routes a per-caregiver predicted total tenure. Totals may
// be zero, negative or infinite to exercise the invalid-estimate
// fallback.
type fakeTenure struct {
	totals map[string]float64
	fail   map[string]bool
}

func (f fakeTenure) Transform(rec models.CaregiverRecord, _ models.DerivedFeatures) []float64 {
	if f.fail[rec.CaregiverID] {
		return []float64{math.NaN()}
	}
	return []float64{f.totals[rec.CaregiverID]}
}

func (f fakeTenure) PredictMedianSurvival(x []float64) (float64, error) {
	if math.IsNaN(x[0]) {
		return 0, errors.New("tenure model exploded")
	}
	return x[0], nil
}

func newTestScorer(t *testing.T, churn ChurnPredictor, tenure TenurePredictor) *Scorer {
	t.Helper()
	return NewScorer(churn, tenure, defaultThresholds(), FixedClock(testToday), logger.NewTestLogger(t))
}

func testRecord(id string, tenureDays float64) models.CaregiverRecord {
	return models.CaregiverRecord{
		CaregiverID:      id,
		TenureDays:       tenureDays,
		Age:              models.Float(34),
		DaysWorkedPeriod: models.Float(80),
		TotalLeaveDays:   models.Float(4),
	}
}

// ==========================
// Core Functionality Tests
// ==========================

func TestScorer_Score_HighRisk(t *testing.T) {
	scorer := newTestScorer(t,
		fakeChurn{probs: map[string]float64{"CG-001": 0.85}},
		fakeTenure{totals: map[string]float64{"CG-001": 200}},
	)

	result, err := scorer.Score(testRecord("CG-001", 100))
	require.NoError(t, err)

	assert.Equal(t, "CG-001", result.CaregiverID)
	assert.Equal(t, models.RiskHigh, result.RiskLevel)
	require.NotNil(t, result.ChurnProbability)
	assert.Equal(t, 85.0, *result.ChurnProbability)
	require.NotNil(t, result.DaysToQuitEst)
	assert.Equal(t, 100, *result.DaysToQuitEst)
	require.NotNil(t, result.EstimatedQuitDate)
	assert.Equal(t, testToday.AddDate(0, 0, 100), *result.EstimatedQuitDate)
}

func TestScorer_Score_ProbabilityPresentationScale(t *testing.T) {
	scorer := newTestScorer(t,
		fakeChurn{probs: map[string]float64{"CG-001": 0.123456}},
		fakeTenure{totals: map[string]float64{"CG-001": 500}},
	)

	result, err := scorer.Score(testRecord("CG-001", 100))
	require.NoError(t, err)
	require.NotNil(t, result.ChurnProbability)
	assert.Equal(t, 12.346, *result.ChurnProbability) // 0-100 scale, 3 dp
}

func TestScorer_Score_RemainingRoundsUp(t *testing.T) {
	// A partial day still counts as one more day of risk.
	scorer := newTestScorer(t,
		fakeChurn{probs: map[string]float64{"CG-001": 0.9}},
		fakeTenure{totals: map[string]float64{"CG-001": 105.1}},
	)

	result, err := scorer.Score(testRecord("CG-001", 100))
	require.NoError(t, err)
	require.NotNil(t, result.DaysToQuitEst)
	assert.Equal(t, 6, *result.DaysToQuitEst)
}

func TestScorer_Score_PresentationRule(t *testing.T) {
	tests := []struct {
		name       string
		prob       float64
		total      float64
		tenure     float64
		wantLevel  models.RiskLevel
		wantHidden bool
	}{
		{
			// LOW overrides a perfectly numeric estimate.
			name:       "low risk hides a 40 day estimate",
			prob:       0.1,
			total:      140,
			tenure:     100,
			wantLevel:  models.RiskLow,
			wantHidden: true,
		},
		{
			name:       "sub half-day remainder hidden at any tier",
			prob:       0.9,
			total:      100.4,
			tenure:     100,
			wantLevel:  models.RiskHigh,
			wantHidden: true,
		},
		{
			name:       "medium risk with real estimate shown",
			prob:       0.5,
			total:      130,
			tenure:     100,
			wantLevel:  models.RiskMedium,
			wantHidden: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scorer := newTestScorer(t,
				fakeChurn{probs: map[string]float64{"CG-001": tt.prob}},
				fakeTenure{totals: map[string]float64{"CG-001": tt.total}},
			)

			result, err := scorer.Score(testRecord("CG-001", tt.tenure))
			require.NoError(t, err)
			assert.Equal(t, tt.wantLevel, result.RiskLevel)
			if tt.wantHidden {
				assert.Nil(t, result.DaysToQuitEst)
				assert.Nil(t, result.EstimatedQuitDate)
				assert.Equal(t, models.Unknown, result.DaysToQuitString())
				assert.Equal(t, models.Unknown, result.QuitDateString())
			} else {
				assert.NotNil(t, result.DaysToQuitEst)
				assert.NotNil(t, result.EstimatedQuitDate)
			}
		})
	}
}

// ==========================
// Fallback Tests
// ==========================

func TestScorer_Score_ChurnModelFailureFallsBackToLow(t *testing.T) {
	scorer := newTestScorer(t,
		fakeChurn{fail: map[string]bool{"CG-001": true}},
		fakeTenure{totals: map[string]float64{"CG-001": 300}},
	)

	result, err := scorer.Score(testRecord("CG-001", 100))
	require.NoError(t, err)

	assert.Equal(t, models.RiskLow, result.RiskLevel)
	require.NotNil(t, result.ChurnProbability)
	assert.Equal(t, 0.0, *result.ChurnProbability)
	// LOW fallback also suppresses the tenure estimate.
	assert.Nil(t, result.DaysToQuitEst)
}

func TestScorer_Score_TenureModelFallbacks(t *testing.T) {
	tests := []struct {
		name   string
		total  float64
		fail   bool
		tenure float64
		// fallback: total = tenure + 365, remaining = 365
		wantDays int
	}{
		{"prediction error", 0, true, 100, 365},
		{"non-positive estimate", -5, false, 100, 365},
		{"zero estimate", 0, false, 100, 365},
		{"infinite estimate", math.Inf(1), false, 100, 365},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scorer := newTestScorer(t,
				fakeChurn{probs: map[string]float64{"CG-001": 0.9}},
				fakeTenure{
					totals: map[string]float64{"CG-001": tt.total},
					fail:   map[string]bool{"CG-001": tt.fail},
				},
			)

			result, err := scorer.Score(testRecord("CG-001", tt.tenure))
			require.NoError(t, err)
			require.NotNil(t, result.DaysToQuitEst)
			assert.Equal(t, tt.wantDays, *result.DaysToQuitEst)
		})
	}
}

func TestScorer_Score_RemainingSanityCeiling(t *testing.T) {
	// An estimate a century out is a model artifact, not a forecast.
	scorer := newTestScorer(t,
		fakeChurn{probs: map[string]float64{"CG-001": 0.9}},
		fakeTenure{totals: map[string]float64{"CG-001": 50000}},
	)

	result, err := scorer.Score(testRecord("CG-001", 100))
	require.NoError(t, err)
	require.NotNil(t, result.DaysToQuitEst)
	assert.Equal(t, 365, *result.DaysToQuitEst)
}

// ==========================
// Contract Tests
// ==========================

func TestScorer_Score_Idempotent(t *testing.T) {
	scorer := newTestScorer(t,
		fakeChurn{probs: map[string]float64{"CG-001": 0.42}},
		fakeTenure{totals: map[string]float64{"CG-001": 250}},
	)

	rec := testRecord("CG-001", 100)
	first, err := scorer.Score(rec)
	require.NoError(t, err)
	second, err := scorer.Score(rec)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestScorer_Score_MalformedRecord(t *testing.T) {
	scorer := newTestScorer(t, fakeChurn{}, fakeTenure{})

	_, err := scorer.Score(models.CaregiverRecord{CaregiverID: "  "})
	assert.Error(t, err)

	_, err = scorer.Score(models.CaregiverRecord{CaregiverID: "CG-001", TenureDays: math.NaN()})
	assert.Error(t, err)
}
