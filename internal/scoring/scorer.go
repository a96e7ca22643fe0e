// internal/scoring/scorer.go

// Package scoring turns raw caregiver records into churn probabilities,
// risk tiers and tenure estimates, and applies that scoring across a
// population snapshot.
package scoring

import (
	"math"
	"strings"
	"time"

	stderrors "github.com/wecare247/churnwatch/internal/common/errors"
	"github.com/wecare247/churnwatch/internal/common/logger"
	"github.com/wecare247/churnwatch/internal/common/metrics"
	"github.com/wecare247/churnwatch/internal/features"
	"github.com/wecare247/churnwatch/internal/models"
)

const (
	// fallbackTenureDays is added to current tenure when the survival
	// model cannot produce a usable estimate.
	fallbackTenureDays = 365

	// maxRemainingDays is the sanity ceiling on a remaining-tenure
	// estimate; anything above it is treated as a model artifact.
	maxRemainingDays = 36500

	// minRemainingDays is the floor below which an estimate is
	// suppressed rather than shown as a near-zero quit countdown.
	minRemainingDays = 0.5
)

// ChurnPredictor is the contract of the externally-trained churn bundle.
type ChurnPredictor interface {
	Transform(rec models.CaregiverRecord, derived models.DerivedFeatures) []float64
	PredictClassProbability(x []float64) (float64, error)
}

// TenurePredictor is the contract of the externally-trained survival bundle.
type TenurePredictor interface {
	Transform(rec models.CaregiverRecord, derived models.DerivedFeatures) []float64
	PredictMedianSurvival(x []float64) (float64, error)
}

// Clock supplies the run date used for quit-date computation, injected
// so tests can pin it.
type Clock interface {
	Today() time.Time
}

type systemClock struct{}

func (systemClock) Today() time.Time {
	now := time.Now().UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

// SystemClock returns a Clock reading the current UTC date.
func SystemClock() Clock {
	return systemClock{}
}

// FixedClock returns a Clock pinned to a single date.
func FixedClock(day time.Time) Clock {
	return fixedClock{day: day}
}

type fixedClock struct {
	day time.Time
}

func (c fixedClock) Today() time.Time {
	return c.day
}

// Scorer produces a ScoreResult for one caregiver. It owns all
// fallback policy: model failures are logged and absorbed into
// documented fallback values, so Score only returns an error for a
// record it cannot process at all.
type Scorer struct {
	churn      ChurnPredictor
	tenure     TenurePredictor
	thresholds Thresholds
	clock      Clock
	logger     logger.Logger
}

func NewScorer(churn ChurnPredictor, tenure TenurePredictor, thresholds Thresholds, clock Clock, log logger.Logger) *Scorer {
	return &Scorer{
		churn:      churn,
		tenure:     tenure,
		thresholds: thresholds,
		clock:      clock,
		logger:     log,
	}
}

// Score scores a single caregiver. The returned error is structural
// (malformed record); prediction failures never surface here.
func (s *Scorer) Score(rec models.CaregiverRecord) (models.ScoreResult, error) {
	if err := validateRecord(rec); err != nil {
		return models.ScoreResult{}, err
	}

	derived := features.Derive(rec)

	// Churn branch: a failed transform or prediction degrades to
	// probability zero instead of aborting the record.
	prob := 0.0
	x := s.churn.Transform(rec, derived)
	p, err := s.churn.PredictClassProbability(x)
	if err != nil {
		s.logger.Warn("churn prediction failed, falling back to zero probability", map[string]interface{}{
			"caregiverId": rec.CaregiverID,
			"error":       err.Error(),
		})
		metrics.ModelFallbacks.WithLabelValues("churn").Inc()
	} else {
		prob = p
	}

	riskLevel := Classify(prob, s.thresholds)
	probPct := roundTo(prob*100, 3)

	// Tenure branch: the survival model may be unavailable or return
	// garbage for censored-heavy inputs.
	estTotal := s.predictTotalTenure(rec, derived)

	remaining := math.Max(estTotal-rec.TenureDays, 0)
	if !isFinite(remaining) || remaining > maxRemainingDays {
		remaining = fallbackTenureDays
	}

	result := models.ScoreResult{
		CaregiverID:      rec.CaregiverID,
		ChurnProbability: models.Float(probPct),
		RiskLevel:        riskLevel,
	}

	// Presentation rule: a LOW-risk departure estimate or a near-zero
	// countdown is noise to the reader, not information.
	if riskLevel != models.RiskLow && remaining >= minRemainingDays {
		days := int(math.Ceil(remaining))
		quitDate := s.clock.Today().AddDate(0, 0, days)
		result.DaysToQuitEst = &days
		result.EstimatedQuitDate = &quitDate
	}

	return result, nil
}

func (s *Scorer) predictTotalTenure(rec models.CaregiverRecord, derived models.DerivedFeatures) float64 {
	x := s.tenure.Transform(rec, derived)
	est, err := s.tenure.PredictMedianSurvival(x)
	if err == nil && isFinite(est) && est > 0 {
		return est
	}

	fields := map[string]interface{}{"caregiverId": rec.CaregiverID}
	if err != nil {
		fields["error"] = err.Error()
	} else {
		fields["estimate"] = est
	}
	s.logger.Warn("tenure prediction invalid, falling back to tenure+365", fields)
	metrics.ModelFallbacks.WithLabelValues("tenure").Inc()

	return rec.TenureDays + fallbackTenureDays
}

func validateRecord(rec models.CaregiverRecord) error {
	if strings.TrimSpace(rec.CaregiverID) == "" {
		return stderrors.NewRecordMalformedError(rec.CaregiverID, "empty caregiver_id")
	}
	if !isFinite(rec.TenureDays) {
		return stderrors.NewRecordMalformedError(rec.CaregiverID, "non-finite tenure_days")
	}
	return nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func roundTo(v float64, places int) float64 {
	scale := math.Pow(10, float64(places))
	return math.Round(v*scale) / scale
}
