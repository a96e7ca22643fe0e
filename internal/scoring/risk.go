// internal/scoring/risk.go
package scoring

import (
	"github.com/wecare247/churnwatch/internal/common/config"
	"github.com/wecare247/churnwatch/internal/models"
)

// Thresholds carries the two risk cut points on the 0-1 probability
// scale. Invariant 0 <= Medium <= High <= 1, enforced at config load.
type Thresholds struct {
	High   float64
	Medium float64
}

// ThresholdsFromConfig converts the configured risk section.
func ThresholdsFromConfig(cfg config.RiskConfig) Thresholds {
	return Thresholds{
		High:   cfg.HighThreshold,
		Medium: cfg.MediumThreshold,
	}
}

// Classify maps a churn probability to a risk tier. Total over [0,1];
// equality at a threshold rounds to the higher tier.
func Classify(probability float64, t Thresholds) models.RiskLevel {
	if probability >= t.High {
		return models.RiskHigh
	}
	if probability >= t.Medium {
		return models.RiskMedium
	}
	return models.RiskLow
}
