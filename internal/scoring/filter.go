// internal/scoring/filter.go
package scoring

import (
	"github.com/wecare247/churnwatch/internal/models"
)

// FilterAlreadyChurned removes results for caregivers who are both
// labeled churned in the source snapshot and currently classified HIGH
// risk: those cases are already resolved and re-alerting on them is
// noise. Results join back to the snapshot by caregiver ID; results
// without a matching label are always retained. Output order follows
// input order, and the label itself never appears in the output.
func FilterAlreadyChurned(source []models.CaregiverRecord, scored []models.ScoreResult) []models.ScoreResult {
	churned := make(map[string]bool, len(source))
	for _, rec := range source {
		if rec.ChurnLabel != nil && *rec.ChurnLabel == 1 {
			churned[rec.CaregiverID] = true
		}
	}

	filtered := make([]models.ScoreResult, 0, len(scored))
	for _, result := range scored {
		if churned[result.CaregiverID] && result.RiskLevel == models.RiskHigh {
			continue
		}
		filtered = append(filtered, result)
	}

	return filtered
}
