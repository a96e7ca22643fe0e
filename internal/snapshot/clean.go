// internal/snapshot/clean.go
package snapshot

import (
	"github.com/wecare247/churnwatch/internal/common/logger"
	"github.com/wecare247/churnwatch/internal/models"
)

const (
	// minTrainingTenureDays drops very short-tenure rows from the
	// training population; their churn labels are dominated by intake
	// noise, not workforce behavior.
	minTrainingTenureDays = 20

	// maxLifetimeTenureDays caps tenure at ten years during training
	// prep. The scoring path deliberately does not re-clamp.
	maxLifetimeTenureDays = 3650

	maxPlausibleAge = 100
)

// Clean applies the training-data preparation rules to a parsed
// snapshot: rows with tenure at or below the training floor or without
// a churn label are dropped, negative tenure is clamped to zero and
// capped at the lifetime window, and implausible ages are blanked so
// the preprocessor imputes them.
func Clean(records []models.CaregiverRecord, log logger.Logger) []models.CaregiverRecord {
	cleaned := make([]models.CaregiverRecord, 0, len(records))
	droppedTenure := 0
	droppedLabel := 0

	for _, rec := range records {
		if rec.TenureDays <= minTrainingTenureDays {
			droppedTenure++
			continue
		}
		if rec.ChurnLabel == nil {
			droppedLabel++
			continue
		}

		if rec.TenureDays < 0 {
			rec.TenureDays = 0
		}
		if rec.TenureDays > maxLifetimeTenureDays {
			rec.TenureDays = maxLifetimeTenureDays
		}
		if rec.Age != nil && *rec.Age > maxPlausibleAge {
			rec.Age = nil
		}

		cleaned = append(cleaned, rec)
	}

	log.Info("snapshot cleaned", map[string]interface{}{
		"input":          len(records),
		"kept":           len(cleaned),
		"droppedTenure":  droppedTenure,
		"droppedNoLabel": droppedLabel,
	})
	return cleaned
}
