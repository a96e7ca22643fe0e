// internal/scoring/batch.go
package scoring

import (
	"github.com/wecare247/churnwatch/internal/common/logger"
	"github.com/wecare247/churnwatch/internal/common/metrics"
	"github.com/wecare247/churnwatch/internal/models"
)

// progressInterval controls how often the batch scorer reports progress.
const progressInterval = 100

// BatchScorer applies a Scorer across a population snapshot.
type BatchScorer struct {
	scorer *Scorer
	logger logger.Logger
}

func NewBatchScorer(scorer *Scorer, log logger.Logger) *BatchScorer {
	return &BatchScorer{
		scorer: scorer,
		logger: log,
	}
}

// ScorePopulation scores every record in order. The output is length-
// and order-preserving: result i always corresponds to record i. A
// record the scorer cannot process becomes an ERROR row; the batch
// never aborts early.
func (b *BatchScorer) ScorePopulation(records []models.CaregiverRecord) []models.ScoreResult {
	total := len(records)
	b.logger.Info("scoring population", map[string]interface{}{"records": total})

	results := make([]models.ScoreResult, 0, total)
	for i, rec := range records {
		result, err := b.scorer.Score(rec)
		if err != nil {
			b.logger.Error("record could not be scored", map[string]interface{}{
				"row":         i + 1,
				"caregiverId": rec.CaregiverID,
				"error":       err.Error(),
			})
			metrics.RecordsFailed.Inc()
			result = errorResult(rec, i+1, err)
		}
		metrics.RecordsScored.WithLabelValues(string(result.RiskLevel)).Inc()
		results = append(results, result)

		if (i+1)%progressInterval == 0 || i+1 == total {
			b.logger.Info("scoring progress", map[string]interface{}{
				"done":  i + 1,
				"total": total,
			})
		}
	}

	return results
}

// errorResult synthesizes the ERROR row for a record that failed
// structurally. The row index keeps the ID non-empty when the record
// had none.
func errorResult(rec models.CaregiverRecord, row int, err error) models.ScoreResult {
	id := rec.CaregiverID
	if id == "" {
		id = models.ErrorRowID(row)
	}
	return models.ScoreResult{
		CaregiverID: id,
		RiskLevel:   models.RiskError,
		Err:         err.Error(),
	}
}
