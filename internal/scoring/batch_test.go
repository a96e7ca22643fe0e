// internal/scoring/batch_test.go
package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wecare247/churnwatch/internal/common/logger"
	"github.com/wecare247/churnwatch/internal/models"
)

func newTestBatch(t *testing.T, churn ChurnPredictor, tenure TenurePredictor) *BatchScorer {
	t.Helper()
	return NewBatchScorer(newTestScorer(t, churn, tenure), logger.NewTestLogger(t))
}

func TestBatchScorer_OrderAndLengthPreserved(t *testing.T) {
	batch := newTestBatch(t,
		fakeChurn{probs: map[string]float64{"CG-001": 0.9, "CG-002": 0.5, "CG-003": 0.1}},
		fakeTenure{totals: map[string]float64{"CG-001": 200, "CG-002": 300, "CG-003": 400}},
	)

	records := []models.CaregiverRecord{
		testRecord("CG-001", 100),
		testRecord("CG-002", 100),
		testRecord("CG-003", 100),
	}

	results := batch.ScorePopulation(records)
	require.Len(t, results, 3)
	assert.Equal(t, "CG-001", results[0].CaregiverID)
	assert.Equal(t, "CG-002", results[1].CaregiverID)
	assert.Equal(t, "CG-003", results[2].CaregiverID)
	assert.Equal(t, models.RiskHigh, results[0].RiskLevel)
	assert.Equal(t, models.RiskMedium, results[1].RiskLevel)
	assert.Equal(t, models.RiskLow, results[2].RiskLevel)
}

func TestBatchScorer_MalformedRecordBecomesErrorRow(t *testing.T) {
	batch := newTestBatch(t,
		fakeChurn{probs: map[string]float64{"CG-001": 0.9, "CG-003": 0.8}},
		fakeTenure{totals: map[string]float64{"CG-001": 200, "CG-003": 300}},
	)

	records := []models.CaregiverRecord{
		testRecord("CG-001", 100),
		{CaregiverID: ""}, // structurally unscoreable
		testRecord("CG-003", 100),
	}

	results := batch.ScorePopulation(records)
	require.Len(t, results, 3)

	// Neighbors are unaffected.
	assert.Equal(t, models.RiskHigh, results[0].RiskLevel)
	assert.Equal(t, models.RiskHigh, results[2].RiskLevel)

	bad := results[1]
	assert.Equal(t, models.RiskError, bad.RiskLevel)
	assert.Equal(t, models.ErrorRowID(2), bad.CaregiverID)
	assert.Nil(t, bad.ChurnProbability)
	assert.Nil(t, bad.DaysToQuitEst)
	assert.NotEmpty(t, bad.Err)
}

func TestBatchScorer_ModelFailureStaysBelowBatchLevel(t *testing.T) {
	// A churn-model failure for one record degrades that record to the
	// LOW fallback; it never becomes an ERROR row or aborts the batch.
	batch := newTestBatch(t,
		fakeChurn{
			probs: map[string]float64{"CG-001": 0.9, "CG-003": 0.8},
			fail:  map[string]bool{"CG-002": true},
		},
		fakeTenure{totals: map[string]float64{"CG-001": 200, "CG-002": 300, "CG-003": 400}},
	)

	records := []models.CaregiverRecord{
		testRecord("CG-001", 100),
		testRecord("CG-002", 100),
		testRecord("CG-003", 100),
	}

	results := batch.ScorePopulation(records)
	require.Len(t, results, 3)
	assert.Equal(t, models.RiskHigh, results[0].RiskLevel)
	assert.Equal(t, models.RiskLow, results[1].RiskLevel)
	require.NotNil(t, results[1].ChurnProbability)
	assert.Equal(t, 0.0, *results[1].ChurnProbability)
	assert.Equal(t, models.RiskHigh, results[2].RiskLevel)
}

func TestBatchScorer_EmptyPopulation(t *testing.T) {
	batch := newTestBatch(t, fakeChurn{}, fakeTenure{})
	results := batch.ScorePopulation(nil)
	assert.Empty(t, results)
}
