// internal/pipeline/run_test.go
package pipeline

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wecare247/churnwatch/internal/alert"
	"github.com/wecare247/churnwatch/internal/common/config"
	commonhttp "github.com/wecare247/churnwatch/internal/common/http"
	"github.com/wecare247/churnwatch/internal/common/logger"
	"github.com/wecare247/churnwatch/internal/models"
	"github.com/wecare247/churnwatch/internal/scoring"
	"github.com/wecare247/churnwatch/internal/snapshot"
	"github.com/wecare247/churnwatch/internal/store"
)

// ==========================
// Test Helper Functions
// ==========================

// stubChurn returns a per-caregiver probability encoded through the
// feature vector, keeping the Transform/Predict contract intact.
type stubChurn struct {
	probs map[string]float64
}

func (s stubChurn) Transform(rec models.CaregiverRecord, _ models.DerivedFeatures) []float64 {
	return []float64{s.probs[rec.CaregiverID]}
}

func (s stubChurn) PredictClassProbability(x []float64) (float64, error) {
	return x[0], nil
}

type stubTenure struct {
	total float64
}

func (s stubTenure) Transform(models.CaregiverRecord, models.DerivedFeatures) []float64 {
	return []float64{s.total}
}

func (s stubTenure) PredictMedianSurvival(x []float64) (float64, error) {
	return x[0], nil
}

type captureSink struct {
	payloads []alert.Payload
}

func (c *captureSink) Name() string {
	return "capture"
}

func (c *captureSink) Send(_ context.Context, p alert.Payload) error {
	c.payloads = append(c.payloads, p)
	return nil
}

const pipelineSnapshotCSV = `caregiver_id,tenure_days,age,waiting_days,total_leave_days,days_worked_period,work_ratio_period,rank,competency_score,positive_feedback,incidents,avg_income_per_shift,salary_band,age_band,current_status,home_province,churn_label
CG-ACTIVE,100,34,5,2,20,0.8,2,7.5,3,0,450000,mid,30-39,active,Hanoi,0
CG-GONE,200,41,3,4,0,0,1,6.0,1,1,380000,low,40-49,inactive,Da Nang,1
CG-SHORT,10,25,2,0,8,0.9,1,5.0,0,0,300000,low,20-29,active,Hue,0
CG-CALM,300,38,4,1,22,0.95,3,8.2,5,0,520000,high,30-39,active,Hanoi,0
`

var testToday = time.Date(2025, time.July, 1, 0, 0, 0, 0, time.UTC)

func newTestPipeline(t *testing.T, sink alert.Sink) (*Pipeline, string) {
	t.Helper()

	dir := t.TempDir()
	snapPath := filepath.Join(dir, "snapshot.csv")
	require.NoError(t, os.WriteFile(snapPath, []byte(pipelineSnapshotCSV), 0o644))

	cfg := &config.Config{}
	cfg.Snapshot.Path = snapPath
	cfg.Snapshot.Timeout = 5 * time.Second
	cfg.Output.Dir = filepath.Join(dir, "out")
	cfg.Risk.HighThreshold = 0.70
	cfg.Risk.MediumThreshold = 0.30

	log := logger.NewTestLogger(t)
	clock := scoring.FixedClock(testToday)

	churn := stubChurn{probs: map[string]float64{
		"CG-ACTIVE": 0.90,
		"CG-GONE":   0.95,
		"CG-CALM":   0.10,
	}}
	scorer := scoring.NewScorer(churn, stubTenure{total: 500}, scoring.ThresholdsFromConfig(cfg.Risk), clock, log)

	var dispatcher *alert.Dispatcher
	if sink != nil {
		dispatcher = alert.NewDispatcher(sink, nil, log)
	}

	p := New(cfg, Deps{
		Fetcher:    snapshot.NewFetcher(commonhttp.NewClient(cfg.Snapshot.Timeout), log),
		Batch:      scoring.NewBatchScorer(scorer, log),
		Artifacts:  store.NewCSVStore(cfg.Output.Dir),
		Dispatcher: dispatcher,
		Clock:      clock,
		Logger:     log,
	})
	return p, cfg.Output.Dir
}

func readCSVRows(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return rows
}

// ==========================
// Pipeline Tests
// ==========================

func TestPipeline_FetchAndPrep(t *testing.T) {
	p, outDir := newTestPipeline(t, nil)

	records, err := p.FetchAndPrep(context.Background())
	require.NoError(t, err)

	// CG-SHORT falls below the training tenure floor.
	require.Len(t, records, 3)
	assert.Equal(t, "CG-ACTIVE", records[0].CaregiverID)
	assert.Equal(t, "CG-GONE", records[1].CaregiverID)
	assert.Equal(t, "CG-CALM", records[2].CaregiverID)

	assert.FileExists(t, filepath.Join(outDir, "processed_snapshot.csv"))
}

func TestPipeline_LoadProcessedRoundTrip(t *testing.T) {
	p, _ := newTestPipeline(t, nil)

	written, err := p.FetchAndPrep(context.Background())
	require.NoError(t, err)

	loaded, err := p.LoadProcessed()
	require.NoError(t, err)

	require.Len(t, loaded, len(written))
	for i := range written {
		assert.Equal(t, written[i].CaregiverID, loaded[i].CaregiverID)
		assert.Equal(t, written[i].TenureDays, loaded[i].TenureDays)
	}
}

func TestPipeline_LoadProcessedMissingFile(t *testing.T) {
	p, _ := newTestPipeline(t, nil)

	_, err := p.LoadProcessed()
	assert.Error(t, err)
}

func TestPipeline_RunWritesArtifactsAndAlerts(t *testing.T) {
	sink := &captureSink{}
	p, outDir := newTestPipeline(t, sink)

	require.NoError(t, p.Run(context.Background()))

	fullPath := filepath.Join(outDir, "churn_predictions_2025-07-01.csv")
	filteredPath := filepath.Join(outDir, "churn_predictions_filtered_2025-07-01.csv")

	full := readCSVRows(t, fullPath)
	require.Len(t, full, 4, "header plus one row per cleaned caregiver")
	assert.Equal(t, "CG-ACTIVE", full[1][0])
	assert.Equal(t, "HIGH", full[1][2])
	assert.Equal(t, "CG-GONE", full[2][0])
	assert.Equal(t, "HIGH", full[2][2])
	assert.Equal(t, "CG-CALM", full[3][0])
	assert.Equal(t, "LOW", full[3][2])

	// CG-GONE is labeled churned and HIGH, so the filtered artifact
	// drops it.
	filtered := readCSVRows(t, filteredPath)
	require.Len(t, filtered, 3)
	assert.Equal(t, "CG-ACTIVE", filtered[1][0])
	assert.Equal(t, "CG-CALM", filtered[2][0])

	require.Len(t, sink.payloads, 1)
	payload := sink.payloads[0]
	assert.Equal(t, 1, payload.AtRiskCount)
	require.Len(t, payload.Top, 1)
	assert.Equal(t, "CG-ACTIVE", payload.Top[0].CaregiverID)
	require.Len(t, payload.Attachments, 2)
	assert.Equal(t, fullPath, payload.Attachments[0].Path)
	assert.Equal(t, filteredPath, payload.Attachments[1].Path)
}

func TestPipeline_RunWithoutDispatcher(t *testing.T) {
	p, outDir := newTestPipeline(t, nil)

	require.NoError(t, p.Run(context.Background()))
	assert.FileExists(t, filepath.Join(outDir, "churn_predictions_2025-07-01.csv"))
}

func TestPipeline_FetchFailureAbortsRun(t *testing.T) {
	p, outDir := newTestPipeline(t, nil)
	p.cfg.Snapshot.Path = filepath.Join(outDir, "does-not-exist.csv")

	err := p.Run(context.Background())
	require.Error(t, err)
	assert.NoFileExists(t, filepath.Join(outDir, "churn_predictions_2025-07-01.csv"))
}
