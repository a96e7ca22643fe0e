// internal/pipeline/run.go

// Package pipeline wires the batch stages together: fetch, prep,
// score, persist, alert. Model training happens outside this repo;
// the pipeline only consumes its artifacts.
package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/wecare247/churnwatch/internal/alert"
	"github.com/wecare247/churnwatch/internal/common/config"
	stderrors "github.com/wecare247/churnwatch/internal/common/errors"
	"github.com/wecare247/churnwatch/internal/common/logger"
	"github.com/wecare247/churnwatch/internal/common/metrics"
	"github.com/wecare247/churnwatch/internal/models"
	"github.com/wecare247/churnwatch/internal/scoring"
	"github.com/wecare247/churnwatch/internal/snapshot"
	"github.com/wecare247/churnwatch/internal/store"
)

// processedSnapshotFile is the cleaned snapshot the scoring stage
// reads, refreshed by every fetch stage.
const processedSnapshotFile = "processed_snapshot.csv"

// Pipeline runs the churn-risk batch. One Pipeline processes one
// snapshot start to finish; no overlapping run touches the same dated
// artifacts.
type Pipeline struct {
	cfg        *config.Config
	fetcher    *snapshot.Fetcher
	batch      *scoring.BatchScorer
	artifacts  *store.CSVStore
	repository *store.RunsRepository // nil when postgres is disabled
	dispatcher *alert.Dispatcher     // nil when alerting is disabled
	clock      scoring.Clock
	logger     logger.Logger
}

type Deps struct {
	Fetcher    *snapshot.Fetcher
	Batch      *scoring.BatchScorer
	Artifacts  *store.CSVStore
	Repository *store.RunsRepository
	Dispatcher *alert.Dispatcher
	Clock      scoring.Clock
	Logger     logger.Logger
}

func New(cfg *config.Config, deps Deps) *Pipeline {
	return &Pipeline{
		cfg:        cfg,
		fetcher:    deps.Fetcher,
		batch:      deps.Batch,
		artifacts:  deps.Artifacts,
		repository: deps.Repository,
		dispatcher: deps.Dispatcher,
		clock:      deps.Clock,
		logger:     deps.Logger,
	}
}

// Run executes the full batch: fetch and prep the snapshot, then score
// and alert. A stage failure aborts the stages after it.
func (p *Pipeline) Run(ctx context.Context) error {
	records, err := p.FetchAndPrep(ctx)
	if err != nil {
		return err
	}
	return p.ScoreAndAlert(ctx, records)
}

// FetchAndPrep pulls the population snapshot, cleans it and persists
// the processed copy for this and later scoring runs.
func (p *Pipeline) FetchAndPrep(ctx context.Context) ([]models.CaregiverRecord, error) {
	defer p.timeStage("fetch_prep")()

	raw, err := p.fetcher.Fetch(ctx, p.cfg.Snapshot)
	if err != nil {
		return nil, err
	}

	records, err := snapshot.Parse(raw)
	if err != nil {
		return nil, err
	}

	cleaned := snapshot.Clean(records, p.logger)

	path := p.ProcessedSnapshotPath()
	if err := snapshot.WriteCSV(cleaned, path); err != nil {
		return nil, err
	}
	p.logger.Info("processed snapshot saved", map[string]interface{}{
		"path":    path,
		"records": len(cleaned),
	})
	return cleaned, nil
}

// LoadProcessed reads back the processed snapshot written by a
// previous fetch stage, for score-only runs.
func (p *Pipeline) LoadProcessed() ([]models.CaregiverRecord, error) {
	raw, err := os.ReadFile(p.ProcessedSnapshotPath())
	if err != nil {
		return nil, stderrors.NewSnapshotFetchFailedError(err)
	}
	return snapshot.Parse(raw)
}

// ScoreAndAlert scores the population, persists both result artifacts,
// and dispatches the risk alert. Scoring success and notification
// success are independent outcomes: a sink failure is logged but never
// unwinds the already-written artifacts.
func (p *Pipeline) ScoreAndAlert(ctx context.Context, records []models.CaregiverRecord) error {
	defer p.timeStage("score")()

	today := p.clock.Today()
	results := p.batch.ScorePopulation(records)

	fullPath := p.artifacts.PredictionsPath(today)
	if err := p.artifacts.WriteResults(fullPath, results); err != nil {
		return err
	}
	p.logger.Info("predictions saved", map[string]interface{}{"path": fullPath})

	filtered := scoring.FilterAlreadyChurned(records, results)
	filteredPath := p.artifacts.FilteredPath(today)
	if err := p.artifacts.WriteResults(filteredPath, filtered); err != nil {
		return err
	}
	p.logger.Info("filtered predictions saved", map[string]interface{}{
		"path":    filteredPath,
		"removed": len(results) - len(filtered),
	})

	p.persistRun(ctx, today, results)

	if p.dispatcher != nil {
		if err := p.dispatcher.Dispatch(ctx, filtered, fullPath, filteredPath); err != nil {
			p.logger.Error("alert dispatch failed, scoring artifacts remain valid", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}

	return nil
}

// persistRun stores the run in the results repository when one is
// configured. Failures degrade to a log line: the CSV artifacts are
// the contract, the database is a convenience mirror.
func (p *Pipeline) persistRun(ctx context.Context, today time.Time, results []models.ScoreResult) {
	if p.repository == nil {
		return
	}

	errorRows := 0
	for _, r := range results {
		if r.RiskLevel == models.RiskError {
			errorRows++
		}
	}

	run := store.Run{
		ID:        uuid.New().String(),
		RunDate:   today,
		Total:     len(results),
		ErrorRows: errorRows,
	}
	if err := p.repository.SaveRun(ctx, run, results); err != nil {
		p.logger.Error("failed to persist run to repository", map[string]interface{}{
			"runId": run.ID,
			"error": err.Error(),
		})
		return
	}
	p.logger.Info("run persisted", map[string]interface{}{
		"runId":   run.ID,
		"records": run.Total,
	})
}

// ProcessedSnapshotPath is where the cleaned snapshot lives between
// the prep and score stages.
func (p *Pipeline) ProcessedSnapshotPath() string {
	return filepath.Join(p.cfg.Output.Dir, processedSnapshotFile)
}

func (p *Pipeline) timeStage(stage string) func() {
	start := time.Now()
	return func() {
		metrics.StageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
	}
}
