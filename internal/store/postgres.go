// internal/store/postgres.go
package store

import (
	"context"
	"database/sql"
	"time"

	stderrors "github.com/wecare247/churnwatch/internal/common/errors"
	"github.com/wecare247/churnwatch/internal/models"
)

// Run summarizes one scoring run for the results repository.
type Run struct {
	ID        string
	RunDate   time.Time
	Total     int
	ErrorRows int
}

// RunsRepository persists scoring runs and their result rows.
type RunsRepository struct {
	db *sql.DB
}

func NewRunsRepository(db *sql.DB) *RunsRepository {
	return &RunsRepository{db: db}
}

const insertRunSQL = `
INSERT INTO churn_runs (id, run_date, total_records, error_records, created_at)
VALUES ($1, $2, $3, $4, $5)`

const insertResultSQL = `
INSERT INTO churn_predictions
  (run_id, caregiver_id, churn_probability, risk_level, days_to_quit_est, estimated_quit_date, error)
VALUES ($1, $2, $3, $4, $5, $6, $7)`

// SaveRun stores the run summary and every result row in one
// transaction, so the repository never shows a half-written run.
func (r *RunsRepository) SaveRun(ctx context.Context, run Run, results []models.ScoreResult) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return stderrors.NewResultStoreFailedError(err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, insertRunSQL,
		run.ID, run.RunDate, run.Total, run.ErrorRows, time.Now().UTC()); err != nil {
		return stderrors.NewResultStoreFailedError(err)
	}

	for _, res := range results {
		var prob sql.NullFloat64
		if res.ChurnProbability != nil {
			prob = sql.NullFloat64{Float64: *res.ChurnProbability, Valid: true}
		}
		var days sql.NullInt64
		if res.DaysToQuitEst != nil {
			days = sql.NullInt64{Int64: int64(*res.DaysToQuitEst), Valid: true}
		}
		var quitDate sql.NullTime
		if res.EstimatedQuitDate != nil {
			quitDate = sql.NullTime{Time: *res.EstimatedQuitDate, Valid: true}
		}

		if _, err := tx.ExecContext(ctx, insertResultSQL,
			run.ID, res.CaregiverID, prob, string(res.RiskLevel), days, quitDate, res.Err); err != nil {
			return stderrors.NewResultStoreFailedError(err)
		}
	}

	if err := tx.Commit(); err != nil {
		return stderrors.NewResultStoreFailedError(err)
	}
	return nil
}
