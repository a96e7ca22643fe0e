// internal/store/csvstore.go

// Package store persists run outputs: dated CSV artifacts on disk and,
// optionally, scored rows in PostgreSQL.
package store

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"time"

	stderrors "github.com/wecare247/churnwatch/internal/common/errors"
	"github.com/wecare247/churnwatch/internal/models"
)

var resultsHeader = []string{
	"caregiver_id", "churn_probability", "risk_level",
	"days_to_quit_est", "estimated_quit_date", "error",
}

// CSVStore writes dated prediction artifacts under a fixed directory.
type CSVStore struct {
	dir string
}

func NewCSVStore(dir string) *CSVStore {
	return &CSVStore{dir: dir}
}

// PredictionsPath is the full-results artifact for the given run date.
func (s *CSVStore) PredictionsPath(day time.Time) string {
	return filepath.Join(s.dir, fmt.Sprintf("churn_predictions_%s.csv", day.Format("2006-01-02")))
}

// FilteredPath is the filtered-results artifact for the given run date.
func (s *CSVStore) FilteredPath(day time.Time) string {
	return filepath.Join(s.dir, fmt.Sprintf("churn_predictions_filtered_%s.csv", day.Format("2006-01-02")))
}

// WriteResults writes a result set to path via temp file and rename,
// so a failed run never leaves a partial-looking artifact behind.
func (s *CSVStore) WriteResults(path string, results []models.ScoreResult) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return stderrors.NewArtifactWriteFailedError(path, err)
	}

	tmp, err := os.CreateTemp(s.dir, ".predictions-*.csv")
	if err != nil {
		return stderrors.NewArtifactWriteFailedError(path, err)
	}
	defer os.Remove(tmp.Name())

	w := csv.NewWriter(tmp)
	if err := w.Write(resultsHeader); err != nil {
		tmp.Close()
		return stderrors.NewArtifactWriteFailedError(path, err)
	}
	for _, r := range results {
		row := []string{
			r.CaregiverID,
			r.ProbabilityString(),
			string(r.RiskLevel),
			r.DaysToQuitString(),
			r.QuitDateString(),
			r.Err,
		}
		if err := w.Write(row); err != nil {
			tmp.Close()
			return stderrors.NewArtifactWriteFailedError(path, err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		tmp.Close()
		return stderrors.NewArtifactWriteFailedError(path, err)
	}
	if err := tmp.Close(); err != nil {
		return stderrors.NewArtifactWriteFailedError(path, err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		return stderrors.NewArtifactWriteFailedError(path, err)
	}
	return nil
}
