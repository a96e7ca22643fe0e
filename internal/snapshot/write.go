// internal/snapshot/write.go
package snapshot

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strconv"

	stderrors "github.com/wecare247/churnwatch/internal/common/errors"
	"github.com/wecare247/churnwatch/internal/models"
)

// WriteCSV persists a cleaned snapshot so the scoring stage can read
// the exact population the prep stage produced. Written via temp file
// and rename: no partial file is ever visible at path.
func WriteCSV(records []models.CaregiverRecord, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return stderrors.NewArtifactWriteFailedError(path, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".snapshot-*.csv")
	if err != nil {
		return stderrors.NewArtifactWriteFailedError(path, err)
	}
	defer os.Remove(tmp.Name())

	w := csv.NewWriter(tmp)
	header := []string{
		colCaregiverID, colTenureDays, colAge, colWaitingDays,
		colTotalLeaveDays, colDaysWorkedPeriod, colWorkRatioPeriod,
		colRank, colCompetencyScore, colPositiveFeedback, colIncidents,
		colAvgIncomePerShift, colSalaryBand, colAgeBand,
		colCurrentStatus, colHomeProvince, colChurnLabel,
	}
	if err := w.Write(header); err != nil {
		tmp.Close()
		return stderrors.NewArtifactWriteFailedError(path, err)
	}

	for _, rec := range records {
		row := []string{
			rec.CaregiverID,
			formatNumber(rec.TenureDays),
			formatOptional(rec.Age),
			formatOptional(rec.WaitingDays),
			formatOptional(rec.TotalLeaveDays),
			formatOptional(rec.DaysWorkedPeriod),
			formatOptional(rec.WorkRatioPeriod),
			formatOptional(rec.Rank),
			formatOptional(rec.CompetencyScore),
			formatOptional(rec.PositiveFeedback),
			formatOptional(rec.Incidents),
			formatOptional(rec.AvgIncomePerShift),
			rec.SalaryBand,
			rec.AgeBand,
			rec.CurrentStatus,
			rec.HomeProvince,
			formatOptional(rec.ChurnLabel),
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

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatOptional(v *float64) string {
	if v == nil {
		return ""
	}
	return formatNumber(*v)
}
