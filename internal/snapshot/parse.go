// internal/snapshot/parse.go
package snapshot

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	stderrors "github.com/wecare247/churnwatch/internal/common/errors"
	"github.com/wecare247/churnwatch/internal/models"
)

// Snapshot column names. The sheet occasionally grows extra columns;
// anything not listed here is ignored.
const (
	colCaregiverID       = "caregiver_id"
	colTenureDays        = "tenure_days"
	colAge               = "age"
	colWaitingDays       = "waiting_days"
	colTotalLeaveDays    = "total_leave_days"
	colDaysWorkedPeriod  = "days_worked_period"
	colWorkRatioPeriod   = "work_ratio_period"
	colRank              = "rank"
	colCompetencyScore   = "competency_score"
	colPositiveFeedback  = "positive_feedback"
	colIncidents         = "incidents"
	colAvgIncomePerShift = "avg_income_per_shift"
	colSalaryBand        = "salary_band"
	colAgeBand           = "age_band"
	colCurrentStatus     = "current_status"
	colHomeProvince      = "home_province"
	colChurnLabel        = "churn_label"
)

// Parse decodes snapshot CSV bytes into caregiver records. Blank or
// unparseable numeric cells become nil (missing), matching the
// treat-missing-as-zero / impute-at-transform rules downstream.
func Parse(raw []byte) ([]models.CaregiverRecord, error) {
	reader := csv.NewReader(bytes.NewReader(raw))
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, stderrors.NewSnapshotParseFailedError(fmt.Errorf("read header: %w", err))
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.TrimSpace(strings.ToLower(name))] = i
	}
	if _, ok := index[colCaregiverID]; !ok {
		return nil, stderrors.NewSnapshotParseFailedError(fmt.Errorf("missing %s column", colCaregiverID))
	}

	var records []models.CaregiverRecord
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, stderrors.NewSnapshotParseFailedError(err)
		}

		cell := func(name string) string {
			i, ok := index[name]
			if !ok || i >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[i])
		}

		rec := models.CaregiverRecord{
			CaregiverID:       cell(colCaregiverID),
			TenureDays:        numericOr(cell(colTenureDays), 0),
			Age:               optionalNumeric(cell(colAge)),
			WaitingDays:       optionalNumeric(cell(colWaitingDays)),
			TotalLeaveDays:    optionalNumeric(cell(colTotalLeaveDays)),
			DaysWorkedPeriod:  optionalNumeric(cell(colDaysWorkedPeriod)),
			WorkRatioPeriod:   optionalNumeric(cell(colWorkRatioPeriod)),
			Rank:              optionalNumeric(cell(colRank)),
			CompetencyScore:   optionalNumeric(cell(colCompetencyScore)),
			PositiveFeedback:  optionalNumeric(cell(colPositiveFeedback)),
			Incidents:         optionalNumeric(cell(colIncidents)),
			AvgIncomePerShift: optionalNumeric(cell(colAvgIncomePerShift)),
			SalaryBand:        cell(colSalaryBand),
			AgeBand:           cell(colAgeBand),
			CurrentStatus:     cell(colCurrentStatus),
			HomeProvince:      cell(colHomeProvince),
			ChurnLabel:        optionalNumeric(cell(colChurnLabel)),
		}
		records = append(records, rec)
	}

	return records, nil
}

func optionalNumeric(s string) *float64 {
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}

func numericOr(s string, fallback float64) float64 {
	if v := optionalNumeric(s); v != nil {
		return *v
	}
	return fallback
}
