// internal/alert/dispatcher.go

// Package alert selects the alertable subset of a scored population
// and delivers it to a notification sink.
package alert

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/wecare247/churnwatch/internal/common/logger"
	"github.com/wecare247/churnwatch/internal/common/metrics"
	"github.com/wecare247/churnwatch/internal/models"
)

// topN is how many highest-risk caregivers the inline summary lists.
const topN = 5

// Attachment references a persisted result artifact to attach.
type Attachment struct {
	Filename string
	Path     string
}

// Payload is what a notification sink receives for one run.
type Payload struct {
	Subject     string
	HTMLBody    string
	AtRiskCount int
	Top         []models.ScoreResult
	Attachments []Attachment
}

// Sink delivers an alert payload. Implementations must not retain the
// payload after Send returns.
type Sink interface {
	Name() string
	Send(ctx context.Context, p Payload) error
}

// Dispatcher builds and sends the risk alert for a scored run.
// Dispatch failures are reported but never invalidate the persisted
// scoring artifacts.
type Dispatcher struct {
	sink   Sink
	state  *StateStore // nil disables repeat-alert suppression
	logger logger.Logger
}

func NewDispatcher(sink Sink, state *StateStore, log logger.Logger) *Dispatcher {
	return &Dispatcher{
		sink:   sink,
		state:  state,
		logger: log,
	}
}

// Dispatch selects HIGH and MEDIUM risk rows from the filtered result
// set and hands them to the sink together with both artifact
// references. An empty selection is a quiet run, not an error.
func (d *Dispatcher) Dispatch(ctx context.Context, filtered []models.ScoreResult, fullPath, filteredPath string) error {
	alertable := SelectAlertable(filtered)
	if len(alertable) == 0 {
		d.logger.Info("no high or medium risk caregivers to report", nil)
		return nil
	}

	if d.state != nil {
		alertable = d.suppressRecent(ctx, alertable)
		if len(alertable) == 0 {
			d.logger.Info("all at-risk caregivers alerted within cooldown, skipping dispatch", nil)
			return nil
		}
	}

	payload := Payload{
		Subject:     "[WeCare247] High & Medium churn risk caregivers",
		HTMLBody:    renderHTML(alertable),
		AtRiskCount: len(alertable),
		Top:         topByProbability(alertable, topN),
		Attachments: []Attachment{
			{Filename: filepath.Base(fullPath), Path: fullPath},
			{Filename: filepath.Base(filteredPath), Path: filteredPath},
		},
	}

	if err := d.sink.Send(ctx, payload); err != nil {
		metrics.AlertsDispatched.WithLabelValues("failed").Inc()
		d.logger.Error("alert dispatch failed", map[string]interface{}{
			"provider": d.sink.Name(),
			"error":    err.Error(),
		})
		return err
	}

	metrics.AlertsDispatched.WithLabelValues("sent").Inc()
	d.logger.Info("alert dispatched", map[string]interface{}{
		"provider": d.sink.Name(),
		"atRisk":   len(alertable),
	})

	if d.state != nil {
		d.state.MarkAlerted(ctx, ids(alertable))
	}
	return nil
}

// SelectAlertable returns the HIGH and MEDIUM risk rows, preserving
// input order.
func SelectAlertable(results []models.ScoreResult) []models.ScoreResult {
	var out []models.ScoreResult
	for _, r := range results {
		if r.RiskLevel == models.RiskHigh || r.RiskLevel == models.RiskMedium {
			out = append(out, r)
		}
	}
	return out
}

func (d *Dispatcher) suppressRecent(ctx context.Context, alertable []models.ScoreResult) []models.ScoreResult {
	suppressed, err := d.state.RecentlyAlerted(ctx, ids(alertable))
	if err != nil {
		// Suppression is best-effort: a down state store must not
		// block the alert.
		d.logger.Warn("alert state unavailable, skipping suppression", map[string]interface{}{
			"error": err.Error(),
		})
		return alertable
	}

	var out []models.ScoreResult
	for _, r := range alertable {
		if !suppressed[r.CaregiverID] {
			out = append(out, r)
		}
	}
	return out
}

func topByProbability(results []models.ScoreResult, n int) []models.ScoreResult {
	ranked := make([]models.ScoreResult, len(results))
	copy(ranked, results)
	sort.SliceStable(ranked, func(i, j int) bool {
		return probOf(ranked[i]) > probOf(ranked[j])
	})
	if len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}

func probOf(r models.ScoreResult) float64 {
	if r.ChurnProbability == nil {
		return -1
	}
	return *r.ChurnProbability
}

func renderHTML(alertable []models.ScoreResult) string {
	var table strings.Builder
	for _, r := range topByProbability(alertable, topN) {
		fmt.Fprintf(&table, "- %s: %.2f%% (%s days left)\n",
			r.CaregiverID, probOf(r), r.DaysToQuitString())
	}

	return fmt.Sprintf(`<html>
<body>
    <p><b>High &amp; Medium Churn Risk Detected</b></p>
    <p><b>%d caregivers</b> have a high or medium churn risk.<br>
    Top %d highest risk potentials listed below:</p>
    <pre style="font-family: monospace; font-size: 14px;">%s</pre>
    <p>The full and filtered prediction reports are attached to this email.</p>
</body>
</html>`, len(alertable), topN, table.String())
}

func ids(results []models.ScoreResult) []string {
	out := make([]string, 0, len(results))
	for _, r := range results {
		out = append(out, r.CaregiverID)
	}
	return out
}
