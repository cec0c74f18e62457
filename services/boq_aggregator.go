package services

import (
	"context"
	"strings"
	"time"

	"construction-tracking-api/config"
	"construction-tracking-api/store"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// AggregateResult is the outcome of one recomputation. Matched is false when
// no BOQ activity row exists for the pair. That is an explicit outcome, not
// an error: the caller decides whether it is a problem.
type AggregateResult struct {
	Matched      bool    `json:"matched"`
	ActivityID   string  `json:"activity_id,omitempty"`
	PlannedTotal float64 `json:"planned_total"`
	ActualTotal  float64 `json:"actual_total"`
}

// BOQAggregator keeps the derived planned/actual totals of a BOQ activity
// consistent with the sum of its KPI rows. It never deletes a BOQ row:
// recomputation is visibly non-destructive, so a vanished activity is always
// a distinct bug from changed totals.
type BOQAggregator struct {
	kpis     store.Table
	boq      store.Table
	log      *logrus.Logger
	pageSize int
}

func NewBOQAggregator(kpis, boq store.Table, logger *logrus.Logger) *BOQAggregator {
	if kpis == nil {
		kpis = store.NewGormTable(config.DB, store.TableKPIRecords)
	}
	if boq == nil {
		boq = store.NewGormTable(config.DB, store.TableBOQActivities)
	}
	if logger == nil {
		logger = config.GetLogger()
	}
	return &BOQAggregator{kpis: kpis, boq: boq, log: logger, pageSize: fetchPageSize}
}

// boqProjectMatch matches BOQ rows on project_full_code, with a fallback on
// project_code for rows written before the full-code convention existed.
// boq_activities is a regular snake_case table, so unlike the KPI selects it
// never needs the legacy spaced aliases.
func boqProjectMatch(projectFullCode string) []store.Cond {
	return []store.Cond{
		store.Eq("project_full_code", projectFullCode),
		store.Eq("project_code", projectFullCode),
	}
}

// Recompute sums all live KPI rows for the (project, activity) pair and
// writes both totals back to the matching BOQ row unconditionally. The
// aggregate is always derived, never merged field by field.
func (a *BOQAggregator) Recompute(ctx context.Context, projectFullCode, activityName string) (AggregateResult, error) {
	planned := decimal.Zero
	actual := decimal.Zero

	for offset := 0; ; offset += a.pageSize {
		page, err := a.kpis.Select(ctx, store.Query{
			Any:    ProjectConds(projectFullCode),
			Offset: offset,
			Limit:  a.pageSize,
		})
		if err != nil {
			return AggregateResult{}, err
		}
		for _, raw := range page {
			rec := NormalizeKPIRecord(raw)
			if !strings.EqualFold(rec.ActivityName, activityName) {
				continue
			}
			qty := decimal.NewFromFloat(rec.Quantity)
			switch strings.ToLower(strings.TrimSpace(rec.InputType)) {
			case "planned":
				planned = planned.Add(qty)
			case "actual":
				actual = actual.Add(qty)
			}
		}
		if len(page) < a.pageSize {
			break
		}
	}

	result := AggregateResult{
		PlannedTotal: planned.InexactFloat64(),
		ActualTotal:  actual.InexactFloat64(),
	}

	activityID, found, err := a.findActivity(ctx, projectFullCode, activityName)
	if err != nil {
		return AggregateResult{}, err
	}
	if !found {
		a.log.WithFields(logrus.Fields{
			"project":  projectFullCode,
			"activity": activityName,
		}).Warn("no matching BOQ activity for recompute")
		return result, nil
	}
	result.Matched = true
	result.ActivityID = activityID

	err = a.boq.Update(ctx, activityID, store.Row{
		"planned_units": result.PlannedTotal,
		"actual_units":  result.ActualTotal,
		"update_at":     time.Now(),
	})
	if err != nil {
		return AggregateResult{}, err
	}
	return result, nil
}

// findActivity locates the BOQ row by the dual-key project match. Malformed
// data can in principle match more than one row; the first match wins.
func (a *BOQAggregator) findActivity(ctx context.Context, projectFullCode, activityName string) (string, bool, error) {
	rows, err := a.boq.Select(ctx, store.Query{Any: boqProjectMatch(projectFullCode)})
	if err != nil {
		return "", false, err
	}
	for _, raw := range rows {
		name := stringField(raw, "activity_name")
		if strings.EqualFold(name, activityName) {
			return stringField(raw, "id"), true, nil
		}
	}
	return "", false, nil
}
