package controllers

import (
	"net/http"

	"construction-tracking-api/config"
	"construction-tracking-api/store"

	"github.com/gin-gonic/gin"
)

type projectProgressRow struct {
	ProjectFullCode string  `gorm:"column:project_full_code" json:"project_full_code"`
	Activities      int     `gorm:"column:activities" json:"activities"`
	PlannedUnits    float64 `gorm:"column:planned_units" json:"planned_units"`
	ActualUnits     float64 `gorm:"column:actual_units" json:"actual_units"`
}

// GetDashboardSummary rolls up BOQ progress per project and reports how many
// KPI rows still await a decision.
func GetDashboardSummary(c *gin.Context) {
	var rows []projectProgressRow
	err := config.DB.Table("boq_activities").
		Select("project_full_code, COUNT(*) AS activities, SUM(planned_units) AS planned_units, SUM(actual_units) AS actual_units").
		Where("delete_at IS NULL").
		Group("project_full_code").
		Order("project_full_code ASC").
		Find(&rows).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to build dashboard summary"})
		return
	}

	pending, err := approvalService().SelectPending(c.Request.Context(), store.Query{})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to compute pending count"})
		return
	}
	pendingByProject := map[string]int{}
	for _, rec := range pending {
		pendingByProject[rec.ProjectFullCode]++
	}

	type summaryRow struct {
		projectProgressRow
		ProgressPercent float64 `json:"progress_percent"`
		PendingKPIs     int     `json:"pending_kpis"`
	}
	summary := make([]summaryRow, 0, len(rows))
	for _, r := range rows {
		s := summaryRow{projectProgressRow: r, PendingKPIs: pendingByProject[r.ProjectFullCode]}
		if r.PlannedUnits > 0 {
			s.ProgressPercent = 100 * r.ActualUnits / r.PlannedUnits
		}
		summary = append(summary, s)
	}

	c.JSON(http.StatusOK, gin.H{
		"success":       true,
		"projects":      summary,
		"pending_total": len(pending),
	})
}
