package controllers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"construction-tracking-api/config"
	"construction-tracking-api/models"
	"construction-tracking-api/services"
	"construction-tracking-api/store"
	"construction-tracking-api/utils"

	"github.com/gin-gonic/gin"
)

func liveTable() store.Table {
	return store.NewGormTable(config.DB, store.TableKPIRecords)
}

func rejectedTable() store.Table {
	return store.NewGormTable(config.DB, store.TableRejectedKPIRecords)
}

func approvalService() *services.ApprovalService {
	return services.NewApprovalService(liveTable(), rejectedTable(), config.GetLogger())
}

func aggregator() *services.BOQAggregator {
	return services.NewBOQAggregator(liveTable(), store.NewGormTable(config.DB, store.TableBOQActivities), config.GetLogger())
}

// recomputeAggregate refreshes the BOQ totals for a record's (project,
// activity) pair. A missing BOQ row is logged, never fatal.
func recomputeAggregate(c *gin.Context, projectFullCode, activityName string) {
	if projectFullCode == "" || activityName == "" {
		return
	}
	if _, err := aggregator().Recompute(c.Request.Context(), projectFullCode, activityName); err != nil {
		config.GetLogger().WithError(err).Warn("BOQ recompute failed after KPI change")
	}
}

func renderResult(c *gin.Context, res services.OpResult) {
	status := http.StatusOK
	if !res.Success {
		switch {
		case errors.Is(res.Err, services.ErrManualInterventionRequired):
			status = http.StatusConflict
		case strings.Contains(res.Message, "not found"),
			res.Err != nil && strings.Contains(res.Err.Error(), "no row found"):
			status = http.StatusNotFound
		default:
			status = http.StatusInternalServerError
		}
	}
	c.JSON(status, gin.H{
		"success": res.Success,
		"message": res.Message,
		"details": res.Details,
	})
}

// CreateKPIRecord stores a new progress observation. New rows always start
// outside the approved state.
func CreateKPIRecord(c *gin.Context) {
	var body map[string]any
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid request data"})
		return
	}

	row := services.CanonicalizeColumns(body)
	rec := services.NormalizeKPIRecord(row)
	if !utils.ValidateInputType(rec.InputType) {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "input_type must be Planned or Actual"})
		return
	}
	if rec.ProjectFullCode == "" || rec.ActivityName == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "project_full_code and activity_name are required"})
		return
	}

	delete(row, "id")
	row["approval_status"] = "pending"
	row["created_at"] = time.Now().Format(time.RFC3339)
	if _, ok := row["created_by"]; !ok {
		row["created_by"] = currentActor(c).Display()
	}
	if rec.Zone != "" {
		row["zone"] = services.FormatZone(rec.ProjectFullCode, rec.Zone)
	}

	inserted, err := liveTable().Insert(c.Request.Context(), row)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to create KPI record"})
		return
	}

	recomputeAggregate(c, rec.ProjectFullCode, rec.ActivityName)

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "KPI record created",
		"record":  services.NormalizeKPIRecord(inserted),
	})
}

// ListKPIRecords returns normalized live records with pagination and
// optional project/activity filters.
func ListKPIRecords(c *gin.Context) {
	limit := parsePositiveInt(c.Query("limit"), 50)
	page := parsePositiveInt(c.Query("page"), 1)

	q := store.Query{Offset: (page - 1) * limit, Limit: limit}
	if project := c.Query("project_full_code"); project != "" {
		q.Any = services.ProjectConds(project)
	}

	rows, err := liveTable().Select(c.Request.Context(), q)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to fetch KPI records"})
		return
	}

	// The activity filter runs after normalization so rows from either
	// column-naming era match.
	activity := c.Query("activity_name")
	records := make([]models.KPIRecord, 0, len(rows))
	for _, raw := range rows {
		rec := services.NormalizeKPIRecord(raw)
		if activity != "" && !strings.EqualFold(rec.ActivityName, activity) {
			continue
		}
		records = append(records, rec)
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"records": records,
		"page":    page,
		"limit":   limit,
	})
}

// GetKPIRecord returns one normalized live record.
func GetKPIRecord(c *gin.Context) {
	raw, err := liveTable().Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "KPI record not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "record": services.NormalizeKPIRecord(raw)})
}

// UpdateKPIRecord applies edits to a live record and refreshes the
// aggregate.
func UpdateKPIRecord(c *gin.Context) {
	id := c.Param("id")

	var body map[string]any
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid request data"})
		return
	}
	edits := services.CanonicalizeColumns(body)
	delete(edits, "id")
	if zone, ok := edits["zone"].(string); ok {
		if project, pok := edits["project_full_code"].(string); pok {
			edits["zone"] = services.FormatZone(project, zone)
		}
	}

	table := liveTable()
	if err := table.Update(c.Request.Context(), id, edits); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to update KPI record"})
		return
	}

	raw, err := table.Get(c.Request.Context(), id)
	if err == nil {
		rec := services.NormalizeKPIRecord(raw)
		recomputeAggregate(c, rec.ProjectFullCode, rec.ActivityName)
		c.JSON(http.StatusOK, gin.H{"success": true, "message": "KPI record updated", "record": rec})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "KPI record updated"})
}

// DeleteKPIRecord removes a live record and refreshes the aggregate.
func DeleteKPIRecord(c *gin.Context) {
	id := c.Param("id")
	table := liveTable()

	raw, err := table.Get(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "KPI record not found"})
		return
	}
	rec := services.NormalizeKPIRecord(raw)

	if err := table.Delete(c.Request.Context(), id); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to delete KPI record"})
		return
	}
	writeAudit(c, "delete", "kpi_record", id, "")
	recomputeAggregate(c, rec.ProjectFullCode, rec.ActivityName)
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "KPI record deleted"})
}

// ListPendingKPIRecords computes the set still requiring a decision.
func ListPendingKPIRecords(c *gin.Context) {
	var scope store.Query
	if project := c.Query("project_full_code"); project != "" {
		scope.Any = services.ProjectConds(project)
	}

	pending, err := approvalService().SelectPending(c.Request.Context(), scope)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to compute pending set"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"records": pending,
		"count":   len(pending),
	})
}

// ListRejectedKPIRecords returns normalized rows from the rejected store.
func ListRejectedKPIRecords(c *gin.Context) {
	limit := parsePositiveInt(c.Query("limit"), 50)
	page := parsePositiveInt(c.Query("page"), 1)

	q := store.Query{Offset: (page - 1) * limit, Limit: limit}
	if project := c.Query("project_full_code"); project != "" {
		q.Any = services.ProjectConds(project)
	}

	rows, err := rejectedTable().Select(c.Request.Context(), q)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to fetch rejected records"})
		return
	}

	records := make([]models.RejectedKPIRecord, 0, len(rows))
	for _, raw := range rows {
		records = append(records, services.NormalizeRejectedKPIRecord(raw))
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "records": records, "page": page, "limit": limit})
}

// ApproveKPIRecord flips one pending record to approved, with optional edits
// applied first.
func ApproveKPIRecord(c *gin.Context) {
	id := c.Param("id")

	var req struct {
		Edits map[string]any `json:"edits"`
	}
	_ = c.ShouldBindJSON(&req)

	svc := approvalService()
	res := svc.Approve(c.Request.Context(), id, req.Edits, currentActor(c))
	if res.Success {
		writeAudit(c, "approve", "kpi_record", id, "")
		if raw, err := liveTable().Get(c.Request.Context(), id); err == nil {
			rec := services.NormalizeKPIRecord(raw)
			recomputeAggregate(c, rec.ProjectFullCode, rec.ActivityName)
		}
	}
	renderResult(c, res)
}

// RejectKPIRecord moves one record to the rejected store.
func RejectKPIRecord(c *gin.Context) {
	id := c.Param("id")

	var req struct {
		RejectionReason string `json:"rejection_reason"`
	}
	_ = c.ShouldBindJSON(&req)
	reason := utils.SanitizeInput(req.RejectionReason)

	// Snapshot before the move so the aggregate pair and the notification
	// target survive the live-row delete.
	var snapshot models.KPIRecord
	if raw, err := liveTable().Get(c.Request.Context(), id); err == nil {
		snapshot = services.NormalizeKPIRecord(raw)
	}

	actor := currentActor(c)
	res := approvalService().Reject(c.Request.Context(), id, reason, actor)
	if res.Success {
		writeAudit(c, "reject", "kpi_record", id, reason)
		recomputeAggregate(c, snapshot.ProjectFullCode, snapshot.ActivityName)
		services.NewNotifier(config.GetLogger()).KPIRejected(snapshot, reason, auditActorName(actor))
	}
	renderResult(c, res)
}

// RestoreKPIRecord moves a rejected record back to the live store as
// pending.
func RestoreKPIRecord(c *gin.Context) {
	id := c.Param("id")

	res := approvalService().Restore(c.Request.Context(), id)
	if res.Success {
		writeAudit(c, "restore", "kpi_record", id, "")
		if newID, ok := res.Details["id"].(string); ok && newID != "" {
			if raw, err := liveTable().Get(c.Request.Context(), newID); err == nil {
				rec := services.NormalizeKPIRecord(raw)
				recomputeAggregate(c, rec.ProjectFullCode, rec.ActivityName)
			}
		}
	}
	renderResult(c, res)
}

// ApproveRejectedKPIRecord moves a rejected record back and approves it in
// one action.
func ApproveRejectedKPIRecord(c *gin.Context) {
	id := c.Param("id")

	var req struct {
		Edits map[string]any `json:"edits"`
	}
	_ = c.ShouldBindJSON(&req)

	res := approvalService().ApproveRejected(c.Request.Context(), id, req.Edits, currentActor(c))
	if res.Success {
		writeAudit(c, "approve_rejected", "kpi_record", id, "")
		if newID, ok := res.Details["id"].(string); ok && newID != "" {
			if raw, err := liveTable().Get(c.Request.Context(), newID); err == nil {
				rec := services.NormalizeKPIRecord(raw)
				recomputeAggregate(c, rec.ProjectFullCode, rec.ActivityName)
			}
		}
	}
	renderResult(c, res)
}
