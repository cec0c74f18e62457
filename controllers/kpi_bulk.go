package controllers

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"construction-tracking-api/config"
	"construction-tracking-api/models"
	"construction-tracking-api/services"
	"construction-tracking-api/store"

	"github.com/gin-gonic/gin"
)

type bulkRequest struct {
	ProjectFullCode string `json:"project_full_code"`
	ActivityName    string `json:"activity_name"`
	InputType       string `json:"input_type"`
	RejectionReason string `json:"rejection_reason"`
	PendingOnly     bool   `json:"pending_only"`
}

type activityPair struct {
	project  string
	activity string
}

// bulkScope narrows the store fetch by project only. The single OR group
// carries the project keys of both naming eras; activity and input type are
// matched client-side through the normalizer (bulkFilter) for the same
// reason.
func bulkScope(req bulkRequest) store.Query {
	var q store.Query
	if req.ProjectFullCode != "" {
		q.Any = services.ProjectConds(req.ProjectFullCode)
	}
	return q
}

func bulkFilter(req bulkRequest) func(models.KPIRecord) bool {
	if req.ActivityName == "" && req.InputType == "" {
		return nil
	}
	return func(rec models.KPIRecord) bool {
		if req.ActivityName != "" && !strings.EqualFold(rec.ActivityName, req.ActivityName) {
			return false
		}
		if req.InputType != "" && !strings.EqualFold(strings.TrimSpace(rec.InputType), req.InputType) {
			return false
		}
		return true
	}
}

func runBulk(c *gin.Context, req bulkRequest, op services.BulkOperation) services.BulkResult {
	log := config.GetLogger()
	orch := services.NewBulkOrchestrator(liveTable(), log)
	return orch.Apply(c.Request.Context(), bulkScope(req), op, services.BulkOptions{
		Filter: bulkFilter(req),
		Progress: func(processed int) {
			log.WithField("processed", processed).Info("bulk operation progress")
		},
	})
}

func respondBulk(c *gin.Context, result services.BulkResult) {
	status := http.StatusOK
	switch {
	case result.Cancelled:
		status = http.StatusRequestTimeout
	case result.FetchError != "":
		status = http.StatusInternalServerError
	}
	c.JSON(status, gin.H{
		"success":     status == http.StatusOK,
		"message":     "Bulk operation finished",
		"processed":   result.Processed,
		"succeeded":   result.Succeeded,
		"failed":      result.Failed,
		"fetch_error": result.FetchError,
		"cancelled":   result.Cancelled,
	})
}

// BulkApproveKPIRecords approves every record in scope. With pending_only
// set, rows already explicitly approved are passed over rather than
// re-approved.
func BulkApproveKPIRecords(c *gin.Context) {
	var req bulkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid request data"})
		return
	}

	svc := approvalService()
	actor := currentActor(c)
	touched := map[activityPair]struct{}{}

	result := runBulk(c, req, func(ctx context.Context, rec models.KPIRecord) services.OpResult {
		if req.PendingOnly && services.IsExplicitlyApproved(rec) {
			return services.OpResult{Success: true, Message: "already approved"}
		}
		res := svc.Approve(ctx, rec.ID, nil, actor)
		if res.Success {
			touched[activityPair{rec.ProjectFullCode, rec.ActivityName}] = struct{}{}
		}
		return res
	})

	recomputeTouched(c, touched)
	writeAudit(c, "bulk_approve", "kpi_record", "",
		fmt.Sprintf("%d succeeded, %d failed", result.Succeeded, len(result.Failed)))
	respondBulk(c, result)
}

// BulkRejectKPIRecords rejects every record in scope with one shared reason.
func BulkRejectKPIRecords(c *gin.Context) {
	var req bulkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid request data"})
		return
	}

	svc := approvalService()
	actor := currentActor(c)
	touched := map[activityPair]struct{}{}

	result := runBulk(c, req, func(ctx context.Context, rec models.KPIRecord) services.OpResult {
		res := svc.Reject(ctx, rec.ID, req.RejectionReason, actor)
		if res.Success {
			touched[activityPair{rec.ProjectFullCode, rec.ActivityName}] = struct{}{}
		}
		return res
	})

	recomputeTouched(c, touched)
	writeAudit(c, "bulk_reject", "kpi_record", "",
		fmt.Sprintf("%d succeeded, %d failed", result.Succeeded, len(result.Failed)))
	respondBulk(c, result)
}

func recomputeTouched(c *gin.Context, touched map[activityPair]struct{}) {
	agg := aggregator()
	for pair := range touched {
		if _, err := agg.Recompute(c.Request.Context(), pair.project, pair.activity); err != nil {
			config.GetLogger().WithError(err).Warn("BOQ recompute failed after bulk operation")
		}
	}
}
