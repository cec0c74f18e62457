package controllers

import (
	"net/http"

	"construction-tracking-api/config"
	"construction-tracking-api/models"

	"github.com/gin-gonic/gin"
)

// ListBOQActivities returns the BOQ activities of a project.
func ListBOQActivities(c *gin.Context) {
	project := c.Query("project_full_code")

	q := config.DB.Model(&models.BOQActivity{}).Where("delete_at IS NULL")
	if project != "" {
		q = q.Where("project_full_code = ? OR project_code = ?", project, project)
	}

	var activities []models.BOQActivity
	if err := q.Order("activity_name ASC").Find(&activities).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to fetch BOQ activities"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "activities": activities})
}

// GetBOQActivity returns one BOQ activity.
func GetBOQActivity(c *gin.Context) {
	var activity models.BOQActivity
	if err := config.DB.Where("id = ? AND delete_at IS NULL", c.Param("id")).
		First(&activity).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "BOQ activity not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "activity": activity})
}

// RecomputeBOQActivity re-derives planned/actual totals for one activity
// from its KPI rows.
func RecomputeBOQActivity(c *gin.Context) {
	var activity models.BOQActivity
	if err := config.DB.Where("id = ? AND delete_at IS NULL", c.Param("id")).
		First(&activity).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "BOQ activity not found"})
		return
	}

	code := activity.ProjectFullCode
	if code == "" {
		code = activity.ProjectCode
	}
	result, err := aggregator().Recompute(c.Request.Context(), code, activity.ActivityName)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to recompute BOQ totals"})
		return
	}

	writeAudit(c, "recompute", "boq_activity", activity.ID, "")
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "BOQ totals recomputed",
		"result":  result,
	})
}
