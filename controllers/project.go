package controllers

import (
	"net/http"

	"construction-tracking-api/config"
	"construction-tracking-api/models"

	"github.com/gin-gonic/gin"
)

// ListProjects returns all active projects.
func ListProjects(c *gin.Context) {
	var projects []models.Project
	q := config.DB.Where("delete_at IS NULL")
	if status := c.Query("status"); status != "" {
		q = q.Where("status = ?", status)
	}
	if err := q.Order("project_full_code ASC").Find(&projects).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to fetch projects"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "projects": projects})
}

// GetProject returns one project by id or full code.
func GetProject(c *gin.Context) {
	key := c.Param("id")

	var project models.Project
	err := config.DB.
		Where("(project_id = ? OR project_full_code = ?) AND delete_at IS NULL", key, key).
		First(&project).Error
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Project not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "project": project})
}
