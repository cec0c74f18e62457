package controllers

import (
	"strconv"
	"sync"
	"time"

	"construction-tracking-api/config"
	"construction-tracking-api/models"
	"construction-tracking-api/services"
	"construction-tracking-api/utils"

	"github.com/gin-gonic/gin"
)

var (
	auditNamesOnce sync.Once
	auditNames     *services.UserCache
)

// auditNameCache is the shared display-name cache for audit and
// notification text. Built lazily so tests can prime it before any
// database-backed lookup happens.
func auditNameCache() *services.UserCache {
	auditNamesOnce.Do(func() {
		auditNames = services.NewUserCache(config.DB, 0)
	})
	return auditNames
}

// auditActorName resolves the human-facing name for an actor. Only email
// identities have user rows; session ids and the "admin" fallback pass
// through unchanged.
func auditActorName(actor services.Actor) string {
	display := actor.Display()
	if !utils.ValidateEmail(display) {
		return display
	}
	return auditNameCache().DisplayNameByEmail(display)
}

// currentActor builds the audit identity from whatever the session supplies.
// The approval core falls back to "admin" when everything is missing; an
// operation never fails for lack of identity.
func currentActor(c *gin.Context) services.Actor {
	actor := services.Actor{}
	if v, ok := c.Get("email"); ok {
		actor.Email, _ = v.(string)
	}
	if v, ok := c.Get("sessionEmail"); ok {
		actor.AltEmail, _ = v.(string)
	}
	if v, ok := c.Get("userID"); ok {
		if id, isInt := v.(int); isInt {
			actor.AltID = strconv.Itoa(id)
		}
	}
	return actor
}

// writeAudit records a workflow action. Best effort: bulk runs must not stop
// because the audit table is unreachable.
func writeAudit(c *gin.Context, action, entityType, entityID, description string) {
	entry := models.AuditLog{
		Actor:      auditActorName(currentActor(c)),
		Action:     action,
		EntityType: entityType,
		IPAddress:  c.ClientIP(),
		CreatedAt:  time.Now(),
	}
	if entityID != "" {
		entry.EntityID = &entityID
	}
	if description != "" {
		entry.Description = &description
	}
	if err := config.DB.Create(&entry).Error; err != nil {
		config.GetLogger().WithError(err).Warn("failed to write audit log entry")
	}
}

func parsePositiveInt(q string, def int) int {
	if q == "" {
		return def
	}
	n, err := strconv.Atoi(q)
	if err != nil || n <= 0 {
		return def
	}
	return n
}
