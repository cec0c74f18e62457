package models

import "time"

// AuditLog records one approval-workflow action. Actor is the resolved audit
// string (an email, a session id, or the literal "admin") rather than a user
// foreign key, because bulk jobs and legacy sessions act without a user row.
type AuditLog struct {
	AuditLogID  int       `gorm:"primaryKey;column:audit_log_id" json:"audit_log_id"`
	Actor       string    `gorm:"column:actor" json:"actor"`
	Action      string    `gorm:"column:action" json:"action"` // approve, reject, restore, approve_rejected, recompute
	EntityType  string    `gorm:"column:entity_type" json:"entity_type"`
	EntityID    *string   `gorm:"column:entity_id" json:"entity_id,omitempty"`
	Description *string   `gorm:"column:description" json:"description,omitempty"`
	IPAddress   string    `gorm:"column:ip_address" json:"ip_address"`
	CreatedAt   time.Time `gorm:"column:created_at" json:"created_at"`
}

func (AuditLog) TableName() string {
	return "audit_logs"
}
