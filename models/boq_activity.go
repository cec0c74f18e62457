package models

import "time"

// BOQActivity represents the boq_activities table. PlannedUnits and
// ActualUnits are derived columns: the aggregator overwrites them with the
// sum of the matching KPI rows, they are never hand-edited once KPI records
// exist for the activity.
type BOQActivity struct {
	ID              string     `gorm:"primaryKey;column:id" json:"id"`
	ProjectCode     string     `gorm:"column:project_code" json:"project_code"`
	ProjectFullCode string     `gorm:"column:project_full_code" json:"project_full_code"`
	ActivityName    string     `gorm:"column:activity_name" json:"activity_name"`
	Unit            string     `gorm:"column:unit" json:"unit"`
	TotalUnits      float64    `gorm:"column:total_units" json:"total_units"`
	PlannedUnits    float64    `gorm:"column:planned_units" json:"planned_units"`
	ActualUnits     float64    `gorm:"column:actual_units" json:"actual_units"`
	UnitRate        float64    `gorm:"column:unit_rate" json:"unit_rate"`
	CreateAt        time.Time  `gorm:"column:create_at" json:"create_at"`
	UpdateAt        time.Time  `gorm:"column:update_at" json:"update_at"`
	DeleteAt        *time.Time `gorm:"column:delete_at" json:"delete_at,omitempty"`
}

func (BOQActivity) TableName() string {
	return "boq_activities"
}
