package models

import "time"

// Project represents the projects table. ProjectFullCode is the primary join
// key for KPI rows; ProjectCode is kept because rows written before the
// full-code convention existed only carry the short code.
type Project struct {
	ProjectID       int        `gorm:"primaryKey;column:project_id" json:"project_id"`
	ProjectName     string     `gorm:"column:project_name" json:"project_name"`
	ProjectCode     string     `gorm:"column:project_code" json:"project_code"`
	ProjectSubCode  string     `gorm:"column:project_sub_code" json:"project_sub_code"`
	ProjectFullCode string     `gorm:"column:project_full_code;unique" json:"project_full_code"`
	Client          string     `gorm:"column:client" json:"client"`
	Status          string     `gorm:"column:status" json:"status"`
	StartDate       *time.Time `gorm:"column:start_date" json:"start_date,omitempty"`
	EndDate         *time.Time `gorm:"column:end_date" json:"end_date,omitempty"`
	CreateAt        time.Time  `gorm:"column:create_at" json:"create_at"`
	UpdateAt        time.Time  `gorm:"column:update_at" json:"update_at"`
	DeleteAt        *time.Time `gorm:"column:delete_at" json:"delete_at,omitempty"`
}

func (Project) TableName() string {
	return "projects"
}
