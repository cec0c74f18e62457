package models

// KPIRecord is the canonical shape of one progress observation after
// normalization. Raw store rows may carry either snake_case columns or the
// legacy "Title Case With Spaces" columns; services.NormalizeKPIRecord maps
// both eras onto this struct. Dates are kept as strings because legacy rows
// store free-text date labels alongside ISO dates.
type KPIRecord struct {
	ID              string  `json:"id"`
	InputType       string  `json:"input_type"` // Planned | Actual
	ProjectFullCode string  `json:"project_full_code"`
	ProjectCode     string  `json:"project_code"`
	ProjectSubCode  string  `json:"project_sub_code"`
	ActivityName    string  `json:"activity_name"`
	Quantity        float64 `json:"quantity"`
	Unit            string  `json:"unit"`
	Value           float64 `json:"value"`
	TargetDate      string  `json:"target_date"`
	ActualDate      string  `json:"actual_date"`
	ActivityDate    string  `json:"activity_date"`
	Day             string  `json:"day"`
	Zone            string  `json:"zone"`
	ZoneNumber      string  `json:"zone_number"`
	Section         string  `json:"section"`
	CreatedBy       string  `json:"created_by"`
	CreatedAt       string  `json:"created_at"`
	UpdatedBy       string  `json:"updated_by"`
	RecordedBy      string  `json:"recorded_by"`
	ApprovalStatus  string  `json:"approval_status"`
	ApprovedBy      string  `json:"approved_by"`
	ApprovalDate    string  `json:"approval_date"`
	Notes           string  `json:"notes"`
}

// RejectedKPIRecord is a KPI record that was moved to the rejected store.
type RejectedKPIRecord struct {
	KPIRecord
	RejectionReason string `json:"rejection_reason"`
	RejectedBy      string `json:"rejected_by"`
	RejectedDate    string `json:"rejected_date"`
	OriginalKPIID   string `json:"original_kpi_id"`
}
