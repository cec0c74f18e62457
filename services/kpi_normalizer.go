package services

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"construction-tracking-api/models"
	"construction-tracking-api/store"
)

// kpiFieldAliases maps each canonical KPI column to the legacy column names
// it may still arrive under. The live store is schema-permissive and holds
// rows from two naming eras, so every semantic read goes through this table.
// Order matters: the canonical key is tried first, then each alias; the first
// present, non-empty value wins. Adding a new legacy alias is a data change
// here, never an inline conditional downstream.
var kpiFieldAliases = map[string][]string{
	"id":                {"ID"},
	"input_type":        {"Input Type", "Type"},
	"project_full_code": {"Project Full Code", "Full Code"},
	"project_code":      {"Project Code"},
	"project_sub_code":  {"Project Sub Code", "Sub Code"},
	"activity_name":     {"Activity Name", "Activity"},
	"quantity":          {"Quantity", "Qty"},
	"unit":              {"Unit"},
	"value":             {"Value", "Amount"},
	"target_date":       {"Target Date"},
	"actual_date":       {"Actual Date"},
	"activity_date":     {"Activity Date"},
	"day":               {"Day"},
	"zone":              {"Zone"},
	"zone_number":       {"Zone Number", "Zone No"},
	"section":           {"Section"},
	"created_by":        {"Created By"},
	"created_at":        {"Created At", "Created Date"},
	"updated_by":        {"Updated By"},
	"recorded_by":       {"Recorded By"},
	"approval_status":   {"Approval Status", "Status"},
	"approved_by":       {"Approved By"},
	"approval_date":     {"Approval Date"},
	"notes":             {"Notes", "Comments"},
	"rejection_reason":  {"Rejection Reason"},
	"rejected_by":       {"Rejected By"},
	"rejected_date":     {"Rejected Date"},
	"original_kpi_id":   {"Original KPI ID"},
}

// legacyToCanonical is the reverse lookup, built once from kpiFieldAliases.
var legacyToCanonical = func() map[string]string {
	out := make(map[string]string)
	for canonical, aliases := range kpiFieldAliases {
		for _, alias := range aliases {
			out[alias] = canonical
		}
	}
	return out
}()

func fieldPresent(v any) bool {
	if v == nil {
		return false
	}
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s) != ""
	}
	return true
}

// FieldValue returns the value of a canonical KPI field from a raw row,
// trying the canonical key first and then every known legacy alias.
func FieldValue(raw store.Row, canonical string) (any, bool) {
	if v, ok := raw[canonical]; ok && fieldPresent(v) {
		return v, true
	}
	for _, alias := range kpiFieldAliases[canonical] {
		if v, ok := raw[alias]; ok && fieldPresent(v) {
			return v, true
		}
	}
	return nil, false
}

func stringField(raw store.Row, canonical string) string {
	v, ok := FieldValue(raw, canonical)
	if !ok {
		return ""
	}
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s)
	}
	return strings.TrimSpace(asString(v))
}

func asString(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case []byte:
		return string(s)
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case int64:
		return strconv.FormatInt(s, 10)
	case int:
		return strconv.Itoa(s)
	default:
		return fmt.Sprint(v)
	}
}

var numberPattern = regexp.MustCompile(`-?\d+(?:\.\d+)?`)

// ParseNumeric coerces a stored value to a float64. Stored quantities are
// occasionally currency-formatted or annotated strings ("1,250.5 m3",
// "THB 900"), so thousands separators and non-numeric prefixes/suffixes are
// stripped. Unparsable input yields 0, never an error.
func ParseNumeric(v any) float64 {
	switch n := v.(type) {
	case nil:
		return 0
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int32:
		return float64(n)
	case int64:
		return float64(n)
	case uint64:
		return float64(n)
	case []byte:
		return parseNumericString(string(n))
	case string:
		return parseNumericString(n)
	default:
		return 0
	}
}

func parseNumericString(s string) float64 {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	match := numberPattern.FindString(s)
	if match == "" {
		return 0
	}
	f, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return 0
	}
	return f
}

func numericField(raw store.Row, canonical string) float64 {
	v, ok := FieldValue(raw, canonical)
	if !ok {
		return 0
	}
	return ParseNumeric(v)
}

// NormalizeKPIRecord maps a heterogeneous raw row into the canonical KPI
// shape. Pure and idempotent: feeding the canonical row of an already
// normalized record through again returns the same value.
func NormalizeKPIRecord(raw store.Row) models.KPIRecord {
	return models.KPIRecord{
		ID:              stringField(raw, "id"),
		InputType:       stringField(raw, "input_type"),
		ProjectFullCode: stringField(raw, "project_full_code"),
		ProjectCode:     stringField(raw, "project_code"),
		ProjectSubCode:  stringField(raw, "project_sub_code"),
		ActivityName:    stringField(raw, "activity_name"),
		Quantity:        numericField(raw, "quantity"),
		Unit:            stringField(raw, "unit"),
		Value:           numericField(raw, "value"),
		TargetDate:      stringField(raw, "target_date"),
		ActualDate:      stringField(raw, "actual_date"),
		ActivityDate:    stringField(raw, "activity_date"),
		Day:             stringField(raw, "day"),
		Zone:            stringField(raw, "zone"),
		ZoneNumber:      stringField(raw, "zone_number"),
		Section:         stringField(raw, "section"),
		CreatedBy:       stringField(raw, "created_by"),
		CreatedAt:       stringField(raw, "created_at"),
		UpdatedBy:       stringField(raw, "updated_by"),
		RecordedBy:      stringField(raw, "recorded_by"),
		ApprovalStatus:  stringField(raw, "approval_status"),
		ApprovedBy:      stringField(raw, "approved_by"),
		ApprovalDate:    stringField(raw, "approval_date"),
		Notes:           stringField(raw, "notes"),
	}
}

// NormalizeRejectedKPIRecord normalizes a row from the rejected store.
func NormalizeRejectedKPIRecord(raw store.Row) models.RejectedKPIRecord {
	return models.RejectedKPIRecord{
		KPIRecord:       NormalizeKPIRecord(raw),
		RejectionReason: stringField(raw, "rejection_reason"),
		RejectedBy:      stringField(raw, "rejected_by"),
		RejectedDate:    stringField(raw, "rejected_date"),
		OriginalKPIID:   stringField(raw, "original_kpi_id"),
	}
}

// RecordToRow renders a canonical record back into a canonical-keyed row.
// Empty string fields are omitted so the row round-trips through
// NormalizeKPIRecord unchanged.
func RecordToRow(rec models.KPIRecord) store.Row {
	row := store.Row{}
	set := func(key, val string) {
		if val != "" {
			row[key] = val
		}
	}
	set("id", rec.ID)
	set("input_type", rec.InputType)
	set("project_full_code", rec.ProjectFullCode)
	set("project_code", rec.ProjectCode)
	set("project_sub_code", rec.ProjectSubCode)
	set("activity_name", rec.ActivityName)
	row["quantity"] = rec.Quantity
	set("unit", rec.Unit)
	row["value"] = rec.Value
	set("target_date", rec.TargetDate)
	set("actual_date", rec.ActualDate)
	set("activity_date", rec.ActivityDate)
	set("day", rec.Day)
	set("zone", rec.Zone)
	set("zone_number", rec.ZoneNumber)
	set("section", rec.Section)
	set("created_by", rec.CreatedBy)
	set("created_at", rec.CreatedAt)
	set("updated_by", rec.UpdatedBy)
	set("recorded_by", rec.RecordedBy)
	set("approval_status", rec.ApprovalStatus)
	set("approved_by", rec.ApprovedBy)
	set("approval_date", rec.ApprovalDate)
	set("notes", rec.Notes)
	return row
}

// ProjectConds matches a project linkage value across both naming eras in
// the schema-permissive KPI tables: the snake_case columns and every legacy
// alias of them. Rows written before the full-code convention only carry
// project_code, so both keys are tried. The conditions are meant for a
// Query's Any group.
func ProjectConds(code string) []store.Cond {
	var conds []store.Cond
	for _, canonical := range []string{"project_full_code", "project_code"} {
		conds = append(conds, store.Eq(canonical, code))
		for _, alias := range kpiFieldAliases[canonical] {
			conds = append(conds, store.Eq(alias, code))
		}
	}
	return conds
}

// CanonicalizeColumns remaps a set of edited fields onto canonical column
// names, the alias lookup run in reverse: legacy keys are rewritten, keys
// already canonical or unknown pass through untouched.
func CanonicalizeColumns(values store.Row) store.Row {
	out := make(store.Row, len(values))
	for k, v := range values {
		if canonical, ok := legacyToCanonical[k]; ok {
			out[canonical] = v
			continue
		}
		out[k] = v
	}
	return out
}
