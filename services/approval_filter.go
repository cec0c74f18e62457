package services

import (
	"context"
	"strings"

	"construction-tracking-api/models"
	"construction-tracking-api/store"
)

// IsExplicitlyApproved reports whether a record has been positively marked
// approved, either through the approval_status column or through the legacy
// notes encoding. Everything else (null, empty, absent, or any other status
// value) still needs a decision: in the absence of information the default
// is "needs approval".
func IsExplicitlyApproved(rec models.KPIRecord) bool {
	if strings.EqualFold(strings.TrimSpace(rec.ApprovalStatus), approvalStatusApproved) {
		return true
	}
	return HasApprovalMarker(rec.Notes)
}

// FilterPending normalizes raw rows and keeps the ones that still require a
// decision.
func FilterPending(rows []store.Row) []models.KPIRecord {
	var pending []models.KPIRecord
	for _, raw := range rows {
		rec := NormalizeKPIRecord(raw)
		if !IsExplicitlyApproved(rec) {
			pending = append(pending, rec)
		}
	}
	return pending
}

// SelectPending computes the pending set over the live store, narrowed by
// the caller's scope (its Offset/Limit are overridden by the scan). The
// store caps result sizes, so the scan fetches page by page until a short
// page signals exhaustion.
func (s *ApprovalService) SelectPending(ctx context.Context, scope store.Query) ([]models.KPIRecord, error) {
	var pending []models.KPIRecord
	for offset := 0; ; offset += s.pageSize {
		q := scope
		q.Offset = offset
		q.Limit = s.pageSize
		page, err := s.live.Select(ctx, q)
		if err != nil {
			return nil, err
		}
		pending = append(pending, FilterPending(page)...)
		if len(page) < s.pageSize {
			break
		}
	}
	return pending, nil
}
