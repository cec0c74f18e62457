package services

import (
	"context"
	"strings"
	"time"

	"construction-tracking-api/store"
)

// State transitions for one KPI record:
//
//	pending  --approve--> approved (stays in live store, status flipped)
//	pending  --reject---> rejected (moved to rejected store)
//	rejected --restore--> pending  (moved back, status cleared)
//	rejected --approve--> approved (moved back + status set, one action)
//
// No transition deletes data before its destination write has succeeded.

// Approve flips a live record to approved. Optional edits are applied first
// after a full column remap. When the store still runs the old schema without
// an approval_status column, the same decision is encoded into notes instead.
func (s *ApprovalService) Approve(ctx context.Context, id string, edits store.Row, actor Actor) OpResult {
	if strings.TrimSpace(id) == "" {
		return failResult("kpi record id is required", nil)
	}

	if len(edits) > 0 {
		remapped := CanonicalizeColumns(edits)
		delete(remapped, "id")
		if err := s.live.Update(ctx, id, remapped); err != nil {
			return failResult("failed to apply edits before approval", err)
		}
	}

	name := actor.Display()
	today := s.now().Format("2006-01-02")
	err := s.live.Update(ctx, id, store.Row{
		"approval_status": approvalStatusApproved,
		"approved_by":     name,
		"approval_date":   today,
	})
	if err != nil {
		if !isSchemaDriftError(err) {
			return failResult("failed to update approval status", err)
		}
		return s.approveViaNotes(ctx, id, name, today)
	}

	// Read back purely to verify persistence; a failure here is logged, not fatal.
	if _, verr := s.live.Get(ctx, id); verr != nil {
		s.log.WithField("kpi_id", id).WithError(verr).Warn("post-approval verification read failed")
	}

	return okResult("KPI record approved", map[string]any{"id": id, "approved_by": name})
}

// approveViaNotes is the old-schema fallback: the approval is encoded inside
// the notes column so both schema eras stay interoperable.
func (s *ApprovalService) approveViaNotes(ctx context.Context, id, actor, date string) OpResult {
	raw, err := s.live.Get(ctx, id)
	if err != nil {
		return failResult("kpi record not found", err)
	}
	rec := NormalizeKPIRecord(raw)
	notes := AppendApprovalMarker(rec.Notes, actor, date)
	if err := s.live.Update(ctx, id, store.Row{"notes": notes}); err != nil {
		return failResult("failed to record approval in notes fallback", err)
	}
	s.log.WithField("kpi_id", id).Warn("approval_status column missing, approval written to notes")
	return okResult("KPI record approved", map[string]any{"id": id, "approved_by": actor, "fallback": "notes"})
}

// Reject moves a live record into the rejected store. The rejected copy is
// written first; only then is the live row deleted, so a failure in between
// leaves a harmless duplicate rather than silent data loss.
func (s *ApprovalService) Reject(ctx context.Context, id, reason string, actor Actor) OpResult {
	raw, err := s.live.Get(ctx, id)
	if err != nil {
		return failResult("kpi record not found", err)
	}

	if strings.TrimSpace(reason) == "" {
		reason = "No reason provided"
	}

	payload := make(store.Row, len(raw)+3)
	for k, v := range raw {
		payload[k] = v
	}
	deleteField(payload, "id")
	payload["rejection_reason"] = reason
	payload["rejected_by"] = actor.Display()
	payload["rejected_date"] = s.now().Format(time.RFC3339)

	// A storage-side trigger can overwrite provenance on insert; re-assert it
	// from the original row unless it is missing or the "System" placeholder.
	reassertProvenance(payload, raw)

	if _, err := s.rejected.Insert(ctx, payload); err != nil {
		return failResult("failed to copy record into rejected store", err)
	}
	if err := s.live.Delete(ctx, id); err != nil {
		s.log.WithField("kpi_id", id).WithError(err).Error("live delete failed after rejected copy was written")
		return failResult("record copied to rejected store but live delete failed, duplicate needs cleanup", err)
	}

	return okResult("KPI record rejected", map[string]any{"id": id, "rejection_reason": reason})
}

func reassertProvenance(payload, original store.Row) {
	for _, field := range []string{"created_by", "updated_by"} {
		v, ok := FieldValue(original, field)
		if !ok {
			continue
		}
		if s, isStr := v.(string); isStr && strings.TrimSpace(s) == "System" {
			continue
		}
		payload[field] = v
	}
}

// buildRestorePayload turns a rejected row into a live-store payload:
// rejection bookkeeping and schema-drifted columns are stripped, then the
// critical fields are re-asserted from the original row so stripping can
// never take them along.
func buildRestorePayload(raw store.Row) store.Row {
	payload := make(store.Row, len(raw))
	for k, v := range raw {
		payload[k] = v
	}
	for _, f := range rejectionOnlyFields {
		deleteField(payload, f)
	}
	for col := range liveSchemaDenyList {
		deleteField(payload, col)
	}
	for _, f := range restoreCriticalFields {
		if v, ok := FieldValue(raw, f); ok {
			payload[f] = v
		}
	}
	return payload
}

// Restore moves a rejected record back into the live store as pending. The
// live copy is inserted first; if the rejected-store delete then fails, the
// fresh live row is rolled back so the record is not duplicated.
func (s *ApprovalService) Restore(ctx context.Context, id string) OpResult {
	raw, err := s.rejected.Get(ctx, id)
	if err != nil {
		return failResult("rejected record not found", err)
	}

	payload := buildRestorePayload(raw)
	deleteField(payload, "approval_status")
	deleteField(payload, "approved_by")
	deleteField(payload, "approval_date")

	inserted, err := s.live.Insert(ctx, payload)
	if err != nil {
		return failResult("failed to restore record into live store", err)
	}
	newID, _ := inserted["id"].(string)

	if err := s.rejected.Delete(ctx, id); err != nil {
		return s.rollbackLiveInsert(ctx, raw, newID, err)
	}

	return okResult("KPI record restored", map[string]any{"id": newID})
}

// ApproveRejected moves a rejected record back to the live store already
// approved, as one user-visible action. Same compensation discipline as
// Restore.
func (s *ApprovalService) ApproveRejected(ctx context.Context, id string, edits store.Row, actor Actor) OpResult {
	raw, err := s.rejected.Get(ctx, id)
	if err != nil {
		return failResult("rejected record not found", err)
	}

	payload := buildRestorePayload(raw)
	for k, v := range CanonicalizeColumns(edits) {
		if k == "id" {
			continue
		}
		payload[k] = v
	}
	name := actor.Display()
	payload["approval_status"] = approvalStatusApproved
	payload["approved_by"] = name
	payload["approval_date"] = s.now().Format("2006-01-02")

	inserted, err := s.live.Insert(ctx, payload)
	if err != nil {
		return failResult("failed to move record back to live store", err)
	}
	newID, _ := inserted["id"].(string)

	if err := s.rejected.Delete(ctx, id); err != nil {
		return s.rollbackLiveInsert(ctx, raw, newID, err)
	}

	return okResult("KPI record approved from rejected store", map[string]any{"id": newID, "approved_by": name})
}

// rollbackLiveInsert compensates for a failed rejected-store delete by
// removing the live row that was just inserted. When the new id is unknown
// (some callers discard it), the row is found by best-effort match on
// project, activity and date. If the rollback itself fails the result
// carries ErrManualInterventionRequired: both stores now hold the record and
// automatic retries would only multiply the duplicate.
func (s *ApprovalService) rollbackLiveInsert(ctx context.Context, original store.Row, newID string, cause error) OpResult {
	s.log.WithError(cause).Error("rejected-store delete failed after live insert, rolling back")

	var rbErr error
	if newID != "" {
		rbErr = s.live.Delete(ctx, newID)
	} else {
		rbErr = s.deleteByBestMatch(ctx, original)
	}
	if rbErr != nil {
		s.log.WithError(rbErr).Error("compensating rollback failed, record may exist in both stores")
		return OpResult{
			Success: false,
			Message: ErrManualInterventionRequired.Error(),
			Details: map[string]any{"cause": cause.Error(), "rollback_error": rbErr.Error()},
			Err:     ErrManualInterventionRequired,
		}
	}
	return failResult("rejected-store delete failed, live copy rolled back", cause)
}

func (s *ApprovalService) deleteByBestMatch(ctx context.Context, original store.Row) error {
	rec := NormalizeKPIRecord(original)

	// The project keys are matched store-side across both naming eras; the
	// activity and date go through the normalizer client-side for the same
	// reason.
	rows, err := s.live.Select(ctx, store.Query{
		Any:   ProjectConds(rec.ProjectFullCode),
		Limit: s.pageSize,
	})
	if err != nil {
		return err
	}
	for _, raw := range rows {
		candidate := NormalizeKPIRecord(raw)
		if !strings.EqualFold(candidate.ActivityName, rec.ActivityName) {
			continue
		}
		if rec.TargetDate != "" {
			if candidate.TargetDate != rec.TargetDate {
				continue
			}
		} else if rec.ActualDate != "" {
			if candidate.ActualDate != rec.ActualDate {
				continue
			}
		}
		return s.live.Delete(ctx, candidate.ID)
	}
	// Nothing matched: the insert most likely never became visible.
	return nil
}
