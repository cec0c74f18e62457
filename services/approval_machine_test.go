package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"construction-tracking-api/store"
)

func seedLiveRecord(t *testing.T, live *store.MemTable, row store.Row) string {
	t.Helper()
	inserted, err := live.Insert(context.Background(), row)
	if err != nil {
		t.Fatalf("seed insert: %v", err)
	}
	return inserted["id"].(string)
}

func TestApproveFlipsStatusInPlace(t *testing.T) {
	live := store.NewMemTable()
	rejected := store.NewMemTable()
	s := newTestService(live, rejected)
	ctx := context.Background()

	id := seedLiveRecord(t, live, store.Row{
		"activity_name":     "Excavation",
		"project_full_code": "P100-01",
		"quantity":          12.5,
	})

	res := s.Approve(ctx, id, nil, Actor{Email: "pm@site.com"})
	if !res.Success {
		t.Fatalf("approve failed: %s (%v)", res.Message, res.Err)
	}

	raw, err := live.Get(ctx, id)
	if err != nil {
		t.Fatalf("record left the live store: %v", err)
	}
	rec := NormalizeKPIRecord(raw)
	if rec.ApprovalStatus != "approved" {
		t.Fatalf("status = %q, want approved", rec.ApprovalStatus)
	}
	if rec.ApprovedBy != "pm@site.com" {
		t.Fatalf("approved_by = %q", rec.ApprovedBy)
	}
	if rec.ApprovalDate != "2024-03-15" {
		t.Fatalf("approval_date = %q", rec.ApprovalDate)
	}
	if rejected.Len() != 0 {
		t.Fatalf("approve must not touch the rejected store")
	}
}

func TestApproveAppliesEditsWithLegacyColumnNames(t *testing.T) {
	live := store.NewMemTable()
	s := newTestService(live, store.NewMemTable())
	ctx := context.Background()

	id := seedLiveRecord(t, live, store.Row{"activity_name": "Piling", "quantity": 3.0})

	res := s.Approve(ctx, id, store.Row{"Quantity": 8.0, "id": "evil-overwrite"}, Actor{AltID: "u-7"})
	if !res.Success {
		t.Fatalf("approve with edits failed: %s", res.Message)
	}

	raw, _ := live.Get(ctx, id)
	rec := NormalizeKPIRecord(raw)
	if rec.Quantity != 8.0 {
		t.Fatalf("edit not applied, quantity = %v", rec.Quantity)
	}
	if rec.ID != id {
		t.Fatalf("id was overwritten through edits: %q", rec.ID)
	}
	if rec.ApprovedBy != "u-7" {
		t.Fatalf("actor fallback to alt id failed: %q", rec.ApprovedBy)
	}
}

func TestApproveMissingRecordCarriesNoRowError(t *testing.T) {
	s := newTestService(store.NewMemTable(), store.NewMemTable())

	res := s.Approve(context.Background(), "ghost", nil, Actor{Email: "pm@site.com"})
	if res.Success {
		t.Fatalf("approving a missing record must fail")
	}
	if res.Err == nil || !strings.Contains(res.Err.Error(), "no row found") {
		t.Fatalf("missing-row cause not preserved for callers: %v", res.Err)
	}
}

func TestApproveFallsBackToNotesOnSchemaDrift(t *testing.T) {
	live := store.NewMemTable()
	s := newTestService(live, store.NewMemTable())
	ctx := context.Background()

	id := seedLiveRecord(t, live, store.Row{"activity_name": "Casting", "notes": "night shift"})

	// The first status update fails the way an old-schema store does.
	failed := false
	live.ErrHook = func(op, hookID string) error {
		if op == "update" && !failed {
			failed = true
			return errors.New("Error 1054: Unknown column 'approval_status' in 'field list'")
		}
		return nil
	}

	res := s.Approve(ctx, id, nil, Actor{Email: "pm@site.com"})
	if !res.Success {
		t.Fatalf("notes fallback did not engage: %s (%v)", res.Message, res.Err)
	}

	raw, _ := live.Get(ctx, id)
	rec := NormalizeKPIRecord(raw)
	if !HasApprovalMarker(rec.Notes) {
		t.Fatalf("approval marker missing from notes: %q", rec.Notes)
	}
	actor, date, ok := ParseApprovalMarker(rec.Notes)
	if !ok || actor != "pm@site.com" || date != "2024-03-15" {
		t.Fatalf("marker content wrong: %q %q %v", actor, date, ok)
	}
	if !IsExplicitlyApproved(rec) {
		t.Fatalf("notes-approved record still reads as pending")
	}
}

func TestApproveDoesNotSwallowOtherUpdateErrors(t *testing.T) {
	live := store.NewMemTable()
	s := newTestService(live, store.NewMemTable())
	ctx := context.Background()

	id := seedLiveRecord(t, live, store.Row{"activity_name": "Casting"})
	live.ErrHook = func(op, hookID string) error {
		if op == "update" {
			return errors.New("connection reset by peer")
		}
		return nil
	}

	res := s.Approve(ctx, id, nil, Actor{})
	if res.Success {
		t.Fatalf("transport error must not be treated as schema drift")
	}
}

func TestRejectMovesRecordWithReason(t *testing.T) {
	live := store.NewMemTable()
	rejected := store.NewMemTable()
	s := newTestService(live, rejected)
	ctx := context.Background()

	id := seedLiveRecord(t, live, store.Row{
		"id":                "k1",
		"activity_name":     "Rebar",
		"project_full_code": "P100-02",
		"quantity":          40.0,
		"created_by":        "site-eng@site.com",
	})

	res := s.Reject(ctx, id, "wrong quantity", Actor{Email: "pm@site.com"})
	if !res.Success {
		t.Fatalf("reject failed: %s (%v)", res.Message, res.Err)
	}

	if live.Len() != 0 {
		t.Fatalf("rejected record still in live store")
	}
	all := rejected.All()
	if len(all) != 1 {
		t.Fatalf("expected 1 rejected row, got %d", len(all))
	}
	rec := NormalizeRejectedKPIRecord(all[0])
	if rec.RejectionReason != "wrong quantity" {
		t.Fatalf("reason = %q", rec.RejectionReason)
	}
	if rec.RejectedBy != "pm@site.com" {
		t.Fatalf("rejected_by = %q", rec.RejectedBy)
	}
	if rec.CreatedBy != "site-eng@site.com" {
		t.Fatalf("provenance lost: created_by = %q", rec.CreatedBy)
	}
	if rec.ID == id {
		t.Fatalf("rejected copy must not reuse the live id")
	}
}

func TestRejectDefaultsEmptyReason(t *testing.T) {
	live := store.NewMemTable()
	rejected := store.NewMemTable()
	s := newTestService(live, rejected)
	ctx := context.Background()

	id := seedLiveRecord(t, live, store.Row{"activity_name": "Rebar"})
	res := s.Reject(ctx, id, "   ", Actor{})
	if !res.Success {
		t.Fatalf("reject failed: %s", res.Message)
	}
	rec := NormalizeRejectedKPIRecord(rejected.All()[0])
	if rec.RejectionReason != "No reason provided" {
		t.Fatalf("reason = %q", rec.RejectionReason)
	}
	if rec.RejectedBy != "admin" {
		t.Fatalf("anonymous actor should record admin, got %q", rec.RejectedBy)
	}
}

func TestRejectKeepsLiveRowWhenCopyFails(t *testing.T) {
	live := store.NewMemTable()
	rejected := store.NewMemTable()
	s := newTestService(live, rejected)
	ctx := context.Background()

	id := seedLiveRecord(t, live, store.Row{"activity_name": "Rebar"})
	rejected.ErrHook = func(op, hookID string) error {
		return errors.New("disk full")
	}

	res := s.Reject(ctx, id, "bad data", Actor{})
	if res.Success {
		t.Fatalf("reject should fail when the rejected copy cannot be written")
	}
	if live.Len() != 1 {
		t.Fatalf("live row must survive a failed copy, got %d rows", live.Len())
	}
	if _, err := live.Get(ctx, id); err != nil {
		t.Fatalf("live row lost: %v", err)
	}
}

func TestRejectReportsDuplicateWhenDeleteFails(t *testing.T) {
	live := store.NewMemTable()
	rejected := store.NewMemTable()
	s := newTestService(live, rejected)
	ctx := context.Background()

	id := seedLiveRecord(t, live, store.Row{"activity_name": "Rebar"})
	live.ErrHook = func(op, hookID string) error {
		if op == "delete" {
			return errors.New("lock wait timeout")
		}
		return nil
	}

	res := s.Reject(ctx, id, "bad data", Actor{})
	if res.Success {
		t.Fatalf("reject must surface the failed live delete")
	}
	// Both copies exist: delete never ran, insert already did.
	if live.Len() != 1 || rejected.Len() != 1 {
		t.Fatalf("expected duplicate state, live=%d rejected=%d", live.Len(), rejected.Len())
	}
}

func TestRestoreRoundTripPreservesFields(t *testing.T) {
	live := store.NewMemTable()
	rejected := store.NewMemTable()
	s := newTestService(live, rejected)
	ctx := context.Background()

	original := store.Row{
		"activity_name":     "Formwork",
		"project_full_code": "P100-03",
		"quantity":          22.0,
		"unit":              "m2",
		"target_date":       "2024-04-01",
		"zone":              "P100-03 - Zone 2",
		"created_by":        "eng@site.com",
	}
	id := seedLiveRecord(t, live, copyOf(original))

	if res := s.Reject(ctx, id, "resubmit", Actor{Email: "pm@site.com"}); !res.Success {
		t.Fatalf("reject: %s", res.Message)
	}
	rejID := NormalizeRejectedKPIRecord(rejected.All()[0]).ID

	res := s.Restore(ctx, rejID)
	if !res.Success {
		t.Fatalf("restore: %s (%v)", res.Message, res.Err)
	}
	if rejected.Len() != 0 {
		t.Fatalf("restored record still in rejected store")
	}
	if live.Len() != 1 {
		t.Fatalf("expected 1 live row, got %d", live.Len())
	}

	rec := NormalizeKPIRecord(live.All()[0])
	if rec.ActivityName != "Formwork" || rec.ProjectFullCode != "P100-03" ||
		rec.Quantity != 22.0 || rec.Unit != "m2" ||
		rec.TargetDate != "2024-04-01" || rec.Zone != "P100-03 - Zone 2" ||
		rec.CreatedBy != "eng@site.com" {
		t.Fatalf("restored record lost fields: %+v", rec)
	}
	if rec.ApprovalStatus != "" || rec.ApprovedBy != "" {
		t.Fatalf("restored record must come back pending: %+v", rec)
	}
	full := live.All()[0]
	for _, col := range []string{"rejection_reason", "rejected_by", "rejected_date"} {
		if _, ok := full[col]; ok {
			t.Fatalf("rejection bookkeeping leaked back to live: %s", col)
		}
	}
}

func TestRestoreStripsDriftedColumns(t *testing.T) {
	live := store.NewMemTable()
	rejected := store.NewMemTable()
	s := newTestService(live, rejected)
	ctx := context.Background()

	inserted, err := rejected.Insert(ctx, store.Row{
		"activity_name":       "Grouting",
		"target_date":         "2024-05-01",
		"cumulative_quantity": 300.0,
		"progress_percent":    42.0,
		"report_month":        "2024-04",
		"rejection_reason":    "stale",
	})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}

	res := s.Restore(ctx, inserted["id"].(string))
	if !res.Success {
		t.Fatalf("restore: %s", res.Message)
	}

	row := live.All()[0]
	for _, col := range []string{"cumulative_quantity", "progress_percent", "report_month"} {
		if _, ok := row[col]; ok {
			t.Fatalf("drifted column %s not stripped", col)
		}
	}
	if row["target_date"] != "2024-05-01" {
		t.Fatalf("critical field lost in restore: %v", row["target_date"])
	}
}

func TestRestoreRollsBackLiveInsertOnDeleteFailure(t *testing.T) {
	live := store.NewMemTable()
	rejected := store.NewMemTable()
	s := newTestService(live, rejected)
	ctx := context.Background()

	inserted, _ := rejected.Insert(ctx, store.Row{"activity_name": "Grouting"})
	rejected.ErrHook = func(op, hookID string) error {
		if op == "delete" {
			return errors.New("lock wait timeout")
		}
		return nil
	}

	res := s.Restore(ctx, inserted["id"].(string))
	if res.Success {
		t.Fatalf("restore must fail when the rejected delete fails")
	}
	if res.Err != nil {
		t.Fatalf("clean rollback must not demand manual intervention: %v", res.Err)
	}
	if live.Len() != 0 {
		t.Fatalf("live insert not rolled back, %d rows remain", live.Len())
	}
	if rejected.Len() != 1 {
		t.Fatalf("rejected row must survive the failed restore")
	}
}

func TestRestoreFlagsManualInterventionWhenRollbackFails(t *testing.T) {
	live := store.NewMemTable()
	rejected := store.NewMemTable()
	s := newTestService(live, rejected)
	ctx := context.Background()

	inserted, _ := rejected.Insert(ctx, store.Row{"activity_name": "Grouting"})
	rejected.ErrHook = func(op, hookID string) error {
		if op == "delete" {
			return errors.New("lock wait timeout")
		}
		return nil
	}
	live.ErrHook = func(op, hookID string) error {
		if op == "delete" {
			return errors.New("connection lost")
		}
		return nil
	}

	res := s.Restore(ctx, inserted["id"].(string))
	if res.Success {
		t.Fatalf("restore must fail")
	}
	if !errors.Is(res.Err, ErrManualInterventionRequired) {
		t.Fatalf("expected ErrManualInterventionRequired, got %v", res.Err)
	}
	// Duplicate state is real: both stores hold the record.
	if live.Len() != 1 || rejected.Len() != 1 {
		t.Fatalf("expected record in both stores, live=%d rejected=%d", live.Len(), rejected.Len())
	}
}

func TestApproveRejectedComposesRestoreAndApprove(t *testing.T) {
	live := store.NewMemTable()
	rejected := store.NewMemTable()
	s := newTestService(live, rejected)
	ctx := context.Background()

	inserted, _ := rejected.Insert(ctx, store.Row{
		"activity_name":    "Backfill",
		"quantity":         10.0,
		"rejection_reason": "typo",
	})

	res := s.ApproveRejected(ctx, inserted["id"].(string), store.Row{"Quantity": 11.0}, Actor{Email: "pm@site.com"})
	if !res.Success {
		t.Fatalf("approve rejected: %s (%v)", res.Message, res.Err)
	}
	if rejected.Len() != 0 {
		t.Fatalf("record still in rejected store")
	}

	rec := NormalizeKPIRecord(live.All()[0])
	if rec.ApprovalStatus != "approved" || rec.ApprovedBy != "pm@site.com" {
		t.Fatalf("record not approved on the way back: %+v", rec)
	}
	if rec.Quantity != 11.0 {
		t.Fatalf("edit not applied: %v", rec.Quantity)
	}
	if _, ok := live.All()[0]["rejection_reason"]; ok {
		t.Fatalf("rejection_reason leaked into live row")
	}
}

func TestDeleteByBestMatchFindsInsertedRow(t *testing.T) {
	live := store.NewMemTable()
	rejected := store.NewMemTable()
	s := newTestService(live, rejected)
	ctx := context.Background()

	original := store.Row{
		"project_full_code": "P100-04",
		"activity_name":     "Paving",
		"target_date":       "2024-06-01",
	}
	// Decoy differs on target_date and must survive.
	if _, err := live.Insert(ctx, store.Row{
		"project_full_code": "P100-04",
		"activity_name":     "Paving",
		"target_date":       "2024-07-01",
	}); err != nil {
		t.Fatalf("seed decoy: %v", err)
	}
	if _, err := live.Insert(ctx, copyOf(original)); err != nil {
		t.Fatalf("seed: %v", err)
	}

	if err := s.deleteByBestMatch(ctx, original); err != nil {
		t.Fatalf("deleteByBestMatch: %v", err)
	}
	if live.Len() != 1 {
		t.Fatalf("expected only the decoy to remain, got %d rows", live.Len())
	}
	if NormalizeKPIRecord(live.All()[0]).TargetDate != "2024-07-01" {
		t.Fatalf("wrong row deleted")
	}
}

func TestDeleteByBestMatchNoMatchIsNotAnError(t *testing.T) {
	s := newTestService(store.NewMemTable(), store.NewMemTable())
	err := s.deleteByBestMatch(context.Background(), store.Row{
		"project_full_code": "P999",
		"activity_name":     "Ghost",
	})
	if err != nil {
		t.Fatalf("no-match rollback must be a no-op, got %v", err)
	}
}

func copyOf(r store.Row) store.Row {
	out := make(store.Row, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}
