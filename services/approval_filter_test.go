package services

import (
	"context"
	"io"
	"testing"
	"time"

	"construction-tracking-api/store"

	"github.com/sirupsen/logrus"
)

func newTestService(live, rejected *store.MemTable) *ApprovalService {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	s := NewApprovalService(live, rejected, logger)
	s.now = func() time.Time { return time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC) }
	return s
}

func TestFilterPendingDefaultsToPending(t *testing.T) {
	rows := []store.Row{
		{"id": "k1", "activity_name": "Excavation"},
		{"id": "k2", "activity_name": "Piling", "approval_status": nil},
		{"id": "k3", "activity_name": "Formwork", "approval_status": ""},
		{"id": "k4", "activity_name": "Rebar", "approval_status": "pending"},
		{"id": "k5", "activity_name": "Casting", "approval_status": "rework"},
	}
	pending := FilterPending(rows)
	if len(pending) != 5 {
		t.Fatalf("expected all 5 rows pending, got %d", len(pending))
	}
}

func TestFilterPendingExcludesApproved(t *testing.T) {
	rows := []store.Row{
		{"id": "k1", "approval_status": "approved"},
		{"id": "k2", "approval_status": "Approved"},
		{"id": "k3", "approval_status": "  APPROVED  "},
		{"id": "k4", "notes": "APPROVED:approved:by:a@b.com:date:2024-01-01"},
		{"id": "k5", "approval_status": "pending"},
	}
	pending := FilterPending(rows)
	if len(pending) != 1 {
		t.Fatalf("expected 1 pending row, got %d", len(pending))
	}
	if pending[0].ID != "k5" {
		t.Fatalf("wrong row survived the filter: %s", pending[0].ID)
	}
}

func TestFilterPendingReadsLegacyStatusColumn(t *testing.T) {
	rows := []store.Row{
		{"id": "k1", "Approval Status": "approved"},
		{"id": "k2", "Status": "pending"},
	}
	pending := FilterPending(rows)
	if len(pending) != 1 || pending[0].ID != "k2" {
		t.Fatalf("legacy status columns not honored: %+v", pending)
	}
}

func TestSelectPendingPaginates(t *testing.T) {
	live := store.NewMemTable()
	ctx := context.Background()
	for i := 0; i < 7; i++ {
		status := ""
		if i%2 == 0 {
			status = "approved"
		}
		if _, err := live.Insert(ctx, store.Row{"activity_name": "act", "approval_status": status}); err != nil {
			t.Fatalf("seed insert: %v", err)
		}
	}

	s := newTestService(live, store.NewMemTable())
	s.pageSize = 3

	pending, err := s.SelectPending(ctx, store.Query{})
	if err != nil {
		t.Fatalf("SelectPending: %v", err)
	}
	if len(pending) != 3 {
		t.Fatalf("expected 3 pending rows across pages, got %d", len(pending))
	}
}

func TestSelectPendingProjectScopeSpansNamingEras(t *testing.T) {
	live := store.NewMemTable()
	ctx := context.Background()

	seed := []store.Row{
		{"project_full_code": "P1", "activity_name": "A"},
		{"Project Full Code": "P1", "Activity Name": "B"},
		{"Full Code": "P1", "Activity Name": "C"},
		{"project_code": "P1", "activity_name": "D"},
		{"project_full_code": "P2", "activity_name": "E"},
	}
	for _, r := range seed {
		if _, err := live.Insert(ctx, r); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	s := newTestService(live, store.NewMemTable())
	pending, err := s.SelectPending(ctx, store.Query{Any: ProjectConds("P1")})
	if err != nil {
		t.Fatalf("SelectPending: %v", err)
	}
	if len(pending) != 4 {
		t.Fatalf("expected 4 pending rows across both naming eras, got %d", len(pending))
	}
	for _, rec := range pending {
		if rec.ProjectFullCode != "P1" && rec.ProjectCode != "P1" {
			t.Fatalf("out-of-scope row in pending set: %+v", rec)
		}
	}
}
