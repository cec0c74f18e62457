package services

import (
	"fmt"
	"strings"
)

// Before the dedicated approval_status column existed, approval metadata was
// encoded inside the free-text notes column as
// "APPROVED:approved:by:<actor>:date:<date>". The encoding is kept as a
// fallback write path for stores that still run the old schema, so old and
// new rows stay interoperable.

const (
	approvalMarkerTag    = "APPROVED:"
	approvalMarkerStatus = ":approved:"
)

// EncodeApprovalMarker renders the legacy notes approval marker.
func EncodeApprovalMarker(actor, date string) string {
	return fmt.Sprintf("APPROVED:approved:by:%s:date:%s", actor, date)
}

// HasApprovalMarker reports whether a notes value carries the legacy
// approval encoding.
func HasApprovalMarker(notes string) bool {
	return strings.Contains(notes, approvalMarkerTag) && strings.Contains(notes, approvalMarkerStatus)
}

// ParseApprovalMarker extracts the actor and date from a legacy marker.
func ParseApprovalMarker(notes string) (actor, date string, ok bool) {
	idx := strings.Index(notes, "APPROVED:approved:by:")
	if idx < 0 {
		return "", "", false
	}
	rest := notes[idx+len("APPROVED:approved:by:"):]
	dateIdx := strings.Index(rest, ":date:")
	if dateIdx < 0 {
		return "", "", false
	}
	actor = rest[:dateIdx]
	date = rest[dateIdx+len(":date:"):]
	// The marker may be followed by the original note text.
	if end := strings.IndexAny(date, " \n"); end >= 0 {
		date = date[:end]
	}
	return actor, date, true
}

// AppendApprovalMarker appends the marker to existing notes, preserving
// whatever free text is already there.
func AppendApprovalMarker(notes, actor, date string) string {
	marker := EncodeApprovalMarker(actor, date)
	notes = strings.TrimSpace(notes)
	if notes == "" {
		return marker
	}
	return notes + " " + marker
}
