package services

import "strings"

// FormatZone derives the canonical zone string for a project from a raw zone
// fragment. Stored zone values carry the scars of several prior formatting
// attempts: "<fullCode> - <n>", a bare "<n>", or "<code>-<subpart>-<n>".
// The canonical form is "<projectFullCode> - <baseZone>".
//
// Deterministic and side-effect free, so callers can compare formatter output
// for equality when matching a typed zone against known-good zones. Already
// canonical input is returned unchanged, which makes the function idempotent.
func FormatZone(projectFullCode, rawZoneFragment string) string {
	fragment := strings.TrimSpace(rawZoneFragment)
	if fragment == "" {
		return ""
	}

	projectFullCode = strings.TrimSpace(projectFullCode)
	if projectFullCode != "" && strings.Contains(fragment, projectFullCode) {
		return fragment
	}

	// Strip any leading project code or full code prefix plus separator dashes.
	projectCode := projectFullCode
	if i := strings.Index(projectFullCode, "-"); i > 0 {
		projectCode = projectFullCode[:i]
	}
	rest := fragment
	for _, prefix := range []string{projectFullCode, projectCode} {
		if prefix != "" && strings.HasPrefix(rest, prefix) {
			rest = strings.TrimPrefix(rest, prefix)
			break
		}
	}
	rest = strings.TrimLeft(rest, "- ")

	// The last non-empty dash-separated token is the base zone value.
	base := ""
	parts := strings.Split(rest, "-")
	for i := len(parts) - 1; i >= 0; i-- {
		if tok := strings.TrimSpace(parts[i]); tok != "" {
			base = tok
			break
		}
	}
	if base == "" {
		return ""
	}
	return projectFullCode + " - " + base
}
