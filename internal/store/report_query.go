package store

import (
	"fmt"
	"strings"
)

// ReportFilter selects a page of reports.
type ReportFilter struct {
	Tab      string
	ViewerID string
	Limit    int
	Offset   int
}

// Report tabs
const (
	TabPending  = "pending"
	TabApproved = "approved"
	TabDeclined = "declined"
	TabAll      = "all"
	TabMine     = "mine"
	TabAgainst  = "against"
)

// ValidTab reports whether tab is a known report tab.
func ValidTab(tab string) bool {
	switch tab {
	case TabPending, TabApproved, TabDeclined, TabAll, TabMine, TabAgainst:
		return true
	}
	return false
}

const reportColumns = `id, target_steam_id, COALESCE(target_persona_name, ''), reporter_steam_id,
	COALESCE(reporter_persona_name, ''), demo_url, cheat_type, occurred_at, status, created_at,
	resolved_at, COALESCE(resolved_by, '')`

// buildReportWhere translates a tab into a WHERE clause with positional args.
func buildReportWhere(f ReportFilter) (string, []any, error) {
	var conds []string
	var args []any
	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	switch f.Tab {
	case TabPending, TabApproved, TabDeclined:
		add("status = $%d", f.Tab)
	case TabAll, "":
	case TabMine:
		if f.ViewerID == "" {
			return "", nil, fmt.Errorf("tab %q requires a viewer", f.Tab)
		}
		add("reporter_steam_id = $%d", f.ViewerID)
	case TabAgainst:
		if f.ViewerID == "" {
			return "", nil, fmt.Errorf("tab %q requires a viewer", f.Tab)
		}
		add("target_steam_id = $%d", f.ViewerID)
	default:
		return "", nil, fmt.Errorf("invalid tab: %s", f.Tab)
	}

	if len(conds) == 0 {
		return "", args, nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args, nil
}

// buildReportListQuery constructs the paged list query for a filter.
func buildReportListQuery(f ReportFilter) (string, []any, error) {
	where, args, err := buildReportWhere(f)
	if err != nil {
		return "", nil, err
	}

	limit := f.Limit
	if limit <= 0 || limit > 100 {
		limit = 10
	}
	offset := max(f.Offset, 0)

	query := "SELECT " + reportColumns + " FROM overwatch_reports" + where +
		fmt.Sprintf(" ORDER BY created_at DESC, id DESC LIMIT %d OFFSET %d", limit, offset)
	return query, args, nil
}
