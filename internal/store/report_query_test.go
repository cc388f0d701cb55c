package store

import (
	"strings"
	"testing"
)

func TestBuildReportListQuery(t *testing.T) {
	tests := []struct {
		name      string
		filter    ReportFilter
		wantWhere string
		wantArgs  []any
		wantLimit string
		wantErr   bool
	}{
		{
			name:      "Pending tab",
			filter:    ReportFilter{Tab: TabPending},
			wantWhere: "WHERE status = $1",
			wantArgs:  []any{"pending"},
			wantLimit: "LIMIT 10 OFFSET 0",
		},
		{
			name:      "All tab has no filter",
			filter:    ReportFilter{Tab: TabAll, Limit: 25, Offset: 50},
			wantLimit: "LIMIT 25 OFFSET 50",
		},
		{
			name:      "Mine tab filters by reporter",
			filter:    ReportFilter{Tab: TabMine, ViewerID: "76561198000000001"},
			wantWhere: "WHERE reporter_steam_id = $1",
			wantArgs:  []any{"76561198000000001"},
			wantLimit: "LIMIT 10",
		},
		{
			name:      "Against tab filters by target",
			filter:    ReportFilter{Tab: TabAgainst, ViewerID: "76561198000000001"},
			wantWhere: "WHERE target_steam_id = $1",
			wantArgs:  []any{"76561198000000001"},
		},
		{
			name:      "Oversized limit is capped",
			filter:    ReportFilter{Tab: TabDeclined, Limit: 5000, Offset: -3},
			wantWhere: "WHERE status = $1",
			wantArgs:  []any{"declined"},
			wantLimit: "LIMIT 10 OFFSET 0",
		},
		{
			name:    "Mine without viewer",
			filter:  ReportFilter{Tab: TabMine},
			wantErr: true,
		},
		{
			name:    "Unknown tab",
			filter:  ReportFilter{Tab: "status = 'x'; DROP TABLE"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, args, err := buildReportListQuery(tt.filter)
			if (err != nil) != tt.wantErr {
				t.Fatalf("buildReportListQuery() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if tt.wantWhere != "" && !strings.Contains(got, tt.wantWhere) {
				t.Errorf("query %q does not contain %q", got, tt.wantWhere)
			}
			if tt.wantWhere == "" && strings.Contains(got, "WHERE") {
				t.Errorf("query %q should not filter", got)
			}
			if tt.wantLimit != "" && !strings.Contains(got, tt.wantLimit) {
				t.Errorf("query %q does not contain %q", got, tt.wantLimit)
			}
			if !strings.Contains(got, "ORDER BY created_at DESC") {
				t.Errorf("query %q is not ordered newest first", got)
			}
			if len(args) != len(tt.wantArgs) {
				t.Fatalf("args = %v, want %v", args, tt.wantArgs)
			}
			for i := range args {
				if args[i] != tt.wantArgs[i] {
					t.Errorf("arg %d = %v, want %v", i, args[i], tt.wantArgs[i])
				}
			}
		})
	}
}

func TestValidTab(t *testing.T) {
	for _, tab := range []string{TabPending, TabApproved, TabDeclined, TabAll, TabMine, TabAgainst} {
		if !ValidTab(tab) {
			t.Errorf("ValidTab(%q) = false", tab)
		}
	}
	if ValidTab("archived") {
		t.Error("ValidTab(archived) = true")
	}
}
