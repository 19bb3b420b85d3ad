package pagination

import (
	"testing"
)

func TestNewPlan(t *testing.T) {
	tests := []struct {
		name      string
		total     int
		pageSize  int
		wantPages int
	}{
		{"exact multiple", 300, 100, 3},
		{"remainder", 250, 100, 3},
		{"single partial page", 40, 100, 1},
		{"single full page", 100, 100, 1},
		{"one record", 1, 1, 1},
		{"zero page size", 250, 0, 0},
		{"zero total", 0, 100, 0},
		{"page size one", 7, 1, 7},
		{"total just above page", 101, 100, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan := NewPlan(tt.total, tt.pageSize)
			if plan.TotalPages != tt.wantPages {
				t.Errorf("NewPlan(%d, %d).TotalPages = %d, want %d",
					tt.total, tt.pageSize, plan.TotalPages, tt.wantPages)
			}
			if plan.TotalRecords != tt.total || plan.PageSize != tt.pageSize {
				t.Errorf("plan does not carry its inputs: %+v", plan)
			}
		})
	}
}

func TestNewPlan_CeilingProperty(t *testing.T) {
	for total := 0; total <= 500; total++ {
		for pageSize := 1; pageSize <= 60; pageSize++ {
			plan := NewPlan(total, pageSize)

			want := total / pageSize
			if total%pageSize != 0 {
				want++
			}
			if plan.TotalPages != want {
				t.Fatalf("NewPlan(%d, %d).TotalPages = %d, want %d", total, pageSize, plan.TotalPages, want)
			}
		}
	}
}

func TestPlan_RemainingPages(t *testing.T) {
	if pages := NewPlan(250, 100).RemainingPages(); len(pages) != 2 || pages[0] != 2 || pages[1] != 3 {
		t.Errorf("RemainingPages() = %v, want [2 3]", pages)
	}

	if pages := NewPlan(100, 100).RemainingPages(); len(pages) != 0 {
		t.Errorf("single page plan should have no remaining pages, got %v", pages)
	}

	if pages := NewPlan(10, 0).RemainingPages(); len(pages) != 0 {
		t.Errorf("empty plan should have no remaining pages, got %v", pages)
	}
}
