package core

import "testing"

func TestNewBudgetStatus(t *testing.T) {
	cat := Category{ID: 1, Name: "Groceries"}
	tests := []struct {
		name          string
		limit, spent  int64
		wantRemaining int64
		wantPct       float64
	}{
		{"under limit", 10000, 6000, 4000, 60},
		{"exactly at limit", 10000, 10000, 0, 100},
		{"over limit clamps", 10000, 11500, 0, 100},
		{"zero limit", 0, 2500, 0, 0},
		{"zero limit zero spend", 0, 0, 0, 0},
		{"nothing spent", 5000, 0, 5000, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := NewBudgetStatus(cat, Money{Cents: tt.limit}, Money{Cents: tt.spent})
			if st.Remaining.Cents != tt.wantRemaining {
				t.Errorf("remaining = %d, want %d", st.Remaining.Cents, tt.wantRemaining)
			}
			if st.Percentage != tt.wantPct {
				t.Errorf("percentage = %v, want %v", st.Percentage, tt.wantPct)
			}
			if st.Remaining.IsNegative() {
				t.Error("remaining must never be negative")
			}
			if st.Percentage < 0 || st.Percentage > 100 {
				t.Errorf("percentage out of range: %v", st.Percentage)
			}
		})
	}
}
