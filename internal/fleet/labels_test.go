package fleet

import (
	"sort"
	"testing"
)

func TestGenerateSeatLabels(t *testing.T) {
	got := GenerateSeatLabels(12)
	if len(got) != 12 || got[0] != "A1" || got[11] != "A12" {
		t.Errorf("GenerateSeatLabels(12) = %v", got)
	}
	if len(GenerateSeatLabels(0)) != 0 {
		t.Error("expected no labels for zero seats")
	}
}

func TestLessLabelNaturalOrder(t *testing.T) {
	labels := []string{"A10", "B1", "A2", "A1", "A21", "A3"}
	sort.Slice(labels, func(i, j int) bool { return LessLabel(labels[i], labels[j]) })

	want := []string{"A1", "A2", "A3", "A10", "A21", "B1"}
	for i := range want {
		if labels[i] != want[i] {
			t.Fatalf("sorted = %v, want %v", labels, want)
		}
	}
}
