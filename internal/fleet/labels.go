package fleet

import (
	"strconv"
	"strings"
)

// GenerateSeatLabels returns the labels A1..An
func GenerateSeatLabels(totalSeats int) []string {
	labels := make([]string, 0, totalSeats)
	for i := 1; i <= totalSeats; i++ {
		labels = append(labels, "A"+strconv.Itoa(i))
	}
	return labels
}

// LessLabel orders labels by letter prefix, then numerically, so A2 sorts before A10.
func LessLabel(a, b string) bool {
	pa, na, oka := splitLabel(a)
	pb, nb, okb := splitLabel(b)
	if pa != pb || !oka || !okb {
		if pa == pb {
			return a < b
		}
		return pa < pb
	}
	return na < nb
}

func splitLabel(label string) (string, int, bool) {
	i := strings.IndexAny(label, "0123456789")
	if i < 0 {
		return label, 0, false
	}
	n, err := strconv.Atoi(label[i:])
	if err != nil {
		return label[:i], 0, false
	}
	return label[:i], n, true
}
