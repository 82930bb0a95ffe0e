package policy

import (
	"slices"
	"strings"
)

// SortForDisplay returns a sorted copy of list: bare entries first, then
// "www." entries, each group alphabetical. Ordering carries no meaning for
// matching.
func SortForDisplay(list []string) []string {
	out := slices.Clone(list)
	slices.SortStableFunc(out, func(a, b string) int {
		aw, bw := strings.HasPrefix(a, "www."), strings.HasPrefix(b, "www.")
		switch {
		case aw && !bw:
			return 1
		case !aw && bw:
			return -1
		}
		return strings.Compare(a, b)
	})
	return out
}
