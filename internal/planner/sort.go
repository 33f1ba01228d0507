package planner

import (
	"cmp"
	"regexp"
	"slices"
	"strconv"

	"taskbridge/internal/service"
)

// sortByPriority orders tasks by priority rank, then due time (dated before
// undated), then list and task ID so the result never depends on arrival order.
func sortByPriority(tasks []service.Task) {
	slices.SortFunc(tasks, func(a, b service.Task) int {
		return cmp.Or(
			cmp.Compare(a.Priority.Rank(), b.Priority.Rank()),
			compareDue(a, b),
			tieBreak(a, b),
		)
	})
}

// sortByDue orders tasks by due time, earliest first.
func sortByDue(tasks []service.Task) {
	slices.SortFunc(tasks, func(a, b service.Task) int {
		return cmp.Or(compareDue(a, b), tieBreak(a, b))
	})
}

func compareDue(a, b service.Task) int {
	ad, aok := a.Due()
	bd, bok := b.Due()
	switch {
	case aok && bok:
		return ad.Compare(bd)
	case aok:
		return -1
	case bok:
		return 1
	default:
		return 0
	}
}

func tieBreak(a, b service.Task) int {
	return cmp.Or(cmp.Compare(a.ListID, b.ListID), cmp.Compare(a.ID, b.ID))
}

var durationPattern = regexp.MustCompile(`^PT(?:(\d+)H)?(?:(\d+)M)?$`)

// ParseHours converts a PT[n]H[n]M duration to hours. ok is false for empty
// or unparseable input, which counts as zero hours.
func ParseHours(s string) (hours float64, ok bool) {
	m := durationPattern.FindStringSubmatch(s)
	if m == nil || (m[1] == "" && m[2] == "") {
		return 0, false
	}
	h, _ := strconv.Atoi(m[1])
	mins, _ := strconv.Atoi(m[2])
	return float64(h) + float64(mins)/60, true
}
