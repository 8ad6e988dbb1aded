// Package pattern labels a driver's monthly schedule with a free-form
// pattern string such as "7x7", "6x1", or "Flexible" for reporting, from
// the driver's set of worked dates.
package pattern

import (
	"sort"
	"time"
)

// mineraCandidates is the ordered set of NxN cycles Faena Minera schedules
// are checked against.
var mineraCandidates = []int{7, 8, 10, 14}

// Detect labels a driver's monthly schedule given its worked dates and the
// number of days in that month.
//
// The algorithm: collect consecutive-rest-run lengths (gaps between worked
// days, including a leading gap before the first worked day and a trailing
// gap after the last, both clipped to the month boundary), then match those
// run lengths against the minera N×N candidates or the non-minera 6x1/5x2
// shapes. isCycleRegime selects which candidate family is checked first,
// matching the regime the driver was built under.
func Detect(workedDates []time.Time, daysInMonth int, isCycleRegime bool) string {
	worked := uniqueSortedDays(workedDates)
	if len(worked) == 0 {
		return "Flexible"
	}

	restRuns := restRunLengths(worked, daysInMonth)
	weeksInMonth := daysInMonth / 7

	if isCycleRegime {
		if p, ok := matchMineraCycle(restRuns, daysInMonth); ok {
			return p
		}
	}

	if p, ok := matchNonMinera(restRuns, weeksInMonth); ok {
		return p
	}

	return "Flexible"
}

// uniqueSortedDays normalizes worked dates to day-of-month integers,
// deduplicated and sorted ascending.
func uniqueSortedDays(dates []time.Time) []int {
	seen := make(map[int]bool, len(dates))
	for _, d := range dates {
		seen[d.Day()] = true
	}
	days := make([]int, 0, len(seen))
	for d := range seen {
		days = append(days, d)
	}
	sort.Ints(days)
	return days
}

// restRunLengths computes the run lengths of consecutive rest days between
// (and around) the worked days, within [1, daysInMonth]. Example: worked =
// {1,2,3,4,5,6,8,9,10,11,12,13} in a 14-day window -> rest runs = {1, 1}
// (the gap day 7 and the trailing rest day 14; no leading run since day 1
// is worked).
func restRunLengths(worked []int, daysInMonth int) []int {
	var runs []int

	if worked[0] > 1 {
		runs = append(runs, worked[0]-1)
	}

	for i := 1; i < len(worked); i++ {
		gap := worked[i] - worked[i-1] - 1
		if gap > 0 {
			runs = append(runs, gap)
		}
	}

	if last := worked[len(worked)-1]; last < daysInMonth {
		runs = append(runs, daysInMonth-last)
	}

	return runs
}

// matchMineraCycle checks the NxN candidates in order: the pattern matches
// iff the count of rest runs of length exactly N is >= floor(daysInMonth/2N),
// at least as many complete cycles as fit.
func matchMineraCycle(restRuns []int, daysInMonth int) (string, bool) {
	for _, n := range mineraCandidates {
		needed := daysInMonth / (2 * n)
		if needed == 0 {
			continue
		}
		count := 0
		for _, r := range restRuns {
			if r == n {
				count++
			}
		}
		if count >= needed {
			return cycleLabel(n), true
		}
	}
	return "", false
}

func cycleLabel(n int) string {
	switch n {
	case 7:
		return "7x7"
	case 8:
		return "8x8"
	case 10:
		return "10x10"
	case 14:
		return "14x14"
	default:
		return "Flexible"
	}
}

// matchNonMinera checks the 6x1 / 5x2 / combined shapes.
func matchNonMinera(restRuns []int, weeksInMonth int) (string, bool) {
	if len(restRuns) == 0 {
		return "", false
	}

	allOnes, allTwos, mixed := true, true, false
	onesCount, twosCount := 0, 0
	for _, r := range restRuns {
		switch r {
		case 1:
			onesCount++
			allTwos = false
		case 2:
			twosCount++
			allOnes = false
		default:
			allOnes, allTwos = false, false
			mixed = true
		}
	}

	if allOnes && onesCount >= weeksInMonth {
		return "6x1", true
	}
	if allTwos && twosCount >= weeksInMonth {
		return "5x2", true
	}
	if !mixed && onesCount > 0 && twosCount > 0 && onesCount+twosCount >= weeksInMonth {
		return "Combinado (6x1/5x2)", true
	}

	return "", false
}
