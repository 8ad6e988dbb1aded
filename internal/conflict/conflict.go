// Package conflict implements the conflict oracle: for every pair of shifts
// it precomputes whether assigning both to one driver is infeasible, via two
// immutable adjacency structures keyed by shift id.
package conflict

import (
	"math/bits"
	"time"

	"github.com/schedcu/rosterengine/internal/regime"
	"github.com/schedcu/rosterengine/internal/shift"
)

// bitset is a fixed-width bit vector over shift ids, giving O(1) amortized
// membership tests during LNS repair.
type bitset []uint64

func newBitset(n int) bitset {
	return make(bitset, (n+63)/64)
}

func (b bitset) set(i int) {
	b[i/64] |= 1 << uint(i%64)
}

func (b bitset) has(i int) bool {
	return b[i/64]&(1<<uint(i%64)) != 0
}

func (b bitset) any() bool {
	for _, w := range b {
		if w != 0 {
			return true
		}
	}
	return false
}

func (b bitset) popcount() int {
	n := 0
	for _, w := range b {
		n += bits.OnesCount64(w)
	}
	return n
}

// Oracle holds, for every shift, its overlap and rest-violation sets.
// Immutable once built.
type Oracle struct {
	n       int
	overlap []bitset
	rest    []bitset
}

// Conflicts reports whether shifts a and b conflict under either relation.
// This is the check greedy and LNS feasibility run per candidate assignment.
func (o *Oracle) Conflicts(a, b int) bool {
	return o.overlap[a].has(b) || o.rest[a].has(b)
}

// Overlaps reports whether shifts a and b share a same-date overlapping
// interval.
func (o *Oracle) Overlaps(a, b int) bool {
	return o.overlap[a].has(b)
}

// HasAnyConflict reports whether shift s conflicts with any shift in the
// given id set — used by repair to test a candidate driver's held shifts.
func (o *Oracle) HasAnyConflict(s int, held []int) bool {
	for _, h := range held {
		if o.Conflicts(s, h) {
			return true
		}
	}
	return false
}

// Build precomputes the conflict oracle for a set of shifts under a regime's
// parameters. shifts must be sorted and densely id-indexed from
// 0..len(shifts)-1, as produced by shift.Expander.Expand.
func Build(shifts []shift.Shift, params regime.Params) *Oracle {
	n := len(shifts)
	o := &Oracle{
		n:       n,
		overlap: make([]bitset, n),
		rest:    make([]bitset, n),
	}
	for i := range o.overlap {
		o.overlap[i] = newBitset(n)
		o.rest[i] = newBitset(n)
	}

	const transferFloorMinutes = 60.0

	// The pairwise working-day-span rule applies only to the urban/
	// industrial and interurbano regimes; Bisemanal and Faena Minera bound
	// their days through the daily-hour cap alone.
	spanRuleApplies := params.Name == regime.Interurbano || params.Name == regime.UrbanoIndustrial

	for i := 0; i < n; i++ {
		s1 := shifts[i]
		for j := i + 1; j < n; j++ {
			s2 := shifts[j]

			sameDay := s1.Date.Equal(s2.Date)
			dayDiff := daysBetween(s1.Date, s2.Date)

			if sameDay {
				if intervalsOverlap(s1, s2) {
					o.overlap[i].set(j)
					o.overlap[j].set(i)
					continue
				}

				if s1.ServiceGroup != s2.ServiceGroup {
					// Intra-day group change is never transferable.
					o.rest[i].set(j)
					o.rest[j].set(i)
					continue
				}

				gap := sameDayGapMinutes(s1, s2)
				if gap < transferFloorMinutes {
					o.rest[i].set(j)
					o.rest[j].set(i)
					continue
				}

				if spanRuleApplies && sameDaySpanHours(s1, s2) > params.MaxWorkingDaySpan {
					o.rest[i].set(j)
					o.rest[j].set(i)
				}
				continue
			}

			if dayDiff == 1 {
				gapHours := consecutiveDayGapHours(s1, s2)
				if gapHours < params.MinRestHours {
					o.rest[i].set(j)
					o.rest[j].set(i)
				}
			}
		}
	}

	return o
}

func intervalsOverlap(a, b shift.Shift) bool {
	return a.StartMinutes < b.EndMinutes && b.StartMinutes < a.EndMinutes
}

// sameDayGapMinutes returns the signed gap (minutes) between the earlier
// shift's end and the later shift's start, for non-overlapping same-day pairs.
func sameDayGapMinutes(a, b shift.Shift) float64 {
	first, second := a, b
	if b.StartMinutes < a.StartMinutes {
		first, second = b, a
	}
	return float64(second.StartMinutes - first.EndMinutes)
}

func sameDaySpanHours(a, b shift.Shift) float64 {
	maxEnd := a.EndMinutes
	if b.EndMinutes > maxEnd {
		maxEnd = b.EndMinutes
	}
	minStart := a.StartMinutes
	if b.StartMinutes < minStart {
		minStart = b.StartMinutes
	}
	return float64(maxEnd-minStart) / 60.0
}

func daysBetween(a, b time.Time) int {
	d := int(b.Sub(a).Hours() / 24)
	if d < 0 {
		d = -d
	}
	return d
}

// consecutiveDayGapHours computes the rest gap (hours) between the earlier
// shift's end and the later shift's start across two consecutive calendar days.
func consecutiveDayGapHours(a, b shift.Shift) float64 {
	early, late := a, b
	if b.Date.Before(a.Date) {
		early, late = b, a
	}
	earlyEnd := early.Date.Add(minutesToDuration(early.EndMinutes))
	lateStart := late.Date.Add(minutesToDuration(late.StartMinutes))
	return lateStart.Sub(earlyEnd).Hours()
}

func minutesToDuration(m int) time.Duration {
	return time.Duration(m) * time.Minute
}
