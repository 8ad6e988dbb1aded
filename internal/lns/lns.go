// Package lns implements a large-neighborhood search with adaptive
// operator weights and simulated-annealing acceptance, operating on a
// feasible greedy seed to reduce driver count.
package lns

import (
	"math"
	"math/rand"
	"time"

	"github.com/schedcu/rosterengine/internal/conflict"
	"github.com/schedcu/rosterengine/internal/driver"
	"github.com/schedcu/rosterengine/internal/greedy"
	"github.com/schedcu/rosterengine/internal/regime"
	"github.com/schedcu/rosterengine/internal/shift"
)

// Options carries the tunable search parameters. The zero value is not
// usable; start from DefaultOptions.
type Options struct {
	Seed int64

	InitialTemperature float64
	CoolingRate        float64

	WallClockBudget       time.Duration
	StallIterationsToStop int
	ConsolidationInterval int

	DestroyWindowDays int
}

// DefaultOptions returns the production parameter defaults.
func DefaultOptions() Options {
	return Options{
		Seed:                  1,
		InitialTemperature:    100,
		CoolingRate:           0.95,
		WallClockBudget:       600 * time.Second,
		StallIterationsToStop: 500,
		ConsolidationInterval: 50,
		DestroyWindowDays:     3,
	}
}

type operatorName string

const (
	opDropDriver     operatorName = "drop_driver"
	opDestroyWindow  operatorName = "destroy_window"
	opDestroyService operatorName = "destroy_service"
)

type operatorStats struct {
	attempts     int
	accepts      int
	improvements int
}

func (s operatorStats) successRate() float64 {
	if s.attempts == 0 {
		return 0
	}
	return float64(s.improvements) / float64(s.attempts)
}

// Candidate is one solver state: an arena of drivers plus the shift-id ->
// driver-id assignment map.
type Candidate struct {
	Arena      *driver.Arena
	Assignment map[int]int
}

// Clone deep-copies a Candidate for neighbor exploration.
func (c Candidate) Clone() Candidate {
	assignment := make(map[int]int, len(c.Assignment))
	for k, v := range c.Assignment {
		assignment[k] = v
	}
	return Candidate{Arena: c.Arena.Clone(), Assignment: assignment}
}

// cost charges 10^6 per driver and 5*10^3 per assigned hour, so one driver
// weighs as much as 200 hours; between fully covering candidates the hour
// term is equal and headcount decides.
func cost(c Candidate, shiftsByID []shift.Shift) int64 {
	drivers := int64(c.Arena.Len())
	var totalHours float64
	for shiftID := range c.Assignment {
		totalHours += shiftsByID[shiftID].DurationHours
	}
	return drivers*1_000_000 + int64(totalHours*5000)
}

// Engine runs the destroy-repair search.
type Engine struct {
	params regime.Params
	oracle *conflict.Oracle
	shifts []shift.Shift
	opts   Options
	rng    *rand.Rand

	stats map[operatorName]*operatorStats
}

// NewEngine creates an Engine for a regime, conflict oracle, and shift set
// (must be id-dense as produced by shift.Expander.Expand).
func NewEngine(params regime.Params, oracle *conflict.Oracle, shifts []shift.Shift, opts Options) *Engine {
	return &Engine{
		params: params,
		oracle: oracle,
		shifts: shifts,
		opts:   opts,
		rng:    rand.New(rand.NewSource(opts.Seed)),
		stats: map[operatorName]*operatorStats{
			opDropDriver:     {},
			opDestroyWindow:  {},
			opDestroyService: {},
		},
	}
}

// Run improves seed (a feasible greedy result translated into a Candidate)
// until the wall-clock budget or the stall-iteration early stop fires.
func (e *Engine) Run(seed Candidate) Candidate {
	current := seed
	best := current.Clone()
	bestCost := cost(best, e.shifts)

	temperature := e.opts.InitialTemperature
	deadline := time.Now().Add(e.opts.WallClockBudget)

	stall := 0
	iteration := 0

	for time.Now().Before(deadline) && stall < e.opts.StallIterationsToStop {
		iteration++

		op := e.selectOperator()
		candidate := current.Clone()
		released := e.destroy(candidate, op)
		e.repair(candidate, released)

		if !e.isFeasibleCoverage(candidate) {
			// Uncovered shifts reject the candidate outright, never
			// cost-penalized.
			e.recordAttempt(op, false, false)
			continue
		}

		candidateCost := cost(candidate, e.shifts)
		currentCost := cost(current, e.shifts)

		accept := false
		improved := false
		if candidateCost < currentCost {
			accept = true
			improved = true
		} else if candidateCost > currentCost {
			delta := float64(candidateCost - currentCost)
			if e.rng.Float64() < math.Exp(-delta/temperature) {
				accept = true
			}
		} else {
			accept = true
		}

		e.recordAttempt(op, accept, improved)

		if accept {
			current = candidate
			if candidateCost < bestCost {
				best = candidate.Clone()
				bestCost = candidateCost
				stall = 0
			} else {
				stall++
			}
		} else {
			stall++
		}

		temperature *= e.opts.CoolingRate

		if iteration%e.opts.ConsolidationInterval == 0 {
			consolidated := current.Clone()
			released := e.destroy(consolidated, opDropDriver)
			e.repair(consolidated, released)
			if e.isFeasibleCoverage(consolidated) {
				if c := cost(consolidated, e.shifts); c < currentCost {
					current = consolidated
					if c < bestCost {
						best = consolidated.Clone()
						bestCost = c
					}
				}
			}
		}
	}

	return best
}

func (e *Engine) recordAttempt(op operatorName, accepted, improved bool) {
	s := e.stats[op]
	s.attempts++
	if accepted {
		s.accepts++
	}
	if improved {
		s.improvements++
	}
}

// selectOperator runs weighted roulette selection over the three operators,
// recomputing adaptive weights from raw attempt/success counters on demand.
func (e *Engine) selectOperator() operatorName {
	ops := []operatorName{opDropDriver, opDestroyWindow, opDestroyService}
	base := map[operatorName]float64{
		opDropDriver:     0.3,
		opDestroyWindow:  0.4,
		opDestroyService: 0.3,
	}

	effective := make(map[operatorName]float64, 3)
	total := 0.0
	for _, op := range ops {
		w := base[op]
		if s := e.stats[op]; s.attempts >= 10 {
			w *= 1 + s.successRate()
		}
		effective[op] = w
		total += w
	}

	r := e.rng.Float64() * total
	cum := 0.0
	for _, op := range ops {
		cum += effective[op]
		if r <= cum {
			return op
		}
	}
	return ops[len(ops)-1]
}

// destroy releases the shifts selected by op from candidate, returning their
// ids for Repair.
func (e *Engine) destroy(candidate Candidate, op operatorName) []int {
	switch op {
	case opDropDriver:
		return e.destroyDropDriver(candidate)
	case opDestroyWindow:
		return e.destroyWindow(candidate)
	case opDestroyService:
		return e.destroyService(candidate)
	default:
		return nil
	}
}

func (e *Engine) destroyDropDriver(candidate Candidate) []int {
	all := candidate.Arena.All()
	if len(all) == 0 {
		return nil
	}
	lowest := all[0]
	lowestHours := e.assignedHours(lowest)
	for _, d := range all[1:] {
		if h := e.assignedHours(d); h < lowestHours {
			lowest, lowestHours = d, h
		}
	}

	released := append([]int(nil), lowest.Shifts...)
	for _, sid := range released {
		delete(candidate.Assignment, sid)
	}
	deleted := lowest.ID
	candidate.Arena.Delete(deleted)
	// Arena deletion renumbers drivers above the deleted slot.
	for sid, did := range candidate.Assignment {
		if did > deleted {
			candidate.Assignment[sid] = did - 1
		}
	}
	return released
}

// assignedHours sums the durations of a driver's currently held shifts.
// Rolling hour totals are not maintained through destroy/repair, so the
// lowest-loaded driver is recomputed from the shifts themselves.
func (e *Engine) assignedHours(d *driver.Driver) float64 {
	var h float64
	for _, sid := range d.Shifts {
		h += e.shifts[sid].DurationHours
	}
	return h
}

func (e *Engine) destroyWindow(candidate Candidate) []int {
	if len(e.shifts) == 0 {
		return nil
	}
	start := e.shifts[e.rng.Intn(len(e.shifts))].Date
	end := start.AddDate(0, 0, e.opts.DestroyWindowDays-1)

	var released []int
	for shiftID, driverID := range candidate.Assignment {
		date := e.shifts[shiftID].Date
		if !date.Before(start) && !date.After(end) {
			released = append(released, shiftID)
			removeShiftFromDriver(candidate.Arena.Get(driverID), shiftID)
		}
	}
	for _, sid := range released {
		delete(candidate.Assignment, sid)
	}
	return released
}

func (e *Engine) destroyService(candidate Candidate) []int {
	if len(e.shifts) == 0 {
		return nil
	}
	serviceID := e.shifts[e.rng.Intn(len(e.shifts))].ServiceID

	var released []int
	for shiftID, driverID := range candidate.Assignment {
		if e.shifts[shiftID].ServiceID == serviceID {
			released = append(released, shiftID)
			removeShiftFromDriver(candidate.Arena.Get(driverID), shiftID)
		}
	}
	for _, sid := range released {
		delete(candidate.Assignment, sid)
	}
	return released
}

func removeShiftFromDriver(d *driver.Driver, shiftID int) {
	for i, sid := range d.Shifts {
		if sid == shiftID {
			d.Shifts = append(d.Shifts[:i], d.Shifts[i+1:]...)
			return
		}
	}
}

// repair reassigns each released shift, attempting existing drivers first
// and falling back to a fresh driver on failure.
func (e *Engine) repair(candidate Candidate, released []int) {
	for _, shiftID := range released {
		s := e.shifts[shiftID]
		assigned := false

		for _, d := range candidate.Arena.All() {
			if d.IsCycleDriver() && !d.AvailableOnCycle(s.Date) {
				continue
			}
			if e.oracle.HasAnyConflict(shiftID, d.Shifts) {
				continue
			}
			if e.spanExceeded(d, s) {
				continue
			}

			d.Shifts = append(d.Shifts, shiftID)
			candidate.Assignment[shiftID] = d.ID
			assigned = true
			break
		}

		if !assigned {
			d := candidate.Arena.Create()
			if e.params.IsCycleRegime() {
				d.WorkStartDate = s.Date
				d.CycleN = e.params.DefaultCycleN()
			}
			d.Shifts = append(d.Shifts, shiftID)
			candidate.Assignment[shiftID] = d.ID
		}
	}
}

// spanExceeded checks whether adding s would stretch the driver's same-day
// window past the regime span cap, scanning held same-day shifts for the
// earliest start and latest end.
func (e *Engine) spanExceeded(d *driver.Driver, s shift.Shift) bool {
	maxSpan := s.DurationHours
	if e.params.MaxWorkingDaySpan > 0 {
		maxSpan = e.params.MaxWorkingDaySpan
	} else if e.params.MaxDailyHours != nil {
		maxSpan = *e.params.MaxDailyHours
	} else {
		return false
	}

	minStart, maxEnd := s.StartMinutes, s.EndMinutes
	for _, heldID := range d.Shifts {
		held := e.shifts[heldID]
		if !held.Date.Equal(s.Date) {
			continue
		}
		if held.StartMinutes < minStart {
			minStart = held.StartMinutes
		}
		if held.EndMinutes > maxEnd {
			maxEnd = held.EndMinutes
		}
	}
	return float64(maxEnd-minStart)/60.0 > maxSpan
}

// isFeasibleCoverage requires every shift to remain assigned after repair.
func (e *Engine) isFeasibleCoverage(candidate Candidate) bool {
	return len(candidate.Assignment) == len(e.shifts)
}

// FromGreedy adapts a greedy.Result into the Candidate shape LNS operates on.
func FromGreedy(r greedy.Result) Candidate {
	return Candidate{Arena: r.Arena, Assignment: r.Assignment}
}
