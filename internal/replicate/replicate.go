// Package replicate takes a fully solved February (the base month) and
// propagates it across the other eleven months of the year while preserving
// every NxN driver's cycle continuity across the year boundary.
package replicate

import (
	"fmt"
	"sort"
	"time"

	"github.com/schedcu/rosterengine/internal/shift"
	"github.com/schedcu/rosterengine/internal/solution"
)

// DriverCycle describes one February driver's cycle parameters, extracted
// from the monthly solution.
type DriverCycle struct {
	DriverID      int
	DriverName    string
	N             int // 0 means this driver has no recognized NxN cycle
	WorkStartDate time.Time
	Pattern       string
}

// IsCycle reports whether this driver has a recognized NxN cycle that can
// be rolled back across the year boundary.
func (d DriverCycle) IsCycle() bool {
	return d.N > 0
}

// AnchorWorkStart retrojects a driver's February work start backwards one
// full cycle (2N days) at a time to the latest date on or before jan1 that
// preserves the driver's relative cycle position. A work start already
// before jan1 is stepped forward only while a full cycle still fits.
func AnchorWorkStart(workStart time.Time, n int, jan1 time.Time) time.Time {
	if n <= 0 {
		return workStart
	}
	cycle := 2 * n
	anchor := workStart
	for anchor.After(jan1) {
		anchor = anchor.AddDate(0, 0, -cycle)
	}
	for !anchor.AddDate(0, 0, cycle).After(jan1) {
		anchor = anchor.AddDate(0, 0, cycle)
	}
	return anchor
}

// dayInCycle mirrors driver.DayInCycle without importing the driver package
// (replicate only needs the arithmetic, not the mutable Driver type).
func dayInCycle(date, workStart time.Time, n int) int {
	days := int(date.Sub(workStart).Hours() / 24)
	period := 2 * n
	m := days % period
	if m < 0 {
		m += period
	}
	return m
}

// febSlot is the key a February assignment is indexed under: everything
// that repeats identically on the same day-in-cycle in every month under
// the production assumption that weekday frequency is uniform
// month-to-month.
type febSlot struct {
	dayInCycle   int
	serviceID    string
	shiftOrdinal int
	vehicle      int
}

// Result is the outcome of one annual replication pass.
type Result struct {
	Assignments []solution.Assignment

	// FlexibleDrivers lists drivers whose February pattern could not be
	// rolled back across the year boundary. The caller falls back to
	// re-running monthly optimization for these drivers' months.
	FlexibleDrivers []DriverCycle
}

// Replicate propagates febAssignments (keyed by February shift id) across
// every calendar date in year, for every cycle driver in cycles, producing
// a full year of Assignments.
//
// febShifts must be the same dense, id-indexed slice the February shift
// expansion produced; febAssignments maps February shift id -> driver id.
func Replicate(year int, febShifts []shift.Shift, febAssignments map[int]int, cycles []DriverCycle) Result {
	jan1 := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	dec31 := time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC)

	byDriver := make(map[int]DriverCycle, len(cycles))
	var flexible []DriverCycle
	for _, c := range cycles {
		if !c.IsCycle() {
			flexible = append(flexible, c)
			continue
		}
		c.WorkStartDate = AnchorWorkStart(c.WorkStartDate, c.N, jan1)
		byDriver[c.DriverID] = c
	}

	// Index February assignments by (driver, day_in_cycle, service, ordinal, vehicle).
	index := make(map[int]map[febSlot]shift.Shift, len(byDriver))
	febShiftByID := make(map[int]shift.Shift, len(febShifts))
	for _, s := range febShifts {
		febShiftByID[s.ID] = s
	}
	for shiftID, driverID := range febAssignments {
		c, ok := byDriver[driverID]
		if !ok {
			continue // driver not a recognized cycle driver (Flexible)
		}
		s := febShiftByID[shiftID]
		slot := febSlot{
			dayInCycle:   dayInCycle(s.Date, c.WorkStartDate, c.N),
			serviceID:    s.ServiceID,
			shiftOrdinal: s.ShiftOrdinal,
			vehicle:      s.Vehicle,
		}
		if index[driverID] == nil {
			index[driverID] = make(map[febSlot]shift.Shift)
		}
		index[driverID][slot] = s
	}

	var out []solution.Assignment
	for date := jan1; !date.After(dec31); date = date.AddDate(0, 0, 1) {
		for driverID, c := range byDriver {
			dic := dayInCycle(date, c.WorkStartDate, c.N)
			for slot, s := range index[driverID] {
				if slot.dayInCycle != dic {
					continue
				}
				out = append(out, solution.Assignment{
					Date:            date,
					ServiceID:       s.ServiceID,
					ServiceName:     s.ServiceName,
					ServiceType:     s.ServiceType,
					ServiceGroup:    s.ServiceGroup,
					ShiftOrdinal:    s.ShiftOrdinal,
					Vehicle:         s.Vehicle,
					DriverID:        fmt.Sprintf("D%03d", driverID),
					DriverName:      c.DriverName,
					StartTime:       minutesToClock(s.StartMinutes),
					EndTime:         minutesToClock(s.EndMinutes % 1440),
					DurationHours:   s.DurationHours,
					VehicleType:     s.VehicleType,
					VehicleCategory: s.VehicleCategory,
				})
			}
		}
	}

	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if !a.Date.Equal(b.Date) {
			return a.Date.Before(b.Date)
		}
		if a.DriverID != b.DriverID {
			return a.DriverID < b.DriverID
		}
		if a.ServiceID != b.ServiceID {
			return a.ServiceID < b.ServiceID
		}
		if a.Vehicle != b.Vehicle {
			return a.Vehicle < b.Vehicle
		}
		return a.ShiftOrdinal < b.ShiftOrdinal
	})

	return Result{Assignments: out, FlexibleDrivers: flexible}
}

func minutesToClock(m int) string {
	m = ((m % 1440) + 1440) % 1440
	return fmt.Sprintf("%02d:%02d", m/60, m%60)
}
