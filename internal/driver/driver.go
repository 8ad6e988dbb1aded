// Package driver models the synthesized driver entity and its dynamic
// arena: drivers are created on demand during greedy construction and LNS,
// never declared a priori.
package driver

import "time"

// Driver accumulates per-driver solver state across a phase. Cycle-regime
// fields (WorkStartDate, CycleN) and non-cycle fields (ConsecutiveDays,
// LastShiftDate) are both present; which ones matter depends on the regime.
type Driver struct {
	ID int

	// WorkStartDate and CycleN apply to NxN cycle regimes. CycleN == 0 means
	// "not a cycle driver".
	WorkStartDate time.Time
	CycleN        int

	// Shifts holds the ids of shifts currently assigned to this driver.
	Shifts []int

	// LastShiftDate and ConsecutiveDays track the consecutive-working-day
	// streak for non-cycle regimes.
	LastShiftDate   time.Time
	ConsecutiveDays int

	// WeeklyHours is keyed by week-of-month.
	WeeklyHours  map[int]float64
	MonthlyHours float64

	SundaysWorked int

	ServicesTouched          map[string]bool
	VehicleCategoriesTouched map[string]bool
}

// New creates an empty Driver with the given stable id.
func New(id int) *Driver {
	return &Driver{
		ID:                       id,
		WeeklyHours:              make(map[int]float64),
		ServicesTouched:          make(map[string]bool),
		VehicleCategoriesTouched: make(map[string]bool),
	}
}

// IsCycleDriver reports whether this driver operates under an N×N cycle.
func (d *Driver) IsCycleDriver() bool {
	return d.CycleN > 0
}

// AvailableOnCycle reports whether date falls in this driver's work half of
// its cycle: (date - work_start_date) mod 2N < N.
func (d *Driver) AvailableOnCycle(date time.Time) bool {
	if !d.IsCycleDriver() {
		return true
	}
	return DayInCycle(date, d.WorkStartDate, d.CycleN) < d.CycleN
}

// DayInCycle computes (date - workStart) mod 2N as a non-negative integer.
func DayInCycle(date, workStart time.Time, n int) int {
	days := int(date.Sub(workStart).Hours() / 24)
	period := 2 * n
	m := days % period
	if m < 0 {
		m += period
	}
	return m
}

// Clone deep-copies this driver. Phases exploring alternatives work on a
// copy so rejected candidates never leak state back.
func (d *Driver) Clone() *Driver {
	c := &Driver{
		ID:              d.ID,
		WorkStartDate:   d.WorkStartDate,
		CycleN:          d.CycleN,
		LastShiftDate:   d.LastShiftDate,
		ConsecutiveDays: d.ConsecutiveDays,
		MonthlyHours:    d.MonthlyHours,
		SundaysWorked:   d.SundaysWorked,
	}
	c.Shifts = append([]int(nil), d.Shifts...)
	c.WeeklyHours = make(map[int]float64, len(d.WeeklyHours))
	for k, v := range d.WeeklyHours {
		c.WeeklyHours[k] = v
	}
	c.ServicesTouched = make(map[string]bool, len(d.ServicesTouched))
	for k, v := range d.ServicesTouched {
		c.ServicesTouched[k] = v
	}
	c.VehicleCategoriesTouched = make(map[string]bool, len(d.VehicleCategoriesTouched))
	for k, v := range d.VehicleCategoriesTouched {
		c.VehicleCategoriesTouched[k] = v
	}
	return c
}

// Arena is a growing, dense, id-indexed table of drivers. Nothing in the
// solver ever declares a driver count up front; only the CP-SAT encoding
// needs one, and it recomputes it per attempt.
type Arena struct {
	drivers []*Driver
}

// NewArena creates an empty Arena.
func NewArena() *Arena {
	return &Arena{}
}

// Create allocates and returns a fresh Driver with the next stable id.
func (a *Arena) Create() *Driver {
	d := New(len(a.drivers))
	a.drivers = append(a.drivers, d)
	return d
}

// Get returns the driver with the given id.
func (a *Arena) Get(id int) *Driver {
	return a.drivers[id]
}

// Len returns the number of drivers currently in the arena.
func (a *Arena) Len() int {
	return len(a.drivers)
}

// All returns every driver in the arena, in id order.
func (a *Arena) All() []*Driver {
	return a.drivers
}

// Delete removes a driver from the arena by id, compacting the slice and
// renumbering subsequent drivers' ids to keep the arena dense.
func (a *Arena) Delete(id int) {
	a.drivers = append(a.drivers[:id], a.drivers[id+1:]...)
	for i := id; i < len(a.drivers); i++ {
		a.drivers[i].ID = i
	}
}

// Clone deep-copies the whole arena.
func (a *Arena) Clone() *Arena {
	c := &Arena{drivers: make([]*Driver, len(a.drivers))}
	for i, d := range a.drivers {
		c.drivers[i] = d.Clone()
	}
	return c
}
