// Package cpsat encodes the driver-assignment problem as a boolean
// satisfaction model with a linear objective and solves it with
// github.com/google/or-tools/sat, either as a standalone solver (non-cycle
// regimes) or as a seeded refinement pass on top of a greedy/LNS solution
// (the Faena Minera hybrid encoding).
package cpsat

import (
	"time"

	"github.com/google/or-tools/sat"

	"github.com/schedcu/rosterengine/internal/conflict"
	"github.com/schedcu/rosterengine/internal/regime"
	"github.com/schedcu/rosterengine/internal/shift"
)

// Status is the outcome of one CP-SAT attempt at a fixed driver count.
type Status string

const (
	StatusOptimal    Status = "optimal"
	StatusFeasible   Status = "feasible"
	StatusInfeasible Status = "infeasible"
	StatusTimeout    Status = "timeout"
)

// Attempt is the result of solving the model with exactly D driver slots.
type Attempt struct {
	Drivers    int
	Status     Status
	Assignment map[int]int // shift id -> driver slot, only set when Status is optimal/feasible
	Duration   time.Duration
}

// SolverParameters mirrors the worker/presolve/linearization knobs the
// underlying CP-SAT solver exposes.
type SolverParameters struct {
	NumWorkers           int
	PerAttemptTimeout    time.Duration
	PresolveEnabled      bool
	LinearizationLevel   int
	FixedSearchBranching bool
}

// NonMineraParameters returns the defaults for non-minera regimes: presolve
// on, linearization level 2, 60s per-attempt timeout.
func NonMineraParameters() SolverParameters {
	return SolverParameters{
		NumWorkers:         8,
		PerAttemptTimeout:  60 * time.Second,
		PresolveEnabled:    true,
		LinearizationLevel: 2,
	}
}

// MineraParameters returns the defaults for Faena Minera: presolve disabled
// to fail fast, linearization level 0, fixed-search branching, and an
// adaptive 10-45s per-attempt timeout the caller scales by distance from the
// estimated minimum.
func MineraParameters(perAttempt time.Duration) SolverParameters {
	return SolverParameters{
		NumWorkers:           16,
		PerAttemptTimeout:    perAttempt,
		PresolveEnabled:      false,
		LinearizationLevel:   0,
		FixedSearchBranching: true,
	}
}

// Adapter builds and solves the CP-SAT assignment model.
type Adapter struct {
	params regime.Params
	oracle *conflict.Oracle
	shifts []shift.Shift

	weekNums    []int
	sundayDates []time.Time
	dates       []time.Time
	groups      []string
}

// NewAdapter creates an Adapter for a regime, conflict oracle, and shift set
// (must be dense-id-indexed, as produced by shift.Expander.Expand).
func NewAdapter(params regime.Params, oracle *conflict.Oracle, shifts []shift.Shift) *Adapter {
	a := &Adapter{params: params, oracle: oracle, shifts: shifts}
	a.indexDimensions()
	return a
}

func (a *Adapter) indexDimensions() {
	seenWeek := map[int]bool{}
	seenDate := map[time.Time]bool{}
	seenGroup := map[string]bool{}
	for _, s := range a.shifts {
		if !seenWeek[s.WeekNum] {
			seenWeek[s.WeekNum] = true
			a.weekNums = append(a.weekNums, s.WeekNum)
		}
		if !seenDate[s.Date] {
			seenDate[s.Date] = true
			a.dates = append(a.dates, s.Date)
			if s.IsSunday {
				a.sundayDates = append(a.sundayDates, s.Date)
			}
		}
		if !seenGroup[s.ServiceGroup] {
			seenGroup[s.ServiceGroup] = true
			a.groups = append(a.groups, s.ServiceGroup)
		}
	}
}

// model holds the boolean variables built for one fixed driver count D.
type model struct {
	cp *sat.CpModel

	x           [][]*sat.BoolVar // [driver][shift]
	used        []*sat.BoolVar
	worksDate   map[int]map[time.Time]*sat.BoolVar
	worksGroup  map[int]map[time.Time]map[string]*sat.BoolVar
	worksSunday map[int]map[time.Time]*sat.BoolVar

	// pattern[d][N] is the choose-one cycle variable for flexible drivers in
	// the minera hybrid encoding.
	pattern map[int]map[int]*sat.BoolVar
}

// buildModel constructs the full constraint model for exactly D driver slots.
func (a *Adapter) buildModel(d int) *model {
	cp := sat.NewCpModel()
	m := &model{
		cp:          cp,
		x:           make([][]*sat.BoolVar, d),
		used:        make([]*sat.BoolVar, d),
		worksDate:   make(map[int]map[time.Time]*sat.BoolVar, d),
		worksGroup:  make(map[int]map[time.Time]map[string]*sat.BoolVar, d),
		worksSunday: make(map[int]map[time.Time]*sat.BoolVar, d),
	}

	for driver := 0; driver < d; driver++ {
		m.x[driver] = make([]*sat.BoolVar, len(a.shifts))
		for _, s := range a.shifts {
			m.x[driver][s.ID] = cp.NewBoolVar(varName("x", driver, s.ID))
		}
		m.used[driver] = cp.NewBoolVar(varName("used", driver, 0))

		m.worksDate[driver] = make(map[time.Time]*sat.BoolVar, len(a.dates))
		m.worksGroup[driver] = make(map[time.Time]map[string]*sat.BoolVar, len(a.dates))
		for _, date := range a.dates {
			m.worksDate[driver][date] = cp.NewBoolVar(dateVarName("works", driver, date))
			m.worksGroup[driver][date] = make(map[string]*sat.BoolVar, len(a.groups))
			for _, g := range a.groups {
				m.worksGroup[driver][date][g] = cp.NewBoolVar(dateVarName("worksgroup_"+g, driver, date))
			}
		}

		m.worksSunday[driver] = make(map[time.Time]*sat.BoolVar, len(a.sundayDates))
		for _, date := range a.sundayDates {
			m.worksSunday[driver][date] = cp.NewBoolVar(dateVarName("sunday", driver, date))
		}
	}

	a.addCoverageConstraints(m, d)
	a.addConflictConstraints(m, d)
	a.addWeeklyHourConstraints(m, d)
	a.addMonthlyHourConstraints(m, d)
	if !a.params.IsCycleRegime() {
		a.addConsecutiveDayConstraints(m, d)
		a.addSundayQuotaConstraints(m, d)
	} else {
		a.addGroupChangeConstraints(m, d)
		a.addCyclePatternConstraints(m, d)
	}
	a.addUsedLinkConstraints(m, d)
	a.addObjective(m, d)

	return m
}

// addCoverageConstraints requires every shift to be covered by exactly one
// driver.
func (a *Adapter) addCoverageConstraints(m *model, d int) {
	for _, s := range a.shifts {
		vars := make([]*sat.BoolVar, d)
		for driver := 0; driver < d; driver++ {
			vars[driver] = m.x[driver][s.ID]
		}
		m.cp.AddLinearConstraint(vars, 1, 1)
	}
}

// addConflictConstraints forbids any driver from holding two shifts that
// overlap or violate rest, reusing the precomputed oracle adjacency rather
// than re-deriving it.
func (a *Adapter) addConflictConstraints(m *model, d int) {
	n := len(a.shifts)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if !a.oracle.Conflicts(i, j) {
				continue
			}
			for driver := 0; driver < d; driver++ {
				m.cp.AddLinearConstraint([]*sat.BoolVar{m.x[driver][i], m.x[driver][j]}, 0, 1)
			}
		}
	}
}

// addWeeklyHourConstraints caps each driver's minutes per week-of-month.
func (a *Adapter) addWeeklyHourConstraints(m *model, d int) {
	if a.params.MaxWeeklyHours == nil {
		return
	}
	capMinutes := int64(*a.params.MaxWeeklyHours * 60)
	for driver := 0; driver < d; driver++ {
		for _, week := range a.weekNums {
			expr := m.cp.NewLinearExpr()
			for _, s := range a.shifts {
				if s.WeekNum != week {
					continue
				}
				expr.AddTerm(m.x[driver][s.ID], int64(s.DurationHours*60))
			}
			m.cp.AddLinearExpr(expr, 0, capMinutes)
		}
	}
}

// addMonthlyHourConstraints caps each driver's total minutes for the month.
func (a *Adapter) addMonthlyHourConstraints(m *model, d int) {
	if a.params.MaxMonthlyHours == nil {
		return
	}
	capMinutes := int64(*a.params.MaxMonthlyHours * 60)
	for driver := 0; driver < d; driver++ {
		expr := m.cp.NewLinearExpr()
		for _, s := range a.shifts {
			expr.AddTerm(m.x[driver][s.ID], int64(s.DurationHours*60))
		}
		m.cp.AddLinearExpr(expr, 0, capMinutes)
	}
}

// addConsecutiveDayConstraints bounds worked days in every sliding 7-day
// window by MaxConsecutiveDays, with works[d,date] linked as a max-equality
// over that date's shifts in addUsedLinkConstraints.
func (a *Adapter) addConsecutiveDayConstraints(m *model, d int) {
	limit := int64(a.params.MaxConsecutiveDays)
	for driver := 0; driver < d; driver++ {
		for start := range a.dates {
			windowEnd := a.dates[start].AddDate(0, 0, 7)
			var vars []*sat.BoolVar
			for i := start; i < len(a.dates) && a.dates[i].Before(windowEnd); i++ {
				vars = append(vars, m.worksDate[driver][a.dates[i]])
			}
			if int64(len(vars)) > limit {
				m.cp.AddLinearConstraint(vars, 0, limit)
			}
		}
	}
}

// addSundayQuotaConstraints caps worked Sundays so at least MinFreeSundays
// remain free.
func (a *Adapter) addSundayQuotaConstraints(m *model, d int) {
	if a.params.MinFreeSundays == nil || len(a.sundayDates) == 0 {
		return
	}
	maxWorked := int64(len(a.sundayDates) - *a.params.MinFreeSundays)
	if maxWorked < 0 {
		maxWorked = 0
	}
	for driver := 0; driver < d; driver++ {
		vars := make([]*sat.BoolVar, len(a.sundayDates))
		for i, date := range a.sundayDates {
			vars[i] = m.worksSunday[driver][date]
		}
		m.cp.AddLinearConstraint(vars, 0, maxWorked)
	}
}

// addGroupChangeConstraints forbids a driver from working more than one
// service group on the same calendar date.
func (a *Adapter) addGroupChangeConstraints(m *model, d int) {
	if len(a.groups) < 2 {
		return
	}
	for driver := 0; driver < d; driver++ {
		for _, date := range a.dates {
			vars := make([]*sat.BoolVar, len(a.groups))
			for i, g := range a.groups {
				vars[i] = m.worksGroup[driver][date][g]
			}
			m.cp.AddLinearConstraint(vars, 0, 1)
		}
	}
}

// addUsedLinkConstraints links the works[d,date] / works_group[d,date,g] /
// works_sunday[d,sunday] / used[d] auxiliary booleans to the primary x
// variables as max-equalities.
func (a *Adapter) addUsedLinkConstraints(m *model, d int) {
	byDate := make(map[time.Time][]shift.Shift, len(a.dates))
	byDateGroup := make(map[time.Time]map[string][]shift.Shift, len(a.dates))
	for _, s := range a.shifts {
		byDate[s.Date] = append(byDate[s.Date], s)
		if byDateGroup[s.Date] == nil {
			byDateGroup[s.Date] = make(map[string][]shift.Shift)
		}
		byDateGroup[s.Date][s.ServiceGroup] = append(byDateGroup[s.Date][s.ServiceGroup], s)
	}

	for driver := 0; driver < d; driver++ {
		var allShiftVars []*sat.BoolVar
		for _, date := range a.dates {
			shiftVars := make([]*sat.BoolVar, 0, len(byDate[date]))
			for _, s := range byDate[date] {
				shiftVars = append(shiftVars, m.x[driver][s.ID])
			}
			linkMaxEquality(m.cp, m.worksDate[driver][date], shiftVars)
			allShiftVars = append(allShiftVars, shiftVars...)

			for g, gShifts := range byDateGroup[date] {
				gVars := make([]*sat.BoolVar, len(gShifts))
				for i, s := range gShifts {
					gVars[i] = m.x[driver][s.ID]
				}
				linkMaxEquality(m.cp, m.worksGroup[driver][date][g], gVars)
			}
		}
		linkMaxEquality(m.cp, m.used[driver], allShiftVars)

		for _, date := range a.sundayDates {
			shiftVars := make([]*sat.BoolVar, 0, len(byDate[date]))
			for _, s := range byDate[date] {
				shiftVars = append(shiftVars, m.x[driver][s.ID])
			}
			linkMaxEquality(m.cp, m.worksSunday[driver][date], shiftVars)
		}
	}
}

// addCyclePatternConstraints is the hybrid NxN encoding for Faena Minera.
// Without a structural hint that an NxN rest pattern exists, branch search
// explodes; the hint takes two forms split 60/40 across the driver slots:
//
//   - Fixed-pattern drivers (first 60% of D) get a cycle length N and phase
//     offset assigned deterministically round-robin over the regime's
//     special cycles, and every x[d,s] on a rest day of that cycle is
//     pre-bound to 0.
//   - Flexible drivers (remaining 40%) get a choose-one pattern[d,N]
//     variable per candidate N. A used driver must pick exactly one
//     pattern, and pattern[d,N] forces x[d,s] = 0 for every s falling on a
//     rest day of the offset-0 N-cycle.
func (a *Adapter) addCyclePatternConstraints(m *model, d int) {
	cycles := a.params.SpecialCycles
	if len(cycles) == 0 || len(a.dates) == 0 {
		return
	}
	origin := a.dates[0]

	fixedCount := d * 60 / 100
	m.pattern = make(map[int]map[int]*sat.BoolVar, d-fixedCount)

	byDate := make(map[time.Time][]shift.Shift, len(a.dates))
	for _, s := range a.shifts {
		byDate[s.Date] = append(byDate[s.Date], s)
	}

	for driver := 0; driver < fixedCount; driver++ {
		cycle := cycles[driver%len(cycles)]
		n := cycle.WorkDays
		offset := (driver / len(cycles)) % (2 * n)
		for _, date := range a.dates {
			if dayInCycle(date, origin, offset, n) < n {
				continue
			}
			for _, s := range byDate[date] {
				m.cp.AddLinearConstraint([]*sat.BoolVar{m.x[driver][s.ID]}, 0, 0)
			}
		}
	}

	for driver := fixedCount; driver < d; driver++ {
		m.pattern[driver] = make(map[int]*sat.BoolVar, len(cycles))
		sum := m.cp.NewLinearExpr()
		for _, cycle := range cycles {
			n := cycle.WorkDays
			p := m.cp.NewBoolVar(varName("pattern", driver, n))
			m.pattern[driver][n] = p
			sum.AddTerm(p, 1)

			for _, date := range a.dates {
				if dayInCycle(date, origin, 0, n) < n {
					continue
				}
				for _, s := range byDate[date] {
					// pattern[d,N] => x[d,s] = 0
					m.cp.AddLinearConstraint([]*sat.BoolVar{p, m.x[driver][s.ID]}, 0, 1)
				}
			}
		}
		// A used driver picks exactly one pattern; an unused one picks none.
		sum.AddTerm(m.used[driver], -1)
		m.cp.AddLinearExpr(sum, 0, 0)
	}
}

// dayInCycle returns ((date - origin) + offset) mod 2N as a non-negative
// day index into the cycle.
func dayInCycle(date, origin time.Time, offset, n int) int {
	days := int(date.Sub(origin).Hours()/24) + offset
	period := 2 * n
	m := days % period
	if m < 0 {
		m += period
	}
	return m
}

// linkMaxEquality constrains target == max(vars): target can only be true if
// at least one var is true, and any true var forces target true.
func linkMaxEquality(cp *sat.CpModel, target *sat.BoolVar, vars []*sat.BoolVar) {
	if len(vars) == 0 {
		cp.AddLinearConstraint([]*sat.BoolVar{target}, 0, 0)
		return
	}
	sum := cp.NewLinearExpr()
	for _, v := range vars {
		sum.AddTerm(v, 1)
		// v => target
		cp.AddImplication(v, target)
	}
	// target => at least one var: sum(vars) - target >= 0.
	sum.AddTerm(target, -1)
	cp.AddLinearExpr(sum, 0, int64(len(vars)))
}

func varName(prefix string, a, b int) string {
	return prefix + "_" + itoa(a) + "_" + itoa(b)
}

func dateVarName(prefix string, driver int, date time.Time) string {
	return prefix + "_" + itoa(driver) + "_" + date.Format("20060102")
}

// applySolverParameters pushes SolverParameters onto the underlying CP-SAT
// solver's own parameter block.
func applySolverParameters(solver *sat.CpSolver, params SolverParameters) {
	solver.Parameters.NumSearchWorkers = int32(params.NumWorkers)
	solver.Parameters.MaxTimeInSeconds = params.PerAttemptTimeout.Seconds()
	solver.Parameters.CpModelPresolve = params.PresolveEnabled
	solver.Parameters.LinearizationLevel = int32(params.LinearizationLevel)
	if params.FixedSearchBranching {
		solver.Parameters.SearchBranching = sat.FixedSearch
	}
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

// addObjective lexicographically minimizes driver count, then total
// assigned hours to balance workload.
func (a *Adapter) addObjective(m *model, d int) {
	obj := m.cp.NewLinearExpr()
	for driver := 0; driver < d; driver++ {
		obj.AddTerm(m.used[driver], 1_000_000)
		for _, s := range a.shifts {
			obj.AddTerm(m.x[driver][s.ID], int64(s.DurationHours))
		}
	}
	m.cp.Minimise(obj)
}

// SolveAtDriverCount runs one CP-SAT attempt with exactly D driver slots.
func (a *Adapter) SolveAtDriverCount(d int, params SolverParameters) Attempt {
	start := time.Now()
	m := a.buildModel(d)

	solver := sat.NewCpSolver()
	applySolverParameters(solver, params)
	status := solver.Solve(m.cp)
	elapsed := time.Since(start)

	switch status {
	case sat.Optimal, sat.Feasible:
		assignment := make(map[int]int, len(a.shifts))
		for _, s := range a.shifts {
			for driver := 0; driver < d; driver++ {
				if solver.BooleanValue(m.x[driver][s.ID]) {
					assignment[s.ID] = driver
					break
				}
			}
		}
		st := StatusFeasible
		if status == sat.Optimal {
			st = StatusOptimal
		}
		return Attempt{Drivers: d, Status: st, Assignment: assignment, Duration: elapsed}
	case sat.Infeasible:
		return Attempt{Drivers: d, Status: StatusInfeasible, Duration: elapsed}
	default:
		return Attempt{Drivers: d, Status: StatusTimeout, Duration: elapsed}
	}
}

// Search performs a descending linear search over candidate driver counts:
// starting from greedyDrivers, try D = greedyDrivers-1 down to
// floor(0.5*greedyDrivers), stopping at the first infeasible or timed-out
// attempt or when the overall time budget is exhausted. The last feasible
// attempt is the
// answer; if greedyDrivers itself is never beaten, the caller keeps the
// greedy/LNS seed.
func (a *Adapter) Search(greedyDrivers int, params SolverParameters, totalBudget time.Duration) []Attempt {
	deadline := time.Now().Add(totalBudget)
	floor := greedyDrivers / 2
	if floor < 1 {
		floor = 1
	}

	var attempts []Attempt
	for d := greedyDrivers - 1; d >= floor; d-- {
		if time.Now().After(deadline) {
			break
		}
		attempt := a.SolveAtDriverCount(d, params)
		attempts = append(attempts, attempt)
		if attempt.Status == StatusInfeasible || attempt.Status == StatusTimeout {
			break
		}
	}
	return attempts
}

// VerifyMinera runs the adapter as a verifier/refiner over a fixed driver
// count the greedy/LNS pipeline already produced. The hybrid encoding needs
// a greedy seed; CP-SAT then confirms or tightens the same D.
func (a *Adapter) VerifyMinera(d int, perAttempt time.Duration) Attempt {
	return a.SolveAtDriverCount(d, MineraParameters(perAttempt))
}
