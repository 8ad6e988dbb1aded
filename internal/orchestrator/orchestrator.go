// Package orchestrator is the single top-level driver of the roster engine:
// it wires the shift expander, conflict oracle, regime rules, greedy
// builder, LNS engine, CP-SAT adapter, annual replicator, and pattern
// detector into one sequential pipeline, and selects monthly vs. annual
// mode.
package orchestrator

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/schedcu/rosterengine/internal/catalog"
	"github.com/schedcu/rosterengine/internal/conflict"
	"github.com/schedcu/rosterengine/internal/cpsat"
	"github.com/schedcu/rosterengine/internal/driver"
	"github.com/schedcu/rosterengine/internal/entity"
	"github.com/schedcu/rosterengine/internal/greedy"
	"github.com/schedcu/rosterengine/internal/lns"
	"github.com/schedcu/rosterengine/internal/logger"
	"github.com/schedcu/rosterengine/internal/metrics"
	"github.com/schedcu/rosterengine/internal/pattern"
	"github.com/schedcu/rosterengine/internal/regime"
	"github.com/schedcu/rosterengine/internal/replicate"
	"github.com/schedcu/rosterengine/internal/salary"
	"github.com/schedcu/rosterengine/internal/shift"
	"github.com/schedcu/rosterengine/internal/solution"
	"github.com/schedcu/rosterengine/internal/validation"
)

// Phase names the pipeline stages, used for phase-duration metrics and
// structured log fields.
type Phase string

const (
	PhaseExpand    Phase = "expand"
	PhaseOracle    Phase = "oracle"
	PhaseGreedy    Phase = "greedy"
	PhaseLNS       Phase = "lns"
	PhaseCPSAT     Phase = "cpsat"
	PhaseReplicate Phase = "replicate"
)

// EngineOptions carries the tunable engine parameters: LNS wall-clock
// budget, CP-SAT per-attempt timeout, PRNG seed, cooling rate.
type EngineOptions struct {
	LNS lns.Options

	EnableCPSAT            bool
	CPSATTotalBudget       time.Duration
	CPSATPerAttemptTimeout time.Duration

	// ConflictCache, when set, is consulted before building the conflict
	// oracle and updated after. Never authoritative; a miss just recomputes.
	ConflictCache *conflict.Cache

	Logger  *zap.SugaredLogger
	Metrics *metrics.Registry
}

// DefaultEngineOptions returns the production defaults.
func DefaultEngineOptions() EngineOptions {
	return EngineOptions{
		LNS:                    lns.DefaultOptions(),
		EnableCPSAT:            true,
		CPSATTotalBudget:       10 * time.Minute,
		CPSATPerAttemptTimeout: 60 * time.Second,
	}
}

// Orchestrator runs the expand -> oracle -> greedy -> LNS -> CP-SAT ->
// (replicate) pipeline. Exactly one phase is active at a time; each phase
// owns its working copy of the solution.
type Orchestrator struct {
	options EngineOptions
}

// New creates an Orchestrator with the given engine options. A zero-value
// Logger/Metrics is tolerated — phase timing is simply not recorded.
func New(options EngineOptions) *Orchestrator {
	return &Orchestrator{options: options}
}

// monthResult is the internal, pre-solution-assembly state one monthly solve
// produces; both RunMonthly and the annual pipeline's February pass share it.
type monthResult struct {
	year, month int
	params      regime.Params
	shifts      []shift.Shift
	oracle      *conflict.Oracle
	arena       *driver.Arena
	assignment  map[int]int // shift id -> driver id

	// infeasibleReason, when non-empty, marks the month as structurally
	// unsolvable; the solve phases were skipped and the result surfaces as
	// a failed solution rather than an error.
	infeasibleReason string
}

// Run dispatches to RunMonthly or RunAnnual; spec.Month == 0 selects
// annual mode.
func (o *Orchestrator) Run(ctx context.Context, cat *catalog.Catalog, spec catalog.RunSpec) (*solution.Solution, error) {
	if spec.IsAnnual() {
		return o.RunAnnual(ctx, cat, spec.Year)
	}
	return o.RunMonthly(ctx, cat, spec.Year, spec.Month)
}

// RunMonthly runs the full pipeline for a single (year, month) and
// assembles the output solution.
func (o *Orchestrator) RunMonthly(ctx context.Context, cat *catalog.Catalog, year, month int) (*solution.Solution, error) {
	runID := entity.NewRunID()
	ctx = logger.WithRunID(ctx, runID.String())

	mr, vr, err := o.runMonth(ctx, cat, year, month)
	if err != nil {
		return nil, err
	}
	if vr.HasErrors() {
		return nil, fmt.Errorf("invalid catalog: %d validation error(s), first: %s", vr.ErrorCount(), vr.Errors[0].Message)
	}

	sol := o.buildSolution(mr)
	return &sol, nil
}

// RunAnnual optimizes February as the base month, extracts each cycle
// driver's anchor, and replicates across the year while preserving NxN
// continuity. February is the base month because its 28 days are exact
// multiples of the 7- and 14-day cycles.
func (o *Orchestrator) RunAnnual(ctx context.Context, cat *catalog.Catalog, year int) (*solution.Solution, error) {
	runID := entity.NewRunID()
	ctx = logger.WithRunID(ctx, runID.String())

	febResult, vr, err := o.runMonth(ctx, cat, year, 2)
	if err != nil {
		return nil, err
	}
	if vr.HasErrors() {
		return nil, fmt.Errorf("invalid catalog: %d validation error(s), first: %s", vr.ErrorCount(), vr.Errors[0].Message)
	}
	if febResult.infeasibleReason != "" {
		sol := o.buildSolution(febResult)
		return &sol, nil
	}

	cycles := o.driverCycles(febResult)

	phaseStart := time.Now()
	result := replicate.Replicate(year, febResult.shifts, febResult.assignment, cycles)
	o.recordPhase(PhaseReplicate, string(febResult.params.Name), phaseStart)

	// Flexible drivers cannot be rolled back across the year boundary, so
	// their slots are missing from the replicated stream. Recover by
	// re-running monthly optimization over the residual shifts of each month.
	var extra []solution.Assignment
	if len(result.FlexibleDrivers) > 0 {
		var err error
		extra, err = o.coverResidualMonths(cat, year, result.Assignments, len(cycles))
		if err != nil {
			return nil, err
		}
	}

	sol := o.buildAnnualSolution(febResult, result, cycles, extra)
	return &sol, nil
}

// coverResidualMonths re-runs the greedy builder month by month over the
// shifts the replicated stream left uncovered, allocating fresh drivers with
// ids above the cycle-driver range.
func (o *Orchestrator) coverResidualMonths(cat *catalog.Catalog, year int, replicated []solution.Assignment, driverIDBase int) ([]solution.Assignment, error) {
	type slotKey struct {
		date    time.Time
		service string
		ordinal int
		vehicle int
	}
	covered := make(map[slotKey]bool, len(replicated))
	for _, a := range replicated {
		covered[slotKey{a.Date, a.ServiceID, a.ShiftOrdinal, a.Vehicle}] = true
	}

	params, err := regime.FromTag(cat.RegimeHint)
	if err != nil {
		return nil, err
	}

	var out []solution.Assignment
	nextID := driverIDBase
	for month := 1; month <= 12; month++ {
		from := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
		to := from.AddDate(0, 1, -1)
		shifts, err := shift.NewExpander().Expand(cat, from, to)
		if err != nil {
			return nil, err
		}

		var uncovered []shift.Shift
		for _, s := range shifts {
			if !covered[slotKey{s.Date, s.ServiceID, s.ShiftOrdinal, s.Vehicle}] {
				uncovered = append(uncovered, s)
			}
		}
		if len(uncovered) == 0 {
			continue
		}

		oracle := conflict.Build(shifts, params)
		res := greedy.NewBuilder(params, oracle).Build(uncovered)

		byID := make(map[int]shift.Shift, len(shifts))
		for _, s := range shifts {
			byID[s.ID] = s
		}
		for sid, did := range res.Assignment {
			s := byID[sid]
			out = append(out, solution.Assignment{
				Date:            s.Date,
				ServiceID:       s.ServiceID,
				ServiceName:     s.ServiceName,
				ServiceType:     s.ServiceType,
				ServiceGroup:    s.ServiceGroup,
				ShiftOrdinal:    s.ShiftOrdinal,
				Vehicle:         s.Vehicle,
				DriverID:        driverLabel(nextID + did),
				DriverName:      driverName(nextID + did),
				StartTime:       minutesToClock(s.StartMinutes),
				EndTime:         minutesToClock(s.EndMinutes % 1440),
				DurationHours:   s.DurationHours,
				VehicleType:     s.VehicleType,
				VehicleCategory: s.VehicleCategory,
			})
		}
		nextID += res.Arena.Len()
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if !a.Date.Equal(b.Date) {
			return a.Date.Before(b.Date)
		}
		if a.DriverID != b.DriverID {
			return a.DriverID < b.DriverID
		}
		return a.ServiceID < b.ServiceID
	})
	return out, nil
}

// runMonth executes the shared expand -> oracle -> greedy -> LNS -> CP-SAT
// pipeline for one calendar month.
func (o *Orchestrator) runMonth(ctx context.Context, cat *catalog.Catalog, year, month int) (*monthResult, *validation.ValidationResult, error) {
	vr := catalog.NewValidator().Validate(cat)
	if vr.HasErrors() {
		if o.options.Metrics != nil {
			for range vr.Errors {
				o.options.Metrics.RecordValidationError("INVALID_CATALOG")
			}
		}
		return nil, vr, nil
	}

	params, err := regime.FromTag(cat.RegimeHint)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid catalog: %w", err)
	}

	from := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, -1)

	phaseStart := time.Now()
	shifts, err := shift.NewExpander().Expand(cat, from, to)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid catalog: %w", err)
	}
	o.recordPhase(PhaseExpand, string(params.Name), phaseStart)
	if o.options.Metrics != nil {
		o.options.Metrics.RecordShiftsExpanded(string(params.Name), len(shifts))
	}

	if bad := infeasibleShifts(shifts, params); len(bad) > 0 {
		// Structurally infeasible inputs are a failed solve result, not an
		// error: the catalog is well-formed, it just cannot be covered.
		return &monthResult{
			year: year, month: month,
			params: params,
			shifts: shifts,
			infeasibleReason: fmt.Sprintf("%d shift(s) exceed the regime's maximum daily span regardless of assignment (first shift id %d)",
				len(bad), bad[0]),
		}, vr, nil
	}

	phaseStart = time.Now()
	var oracle *conflict.Oracle
	if o.options.ConflictCache != nil {
		key := conflict.Fingerprint(shifts, params)
		if cached, ok := o.options.ConflictCache.Load(ctx, key, len(shifts)); ok {
			oracle = cached
		} else {
			oracle = conflict.Build(shifts, params)
			o.options.ConflictCache.Store(ctx, key, oracle)
		}
	} else {
		oracle = conflict.Build(shifts, params)
	}
	o.recordPhase(PhaseOracle, string(params.Name), phaseStart)

	phaseStart = time.Now()
	greedyResult := greedy.NewBuilder(params, oracle).Build(shifts)
	o.recordPhase(PhaseGreedy, string(params.Name), phaseStart)

	arena, assignment := greedyResult.Arena, greedyResult.Assignment

	if params.IsCycleRegime() {
		phaseStart = time.Now()
		engine := lns.NewEngine(params, oracle, shifts, o.options.LNS)
		candidate := engine.Run(lns.FromGreedy(greedyResult))
		arena, assignment = candidate.Arena, candidate.Assignment
		o.recordPhase(PhaseLNS, string(params.Name), phaseStart)

		if o.options.EnableCPSAT {
			// CP-SAT runs only as a verifier/refiner over the LNS driver
			// count for cycle regimes; a failed verification is non-fatal,
			// the LNS solution stands.
			phaseStart = time.Now()
			adapter := cpsat.NewAdapter(params, oracle, shifts)
			attempt := adapter.VerifyMinera(arena.Len(), o.options.CPSATPerAttemptTimeout)
			o.recordPhase(PhaseCPSAT, string(params.Name), phaseStart)
			if o.options.Metrics != nil {
				o.options.Metrics.RecordCPSATAttempt(string(params.Name), string(attempt.Status), time.Since(phaseStart).Seconds())
			}
		}
	} else if o.options.EnableCPSAT {
		phaseStart = time.Now()
		adapter := cpsat.NewAdapter(params, oracle, shifts)
		attempts := adapter.Search(arena.Len(), cpsat.NonMineraParameters(), o.options.CPSATTotalBudget)
		o.recordPhase(PhaseCPSAT, string(params.Name), phaseStart)

		for _, attempt := range attempts {
			if o.options.Metrics != nil {
				o.options.Metrics.RecordCPSATAttempt(string(params.Name), string(attempt.Status), attempt.Duration.Seconds())
			}
			if attempt.Status == cpsat.StatusOptimal || attempt.Status == cpsat.StatusFeasible {
				arena, assignment = rebuildArenaFromCPSAT(attempt, shifts, params)
			}
		}
	}

	if o.options.Metrics != nil {
		coverage := 0.0
		if len(shifts) > 0 {
			coverage = float64(len(assignment)) / float64(len(shifts))
		}
		o.options.Metrics.SetSolutionGauges(string(params.Name), arena.Len(), coverage)
	}

	return &monthResult{
		year: year, month: month,
		params:     params,
		shifts:     shifts,
		oracle:     oracle,
		arena:      arena,
		assignment: assignment,
	}, vr, nil
}

// infeasibleShifts finds shifts whose own duration exceeds the regime's
// maximum allowed span. No driver, however freshly created, can ever hold
// such a shift, so the run is structurally infeasible.
func infeasibleShifts(shifts []shift.Shift, params regime.Params) []int {
	maxSpan := params.MaxWorkingDaySpan
	if maxSpan == 0 && params.MaxDailyHours != nil {
		maxSpan = *params.MaxDailyHours
	}
	if maxSpan == 0 {
		return nil
	}
	var bad []int
	for _, s := range shifts {
		if s.DurationHours > maxSpan {
			bad = append(bad, s.ID)
		}
	}
	return bad
}

// rebuildArenaFromCPSAT translates a CP-SAT attempt's shift-id -> driver-slot
// map into a fresh driver.Arena, recomputing each driver's rolling state from
// its assigned shifts (CP-SAT's own encoding has no notion of a mutable
// Driver — only the greedy/LNS phases carry that incremental state).
func rebuildArenaFromCPSAT(attempt cpsat.Attempt, shifts []shift.Shift, params regime.Params) (*driver.Arena, map[int]int) {
	byID := make(map[int]shift.Shift, len(shifts))
	for _, s := range shifts {
		byID[s.ID] = s
	}

	slots := make(map[int]*driver.Driver)
	for shiftID, slot := range attempt.Assignment {
		d, ok := slots[slot]
		if !ok {
			d = driver.New(slot)
			slots[slot] = d
		}
		d.Shifts = append(d.Shifts, shiftID)
	}

	arena := driver.NewArena()
	remap := make(map[int]int, len(slots))
	slotIDs := make([]int, 0, len(slots))
	for slot := range slots {
		slotIDs = append(slotIDs, slot)
	}
	sort.Ints(slotIDs)

	for _, slot := range slotIDs {
		d := arena.Create()
		remap[slot] = d.ID
		for _, sid := range slots[slot].Shifts {
			s := byID[sid]
			d.Shifts = append(d.Shifts, sid)
			d.WeeklyHours[s.WeekNum] += s.DurationHours
			d.MonthlyHours += s.DurationHours
			d.ServicesTouched[s.ServiceID] = true
			d.VehicleCategoriesTouched[string(s.VehicleCategory)] = true
			if s.IsSunday {
				d.SundaysWorked++
			}
		}
	}

	assignment := make(map[int]int, len(attempt.Assignment))
	for shiftID, slot := range attempt.Assignment {
		assignment[shiftID] = remap[slot]
	}
	return arena, assignment
}

func (o *Orchestrator) recordPhase(phase Phase, regimeName string, start time.Time) {
	if o.options.Metrics != nil {
		o.options.Metrics.RecordPhaseDuration(string(phase), time.Since(start).Seconds())
	}
	if o.options.Logger != nil {
		logger.LogPhase(o.options.Logger, string(phase), time.Since(start).Milliseconds(), 0)
	}
}

// buildSolution assembles the full output Solution from a solved
// monthResult.
func (o *Orchestrator) buildSolution(mr *monthResult) solution.Solution {
	if mr.infeasibleReason != "" {
		return solution.Solution{
			Status: solution.StatusFailed,
			Reason: mr.infeasibleReason,
			Metrics: solution.Metrics{
				Regime:            string(mr.params.Name),
				RegimeConstraints: regimeConstraintsMap(mr.params),
			},
		}
	}

	assignments, summaries := o.assembleOutputs(mr)

	coverage := 0.0
	if len(mr.shifts) > 0 {
		coverage = float64(len(mr.assignment)) / float64(len(mr.shifts))
	}

	status := solution.StatusOK
	reason := ""
	if coverage < 1.0 {
		status = solution.StatusFailed
		reason = fmt.Sprintf("only %d/%d shifts covered", len(mr.assignment), len(mr.shifts))
	}

	metricsBlock := o.buildMetrics(mr, summaries, coverage)

	return solution.Solution{
		Status:          status,
		Reason:          reason,
		Assignments:     assignments,
		DriverSummaries: summaries,
		Metrics:         metricsBlock,
	}
}

// buildAnnualSolution assembles the annual Solution from the replication
// result, recomputing driver summaries over the full year of assignments
// and aggregating a year-level cost total.
func (o *Orchestrator) buildAnnualSolution(febResult *monthResult, rep replicate.Result, cycles []replicate.DriverCycle, extra []solution.Assignment) solution.Solution {
	patternByLabel := make(map[string]string, len(cycles))
	workStartByLabel := make(map[string]time.Time, len(cycles))
	for _, c := range cycles {
		label := driverLabel(c.DriverID)
		patternByLabel[label] = c.Pattern
		workStartByLabel[label] = c.WorkStartDate
	}

	all := make([]solution.Assignment, 0, len(rep.Assignments)+len(extra))
	all = append(all, rep.Assignments...)
	all = append(all, extra...)

	summaries := make(map[string]solution.DriverSummary)
	perDriverHours := make(map[string]float64)
	perDriverDates := make(map[string]map[string]bool)
	perDriverSundays := make(map[string]int)
	perDriverServices := make(map[string]map[string]bool)
	perDriverCategories := make(map[string]map[catalog.VehicleCategory]bool)
	names := make(map[string]string)

	perDriverShifts := make(map[string]int)
	for _, a := range all {
		id := a.DriverID
		perDriverShifts[id]++
		perDriverHours[id] += a.DurationHours
		if perDriverDates[id] == nil {
			perDriverDates[id] = make(map[string]bool)
		}
		perDriverDates[id][a.Date.Format("2006-01-02")] = true
		if a.Date.Weekday() == time.Sunday {
			perDriverSundays[id]++
		}
		if perDriverServices[id] == nil {
			perDriverServices[id] = make(map[string]bool)
		}
		perDriverServices[id][a.ServiceID] = true
		if perDriverCategories[id] == nil {
			perDriverCategories[id] = make(map[catalog.VehicleCategory]bool)
		}
		perDriverCategories[id][a.VehicleCategory] = true
		names[id] = a.DriverName
	}

	var totalCost, totalHours float64
	for id, hours := range perDriverHours {
		cost := salary.ComputeDriverCost(hours, perDriverCategories[id], len(perDriverServices[id]))
		dates := make([]time.Time, 0, len(perDriverDates[id]))
		for ds := range perDriverDates[id] {
			d, _ := time.Parse("2006-01-02", ds)
			dates = append(dates, d)
		}

		var services []string
		for s := range perDriverServices[id] {
			services = append(services, s)
		}
		sort.Strings(services)
		var categories []catalog.VehicleCategory
		for c := range perDriverCategories[id] {
			categories = append(categories, c)
		}

		summaries[id] = solution.DriverSummary{
			DriverID:          id,
			Name:              names[id],
			Pattern:           annualPattern(patternByLabel, id),
			WorkStartDate:     workStartByLabel[id],
			TotalHours:        hours,
			TotalShifts:       perDriverShifts[id],
			DaysWorked:        len(dates),
			SundaysWorked:     perDriverSundays[id],
			ServicesWorked:    services,
			VehicleCategories: categories,
			ContractType:      string(febResult.params.Name),
			Salary:            cost.TotalCost(),
			CostDetails:       cost,
		}
		totalCost += cost.TotalCost()
		totalHours += hours
	}

	avgHours := 0.0
	if len(summaries) > 0 {
		avgHours = totalHours / float64(len(summaries))
	}

	metricsBlock := solution.Metrics{
		DriversUsed:        len(summaries),
		TotalShifts:        len(all),
		TotalHours:         totalHours,
		TotalCost:          totalCost,
		AvgHoursPerDriver:  avgHours,
		CoveragePercentage: 1.0,
		Regime:             string(febResult.params.Name),
		RegimeConstraints:  regimeConstraintsMap(febResult.params),
	}

	status := solution.StatusOK
	reason := ""
	if len(rep.FlexibleDrivers) > 0 {
		status = solution.StatusOK
		reason = fmt.Sprintf("%d driver(s) with a Flexible February pattern could not be rolled back across the year boundary; their months were re-optimized monthly", len(rep.FlexibleDrivers))
	}

	return solution.Solution{
		Status:          status,
		Reason:          reason,
		Assignments:     all,
		DriverSummaries: summaries,
		Metrics:         metricsBlock,
	}
}

// driverCycles extracts, for every February driver, the cycle parameters
// and pattern label the annual replicator needs.
func (o *Orchestrator) driverCycles(mr *monthResult) []replicate.DriverCycle {
	byDriver := make(map[int][]int) // driver id -> shift ids
	for shiftID, driverID := range mr.assignment {
		byDriver[driverID] = append(byDriver[driverID], shiftID)
	}

	byID := make(map[int]shift.Shift, len(mr.shifts))
	for _, s := range mr.shifts {
		byID[s.ID] = s
	}

	daysInMonth := lastDayOfMonth(mr.year, mr.month)

	cycles := make([]replicate.DriverCycle, 0, mr.arena.Len())
	for _, d := range mr.arena.All() {
		var dates []time.Time
		for _, sid := range byDriver[d.ID] {
			dates = append(dates, byID[sid].Date)
		}
		label := pattern.Detect(dates, daysInMonth, d.IsCycleDriver())

		n := 0
		if d.IsCycleDriver() && isRecognizedCycleLabel(label) {
			n = d.CycleN
		}

		cycles = append(cycles, replicate.DriverCycle{
			DriverID:      d.ID,
			DriverName:    fmt.Sprintf("Driver %03d", d.ID),
			N:             n,
			WorkStartDate: d.WorkStartDate,
			Pattern:       label,
		})
	}
	return cycles
}

func isRecognizedCycleLabel(label string) bool {
	switch label {
	case "7x7", "8x8", "10x10", "14x14":
		return true
	default:
		return false
	}
}

func lastDayOfMonth(year, month int) int {
	return time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
