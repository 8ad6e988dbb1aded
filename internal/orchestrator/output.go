package orchestrator

import (
	"fmt"
	"sort"
	"time"

	"github.com/schedcu/rosterengine/internal/catalog"
	"github.com/schedcu/rosterengine/internal/pattern"
	"github.com/schedcu/rosterengine/internal/regime"
	"github.com/schedcu/rosterengine/internal/salary"
	"github.com/schedcu/rosterengine/internal/shift"
	"github.com/schedcu/rosterengine/internal/solution"
)

// serviceSpanWarnThresholdHours flags single-service dates whose
// earliest-start to latest-end span exceeds this many hours.
const serviceSpanWarnThresholdHours = 12.0

// assembleOutputs turns a solved monthResult into the denormalized
// assignment stream and the per-driver summary table.
func (o *Orchestrator) assembleOutputs(mr *monthResult) ([]solution.Assignment, map[string]solution.DriverSummary) {
	byID := make(map[int]shift.Shift, len(mr.shifts))
	for _, s := range mr.shifts {
		byID[s.ID] = s
	}

	assignments := make([]solution.Assignment, 0, len(mr.assignment))
	shiftIDs := make([]int, 0, len(mr.assignment))
	for sid := range mr.assignment {
		shiftIDs = append(shiftIDs, sid)
	}
	sort.Ints(shiftIDs)

	for _, sid := range shiftIDs {
		s := byID[sid]
		did := mr.assignment[sid]
		assignments = append(assignments, solution.Assignment{
			Date:            s.Date,
			ServiceID:       s.ServiceID,
			ServiceName:     s.ServiceName,
			ServiceType:     s.ServiceType,
			ServiceGroup:    s.ServiceGroup,
			ShiftOrdinal:    s.ShiftOrdinal,
			Vehicle:         s.Vehicle,
			DriverID:        driverLabel(did),
			DriverName:      driverName(did),
			StartTime:       minutesToClock(s.StartMinutes),
			EndTime:         minutesToClock(s.EndMinutes % 1440),
			DurationHours:   s.DurationHours,
			VehicleType:     s.VehicleType,
			VehicleCategory: s.VehicleCategory,
		})
	}

	daysInMonth := lastDayOfMonth(mr.year, mr.month)
	summaries := make(map[string]solution.DriverSummary, mr.arena.Len())
	for _, d := range mr.arena.All() {
		var dates []time.Time
		datesSeen := make(map[string]bool)
		sundays := 0
		var hours float64
		for _, sid := range d.Shifts {
			s := byID[sid]
			hours += s.DurationHours
			key := s.Date.Format("2006-01-02")
			if !datesSeen[key] {
				datesSeen[key] = true
				dates = append(dates, s.Date)
				if s.IsSunday {
					sundays++
				}
			}
		}

		var services []string
		for svc := range d.ServicesTouched {
			services = append(services, svc)
		}
		sort.Strings(services)

		categoriesTouched := make(map[catalog.VehicleCategory]bool, len(d.VehicleCategoriesTouched))
		var categories []catalog.VehicleCategory
		for c := range d.VehicleCategoriesTouched {
			categoriesTouched[catalog.VehicleCategory(c)] = true
		}
		for c := range categoriesTouched {
			categories = append(categories, c)
		}
		sort.Slice(categories, func(i, j int) bool { return categories[i] < categories[j] })

		cost := salary.ComputeDriverCost(hours, categoriesTouched, len(services))

		id := driverLabel(d.ID)
		summaries[id] = solution.DriverSummary{
			DriverID:          id,
			Name:              driverName(d.ID),
			Pattern:           pattern.Detect(dates, daysInMonth, mr.params.IsCycleRegime()),
			WorkStartDate:     d.WorkStartDate,
			TotalHours:        hours,
			TotalShifts:       len(d.Shifts),
			DaysWorked:        len(dates),
			SundaysWorked:     sundays,
			UtilizationPct:    utilizationPct(hours, mr.params, daysInMonth),
			ServicesWorked:    services,
			VehicleCategories: categories,
			ContractType:      string(mr.params.Name),
			Salary:            cost.TotalCost(),
			CostDetails:       cost,
		}
	}

	return assignments, summaries
}

// utilizationPct reports a driver's hours as a percentage of the regime's
// effective monthly capacity: the monthly cap when set, otherwise the weekly
// cap scaled to the month, otherwise the daily cap over the work half of the
// default cycle.
func utilizationPct(hours float64, params regime.Params, daysInMonth int) float64 {
	var capacity float64
	switch {
	case params.MaxMonthlyHours != nil:
		capacity = *params.MaxMonthlyHours
	case params.MaxWeeklyHours != nil:
		capacity = *params.MaxWeeklyHours * float64(daysInMonth) / 7.0
	case params.MaxDailyHours != nil:
		capacity = *params.MaxDailyHours * float64(daysInMonth) / 2.0
	default:
		return 0
	}
	if capacity == 0 {
		return 0
	}
	return hours / capacity * 100
}

// buildMetrics aggregates the run-level metrics block, including the
// per-service span warnings.
func (o *Orchestrator) buildMetrics(mr *monthResult, summaries map[string]solution.DriverSummary, coverage float64) solution.Metrics {
	var totalHours, totalCost float64
	totalShifts := 0
	for _, s := range summaries {
		totalHours += s.TotalHours
		totalCost += s.Salary
		totalShifts += s.TotalShifts
	}

	avg := 0.0
	if len(summaries) > 0 {
		avg = totalHours / float64(len(summaries))
	}

	return solution.Metrics{
		DriversUsed:         mr.arena.Len(),
		TotalShifts:         totalShifts,
		TotalHours:          totalHours,
		TotalCost:           totalCost,
		AvgHoursPerDriver:   avg,
		CoveragePercentage:  coverage,
		Regime:              string(mr.params.Name),
		RegimeConstraints:   regimeConstraintsMap(mr.params),
		ServiceSpanWarnings: serviceSpanWarnings(mr.shifts),
	}
}

// serviceSpanWarnings scans every (service, date) pair for an
// earliest-start to latest-end span above the warning threshold.
func serviceSpanWarnings(shifts []shift.Shift) []solution.ServiceSpanWarning {
	type key struct {
		service string
		date    time.Time
	}
	type window struct {
		minStart, maxEnd int
	}
	spans := make(map[key]*window)
	for _, s := range shifts {
		k := key{service: s.ServiceID, date: s.Date}
		w, ok := spans[k]
		if !ok {
			spans[k] = &window{minStart: s.StartMinutes, maxEnd: s.EndMinutes}
			continue
		}
		if s.StartMinutes < w.minStart {
			w.minStart = s.StartMinutes
		}
		if s.EndMinutes > w.maxEnd {
			w.maxEnd = s.EndMinutes
		}
	}

	var out []solution.ServiceSpanWarning
	for k, w := range spans {
		span := float64(w.maxEnd-w.minStart) / 60.0
		if span > serviceSpanWarnThresholdHours {
			out = append(out, solution.ServiceSpanWarning{
				ServiceID: k.service,
				Date:      k.date,
				SpanHours: span,
			})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].ServiceID < out[j].ServiceID
	})
	return out
}

// regimeConstraintsMap renders the regime's parameter block for the output
// metrics.
func regimeConstraintsMap(params regime.Params) map[string]interface{} {
	m := map[string]interface{}{
		"min_rest_hours":       params.MinRestHours,
		"max_consecutive_days": params.MaxConsecutiveDays,
		"max_working_day_span": params.MaxWorkingDaySpan,
	}
	if params.MaxContinuousDrivingHours != nil {
		m["max_continuous_driving_hours"] = *params.MaxContinuousDrivingHours
	}
	if params.MaxDailyHours != nil {
		m["max_daily_hours"] = *params.MaxDailyHours
	}
	if params.MaxWeeklyHours != nil {
		m["max_weekly_hours"] = *params.MaxWeeklyHours
	}
	if params.MaxMonthlyHours != nil {
		m["max_monthly_hours"] = *params.MaxMonthlyHours
	}
	if params.MinFreeSundays != nil {
		m["min_free_sundays"] = *params.MinFreeSundays
	}
	if len(params.SpecialCycles) > 0 {
		cycles := make([]string, 0, len(params.SpecialCycles))
		for _, c := range params.SpecialCycles {
			cycles = append(cycles, fmt.Sprintf("%dx%d", c.WorkDays, c.RestDays))
		}
		m["special_cycles"] = cycles
	}
	return m
}

// annualPattern resolves a driver's year-level pattern label: cycle drivers
// keep their February label, fallback drivers are Flexible.
func annualPattern(patternByLabel map[string]string, id string) string {
	if p, ok := patternByLabel[id]; ok && p != "" {
		return p
	}
	return "Flexible"
}

func driverLabel(id int) string {
	return fmt.Sprintf("D%03d", id)
}

func driverName(id int) string {
	return fmt.Sprintf("Driver %03d", id)
}

func minutesToClock(m int) string {
	m = ((m % 1440) + 1440) % 1440
	return fmt.Sprintf("%02d:%02d", m/60, m%60)
}
