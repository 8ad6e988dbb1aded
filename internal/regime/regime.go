// Package regime encapsulates the per-regime legal parameter blocks and the
// constraint predicates evaluated against them.
package regime

import "fmt"

// Name identifies one of the four predefined Chilean labor regimes.
type Name string

const (
	Interurbano          Name = "Interurbano"
	UrbanoIndustrial     Name = "Urbano/Industrial"
	InterurbanoBisemanal Name = "Interurbano Bisemanal"
	FaenaMinera          Name = "Faena Minera"
)

// Cycle is one (work_days, rest_days) special cycle a regime may define.
type Cycle struct {
	WorkDays int
	RestDays int
}

// Params is the full parameter block for one regime. Pointer fields
// distinguish "not applicable" from zero.
type Params struct {
	Name Name

	MaxContinuousDrivingHours *float64
	MaxDailyHours             *float64
	MaxWeeklyHours            *float64
	MaxMonthlyHours           *float64

	MinRestHours       float64
	MaxConsecutiveDays int
	MinFreeSundays     *int
	MaxWorkingDaySpan  float64

	SpecialCycles []Cycle
	SplitShiftsOK bool

	// MealBreakAfterHours, when set, requires a 60-minute break between two
	// same-day shifts whose combined duration exceeds this many hours
	// (Urbano/Industrial).
	MealBreakAfterHours *float64

	// CompoundWorkdayResetMinutes: gap (minutes) after which the
	// continuous-driving rule resets for a compound intra-day workday
	// (Interurbano, Art. 25).
	CompoundWorkdayResetMinutes *float64
	CompoundWorkdayResetHours   *float64
}

func floatPtr(v float64) *float64 { return &v }
func intPtr(v int) *int           { return &v }

// Interurbano (Art. 25): max 5h continuous driving, 16h daily, 180h monthly,
// 8h rest, 6 consecutive days, 2 free Sundays, 16h span.
func interurbanoParams() Params {
	return Params{
		Name:                        Interurbano,
		MaxContinuousDrivingHours:   floatPtr(5),
		MaxDailyHours:               floatPtr(16),
		MaxMonthlyHours:             floatPtr(180),
		MinRestHours:                8,
		MaxConsecutiveDays:          6,
		MinFreeSundays:              intPtr(2),
		MaxWorkingDaySpan:           16,
		CompoundWorkdayResetMinutes: floatPtr(120),
		CompoundWorkdayResetHours:   floatPtr(5),
	}
}

// Urbano/Industrial: max 10h daily, 44h weekly, 10h rest, 6 consecutive days,
// 2 free Sundays, 12h span, plus a meal-break rule after 5h combined duration.
func urbanoIndustrialParams() Params {
	return Params{
		Name:                UrbanoIndustrial,
		MaxDailyHours:       floatPtr(10),
		MaxWeeklyHours:      floatPtr(44),
		MinRestHours:        10,
		MaxConsecutiveDays:  6,
		MinFreeSundays:      intPtr(2),
		MaxWorkingDaySpan:   12,
		MealBreakAfterHours: floatPtr(5),
	}
}

// Interurbano Bisemanal (Art. 39): 14h daily, 44h weekly average
// (annual-average semantics not implemented, see DESIGN.md), 10h rest,
// 14 consecutive days, 14h span.
func interurbanoBisemanalParams() Params {
	return Params{
		Name:               InterurbanoBisemanal,
		MaxDailyHours:      floatPtr(14),
		MaxWeeklyHours:     floatPtr(44), // average; see Open Questions in DESIGN.md
		MinRestHours:       10,
		MaxConsecutiveDays: 14,
		MaxWorkingDaySpan:  14,
	}
}

// Faena Minera (Art. 38): 14h daily, 10h rest, 14 consecutive days (bounded
// by the NxN cycle itself), no Sunday-free requirement or weekly cap since
// the cycle implies compliance. Default 7x7 cycle plus the alternates the
// CP-SAT hybrid encoding distributes across.
func faenaMineraParams() Params {
	return Params{
		Name:               FaenaMinera,
		MaxDailyHours:      floatPtr(14),
		MinRestHours:       10,
		MaxConsecutiveDays: 14,
		MaxWorkingDaySpan:  14,
		SpecialCycles: []Cycle{
			{WorkDays: 7, RestDays: 7},
			{WorkDays: 8, RestDays: 8},
			{WorkDays: 10, RestDays: 10},
			{WorkDays: 14, RestDays: 14},
		},
	}
}

// FromTag maps a catalog regime_hint string onto a Params block.
// "Urbano" and "Industrial" both map to Urbano/Industrial; "Minera" aliases
// "Faena Minera"; "Interno" is treated as Urbano/Industrial (closest rule set
// for an internal/company service with no explicit Art. 25/38/39 citation).
func FromTag(tag string) (Params, error) {
	switch tag {
	case "Interurbano":
		return interurbanoParams(), nil
	case "Urbano", "Industrial", "Interno":
		return urbanoIndustrialParams(), nil
	case "Interurbano Bisemanal":
		return interurbanoBisemanalParams(), nil
	case "Faena Minera", "Minera":
		return faenaMineraParams(), nil
	default:
		return Params{}, fmt.Errorf("unknown regime tag %q", tag)
	}
}

// IsCycleRegime reports whether this regime operates under N×N cycles
// (currently only Faena Minera) — the discriminator Greedy/LNS/CP-SAT use to
// pick the cycle vs. flexible builder paths and CP-SAT encodings.
func (p Params) IsCycleRegime() bool {
	return len(p.SpecialCycles) > 0
}

// DefaultCycleN returns the default cycle length (N, not 2N) for a cycle
// regime.
func (p Params) DefaultCycleN() int {
	if len(p.SpecialCycles) == 0 {
		return 7
	}
	return p.SpecialCycles[0].WorkDays
}

// WaivesSundayQuota reports whether this regime has no MinFreeSundays rule
// (Faena Minera and Interurbano Bisemanal).
func (p Params) WaivesSundayQuota() bool {
	return p.MinFreeSundays == nil
}
