// Package solution holds the output data model: the assignment stream, the
// driver summary table, and the metrics block. These are the only values
// that cross the boundary to an output sink.
package solution

import (
	"time"

	"github.com/schedcu/rosterengine/internal/catalog"
	"github.com/schedcu/rosterengine/internal/salary"
)

// Assignment is one (driver, shift) pairing with the denormalized fields an
// output sink needs without re-joining against the catalog.
type Assignment struct {
	Date time.Time

	ServiceID    string
	ServiceName  string
	ServiceType  string
	ServiceGroup string

	ShiftOrdinal int
	Vehicle      int

	DriverID   string
	DriverName string

	StartTime     string // "HH:MM"
	EndTime       string // "HH:MM"
	DurationHours float64

	VehicleType     string
	VehicleCategory catalog.VehicleCategory
}

// DriverSummary is one row of the driver summary table.
type DriverSummary struct {
	DriverID      string
	Name          string
	Pattern       string
	WorkStartDate time.Time

	TotalHours     float64
	TotalShifts    int
	DaysWorked     int
	SundaysWorked  int
	UtilizationPct float64

	ServicesWorked    []string
	VehicleCategories []catalog.VehicleCategory
	ContractType      string

	Salary      float64
	CostDetails salary.CostDetails
}

// ServiceSpanWarning flags a single-service date whose earliest-start to
// latest-end span exceeds 12h.
type ServiceSpanWarning struct {
	ServiceID string
	Date      time.Time
	SpanHours float64
}

// Metrics is the run-level summary block.
type Metrics struct {
	DriversUsed        int
	TotalShifts        int
	TotalHours         float64
	TotalCost          float64
	AvgHoursPerDriver  float64
	CoveragePercentage float64

	Regime              string
	RegimeConstraints   map[string]interface{}
	ServiceSpanWarnings []ServiceSpanWarning
}

// Status reports the outcome of a solve.
type Status string

const (
	StatusOK              Status = "ok"
	StatusFailed          Status = "failed"
	StatusBudgetExhausted Status = "budget_exhausted"
)

// Solution is the full result of one engine invocation.
type Solution struct {
	Status Status
	Reason string // human-readable diagnostic; set when Status != StatusOK, and on an OK annual solution whose Flexible drivers' months were re-optimized

	Assignments     []Assignment
	DriverSummaries map[string]DriverSummary
	Metrics         Metrics
}

// IsOK reports whether this solution represents a successful, complete solve.
func (s Solution) IsOK() bool {
	return s.Status == StatusOK
}
