package replicate

import (
	"testing"
	"time"

	"github.com/schedcu/rosterengine/internal/catalog"
	"github.com/schedcu/rosterengine/internal/shift"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mkFebShift(id int, date time.Time, startMin int) shift.Shift {
	return shift.Shift{
		ID:              id,
		Date:            date,
		ServiceID:       "S1",
		ServiceName:     "Service 1",
		ServiceType:     "Faena Minera",
		ServiceGroup:    "G1",
		Vehicle:         0,
		ShiftOrdinal:    0,
		StartMinutes:    startMin,
		EndMinutes:      startMin + 720,
		DurationHours:   12,
		VehicleType:     "bus",
		VehicleCategory: catalog.CategoryBus,
	}
}

func TestAnchorWorkStart_AlreadyBeforeJan1(t *testing.T) {
	jan1 := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)
	workStart := time.Date(2024, time.December, 20, 0, 0, 0, 0, time.UTC)
	anchor := AnchorWorkStart(workStart, 7, jan1)
	assert.False(t, anchor.After(jan1))
	assert.True(t, anchor.AddDate(0, 0, 14).After(jan1))
}

func TestAnchorWorkStart_AfterJan1RollsBack(t *testing.T) {
	jan1 := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)
	workStart := time.Date(2025, time.February, 10, 0, 0, 0, 0, time.UTC)
	anchor := AnchorWorkStart(workStart, 7, jan1)
	assert.False(t, anchor.After(jan1))
	assert.True(t, anchor.AddDate(0, 0, 14).After(jan1))

	days := int(workStart.Sub(anchor).Hours() / 24)
	assert.Equal(t, 0, days%14)
}

func TestReplicate_PreservesCycleContinuityAcrossYearBoundary(t *testing.T) {
	// February 2025 has exactly 28 days = 2 full 14-day (7x7) cycles, so a
	// driver worked every day of February covers every day_in_cycle value
	workStart := time.Date(2025, time.February, 1, 0, 0, 0, 0, time.UTC)
	var febShifts []shift.Shift
	febAssignments := make(map[int]int)
	for day := 1; day <= 28; day++ {
		id := day - 1
		febShifts = append(febShifts, mkFebShift(id, time.Date(2025, time.February, day, 0, 0, 0, 0, time.UTC), 360))
		febAssignments[id] = 1
	}

	cycles := []DriverCycle{
		{DriverID: 1, DriverName: "Driver 1", N: 7, WorkStartDate: workStart, Pattern: "7x7"},
	}

	result := Replicate(2025, febShifts, febAssignments, cycles)
	require.Empty(t, result.FlexibleDrivers)
	require.NotEmpty(t, result.Assignments)

	assignedDates := make(map[string]bool)
	for _, a := range result.Assignments {
		assignedDates[a.Date.Format("2006-01-02")] = true
		assert.Equal(t, "D001", a.DriverID)
	}
	assert.True(t, assignedDates["2025-03-01"], "day after Feb 28 should roll into the next cycle slot")
	assert.True(t, assignedDates["2025-12-31"], "cycle continuity should reach the end of the year")
}

func TestReplicate_FlexibleDriversAreExcludedAndReported(t *testing.T) {
	cycles := []DriverCycle{
		{DriverID: 5, DriverName: "Driver 5", N: 0, Pattern: "Flexible"},
	}
	result := Replicate(2025, nil, nil, cycles)
	require.Len(t, result.FlexibleDrivers, 1)
	assert.Equal(t, 5, result.FlexibleDrivers[0].DriverID)
	assert.Empty(t, result.Assignments)
}
