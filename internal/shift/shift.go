// Package shift implements the shift expander: it materializes a catalog's
// service templates x operating weekdays x vehicle count x date range into
// concrete, dated Shift records.
package shift

import (
	"sort"
	"time"

	"github.com/schedcu/rosterengine/internal/catalog"
)

// Shift is a concrete, dated instance of a service's shift template on a
// specific vehicle.
type Shift struct {
	ID int

	Date time.Time

	ServiceID    string
	ServiceName  string
	ServiceType  string
	ServiceGroup string

	Vehicle      int
	ShiftOrdinal int // position within the service's template list

	StartMinutes  int // [0, 1440)
	EndMinutes    int // [StartMinutes, StartMinutes+1440]
	DurationHours float64

	VehicleType     string
	VehicleCategory catalog.VehicleCategory

	IsSunday bool
	WeekNum  int // 1-based week-of-month, floor((day-1)/7)+1
}

// CrossesMidnight reports whether this shift's window extends past 24:00.
func (s Shift) CrossesMidnight() bool {
	return s.EndMinutes > 1440
}

// Expander produces the Shift set for a catalog over a date range.
type Expander struct{}

// NewExpander creates a Shift Expander. It holds no state; all configuration
// is the catalog and date range passed to Expand.
func NewExpander() *Expander {
	return &Expander{}
}

// Expand materializes shifts for every service in c, for every calendar day
// in [from, to] inclusive whose weekday is in the service's operating set,
// for each vehicle index in [0, quantity) and each template.
//
// Edge cases: a template with explicit "00:00" end means "end of calendar
// day" (1440), handled by the cross-midnight rule since 00:00 parses to 0 <=
// start. A service with vehicle_count=0 contributes nothing.
func (e *Expander) Expand(c *catalog.Catalog, from, to time.Time) ([]Shift, error) {
	var out []Shift

	for _, svc := range c.Services {
		operating := make(map[int]bool, len(svc.Frequency.Days))
		for _, d := range svc.Frequency.Days {
			operating[d] = true
		}

		for day := from; !day.After(to); day = day.AddDate(0, 0, 1) {
			weekday := goWeekdayToCatalog(day.Weekday())
			if !operating[weekday] {
				continue
			}

			for vehicle := 0; vehicle < svc.Vehicles.Quantity; vehicle++ {
				for ordinal, tmpl := range svc.Shifts {
					startMin, err := catalog.ParseClockMinutes(tmpl.StartTime)
					if err != nil {
						return nil, err
					}
					endMin, err := catalog.ParseClockMinutes(tmpl.EndTime)
					if err != nil {
						return nil, err
					}
					if endMin <= startMin {
						endMin += 1440
					}

					out = append(out, Shift{
						Date:            day,
						ServiceID:       svc.ID,
						ServiceName:     svc.Name,
						ServiceType:     svc.ServiceType,
						ServiceGroup:    svc.ServiceGroup,
						Vehicle:         vehicle,
						ShiftOrdinal:    ordinal,
						StartMinutes:    startMin,
						EndMinutes:      endMin,
						DurationHours:   tmpl.DurationHours,
						VehicleType:     svc.Vehicles.Type,
						VehicleCategory: catalog.VehicleCategoryFromType(svc.Vehicles.Type),
						IsSunday:        weekday == int(catalog.Sunday),
						WeekNum:         weekOfMonth(day),
					})
				}
			}
		}
	}

	// Full tuple sort keeps shift ids stable across runs regardless of
	// catalog service ordering.
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if !a.Date.Equal(b.Date) {
			return a.Date.Before(b.Date)
		}
		if a.StartMinutes != b.StartMinutes {
			return a.StartMinutes < b.StartMinutes
		}
		if a.ServiceID != b.ServiceID {
			return a.ServiceID < b.ServiceID
		}
		if a.Vehicle != b.Vehicle {
			return a.Vehicle < b.Vehicle
		}
		return a.ShiftOrdinal < b.ShiftOrdinal
	})
	for i := range out {
		out[i].ID = i
	}

	return out, nil
}

// goWeekdayToCatalog converts Go's time.Weekday (Sunday=0) to the catalog's
// Monday=0..Sunday=6 convention.
func goWeekdayToCatalog(w time.Weekday) int {
	return (int(w) + 6) % 7
}

// weekOfMonth computes the 1-based week-of-month, floor((day-1)/7)+1.
func weekOfMonth(d time.Time) int {
	return (d.Day()-1)/7 + 1
}
