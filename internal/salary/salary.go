// Package salary implements the driver cost model, broken out of the
// metrics block so the recargo table and the non-monotonic multiplier
// stacking can be unit tested alone.
package salary

import (
	"math"

	"github.com/schedcu/rosterengine/internal/catalog"
)

// BaseHourlyRate is the flat hourly rate before any multiplier.
const BaseHourlyRate = 10000.0

// recargo is the per-shift vehicle-category surcharge fraction.
var recargo = map[catalog.VehicleCategory]float64{
	catalog.CategoryMinibus:      0.00,
	catalog.CategoryTaxibus:      0.10,
	catalog.CategoryBusElectrico: 0.20,
	catalog.CategoryBus:          0.25,
	catalog.CategoryBus2Piso:     0.30,
	catalog.CategoryTaxibus4x4:   0.40,
}

// Recargo returns the surcharge fraction for a vehicle category. Unknown or
// "other" categories surcharge at 0.
func Recargo(category catalog.VehicleCategory) float64 {
	return recargo[category]
}

// CostDetails breaks down one driver's monthly cost.
type CostDetails struct {
	BaseCost            float64
	VehicleAdjustedCost float64
	DriverMultiplier    float64
	ServiceMultiplier   float64
	ServiceCount        int
}

// ComputeDriverCost applies the intentionally non-monotonic stacking rule:
// the driver's monthly multiplier depends on the hardest vehicle category
// touched all month, re-rating every hour already worked, then a
// service-count multiplier stacks on top.
//
// totalHours is the driver's total hours for the month; categoriesTouched and
// distinctServices describe everything the driver worked across the month.
func ComputeDriverCost(totalHours float64, categoriesTouched map[catalog.VehicleCategory]bool, distinctServices int) CostDetails {
	hardest := 0.0
	for cat := range categoriesTouched {
		if r := Recargo(cat); r > hardest {
			hardest = r
		}
	}

	driverMultiplier := 1 + hardest
	serviceMultiplier := 1 + 0.20*math.Max(0, float64(distinctServices-1))

	baseCost := BaseHourlyRate * totalHours
	vehicleAdjusted := baseCost * driverMultiplier

	return CostDetails{
		BaseCost:            baseCost,
		VehicleAdjustedCost: vehicleAdjusted,
		DriverMultiplier:    driverMultiplier,
		ServiceMultiplier:   serviceMultiplier,
		ServiceCount:        distinctServices,
	}
}

// TotalCost returns the final total cost (vehicle-adjusted cost already
// folds in the driver multiplier, so only the service multiplier remains).
func (c CostDetails) TotalCost() float64 {
	return c.VehicleAdjustedCost * c.ServiceMultiplier
}
