// Package catalog holds the input data model: services, shift templates, and
// the regime/parameter bundle a run is solved against. Catalogs are read-only
// for the life of a run.
package catalog

// Weekday uses the Monday=0 ... Sunday=6 convention carried by catalog
// frequencies, not Go's time.Weekday (Sunday=0).
type Weekday int

const (
	Monday Weekday = iota
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
	Sunday
)

// ShiftTemplate is one ordered entry in a Service's shift list: a start/end
// clock time pair that may cross midnight.
type ShiftTemplate struct {
	ShiftNumber   int
	StartTime     string // "HH:MM"
	EndTime       string // "HH:MM"
	DurationHours float64
}

// Vehicles describes the fleet backing a Service.
type Vehicles struct {
	Quantity int
	Type     string // e.g. "bus", "taxibus", "minibus" — see catalog.VehicleCategory
}

// Frequency is the subset of weekdays (Monday=0..Sunday=6) a Service operates on.
type Frequency struct {
	Days []int
}

// Service is one route/contract: identity, geographic group, the regime tag
// it falls under, its vehicle fleet, operating weekdays, and shift templates.
type Service struct {
	ID           string
	Name         string
	ServiceType  string // regime hint, see regime.FromTag
	ServiceGroup string
	Vehicles     Vehicles
	Frequency    Frequency
	Shifts       []ShiftTemplate
}

// Parameters carries the optional catalog-level knobs an ingestion
// collaborator may supply.
type Parameters struct {
	MinRestHours         *float64
	PreparationTimeMin   *float64
	ClosingTimeMin       *float64
	AllowsPenalties      bool
	AllowsOvertime       bool
	BackupDriversPercent *float64
}

// Catalog is the full normalized input bundle consumed by the engine.
type Catalog struct {
	ClientName string
	RegimeHint string
	Parameters Parameters
	Services   []Service
}

// RunSpec selects monthly or annual mode. Month == 0 selects annual mode.
type RunSpec struct {
	Year  int
	Month int
}

// IsAnnual reports whether this RunSpec selects annual mode.
func (r RunSpec) IsAnnual() bool {
	return r.Month == 0
}

// VehicleCategory enumerates the recargo-bearing vehicle classes.
type VehicleCategory string

const (
	CategoryMinibus      VehicleCategory = "minibus"
	CategoryTaxibus      VehicleCategory = "taxibus"
	CategoryBus          VehicleCategory = "bus"
	CategoryBusElectrico VehicleCategory = "bus_electrico"
	CategoryBus2Piso     VehicleCategory = "bus_2piso"
	CategoryTaxibus4x4   VehicleCategory = "taxibus_4x4"
	CategoryOther        VehicleCategory = "other"
)

// VehicleCategoryFromType maps a Vehicles.Type string onto the enumerated
// category used for the recargo table and output records.
func VehicleCategoryFromType(vehicleType string) VehicleCategory {
	switch vehicleType {
	case string(CategoryMinibus):
		return CategoryMinibus
	case string(CategoryTaxibus):
		return CategoryTaxibus
	case string(CategoryBus):
		return CategoryBus
	case string(CategoryBusElectrico):
		return CategoryBusElectrico
	case string(CategoryBus2Piso):
		return CategoryBus2Piso
	case string(CategoryTaxibus4x4):
		return CategoryTaxibus4x4
	default:
		return CategoryOther
	}
}
