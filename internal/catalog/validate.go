package catalog

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/schedcu/rosterengine/internal/validation"
)

// ValidatorConfig configures catalog validation. NewValidator's default sets
// RejectEmptyServices; the zero value leaves it off.
type ValidatorConfig struct {
	// RejectEmptyServices fails validation if the catalog has no services at all.
	RejectEmptyServices bool
}

// Validator checks an ingested Catalog for malformed time strings, negative
// vehicle counts, weekdays outside 0..6, and unknown regime tags. These are
// fatal: the run aborts on any validation error.
type Validator struct {
	config ValidatorConfig
}

// NewValidator creates a Validator with default configuration.
func NewValidator() *Validator {
	return &Validator{config: ValidatorConfig{RejectEmptyServices: true}}
}

// NewValidatorWithConfig creates a Validator with custom configuration.
func NewValidatorWithConfig(config ValidatorConfig) *Validator {
	return &Validator{config: config}
}

var knownRegimeTags = map[string]bool{
	"Interurbano":           true,
	"Industrial":            true,
	"Urbano":                true,
	"Interno":                true,
	"Interurbano Bisemanal": true,
	"Faena Minera":          true,
	"Minera":                true,
}

// Validate runs all catalog-ingestion checks and returns an accumulated
// ValidationResult. Callers must check HasErrors before proceeding; a
// non-empty error set means the run must abort.
func (v *Validator) Validate(c *Catalog) *validation.ValidationResult {
	result := validation.NewValidationResult()

	if !knownRegimeTags[c.RegimeHint] {
		result.AddError("regime_hint", fmt.Sprintf("unknown regime tag %q", c.RegimeHint))
	}

	if v.config.RejectEmptyServices && len(c.Services) == 0 {
		result.AddError("services", "catalog contains no services")
	}

	for _, svc := range c.Services {
		v.validateService(svc, result)
	}

	result.SetContext("service_count", len(c.Services))
	return result
}

func (v *Validator) validateService(svc Service, result *validation.ValidationResult) {
	field := fmt.Sprintf("services[%s]", svc.ID)

	if svc.Vehicles.Quantity < 0 {
		result.AddError(field+".vehicles.quantity", "vehicle count must be >= 0")
	}

	for _, day := range svc.Frequency.Days {
		if day < 0 || day > 6 {
			result.AddError(field+".frequency.days", fmt.Sprintf("weekday %d outside 0..6", day))
		}
	}

	if len(svc.Shifts) == 0 {
		result.AddWarning(field+".shifts", "service has no shift templates")
	}

	for _, tmpl := range svc.Shifts {
		if _, err := ParseClockMinutes(tmpl.StartTime); err != nil {
			result.AddError(field+".shifts.start_time", fmt.Sprintf("%q: %v", tmpl.StartTime, err))
		}
		if _, err := ParseClockMinutes(tmpl.EndTime); err != nil {
			result.AddError(field+".shifts.end_time", fmt.Sprintf("%q: %v", tmpl.EndTime, err))
		}
	}
}

// ParseClockMinutes parses an "HH:MM" string into minutes-since-midnight.
// Shared with the shift expander so both enforce the same time grammar.
func ParseClockMinutes(clock string) (int, error) {
	parts := strings.SplitN(clock, ":", 2)
	if len(parts) != 2 {
		return 0, fmt.Errorf("expected HH:MM format")
	}
	hh, err := strconv.Atoi(parts[0])
	if err != nil || hh < 0 || hh > 23 {
		return 0, fmt.Errorf("invalid hour %q", parts[0])
	}
	mm, err := strconv.Atoi(parts[1])
	if err != nil || mm < 0 || mm > 59 {
		return 0, fmt.Errorf("invalid minute %q", parts[1])
	}
	return hh*60 + mm, nil
}
