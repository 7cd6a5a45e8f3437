package plan

import (
	"fmt"
	"strings"

	"codeflexdev/profile"
)

// GateMode selects how strictly a profile is validated before a generation
// request is allowed to fire.
type GateMode int

const (
	// GateModeFull requires all nine fields; the conversation collected
	// everything, so no defaults are needed.
	GateModeFull GateMode = iota
	// GateModePartial accepts a best-effort profile with at least seven
	// fields and substitutes defaults for age and injuries if unset.
	GateModePartial
	// GateModeManual is the form-entry path: all nine fields are demanded
	// and age / workout days are re-validated against their ranges. No
	// defaults are applied; the user is asked to correct the input.
	GateModeManual
)

// Defaults applied in partial mode.
const (
	DefaultAge      = 25
	DefaultInjuries = "None"
)

// MissingFieldsError names the profile fields that must be supplied before
// a plan can be generated.
type MissingFieldsError struct {
	Fields []string
}

func (e *MissingFieldsError) Error() string {
	return "missing required fields: " + strings.Join(e.Fields, ", ")
}

// OutOfRangeError names a field whose value falls outside its valid range.
type OutOfRangeError struct {
	Field string
	Min   int
	Max   int
}

func (e *OutOfRangeError) Error() string {
	return fmt.Sprintf("%s must be between %d and %d", e.Field, e.Min, e.Max)
}

// ValidateProfile checks a frozen profile against the requirements of the
// given mode and returns the profile that should be sent for generation,
// with partial-mode defaults applied. Fields already set are never altered.
func ValidateProfile(p profile.Profile, mode GateMode) (profile.Profile, error) {
	switch mode {
	case GateModePartial:
		if p.CompletionCount() < profile.PartialCompletion {
			return p, &MissingFieldsError{Fields: p.MissingFields()}
		}
		if p.Age == 0 {
			p.Age = DefaultAge
		}
		if p.Injuries == "" {
			p.Injuries = DefaultInjuries
		}
		return p, nil

	case GateModeManual:
		if missing := p.MissingFields(); len(missing) > 0 {
			return p, &MissingFieldsError{Fields: missing}
		}
		if p.Age < 10 || p.Age > 100 {
			return p, &OutOfRangeError{Field: profile.FieldAge, Min: 10, Max: 100}
		}
		if p.WorkoutDays < 1 || p.WorkoutDays > 7 {
			return p, &OutOfRangeError{Field: profile.FieldWorkoutDays, Min: 1, Max: 7}
		}
		return p, nil

	default: // GateModeFull
		if missing := p.MissingFields(); len(missing) > 0 {
			return p, &MissingFieldsError{Fields: missing}
		}
		return p, nil
	}
}
