package plan

import (
	"errors"
	"reflect"
	"testing"

	"codeflexdev/profile"
)

func fullProfile() profile.Profile {
	return profile.Profile{
		Age:                 30,
		Height:              `5'8"`,
		Weight:              "70 kg",
		FitnessLevel:        "beginner",
		FitnessGoal:         "muscle gain",
		WorkoutDays:         3,
		Injuries:            "None",
		DietaryRestrictions: "None",
		ActivityLevel:       "moderately active",
	}
}

func TestValidateProfileFullMode(t *testing.T) {
	p := fullProfile()
	validated, err := ValidateProfile(p, GateModeFull)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if validated != p {
		t.Errorf("full mode must not alter the profile: %+v", validated)
	}
}

func TestValidateProfileFullModeMissingField(t *testing.T) {
	p := fullProfile()
	p.Weight = ""

	_, err := ValidateProfile(p, GateModeFull)
	var missingErr *MissingFieldsError
	if !errors.As(err, &missingErr) {
		t.Fatalf("expected MissingFieldsError, got %v", err)
	}
	if !reflect.DeepEqual(missingErr.Fields, []string{profile.FieldWeight}) {
		t.Errorf("unexpected missing fields: %v", missingErr.Fields)
	}
}

func TestValidateProfilePartialModeAppliesDefaults(t *testing.T) {
	p := fullProfile()
	p.Age = 0
	p.Injuries = ""

	validated, err := ValidateProfile(p, GateModePartial)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if validated.Age != DefaultAge {
		t.Errorf("expected default age %d, got %d", DefaultAge, validated.Age)
	}
	if validated.Injuries != DefaultInjuries {
		t.Errorf("expected default injuries %q, got %q", DefaultInjuries, validated.Injuries)
	}
	// Everything the user actually supplied stays untouched.
	if validated.Height != p.Height || validated.Weight != p.Weight || validated.WorkoutDays != p.WorkoutDays {
		t.Errorf("partial mode altered supplied fields: %+v", validated)
	}
}

func TestValidateProfilePartialModeKeepsSetFields(t *testing.T) {
	p := fullProfile()
	p.Height = ""
	p.ActivityLevel = ""
	p.Age = 47
	p.Injuries = "bad knee"

	validated, err := ValidateProfile(p, GateModePartial)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if validated.Age != 47 || validated.Injuries != "bad knee" {
		t.Errorf("defaults overwrote supplied values: %+v", validated)
	}
}

func TestValidateProfilePartialModeBelowThreshold(t *testing.T) {
	p := profile.Profile{
		Age:          30,
		Height:       `5'8"`,
		Weight:       "70 kg",
		FitnessLevel: "beginner",
		FitnessGoal:  "muscle gain",
		WorkoutDays:  3,
	}

	_, err := ValidateProfile(p, GateModePartial)
	var missingErr *MissingFieldsError
	if !errors.As(err, &missingErr) {
		t.Fatalf("expected MissingFieldsError, got %v", err)
	}
	want := []string{profile.FieldInjuries, profile.FieldDietaryRestrictions, profile.FieldActivityLevel}
	if !reflect.DeepEqual(missingErr.Fields, want) {
		t.Errorf("expected missing fields %v, got %v", want, missingErr.Fields)
	}
}

func TestValidateProfileManualModeAgeRange(t *testing.T) {
	for _, age := range []int{9, 101} {
		p := fullProfile()
		p.Age = age

		_, err := ValidateProfile(p, GateModeManual)
		var rangeErr *OutOfRangeError
		if !errors.As(err, &rangeErr) {
			t.Fatalf("age %d: expected OutOfRangeError, got %v", age, err)
		}
		if rangeErr.Field != profile.FieldAge || rangeErr.Min != 10 || rangeErr.Max != 100 {
			t.Errorf("age %d: unexpected range error: %+v", age, rangeErr)
		}
	}
}

func TestValidateProfileManualModeWorkoutDaysRange(t *testing.T) {
	p := fullProfile()
	p.WorkoutDays = 8

	_, err := ValidateProfile(p, GateModeManual)
	var rangeErr *OutOfRangeError
	if !errors.As(err, &rangeErr) {
		t.Fatalf("expected OutOfRangeError, got %v", err)
	}
	if rangeErr.Field != profile.FieldWorkoutDays || rangeErr.Min != 1 || rangeErr.Max != 7 {
		t.Errorf("unexpected range error: %+v", rangeErr)
	}
}

func TestValidateProfileManualModeNoDefaults(t *testing.T) {
	p := fullProfile()
	p.Injuries = ""

	_, err := ValidateProfile(p, GateModeManual)
	var missingErr *MissingFieldsError
	if !errors.As(err, &missingErr) {
		t.Fatalf("expected MissingFieldsError, got %v", err)
	}
}
