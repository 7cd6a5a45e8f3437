package profile

import (
	"reflect"
	"testing"
)

func TestEmptyProfile(t *testing.T) {
	var p Profile
	if p.CompletionCount() != 0 {
		t.Errorf("empty profile reports %d fields", p.CompletionCount())
	}
	if p.Complete() {
		t.Error("empty profile reports complete")
	}
	if !reflect.DeepEqual(p.MissingFields(), FieldNames()) {
		t.Errorf("expected all fields missing, got %v", p.MissingFields())
	}
}

func TestHasTreatsZeroAsUnset(t *testing.T) {
	var p Profile
	if p.Has(FieldAge) || p.Has(FieldWorkoutDays) || p.Has(FieldHeight) {
		t.Error("zero values must count as unset")
	}

	p.Age = 25
	p.WorkoutDays = 3
	p.Height = "170 cm"
	if !p.Has(FieldAge) || !p.Has(FieldWorkoutDays) || !p.Has(FieldHeight) {
		t.Error("set values not reported by Has")
	}
}

func TestHasUnknownField(t *testing.T) {
	var p Profile
	if p.Has("favoriteColor") {
		t.Error("unknown field reported as set")
	}
}

func TestCompletionCountAndMissing(t *testing.T) {
	p := Profile{
		Age:          30,
		Height:       `5'8"`,
		Weight:       "70 kg",
		FitnessLevel: "beginner",
		FitnessGoal:  "muscle gain",
		WorkoutDays:  3,
		Injuries:     "None",
	}
	if p.CompletionCount() != 7 {
		t.Errorf("expected 7 fields, got %d", p.CompletionCount())
	}
	want := []string{FieldDietaryRestrictions, FieldActivityLevel}
	if !reflect.DeepEqual(p.MissingFields(), want) {
		t.Errorf("expected missing %v, got %v", want, p.MissingFields())
	}

	p.DietaryRestrictions = "None"
	p.ActivityLevel = "sedentary"
	if !p.Complete() {
		t.Error("profile with all nine fields not reported complete")
	}
	if p.MissingFields() != nil {
		t.Errorf("complete profile still missing %v", p.MissingFields())
	}
}

func TestFieldNamesOrder(t *testing.T) {
	names := FieldNames()
	if len(names) != NumFields {
		t.Fatalf("expected %d field names, got %d", NumFields, len(names))
	}
	if names[0] != FieldAge || names[NumFields-1] != FieldActivityLevel {
		t.Errorf("unexpected collection order: %v", names)
	}
}
