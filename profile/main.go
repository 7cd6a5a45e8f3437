// Package profile holds the fitness profile collected for one conversation.
// A profile starts empty, is filled incrementally by the extractor or the
// manual form, and once a field is set it is never overwritten.
package profile

// Canonical field names, in collection order. These are the names surfaced
// to the user when fields are missing, matching the JSON keys of the plan
// generation payload.
const (
	FieldAge                 = "age"
	FieldHeight              = "height"
	FieldWeight              = "weight"
	FieldFitnessLevel        = "fitnessLevel"
	FieldFitnessGoal         = "fitnessGoal"
	FieldWorkoutDays         = "workoutDays"
	FieldInjuries            = "injuries"
	FieldDietaryRestrictions = "dietaryRestrictions"
	FieldActivityLevel       = "activityLevel"
)

// NumFields is the number of profile fields a complete profile carries.
const NumFields = 9

// Completion thresholds. A full profile has every field; a partial profile
// with at least PartialCompletion fields is still eligible for plan
// generation with defaults substituted for the rest.
const (
	FullCompletion    = NumFields
	PartialCompletion = 7
)

// FieldNames lists all profile fields in collection order.
func FieldNames() []string {
	return []string{
		FieldAge,
		FieldHeight,
		FieldWeight,
		FieldFitnessLevel,
		FieldFitnessGoal,
		FieldWorkoutDays,
		FieldInjuries,
		FieldDietaryRestrictions,
		FieldActivityLevel,
	}
}

// Profile is the accumulating record of fitness-relevant facts about one
// user. The zero value is an empty profile. Zero-valued fields count as
// unset: Age and WorkoutDays are unset at 0, string fields at "".
type Profile struct {
	Age                 int    `json:"age,omitempty"`
	Height              string `json:"height,omitempty"`
	Weight              string `json:"weight,omitempty"`
	FitnessLevel        string `json:"fitnessLevel,omitempty"`
	FitnessGoal         string `json:"fitnessGoal,omitempty"`
	WorkoutDays         int    `json:"workoutDays,omitempty"`
	Injuries            string `json:"injuries,omitempty"`
	DietaryRestrictions string `json:"dietaryRestrictions,omitempty"`
	ActivityLevel       string `json:"activityLevel,omitempty"`
}

// Has reports whether the named field is set.
func (p Profile) Has(field string) bool {
	switch field {
	case FieldAge:
		return p.Age != 0
	case FieldHeight:
		return p.Height != ""
	case FieldWeight:
		return p.Weight != ""
	case FieldFitnessLevel:
		return p.FitnessLevel != ""
	case FieldFitnessGoal:
		return p.FitnessGoal != ""
	case FieldWorkoutDays:
		return p.WorkoutDays != 0
	case FieldInjuries:
		return p.Injuries != ""
	case FieldDietaryRestrictions:
		return p.DietaryRestrictions != ""
	case FieldActivityLevel:
		return p.ActivityLevel != ""
	}
	return false
}

// CompletionCount returns how many of the nine fields are currently set.
func (p Profile) CompletionCount() int {
	count := 0
	for _, field := range FieldNames() {
		if p.Has(field) {
			count++
		}
	}
	return count
}

// MissingFields lists the fields still unset, in collection order.
func (p Profile) MissingFields() []string {
	var missing []string
	for _, field := range FieldNames() {
		if !p.Has(field) {
			missing = append(missing, field)
		}
	}
	return missing
}

// Complete reports whether every field is set.
func (p Profile) Complete() bool {
	return p.CompletionCount() == FullCompletion
}
