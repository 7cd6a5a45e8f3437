// Package plan defines the workout and diet plan shapes and the defensive
// normalization boundary between the generation model and the rest of the
// system. The model is asked for an exact JSON schema but is known to drift
// (descriptive strings like "to failure" where a number belongs), so
// everything it returns is coerced into the strict shape here before it can
// reach persistence or display.
package plan

import (
	"encoding/json"
	"fmt"
)

// Default values substituted when the model supplies a missing or
// non-numeric value.
const (
	DefaultSets          = 3
	DefaultReps          = 10
	DefaultDailyCalories = 2000
)

type Routine struct {
	Name        string   `json:"name"`
	Sets        int      `json:"sets"`
	Reps        int      `json:"reps"`
	Duration    string   `json:"duration,omitempty"`
	Description string   `json:"description,omitempty"`
	Exercises   []string `json:"exercises,omitempty"`
}

type ExerciseDay struct {
	Day      string    `json:"day"`
	Routines []Routine `json:"routines"`
}

type WorkoutPlan struct {
	Schedule  []string      `json:"schedule"`
	Exercises []ExerciseDay `json:"exercises"`
}

type Meal struct {
	Name  string   `json:"name"`
	Foods []string `json:"foods"`
}

type DietPlan struct {
	DailyCalories int    `json:"dailyCalories"`
	Meals         []Meal `json:"meals"`
}

// GeneratedPlan is the combined output of one generation request.
type GeneratedPlan struct {
	WorkoutPlan WorkoutPlan `json:"workoutPlan"`
	DietPlan    DietPlan    `json:"dietPlan"`
}

// Loose mirror shapes for decoding whatever the model actually sent.
// Numeric fields are decoded as any so a string where a number belongs is a
// default substitution, not a decode failure.
type rawRoutine struct {
	Name        string   `json:"name"`
	Sets        any      `json:"sets"`
	Reps        any      `json:"reps"`
	Duration    string   `json:"duration"`
	Description string   `json:"description"`
	Exercises   []string `json:"exercises"`
}

type rawExerciseDay struct {
	Day      string       `json:"day"`
	Routines []rawRoutine `json:"routines"`
}

type rawWorkoutPlan struct {
	Schedule  []string         `json:"schedule"`
	Exercises []rawExerciseDay `json:"exercises"`
}

type rawMeal struct {
	Name  string   `json:"name"`
	Foods []string `json:"foods"`
}

type rawDietPlan struct {
	DailyCalories any       `json:"dailyCalories"`
	Meals         []rawMeal `json:"meals"`
}

// ParseWorkoutPlan decodes and sanitizes a workout plan response. A decode
// failure is returned as an error; every default substituted for a missing
// or mistyped field is reported in the second return value so the caller
// can log the upstream contract drift.
func ParseWorkoutPlan(data []byte) (WorkoutPlan, []string, error) {
	var raw rawWorkoutPlan
	if err := json.Unmarshal(data, &raw); err != nil {
		return WorkoutPlan{}, nil, fmt.Errorf("invalid workout plan response: %w", err)
	}

	plan := WorkoutPlan{
		Schedule:  emptyIfNil(raw.Schedule),
		Exercises: []ExerciseDay{},
	}

	var substituted []string
	for i, day := range raw.Exercises {
		sanitized := ExerciseDay{Day: day.Day, Routines: []Routine{}}
		for j, routine := range day.Routines {
			sets, ok := asInt(routine.Sets)
			if !ok {
				sets = DefaultSets
				substituted = append(substituted, fmt.Sprintf("exercises[%d].routines[%d].sets", i, j))
			}
			reps, ok := asInt(routine.Reps)
			if !ok {
				reps = DefaultReps
				substituted = append(substituted, fmt.Sprintf("exercises[%d].routines[%d].reps", i, j))
			}
			sanitized.Routines = append(sanitized.Routines, Routine{
				Name:        routine.Name,
				Sets:        sets,
				Reps:        reps,
				Duration:    routine.Duration,
				Description: routine.Description,
				Exercises:   routine.Exercises,
			})
		}
		plan.Exercises = append(plan.Exercises, sanitized)
	}

	return plan, substituted, nil
}

// ParseDietPlan decodes and sanitizes a diet plan response, with the same
// error and substitution-reporting contract as ParseWorkoutPlan.
func ParseDietPlan(data []byte) (DietPlan, []string, error) {
	var raw rawDietPlan
	if err := json.Unmarshal(data, &raw); err != nil {
		return DietPlan{}, nil, fmt.Errorf("invalid diet plan response: %w", err)
	}

	var substituted []string
	calories, ok := asInt(raw.DailyCalories)
	if !ok {
		calories = DefaultDailyCalories
		substituted = append(substituted, "dailyCalories")
	}

	plan := DietPlan{DailyCalories: calories, Meals: []Meal{}}
	for _, meal := range raw.Meals {
		plan.Meals = append(plan.Meals, Meal{
			Name:  meal.Name,
			Foods: emptyIfNil(meal.Foods),
		})
	}

	return plan, substituted, nil
}

// asInt accepts only JSON numbers. Numeric strings are deliberately not
// coerced: the upstream schema demands numbers, and anything else is drift.
func asInt(v any) (int, bool) {
	f, ok := v.(float64)
	if !ok {
		return 0, false
	}
	return int(f), true
}

func emptyIfNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
