package modelapi

import (
	"fmt"

	"codeflexdev/profile"
)

const GEMINI_MODEL_NAME = "gemini-2.0-flash-001"

const WORKOUT_PROMPT_TEMPLATE = `You are an experienced fitness coach creating a personalized workout plan based on:
Age: %d
Height: %s
Weight: %s
Injuries or limitations: %s
Available days for workout: %d
Fitness goal: %s
Fitness level: %s

As a professional coach:
- Consider muscle group splits to avoid overtraining the same muscles on consecutive days
- Design exercises that match the fitness level and account for any injuries
- Structure the workouts to specifically target the user's fitness goal

CRITICAL SCHEMA INSTRUCTIONS:
- Your output MUST contain ONLY the fields specified below, NO ADDITIONAL FIELDS
- "sets" and "reps" MUST ALWAYS be NUMBERS, never strings
- For example: "sets": 3, "reps": 10
- Do NOT use text like "reps": "As many as possible" or "reps": "To failure"
- Instead use specific numbers like "reps": 12 or "reps": 15
- For cardio, use "sets": 1, "reps": 1 or another appropriate number
- NEVER include strings for numerical fields
- NEVER add extra fields not shown in the example below

Return a JSON object with this EXACT structure:
{
  "schedule": ["Monday", "Wednesday", "Friday"],
  "exercises": [
    {
      "day": "Monday",
      "routines": [
        {
          "name": "Exercise Name",
          "sets": 3,
          "reps": 10
        }
      ]
    }
  ]
}

DO NOT add any fields that are not in this example. Your response must be a valid JSON object with no additional text.`

const DIET_PROMPT_TEMPLATE = `You are an experienced nutrition coach creating a personalized diet plan based on:
Age: %d
Height: %s
Weight: %s
Fitness goal: %s
Dietary restrictions: %s

As a professional nutrition coach:
- Calculate appropriate daily calorie intake based on the person's stats and goals
- Create a balanced meal plan with proper macronutrient distribution
- Include a variety of nutrient-dense foods while respecting dietary restrictions
- Consider meal timing around workouts for optimal performance and recovery

CRITICAL SCHEMA INSTRUCTIONS:
- Your output MUST contain ONLY the fields specified below, NO ADDITIONAL FIELDS
- "dailyCalories" MUST be a NUMBER, not a string
- DO NOT add fields like "supplements", "macros", "notes", or ANYTHING else
- ONLY include the EXACT fields shown in the example below
- Each meal should include ONLY a "name" and "foods" array

Return a JSON object with this EXACT structure and no other fields:
{
  "dailyCalories": 2000,
  "meals": [
    {
      "name": "Breakfast",
      "foods": ["Oatmeal with berries", "Greek yogurt", "Black coffee"]
    },
    {
      "name": "Lunch",
      "foods": ["Grilled chicken salad", "Whole grain bread", "Water"]
    }
  ]
}

DO NOT add any fields that are not in this example. Your response must be a valid JSON object with no additional text.`

// WorkoutPrompt interpolates a validated profile into the workout coach
// prompt. Unset free-text fields fall back to "None" at interpolation time.
func WorkoutPrompt(p profile.Profile) string {
	return fmt.Sprintf(WORKOUT_PROMPT_TEMPLATE,
		p.Age, p.Height, p.Weight, orNone(p.Injuries), p.WorkoutDays, p.FitnessGoal, p.FitnessLevel)
}

// DietPrompt interpolates a validated profile into the nutrition coach prompt.
func DietPrompt(p profile.Profile) string {
	return fmt.Sprintf(DIET_PROMPT_TEMPLATE,
		p.Age, p.Height, p.Weight, p.FitnessGoal, orNone(p.DietaryRestrictions))
}

func orNone(s string) string {
	if s == "" {
		return "None"
	}
	return s
}
