// Package extract fills fitness profile fields from transcribed speech.
//
// Extraction is rule based: each field carries a small ordered list of
// pattern rules, and the first rule that matches and passes its plausibility
// check wins. A field that is already set is never touched again, so calling
// Extract repeatedly with the same transcript is idempotent. No rule
// matching is not an error, just no information extracted this turn.
package extract

import (
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/cases"

	"codeflexdev/profile"
)

var foldCaser = cases.Fold()

var agePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(\d+)\s*(?:years?\s*old|y\.?o\.?|age)`),
	regexp.MustCompile(`(?i)age\s*(?:is\s*)?(\d+)`),
	regexp.MustCompile(`(?i)(\d+)\s*(?:years?)`),
	regexp.MustCompile(`(?i)^(\d+)$`),
	regexp.MustCompile(`(?i)(\d+)\s*$`),
}

var (
	heightFeetInchesPattern = regexp.MustCompile(`(?i)(\d+)\s*(?:foot|feet|ft|')\s*(\d+)\s*(?:inch|inches|in|")`)
	heightTwoNumbersPattern = regexp.MustCompile(`(\d+)\s+(\d+)`)
	heightWithUnitPattern   = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*(?:cm|centimeters?|feet?|ft|inches?|in|'|")`)
)

var heightContextKeywords = []string{"height", "tall", "foot", "inch", "feet", "cm"}

var weightPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*(?:kg|kilograms?|lbs?|pounds?|lb|pound)`),
	regexp.MustCompile(`(?i)weight\s*(?:is\s*)?(\d+(?:\.\d+)?)\s*(?:kg|kilograms?|lbs?|pounds?|lb|pound)`),
	regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*(?:weight|weighs?)`),
}

var workoutDaysPattern = regexp.MustCompile(`(?i)(\d+)\s*(?:days?|times?|per week)`)

// Keyword categories tested in fixed order; the first category whose keyword
// appears in the folded transcript wins.
var fitnessLevelCategories = []keywordCategory{
	{value: "beginner", keywords: []string{"beginner", "beginning"}},
	{value: "intermediate", keywords: []string{"intermediate", "medium"}},
	{value: "advanced", keywords: []string{"advanced", "expert"}},
}

var fitnessGoalCategories = []keywordCategory{
	{value: "weight loss", keywords: []string{"weight loss", "lose weight", "slim down"}},
	{value: "muscle gain", keywords: []string{"muscle gain", "build muscle", "get stronger"}},
	{value: "endurance", keywords: []string{"endurance", "stamina", "cardio"}},
	{value: "strength", keywords: []string{"strength", "power"}},
	{value: "flexibility", keywords: []string{"flexibility", "mobility", "stretching"}},
}

var activityLevelCategories = []keywordCategory{
	{value: "sedentary", keywords: []string{"sedentary", "desk job", "mostly sitting"}},
	{value: "lightly active", keywords: []string{"lightly active", "some walking", "occasional exercise", "slightly"}},
	{value: "moderately active", keywords: []string{"moderately active", "regular exercise", "active lifestyle", "moderate"}},
	{value: "very active", keywords: []string{"very active", "intense exercise", "athlete"}},
}

var injuryNoneKeywords = []string{"none", "no injuries", "no limitations", "no conditions", "no pain", "nothing"}
var injuryKeywords = []string{"injury", "pain", "limitation", "condition", "hurt", "sore"}

var dietaryNoneKeywords = []string{"none", "no restrictions", "no dietary restrictions", "nothing", "no allergies"}
var dietaryKeywords = []string{"vegetarian", "vegan", "gluten", "dairy", "allergy", "intolerant"}

type keywordCategory struct {
	value    string
	keywords []string
}

// fieldRule binds one profile field to its extraction attempt. The extract
// func returns the value to store and whether anything plausible matched.
type fieldRule struct {
	field   string
	extract func(raw, folded string) (string, bool)
	assign  func(p *profile.Profile, value string)
}

var rules = []fieldRule{
	{
		field:   profile.FieldAge,
		extract: extractAge,
		assign:  func(p *profile.Profile, v string) { p.Age = mustInt(v) },
	},
	{
		field:   profile.FieldHeight,
		extract: extractHeight,
		assign:  func(p *profile.Profile, v string) { p.Height = v },
	},
	{
		field:   profile.FieldWeight,
		extract: extractWeight,
		assign:  func(p *profile.Profile, v string) { p.Weight = v },
	},
	{
		field:   profile.FieldFitnessLevel,
		extract: keywordExtractor(fitnessLevelCategories),
		assign:  func(p *profile.Profile, v string) { p.FitnessLevel = v },
	},
	{
		field:   profile.FieldFitnessGoal,
		extract: keywordExtractor(fitnessGoalCategories),
		assign:  func(p *profile.Profile, v string) { p.FitnessGoal = v },
	},
	{
		field:   profile.FieldWorkoutDays,
		extract: extractWorkoutDays,
		assign:  func(p *profile.Profile, v string) { p.WorkoutDays = mustInt(v) },
	},
	{
		field:   profile.FieldInjuries,
		extract: twoTierExtractor(injuryNoneKeywords, injuryKeywords),
		assign:  func(p *profile.Profile, v string) { p.Injuries = v },
	},
	{
		field:   profile.FieldDietaryRestrictions,
		extract: twoTierExtractor(dietaryNoneKeywords, dietaryKeywords),
		assign:  func(p *profile.Profile, v string) { p.DietaryRestrictions = v },
	},
	{
		field:   profile.FieldActivityLevel,
		extract: extractActivityLevel,
		assign:  func(p *profile.Profile, v string) { p.ActivityLevel = v },
	},
}

// Extract attempts to fill every still-unset field of p from one transcript
// and returns the updated profile. Pure function: no I/O, the input profile
// is not mutated.
func Extract(p profile.Profile, transcript string) profile.Profile {
	folded := foldCaser.String(transcript)

	for _, rule := range rules {
		if p.Has(rule.field) {
			continue
		}
		if value, ok := rule.extract(transcript, folded); ok {
			rule.assign(&p, value)
		}
	}
	return p
}

func extractAge(raw, _ string) (string, bool) {
	for _, pattern := range agePatterns {
		m := pattern.FindStringSubmatch(raw)
		if m == nil {
			continue
		}
		age, err := strconv.Atoi(m[1])
		if err == nil && age >= 10 && age <= 100 {
			return m[1], true
		}
	}
	return "", false
}

func extractHeight(raw, folded string) (string, bool) {
	if m := heightFeetInchesPattern.FindStringSubmatch(raw); m != nil {
		return m[1] + "'" + m[2] + `"`, true
	}

	// A bare pair of numbers is only read as feet-and-inches when the
	// utterance mentions height at all, to avoid misreading unrelated
	// number pairs.
	if m := heightTwoNumbersPattern.FindStringSubmatch(raw); m != nil {
		feet, _ := strconv.Atoi(m[1])
		inches, _ := strconv.Atoi(m[2])
		if feet <= 8 && inches <= 12 && containsAny(folded, heightContextKeywords) {
			return m[1] + "'" + m[2] + `"`, true
		}
	}

	if m := heightWithUnitPattern.FindStringSubmatch(raw); m != nil {
		return m[0], true
	}
	return "", false
}

func extractWeight(raw, _ string) (string, bool) {
	for _, pattern := range weightPatterns {
		m := pattern.FindStringSubmatch(raw)
		if m == nil {
			continue
		}
		value, err := strconv.ParseFloat(m[1], 64)
		if err == nil && int(value) >= 30 && int(value) <= 500 {
			// The whole matched phrase is stored, unit included.
			return m[0], true
		}
	}
	return "", false
}

func extractWorkoutDays(raw, _ string) (string, bool) {
	m := workoutDaysPattern.FindStringSubmatch(raw)
	if m == nil {
		return "", false
	}
	days, err := strconv.Atoi(m[1])
	if err != nil || days < 1 || days > 7 {
		return "", false
	}
	return m[1], true
}

func extractActivityLevel(raw, folded string) (string, bool) {
	for _, category := range activityLevelCategories {
		if containsAny(folded, category.keywords) {
			return category.value, true
		}
	}
	// "7 days a week and I'm active" style phrasing also counts as very
	// active, mirroring the assistant's questionnaire wording.
	if strings.Contains(folded, "7") && strings.Contains(folded, "active") {
		return "very active", true
	}
	return "", false
}

func keywordExtractor(categories []keywordCategory) func(raw, folded string) (string, bool) {
	return func(_, folded string) (string, bool) {
		for _, category := range categories {
			if containsAny(folded, category.keywords) {
				return category.value, true
			}
		}
		return "", false
	}
}

// twoTierExtractor covers the injuries / dietary restrictions pattern: a
// "none"-class keyword stores the literal sentinel "None", while a
// topic-indicating keyword stores the raw transcript verbatim.
func twoTierExtractor(noneKeywords, topicKeywords []string) func(raw, folded string) (string, bool) {
	return func(raw, folded string) (string, bool) {
		if containsAny(folded, noneKeywords) {
			return "None", true
		}
		if containsAny(folded, topicKeywords) {
			return raw, true
		}
		return "", false
	}
}

func containsAny(folded string, keywords []string) bool {
	for _, keyword := range keywords {
		if strings.Contains(folded, keyword) {
			return true
		}
	}
	return false
}

func mustInt(v string) int {
	n, _ := strconv.Atoi(v)
	return n
}
