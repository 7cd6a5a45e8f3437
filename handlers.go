package main

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"codeflexdev/plan"
	"codeflexdev/planner"
	"codeflexdev/profile"
)

// generateProgramRequest is the manual-entry payload. Both camelCase and
// snake_case spellings are accepted for the multi-word fields, matching
// what the web form and older clients send.
type generateProgramRequest struct {
	UserID string `json:"user_id"`
	Age    int    `json:"age"`
	Height string `json:"height"`
	Weight string `json:"weight"`

	FitnessLevel      string `json:"fitnessLevel"`
	FitnessLevelSnake string `json:"fitness_level"`

	FitnessGoal      string `json:"fitnessGoal"`
	FitnessGoalSnake string `json:"fitness_goal"`

	WorkoutDays      int `json:"workoutDays"`
	WorkoutDaysSnake int `json:"workout_days"`

	Injuries string `json:"injuries"`

	DietaryRestrictions      string `json:"dietaryRestrictions"`
	DietaryRestrictionsSnake string `json:"dietary_restrictions"`

	ActivityLevel      string `json:"activityLevel"`
	ActivityLevelSnake string `json:"activity_level"`
}

func (r generateProgramRequest) profile() profile.Profile {
	return profile.Profile{
		Age:                 r.Age,
		Height:              r.Height,
		Weight:              r.Weight,
		FitnessLevel:        coalesce(r.FitnessLevel, r.FitnessLevelSnake),
		FitnessGoal:         coalesce(r.FitnessGoal, r.FitnessGoalSnake),
		WorkoutDays:         coalesceInt(r.WorkoutDays, r.WorkoutDaysSnake),
		Injuries:            r.Injuries,
		DietaryRestrictions: coalesce(r.DietaryRestrictions, r.DietaryRestrictionsSnake),
		ActivityLevel:       coalesce(r.ActivityLevel, r.ActivityLevelSnake),
	}
}

func coalesce(a, b string) string {
	if a != "" {
		return a
	}
	return b
}

func coalesceInt(a, b int) int {
	if a != 0 {
		return a
	}
	return b
}

// handleGenerateProgram is the manual-entry path: the form supplies every
// field itself, so validation demands correction instead of substituting
// defaults.
func (s *server) handleGenerateProgram(w http.ResponseWriter, r *http.Request) {
	tracer := otel.Tracer("server/handleGenerateProgram")
	ctx, span := tracer.Start(r.Context(), "handleGenerateProgram")
	defer span.End()

	var req generateProgramRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		span.RecordError(err)
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "error": "Invalid request body"})
		return
	}

	if req.UserID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "error": "User ID is required"})
		return
	}

	validated, err := plan.ValidateProfile(req.profile(), plan.GateModeManual)
	if err != nil {
		var missingErr *plan.MissingFieldsError
		var rangeErr *plan.OutOfRangeError
		if errors.As(err, &missingErr) || errors.As(err, &rangeErr) {
			writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "error": err.Error()})
			return
		}
		span.RecordError(err)
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "error": "Missing required fitness data"})
		return
	}

	record, err := s.planner.Generate(ctx, planner.GenerateProps{UserID: req.UserID, Profile: validated})
	if err != nil {
		span.RecordError(err)
		s.logger.Logger(ctx).Error("[Server] Plan generation failed",
			zap.Error(err),
			zap.String("user_id", req.UserID))
		writeJSON(w, http.StatusInternalServerError, map[string]any{"success": false, "error": "Failed to generate fitness program"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":     true,
		"planId":      record.ID,
		"workoutPlan": record.WorkoutPlan,
		"dietPlan":    record.DietPlan,
	})
}

func (s *server) handleUserPlans(w http.ResponseWriter, r *http.Request) {
	tracer := otel.Tracer("server/handleUserPlans")
	ctx, span := tracer.Start(r.Context(), "handleUserPlans")
	defer span.End()

	userID := r.URL.Query().Get("userId")
	if userID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "error": "User ID is required"})
		return
	}

	plans, err := s.db.ListActivePlans(ctx, userID)
	if err != nil {
		span.RecordError(err)
		writeJSON(w, http.StatusInternalServerError, map[string]any{"success": false, "error": "Failed to fetch user plans"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true, "plans": plans})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
