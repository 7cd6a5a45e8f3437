// Package planner runs one plan generation request end to end: it
// interpolates the validated profile into the coaching prompts, asks the
// model for the workout and diet plans in turn, sanitizes the responses and
// persists the result as an active plan document.
package planner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"codeflexdev/database/postgres"
	"codeflexdev/logger"
	"codeflexdev/modelapi"
	"codeflexdev/plan"
	"codeflexdev/profile"
)

// ErrInvalidPlanResponse marks a model response that did not parse as JSON.
// This is distinct from schema drift, which is repaired silently by the
// sanitizer; an unparseable response fails the whole attempt.
var ErrInvalidPlanResponse = errors.New("invalid plan response")

// The upstream call carries an explicit deadline. Attempts are not retried
// at this level; a failed generation is terminal and the user may start over.
const generateTimeout = 2 * time.Minute

type Generator interface {
	GenerateJSON(ctx context.Context, prompt string) (string, error)
}

type Store interface {
	SavePlan(ctx context.Context, args postgres.SavePlanProps) (*postgres.PlanRecord, error)
}

type PlannerConnectProps struct {
	Logger    *logger.LogMiddleware
	Generator Generator
	Store     Store
}

type Planner struct {
	logger    *logger.LogMiddleware
	generator Generator
	store     Store
}

func Connect(ctx context.Context, args PlannerConnectProps) *Planner {
	tracer := otel.Tracer("planner/Connect")
	_, span := tracer.Start(ctx, "Connect")
	defer span.End()

	return &Planner{logger: args.Logger, generator: args.Generator, store: args.Store}
}

type GenerateProps struct {
	UserID  string
	Profile profile.Profile
}

// Generate produces, sanitizes and stores a plan for an already-validated
// profile. The caller is responsible for running the profile through the
// request gate first.
func (p *Planner) Generate(ctx context.Context, args GenerateProps) (*postgres.PlanRecord, error) {
	tracer := otel.Tracer("planner/Generate")
	ctx, span := tracer.Start(ctx, "Generate")
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, generateTimeout)
	defer cancel()

	span.SetAttributes(
		attribute.String("user.id", args.UserID),
		attribute.Int("profile.fields", args.Profile.CompletionCount()),
	)
	logger := p.logger.Logger(ctx)
	logger.Info("[Planner] Generating fitness plan",
		zap.String("user_id", args.UserID),
		zap.Int("profile_fields", args.Profile.CompletionCount()))

	workoutText, err := p.generator.GenerateJSON(ctx, modelapi.WorkoutPrompt(args.Profile))
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("workout plan generation failed: %w", err)
	}
	workoutPlan, substituted, err := plan.ParseWorkoutPlan([]byte(workoutText))
	if err != nil {
		span.RecordError(err)
		logger.Error("[Planner] Workout plan response did not parse",
			zap.Error(err),
			zap.String("response_body", workoutText))
		return nil, fmt.Errorf("%w: %v", ErrInvalidPlanResponse, err)
	}
	p.logDrift(ctx, "workout", substituted)

	dietText, err := p.generator.GenerateJSON(ctx, modelapi.DietPrompt(args.Profile))
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("diet plan generation failed: %w", err)
	}
	dietPlan, substituted, err := plan.ParseDietPlan([]byte(dietText))
	if err != nil {
		span.RecordError(err)
		logger.Error("[Planner] Diet plan response did not parse",
			zap.Error(err),
			zap.String("response_body", dietText))
		return nil, fmt.Errorf("%w: %v", ErrInvalidPlanResponse, err)
	}
	p.logDrift(ctx, "diet", substituted)

	record, err := p.store.SavePlan(ctx, postgres.SavePlanProps{
		UserID:      args.UserID,
		Name:        args.Profile.FitnessGoal + " Fitness Plan",
		WorkoutPlan: workoutPlan,
		DietPlan:    dietPlan,
	})
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("could not persist plan: %w", err)
	}

	logger.Info("[Planner] Plan generated and saved",
		zap.String("plan_id", record.ID),
		zap.String("user_id", args.UserID))
	return record, nil
}

// Substituted defaults mean the model violated its schema instructions.
// Not an error, but worth seeing in the logs when the contract drifts.
func (p *Planner) logDrift(ctx context.Context, which string, substituted []string) {
	if len(substituted) == 0 {
		return
	}
	p.logger.Logger(ctx).Warn("[Planner] Upstream schema drift, defaults substituted",
		zap.String("plan", which),
		zap.Strings("fields", substituted))
}
