// Package conversation tracks one voice or chat conversation from the first
// transcript to a generated plan. Each conversation owns its own Session —
// there is no shared state across conversations — and a session processes
// its events strictly in order.
package conversation

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"codeflexdev/database/postgres"
	"codeflexdev/extract"
	"codeflexdev/logger"
	"codeflexdev/plan"
	"codeflexdev/planner"
	"codeflexdev/profile"
)

// State of one conversation.
type State string

const (
	StateCollecting      State = "collecting"
	StateReadyFull       State = "ready-full"
	StateReadyPartial    State = "ready-partial"
	StateEndedIncomplete State = "ended-incomplete"
	StateGenerating      State = "generating"
	StateCompleted       State = "completed"
	StateFailed          State = "failed"
)

// defaultGraceDelay is how long the call keeps running after the ninth
// field lands, so the final utterance can finish playing out.
const defaultGraceDelay = 2 * time.Second

// Planner issues one plan generation request. Satisfied by *planner.Planner.
type Planner interface {
	Generate(ctx context.Context, args planner.GenerateProps) (*postgres.PlanRecord, error)
}

// Notifier delivers an assistant-visible message to the user's transcript.
type Notifier interface {
	Notify(ctx context.Context, text string)
}

// CallControl asks the voice transport to terminate the active call.
type CallControl interface {
	Stop(ctx context.Context)
}

type SessionConnectProps struct {
	Logger     *logger.LogMiddleware
	UserID     string
	Planner    Planner
	Notifier   Notifier
	Call       CallControl   // optional; nil for text-only surfaces
	GraceDelay time.Duration // zero means the default
}

// Session is the per-conversation completion tracker. It owns the evolving
// profile, decides when enough information exists to request a plan and
// drives the generation once the conversation ends.
type Session struct {
	logger   *logger.LogMiddleware
	userID   string
	planner  Planner
	notifier Notifier
	call     CallControl
	grace    time.Duration

	mu         sync.Mutex
	state      State
	profile    profile.Profile
	stopTimer  *time.Timer
	planRecord *postgres.PlanRecord
}

func NewSession(args SessionConnectProps) *Session {
	grace := args.GraceDelay
	if grace == 0 {
		grace = defaultGraceDelay
	}
	return &Session{
		logger:   args.Logger,
		userID:   args.UserID,
		planner:  args.Planner,
		notifier: args.Notifier,
		call:     args.Call,
		grace:    grace,
		state:    StateCollecting,
	}
}

// State returns the current conversation state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// CurrentProfile returns a copy of the profile collected so far.
func (s *Session) CurrentProfile() profile.Profile {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.profile
}

// Plan returns the stored plan record once the session has completed.
func (s *Session) Plan() *postgres.PlanRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.planRecord
}

// SubmitTranscript feeds one finalized utterance into the session. Only
// user utterances carry profile information; assistant turns are ignored.
// When the ninth field lands the session becomes ready-full and the voice
// transport is asked to end the call after a short grace delay.
func (s *Session) SubmitTranscript(ctx context.Context, text, role string) {
	tracer := otel.Tracer("conversation/SubmitTranscript")
	ctx, span := tracer.Start(ctx, "SubmitTranscript")
	defer span.End()

	if role != "user" {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateCollecting {
		return
	}

	before := s.profile.CompletionCount()
	s.profile = extract.Extract(s.profile, text)
	count := s.profile.CompletionCount()

	span.SetAttributes(
		attribute.Int("profile.fields.before", before),
		attribute.Int("profile.fields.after", count),
	)
	if count != before {
		s.logger.Logger(ctx).Info("[Conversation] Profile fields extracted",
			zap.String("user_id", s.userID),
			zap.Int("fields_collected", count),
			zap.Strings("missing", s.profile.MissingFields()))
	}

	if count >= profile.FullCompletion {
		s.state = StateReadyFull
		s.logger.Logger(ctx).Info("[Conversation] All fields collected, ending call",
			zap.String("user_id", s.userID))
		if s.call != nil {
			call := s.call
			s.stopTimer = time.AfterFunc(s.grace, func() {
				call.Stop(context.Background())
			})
		}
	}
}

// OnConversationEnd handles the externally signaled end of the
// conversation. With at least the partial threshold collected it runs the
// request gate and plan generation to completion; otherwise the session
// ends incomplete and the user is told which fields are still missing.
func (s *Session) OnConversationEnd(ctx context.Context) {
	tracer := otel.Tracer("conversation/OnConversationEnd")
	ctx, span := tracer.Start(ctx, "OnConversationEnd")
	defer span.End()

	s.mu.Lock()

	if s.state != StateCollecting && s.state != StateReadyFull {
		s.mu.Unlock()
		return
	}
	if s.stopTimer != nil {
		s.stopTimer.Stop()
		s.stopTimer = nil
	}

	count := s.profile.CompletionCount()
	span.SetAttributes(attribute.Int("profile.fields", count))

	var mode plan.GateMode
	switch {
	case count >= profile.FullCompletion:
		s.state = StateReadyFull
		mode = plan.GateModeFull
	case count >= profile.PartialCompletion:
		s.state = StateReadyPartial
		mode = plan.GateModePartial
	default:
		s.state = StateEndedIncomplete
		missing := s.profile.MissingFields()
		s.mu.Unlock()

		s.logger.Logger(ctx).Info("[Conversation] Ended incomplete",
			zap.String("user_id", s.userID),
			zap.Int("fields_collected", count))
		s.notifier.Notify(ctx, fmt.Sprintf(
			"The call ended, but I need more information to generate your plan. Currently have %d/%d fields. Missing: %s. You can use the manual form to complete the missing information.",
			count, profile.NumFields, strings.Join(missing, ", ")))
		return
	}

	validated, err := plan.ValidateProfile(s.profile, mode)
	if err != nil {
		s.state = StateFailed
		s.mu.Unlock()
		s.logger.Logger(ctx).Error("[Conversation] Profile failed validation",
			zap.String("user_id", s.userID), zap.Error(err))
		s.notifier.Notify(ctx, "I apologize, but there was an error generating your fitness plan. Please try again.")
		return
	}

	missing := s.profile.MissingFields()
	s.state = StateGenerating
	s.mu.Unlock()

	if mode == plan.GateModePartial {
		s.notifier.Notify(ctx, fmt.Sprintf(
			"Great! I have %d out of %d fields. I'll generate a plan based on what you've provided. Missing: %s",
			count, profile.NumFields, strings.Join(missing, ", ")))
	}

	// Generation runs outside the lock; the generating state keeps a second
	// request from being issued for the same profile.
	record, err := s.planner.Generate(ctx, planner.GenerateProps{
		UserID:  s.userID,
		Profile: validated,
	})

	s.mu.Lock()
	if err != nil {
		s.state = StateFailed
		s.mu.Unlock()
		s.logger.Logger(ctx).Error("[Conversation] Plan generation failed",
			zap.String("user_id", s.userID), zap.Error(err))
		s.notifier.Notify(ctx, "I apologize, but there was an error generating your fitness plan. Please try again.")
		return
	}
	s.state = StateCompleted
	s.planRecord = record
	s.mu.Unlock()

	s.logger.Logger(ctx).Info("[Conversation] Plan generation completed",
		zap.String("user_id", s.userID),
		zap.String("plan_id", record.ID))
	s.notifier.Notify(ctx, "Perfect! I've generated your personalized fitness and diet plan based on the information provided.")
}
