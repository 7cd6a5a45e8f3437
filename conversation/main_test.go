package conversation

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"codeflexdev/database/postgres"
	"codeflexdev/logger"
	"codeflexdev/plan"
	"codeflexdev/planner"
	"codeflexdev/profile"
)

// Transcripts that fill all nine profile fields, one per utterance, in
// collection order.
var fullTranscripts = []string{
	"I am 30 years old",
	"I am 5 foot 8 inches tall",
	"I weigh 70 kg",
	"I'm a beginner",
	"I want to lose weight",
	"I can work out 3 days a week",
	"no injuries",
	"I'm vegetarian",
	"moderately active",
}

type fakePlanner struct {
	mu     sync.Mutex
	calls  int
	got    planner.GenerateProps
	record *postgres.PlanRecord
	err    error
}

func (f *fakePlanner) Generate(_ context.Context, args planner.GenerateProps) (*postgres.PlanRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.got = args
	if f.err != nil {
		return nil, f.err
	}
	return f.record, nil
}

type fakeNotifier struct {
	mu       sync.Mutex
	messages []string
}

func (f *fakeNotifier) Notify(_ context.Context, text string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = append(f.messages, text)
}

func (f *fakeNotifier) all() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.messages...)
}

type fakeCall struct {
	stopped chan struct{}
}

func (f *fakeCall) Stop(context.Context) {
	close(f.stopped)
}

func newTestSession(p *fakePlanner, n *fakeNotifier, call CallControl) *Session {
	return NewSession(SessionConnectProps{
		Logger:     logger.Connect(logger.LoggerConnectProps{}),
		UserID:     "user-1",
		Planner:    p,
		Notifier:   n,
		Call:       call,
		GraceDelay: 5 * time.Millisecond,
	})
}

func TestSessionBecomesReadyFullOnNinthField(t *testing.T) {
	ctx := context.Background()
	fp := &fakePlanner{record: &postgres.PlanRecord{ID: "plan-1"}}
	fn := &fakeNotifier{}
	call := &fakeCall{stopped: make(chan struct{})}
	session := newTestSession(fp, fn, call)

	for i, text := range fullTranscripts {
		session.SubmitTranscript(ctx, text, "user")
		if i < len(fullTranscripts)-1 && session.State() != StateCollecting {
			t.Fatalf("after %d transcripts state is %q", i+1, session.State())
		}
	}

	if session.State() != StateReadyFull {
		t.Fatalf("expected ready-full, got %q", session.State())
	}
	if !session.CurrentProfile().Complete() {
		t.Errorf("profile not complete: %+v", session.CurrentProfile())
	}

	select {
	case <-call.stopped:
	case <-time.After(time.Second):
		t.Fatal("call was not stopped after the grace delay")
	}
}

func TestSessionIgnoresAssistantTranscripts(t *testing.T) {
	ctx := context.Background()
	session := newTestSession(&fakePlanner{}, &fakeNotifier{}, nil)

	session.SubmitTranscript(ctx, "I am 30 years old", "assistant")
	if got := session.CurrentProfile().Age; got != 0 {
		t.Errorf("assistant transcript set age to %d", got)
	}
}

func TestSessionFullGeneration(t *testing.T) {
	ctx := context.Background()
	fp := &fakePlanner{record: &postgres.PlanRecord{ID: "plan-1"}}
	fn := &fakeNotifier{}
	session := newTestSession(fp, fn, nil)

	for _, text := range fullTranscripts {
		session.SubmitTranscript(ctx, text, "user")
	}
	session.OnConversationEnd(ctx)

	if session.State() != StateCompleted {
		t.Fatalf("expected completed, got %q", session.State())
	}
	if fp.calls != 1 {
		t.Fatalf("expected one generation, got %d", fp.calls)
	}
	if fp.got.UserID != "user-1" {
		t.Errorf("unexpected user id %q", fp.got.UserID)
	}
	if fp.got.Profile.Age != 30 {
		t.Errorf("expected collected age 30, got %d", fp.got.Profile.Age)
	}
	if session.Plan() == nil || session.Plan().ID != "plan-1" {
		t.Errorf("plan record not stored: %+v", session.Plan())
	}

	messages := fn.all()
	if len(messages) == 0 || !strings.Contains(messages[len(messages)-1], "Perfect!") {
		t.Errorf("completion message missing: %v", messages)
	}
}

func TestSessionPartialGenerationAppliesDefaults(t *testing.T) {
	ctx := context.Background()
	fp := &fakePlanner{record: &postgres.PlanRecord{ID: "plan-2"}}
	fn := &fakeNotifier{}
	session := newTestSession(fp, fn, nil)

	// Everything except age and injuries: seven fields.
	for _, text := range fullTranscripts {
		if text == "I am 30 years old" || text == "no injuries" {
			continue
		}
		session.SubmitTranscript(ctx, text, "user")
	}
	if session.State() != StateCollecting {
		t.Fatalf("expected collecting at 7 fields, got %q", session.State())
	}

	session.OnConversationEnd(ctx)

	if session.State() != StateCompleted {
		t.Fatalf("expected completed, got %q", session.State())
	}
	if fp.got.Profile.Age != plan.DefaultAge {
		t.Errorf("expected default age %d, got %d", plan.DefaultAge, fp.got.Profile.Age)
	}
	if fp.got.Profile.Injuries != plan.DefaultInjuries {
		t.Errorf("expected default injuries %q, got %q", plan.DefaultInjuries, fp.got.Profile.Injuries)
	}

	var partialMessage string
	for _, message := range fn.all() {
		if strings.Contains(message, "Missing:") {
			partialMessage = message
		}
	}
	if partialMessage == "" {
		t.Fatal("partial-mode message not sent")
	}
	if !strings.Contains(partialMessage, "7 out of 9 fields") {
		t.Errorf("unexpected partial message: %q", partialMessage)
	}
	if !strings.Contains(partialMessage, profile.FieldAge) || !strings.Contains(partialMessage, profile.FieldInjuries) {
		t.Errorf("missing fields not named: %q", partialMessage)
	}
}

func TestSessionEndsIncompleteBelowPartialThreshold(t *testing.T) {
	ctx := context.Background()
	fp := &fakePlanner{}
	fn := &fakeNotifier{}
	session := newTestSession(fp, fn, nil)

	for _, text := range fullTranscripts[:3] {
		session.SubmitTranscript(ctx, text, "user")
	}
	session.OnConversationEnd(ctx)

	if session.State() != StateEndedIncomplete {
		t.Fatalf("expected ended-incomplete, got %q", session.State())
	}
	if fp.calls != 0 {
		t.Errorf("generation must not run for an incomplete profile, got %d calls", fp.calls)
	}

	messages := fn.all()
	if len(messages) != 1 {
		t.Fatalf("expected one message, got %v", messages)
	}
	if !strings.Contains(messages[0], "3/9 fields") || !strings.Contains(messages[0], "Missing:") {
		t.Errorf("unexpected incomplete message: %q", messages[0])
	}

	// A second end signal is a no-op.
	session.OnConversationEnd(ctx)
	if len(fn.all()) != 1 {
		t.Error("second end signal sent another message")
	}
}

func TestSessionGenerationFailure(t *testing.T) {
	ctx := context.Background()
	fp := &fakePlanner{err: errors.New("model unavailable")}
	fn := &fakeNotifier{}
	session := newTestSession(fp, fn, nil)

	for _, text := range fullTranscripts {
		session.SubmitTranscript(ctx, text, "user")
	}
	session.OnConversationEnd(ctx)

	if session.State() != StateFailed {
		t.Fatalf("expected failed, got %q", session.State())
	}
	if session.Plan() != nil {
		t.Error("failed session stored a plan record")
	}
	messages := fn.all()
	if len(messages) == 0 || !strings.Contains(messages[len(messages)-1], "error generating your fitness plan") {
		t.Errorf("failure message missing: %v", messages)
	}
}

func TestSessionDoesNotGenerateTwice(t *testing.T) {
	ctx := context.Background()
	fp := &fakePlanner{record: &postgres.PlanRecord{ID: "plan-3"}}
	fn := &fakeNotifier{}
	session := newTestSession(fp, fn, nil)

	for _, text := range fullTranscripts {
		session.SubmitTranscript(ctx, text, "user")
	}
	session.OnConversationEnd(ctx)
	session.OnConversationEnd(ctx)

	if fp.calls != 1 {
		t.Errorf("expected one generation, got %d", fp.calls)
	}
}

func TestSessionIgnoresTranscriptsAfterReady(t *testing.T) {
	ctx := context.Background()
	fp := &fakePlanner{record: &postgres.PlanRecord{ID: "plan-4"}}
	session := newTestSession(fp, &fakeNotifier{}, nil)

	for _, text := range fullTranscripts {
		session.SubmitTranscript(ctx, text, "user")
	}
	before := session.CurrentProfile()

	session.SubmitTranscript(ctx, "actually I am 99 years old", "user")
	if session.CurrentProfile() != before {
		t.Error("transcript after ready-full altered the profile")
	}
}
