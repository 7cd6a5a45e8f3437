package telegram

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"codeflexdev/conversation"
	"codeflexdev/database/postgres"
	"codeflexdev/logger"
	"codeflexdev/planner"
	"codeflexdev/profile"
)

type TelegramConnectProps struct {
	Logger  *logger.LogMiddleware
	Planner *planner.Planner
	DB      *postgres.Database
}

// Telegram is the text chat surface of the coach: each chat runs its own
// conversation session, plain messages are treated as user transcripts and
// /done stands in for the call ending.
type Telegram struct {
	logger  *logger.LogMiddleware
	bot     *tgbotapi.BotAPI
	planner *planner.Planner
	db      *postgres.Database

	mu       sync.Mutex
	sessions map[int64]*conversation.Session
}

func Connect(ctx context.Context, args TelegramConnectProps) *Telegram {
	tracer := otel.Tracer("telegram/Connect")
	ctx, span := tracer.Start(ctx, "Connect")
	defer span.End()

	botToken := os.Getenv("TELEGRAM_BOT_TOKEN")
	if botToken == "" {
		args.Logger.Logger(ctx).Fatal("TELEGRAM_BOT_TOKEN environment variable not set")
	}

	bot, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		args.Logger.Logger(ctx).Fatal("Failed to create Telegram bot", zap.Error(err))
	}

	debug := os.Getenv("TELEGRAM_DEBUG") == "true"
	bot.Debug = debug

	span.SetAttributes(
		attribute.String("bot.username", bot.Self.UserName),
		attribute.Bool("bot.debug", debug),
	)

	args.Logger.Logger(ctx).Info("[Telegram] Bot connected",
		zap.String("username", bot.Self.UserName),
		zap.Bool("debug", debug),
	)

	return &Telegram{
		logger:   args.Logger,
		bot:      bot,
		planner:  args.Planner,
		db:       args.DB,
		sessions: make(map[int64]*conversation.Session),
	}
}

func (t *Telegram) Listen(ctx context.Context) {
	tracer := otel.Tracer("telegram/Listen")
	ctx, span := tracer.Start(ctx, "Listen")
	defer span.End()

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := t.bot.GetUpdatesChan(u)

	t.logger.Logger(ctx).Info("[Telegram] Starting message listener")

	for {
		select {
		case <-ctx.Done():
			t.logger.Logger(ctx).Info("[Telegram] Shutting down listener")
			return
		case update := <-updates:
			t.handleUpdate(ctx, update)
		}
	}
}

func (t *Telegram) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	tracer := otel.Tracer("telegram/handleUpdate")
	ctx, span := tracer.Start(ctx, "handleUpdate")
	defer span.End()

	if update.Message != nil {
		t.handleMessage(ctx, update.Message)
	}
}

func (t *Telegram) handleMessage(ctx context.Context, message *tgbotapi.Message) {
	tracer := otel.Tracer("telegram/handleMessage")
	ctx, span := tracer.Start(ctx, "handleMessage")
	defer span.End()

	if message.From == nil || message.Text == "" {
		return
	}

	user := message.From
	chatID := message.Chat.ID
	span.SetAttributes(
		attribute.Int64("user.id", user.ID),
		attribute.String("user.username", user.UserName),
	)

	t.logger.Logger(ctx).Info("[Telegram] Received message",
		zap.Int64("user_id", user.ID),
		zap.String("username", user.UserName),
		zap.String("text", message.Text),
	)

	switch message.Command() {
	case "start":
		t.startSession(ctx, chatID, user.ID)
		t.send(ctx, chatID, fmt.Sprintf(
			"Hi! I'm your fitness coach. Tell me about yourself — your %s — and I'll put together a workout and diet plan. Send /done when you're finished.",
			strings.Join(profile.FieldNames(), ", ")))
		return
	case "done":
		session := t.session(chatID)
		if session == nil {
			t.send(ctx, chatID, "No conversation in progress. Send /start to begin.")
			return
		}
		session.OnConversationEnd(ctx)
		if record := session.Plan(); record != nil {
			t.send(ctx, chatID, formatPlan(record))
		}
		return
	case "plans":
		t.listPlans(ctx, chatID, user.ID)
		return
	}

	session := t.session(chatID)
	if session == nil {
		t.send(ctx, chatID, "Send /start to begin a new coaching conversation.")
		return
	}

	session.SubmitTranscript(ctx, message.Text, "user")
	if session.State() == conversation.StateReadyFull {
		session.OnConversationEnd(ctx)
		if record := session.Plan(); record != nil {
			t.send(ctx, chatID, formatPlan(record))
		}
	}
}

func (t *Telegram) startSession(ctx context.Context, chatID, userID int64) {
	session := conversation.NewSession(conversation.SessionConnectProps{
		Logger:   t.logger,
		UserID:   fmt.Sprintf("telegram:%d", userID),
		Planner:  t.planner,
		Notifier: &chatNotifier{telegram: t, chatID: chatID},
	})

	t.mu.Lock()
	t.sessions[chatID] = session
	t.mu.Unlock()
}

func (t *Telegram) session(chatID int64) *conversation.Session {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.sessions[chatID]
}

func (t *Telegram) listPlans(ctx context.Context, chatID, userID int64) {
	plans, err := t.db.ListActivePlans(ctx, fmt.Sprintf("telegram:%d", userID))
	if err != nil {
		t.send(ctx, chatID, "Could not fetch your plans right now.")
		return
	}
	if len(plans) == 0 {
		t.send(ctx, chatID, "You have no saved plans yet. Send /start to create one.")
		return
	}
	var b strings.Builder
	b.WriteString("Your plans, newest first:\n")
	for _, record := range plans {
		fmt.Fprintf(&b, "• %s (%s)\n", record.Name, record.CreatedAt.Format("Jan 2, 2006"))
	}
	t.send(ctx, chatID, b.String())
}

func (t *Telegram) send(ctx context.Context, chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := t.bot.Send(msg); err != nil {
		t.logger.Logger(ctx).Error("[Telegram] Failed to send message", zap.Error(err))
	}
}

// chatNotifier delivers session messages into the Telegram chat.
type chatNotifier struct {
	telegram *Telegram
	chatID   int64
}

func (n *chatNotifier) Notify(ctx context.Context, text string) {
	n.telegram.send(ctx, n.chatID, text)
}

func formatPlan(record *postgres.PlanRecord) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n\n", record.Name)

	fmt.Fprintf(&b, "Workout schedule: %s\n", strings.Join(record.WorkoutPlan.Schedule, ", "))
	for _, day := range record.WorkoutPlan.Exercises {
		fmt.Fprintf(&b, "\n%s:\n", day.Day)
		for _, routine := range day.Routines {
			fmt.Fprintf(&b, "  • %s — %d sets x %d reps", routine.Name, routine.Sets, routine.Reps)
			if routine.Duration != "" {
				fmt.Fprintf(&b, " (%s)", routine.Duration)
			}
			b.WriteString("\n")
		}
	}

	fmt.Fprintf(&b, "\nDaily calories: %d\n", record.DietPlan.DailyCalories)
	for _, meal := range record.DietPlan.Meals {
		fmt.Fprintf(&b, "%s: %s\n", meal.Name, strings.Join(meal.Foods, ", "))
	}
	return b.String()
}
