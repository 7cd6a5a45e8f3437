package main

import (
	"context"
	"log"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
	"github.com/rs/cors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/hyperdxio/opentelemetry-logs-go/exporters/otlp/otlplogs"
	sdk "github.com/hyperdxio/opentelemetry-logs-go/sdk/logs"
	"github.com/hyperdxio/otel-config-go/otelconfig"

	"codeflexdev/database/postgres"
	"codeflexdev/logger"
	"codeflexdev/modelapi/deepgramapi"
	"codeflexdev/modelapi/geminiapi"
	"codeflexdev/planner"
	"codeflexdev/telegram"
)

const defaultPort = "8080"

type server struct {
	logger   *logger.LogMiddleware
	db       *postgres.Database
	planner  *planner.Planner
	deepgram *deepgramapi.DeepgramAPI
}

func main() {
	port := os.Getenv("PORT")
	if port == "" {
		port = defaultPort
	}
	godotenv.Load()
	production := os.Getenv("PRODUCTION") != ""

	otelShutdown, err := otelconfig.ConfigureOpenTelemetry()
	if err != nil {
		log.Fatalf("Error setting up OTel SDK - %e", err)
	}
	defer otelShutdown()
	ctx := context.Background()

	logExporter, _ := otlplogs.NewExporter(ctx)
	loggerProvider := sdk.NewLoggerProvider(sdk.WithBatcher(logExporter))
	defer loggerProvider.Shutdown(ctx)

	LogMiddleware := logger.Connect(logger.LoggerConnectProps{Production: production, LoggerProvider: loggerProvider})

	db := postgres.Connect(ctx, postgres.DatabaseConnectProps{Logger: LogMiddleware})
	gemini := geminiapi.Connect(ctx, geminiapi.GeminiConnectProps{Logger: LogMiddleware})
	deepgramClient := deepgramapi.Connect(LogMiddleware)
	plannerClient := planner.Connect(ctx, planner.PlannerConnectProps{
		Logger:    LogMiddleware,
		Generator: gemini,
		Store:     db,
	})

	// The Telegram chat surface is optional; the HTTP and websocket
	// surfaces run regardless.
	if os.Getenv("TELEGRAM_BOT_TOKEN") != "" {
		telegramBot := telegram.Connect(ctx, telegram.TelegramConnectProps{
			Logger:  LogMiddleware,
			Planner: plannerClient,
			DB:      db,
		})
		go telegramBot.Listen(ctx)
	}

	s := &server{
		logger:   LogMiddleware,
		db:       db,
		planner:  plannerClient,
		deepgram: deepgramClient,
	}

	router := chi.NewRouter()
	router.Use(requestLoggerMiddleware(LogMiddleware))
	router.Post("/api/generate-program", s.handleGenerateProgram)
	router.Get("/api/user-plans", s.handleUserPlans)
	router.Get("/ws/generate-program", s.handleVoiceSession)

	handler := cors.AllowAll().Handler(router)

	Logger := LogMiddleware.Logger(ctx)
	if production {
		Logger.Info("[Server] Starting in production mode", zap.String("port", port))
	} else {
		Logger.Info("[Server] Starting in development mode", zap.String("port", port))
	}

	log.Fatal(http.ListenAndServe(":"+port, otelhttp.NewHandler(handler, "server")))
}

func requestLoggerMiddleware(logger *logger.LogMiddleware) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			logger.Logger(ctx).Info("Request Received", zap.String("url", r.URL.Path), zap.String("method", r.Method))
			next.ServeHTTP(w, r)
			logger.Logger(ctx).Info("Request Completed", zap.String("path", r.URL.Path), zap.String("method", r.Method))
		})
	}
}
