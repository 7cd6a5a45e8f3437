package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"

	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"codeflexdev/logger"
	"codeflexdev/plan"
)

type DatabaseConnectProps struct {
	Logger *logger.LogMiddleware
}

type Database struct {
	conn   *sql.DB
	logger *logger.LogMiddleware
}

func Connect(ctx context.Context, args DatabaseConnectProps) *Database {
	tracer := otel.Tracer("postgres/Connect")
	ctx, span := tracer.Start(ctx, "Connect")
	defer span.End()

	connectRetries := 5
	var conn *sql.DB
	var err error
	var connStr string

	logger := args.Logger.Logger(ctx)

	for connectRetries > 0 {
		conn, err, connStr = getConnection(ctx)
		if err == nil {
			logger.Info("[Postgres] Database client started")
			break
		}
		connectRetries -= 1
		sleepTime := 5
		logger.Error(
			"[Postgres] Could not connect to Postgres. Retrying after sleeping.",
			zap.Error(err),
			zap.Int("Retries Left", connectRetries),
			zap.Int("Sleep Time", sleepTime),
			zap.String("Connection String", connStr))
		time.Sleep(time.Second * time.Duration(sleepTime))
	}

	if connectRetries <= 0 {
		logger.Error("[Postgres] Failed to Connect to Postgres")
		span.RecordError(fmt.Errorf("failed to connect to Postgres"))
		os.Exit(1)
	}

	db := &Database{conn: conn, logger: args.Logger}
	if err := db.ensureSchema(ctx); err != nil {
		logger.Error("[Postgres] Could not ensure schema", zap.Error(err))
		span.RecordError(err)
		os.Exit(1)
	}

	return db
}

func getConnection(ctx context.Context) (*sql.DB, error, string) {
	tracer := otel.Tracer("postgres/getConnection")
	_, span := tracer.Start(ctx, "getConnection")
	defer span.End()

	host := os.Getenv("POSTGRES_DB_HOST")
	port := os.Getenv("POSTGRES_DB_PORT")
	user := os.Getenv("POSTGRES_DB_USER")
	password := os.Getenv("POSTGRES_DB_PASS")
	dbname := os.Getenv("POSTGRES_DB_NAME")

	sslMode := "disable"

	postgresqlDbInfo := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		host, port, user, password, dbname, sslMode,
	)

	db, err := sql.Open("postgres", postgresqlDbInfo)
	if err != nil {
		span.RecordError(err)
		return nil, err, postgresqlDbInfo
	}
	err = db.Ping()
	if err != nil {
		span.RecordError(err)
		return nil, err, postgresqlDbInfo
	}

	return db, nil, ""
}

func (d *Database) ensureSchema(ctx context.Context) error {
	_, err := d.conn.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS plans (
			id UUID PRIMARY KEY,
			user_id TEXT NOT NULL,
			name TEXT NOT NULL,
			workout_plan JSONB NOT NULL,
			diet_plan JSONB NOT NULL,
			is_active BOOLEAN NOT NULL DEFAULT TRUE,
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		);
		CREATE INDEX IF NOT EXISTS plans_user_active_idx ON plans (user_id, is_active, created_at DESC);
	`)
	return err
}

// PlanRecord is one persisted fitness plan document.
type PlanRecord struct {
	ID          string           `json:"id"`
	UserID      string           `json:"userId"`
	Name        string           `json:"name"`
	WorkoutPlan plan.WorkoutPlan `json:"workoutPlan"`
	DietPlan    plan.DietPlan    `json:"dietPlan"`
	IsActive    bool             `json:"isActive"`
	CreatedAt   time.Time        `json:"createdAt"`
	UpdatedAt   time.Time        `json:"updatedAt"`
}

type SavePlanProps struct {
	UserID      string
	Name        string
	WorkoutPlan plan.WorkoutPlan
	DietPlan    plan.DietPlan
}

// SavePlan inserts a generated plan as an active document with a generated
// identifier and returns the stored record.
func (d *Database) SavePlan(ctx context.Context, args SavePlanProps) (*PlanRecord, error) {
	tracer := otel.Tracer("postgres/SavePlan")
	ctx, span := tracer.Start(ctx, "SavePlan")
	defer span.End()

	workoutJSON, err := json.Marshal(args.WorkoutPlan)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("could not encode workout plan: %w", err)
	}
	dietJSON, err := json.Marshal(args.DietPlan)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("could not encode diet plan: %w", err)
	}

	now := time.Now().UTC()
	record := &PlanRecord{
		ID:          uuid.New().String(),
		UserID:      args.UserID,
		Name:        args.Name,
		WorkoutPlan: args.WorkoutPlan,
		DietPlan:    args.DietPlan,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	_, err = d.conn.ExecContext(ctx, `
		INSERT INTO plans (id, user_id, name, workout_plan, diet_plan, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		record.ID, record.UserID, record.Name, workoutJSON, dietJSON, record.IsActive, record.CreatedAt, record.UpdatedAt,
	)
	if err != nil {
		d.logger.Logger(ctx).Error(
			"[Postgres] Could not save plan",
			zap.Error(err),
			zap.String("user_id", args.UserID),
		)
		span.RecordError(err)
		return nil, fmt.Errorf("could not save plan")
	}

	d.logger.Logger(ctx).Info("[Postgres] Plan saved",
		zap.String("plan_id", record.ID),
		zap.String("user_id", args.UserID))
	return record, nil
}

// ListActivePlans returns the user's active plans, newest first.
func (d *Database) ListActivePlans(ctx context.Context, userID string) ([]PlanRecord, error) {
	tracer := otel.Tracer("postgres/ListActivePlans")
	ctx, span := tracer.Start(ctx, "ListActivePlans")
	defer span.End()

	rows, err := d.conn.QueryContext(ctx, `
		SELECT id, user_id, name, workout_plan, diet_plan, is_active, created_at, updated_at
		FROM plans
		WHERE user_id = $1 AND is_active = TRUE
		ORDER BY created_at DESC`,
		userID,
	)
	if err != nil {
		d.logger.Logger(ctx).Error(
			"[Postgres] Could not list plans",
			zap.Error(err),
			zap.String("user_id", userID),
		)
		span.RecordError(err)
		return nil, fmt.Errorf("could not list plans")
	}
	defer rows.Close()

	plans := []PlanRecord{}
	for rows.Next() {
		var record PlanRecord
		var workoutJSON, dietJSON []byte
		if err := rows.Scan(&record.ID, &record.UserID, &record.Name, &workoutJSON, &dietJSON,
			&record.IsActive, &record.CreatedAt, &record.UpdatedAt); err != nil {
			span.RecordError(err)
			return nil, fmt.Errorf("could not scan plan row")
		}
		if err := json.Unmarshal(workoutJSON, &record.WorkoutPlan); err != nil {
			span.RecordError(err)
			return nil, fmt.Errorf("could not decode workout plan")
		}
		if err := json.Unmarshal(dietJSON, &record.DietPlan); err != nil {
			span.RecordError(err)
			return nil, fmt.Errorf("could not decode diet plan")
		}
		plans = append(plans, record)
	}

	return plans, rows.Err()
}
