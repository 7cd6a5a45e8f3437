package geminiapi

import (
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"

	"codeflexdev/logger"
)

func TestGenerateJSON(t *testing.T) {
	// Live API test; requires a real key.
	apiKey := os.Getenv("GEMINI_SECRET_KEY")
	if apiKey == "" {
		t.Skip("GEMINI_SECRET_KEY environment variable not set, skipping test")
	}

	logMiddleware := logger.Connect(logger.LoggerConnectProps{Production: false})

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	gemini := Connect(ctx, GeminiConnectProps{Logger: logMiddleware})
	defer gemini.Close()

	prompt := `Return a JSON object with exactly one field: {"status": "ok"}`

	response, err := gemini.GenerateJSON(ctx, prompt)
	if err != nil {
		t.Fatalf("GenerateJSON failed: %v", err)
	}
	if response == "" {
		t.Fatal("Expected non-empty response, got empty string")
	}

	// The model is configured for application/json output, so the response
	// should at least be a parseable document.
	var parsed map[string]any
	if err := json.Unmarshal([]byte(response), &parsed); err != nil {
		t.Errorf("Response is not valid JSON: %v\n%s", err, response)
	}

	t.Logf("Response received: %s", response)
}

func TestExponentialBackoff(t *testing.T) {
	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{0, 1 * time.Second},
		{1, 2 * time.Second},
		{2, 4 * time.Second},
	}
	for _, tt := range tests {
		if got := exponentialBackoff(tt.attempt); got != tt.want {
			t.Errorf("attempt %d: expected %v, got %v", tt.attempt, tt.want, got)
		}
	}
}
