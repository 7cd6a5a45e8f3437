package main

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"codeflexdev/conversation"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// voiceEvent is one JSON frame of the voice collaborator's event stream.
// The browser relays the voice SDK events verbatim; only final user
// transcripts and call lifecycle events carry meaning for the session.
type voiceEvent struct {
	Type           string `json:"type"`
	TranscriptType string `json:"transcriptType,omitempty"`
	Transcript     string `json:"transcript,omitempty"`
	Role           string `json:"role,omitempty"`
	Message        string `json:"message,omitempty"`
	Code           string `json:"code,omitempty"`
}

// wsConn serializes writes; session notifications and the grace-delay stop
// instruction arrive from different goroutines.
type wsConn struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (c *wsConn) writeJSON(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteJSON(v)
}

type wsNotifier struct {
	conn *wsConn
}

func (n *wsNotifier) Notify(_ context.Context, text string) {
	n.conn.writeJSON(map[string]string{"type": "assistant-message", "content": text})
}

type wsCallControl struct {
	conn *wsConn
}

func (c *wsCallControl) Stop(_ context.Context) {
	c.conn.writeJSON(map[string]string{"type": "stop"})
}

// handleVoiceSession runs one voice conversation over a websocket. Text
// frames are voice SDK events; binary frames are raw audio utterances that
// are transcribed server side before entering the session.
func (s *server) handleVoiceSession(w http.ResponseWriter, r *http.Request) {
	tracer := otel.Tracer("server/handleVoiceSession")
	ctx, span := tracer.Start(r.Context(), "handleVoiceSession")
	defer span.End()

	userID := r.URL.Query().Get("userId")
	if userID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "error": "User ID is required"})
		return
	}
	span.SetAttributes(attribute.String("user.id", userID))

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		span.RecordError(err)
		s.logger.Logger(ctx).Error("[Voice] Failed to upgrade to websocket",
			zap.Error(err), zap.String("user_id", userID))
		return
	}
	defer conn.Close()

	wrapped := &wsConn{conn: conn}
	session := conversation.NewSession(conversation.SessionConnectProps{
		Logger:   s.logger,
		UserID:   userID,
		Planner:  s.planner,
		Notifier: &wsNotifier{conn: wrapped},
		Call:     &wsCallControl{conn: wrapped},
	})

	s.logger.Logger(ctx).Info("[Voice] Session started", zap.String("user_id", userID))

	for {
		messageType, data, err := conn.ReadMessage()
		if err != nil {
			// Dropped connection counts as the call ending.
			s.logger.Logger(ctx).Info("[Voice] Connection closed",
				zap.String("user_id", userID), zap.Error(err))
			session.OnConversationEnd(ctx)
			return
		}

		if messageType == websocket.BinaryMessage {
			transcript, err := s.deepgram.Transcribe(ctx, data)
			if err != nil {
				s.logger.Logger(ctx).Warn("[Voice] Could not transcribe utterance",
					zap.Error(err), zap.String("user_id", userID))
				continue
			}
			wrapped.writeJSON(voiceEvent{Type: "transcript", TranscriptType: "final", Transcript: transcript, Role: "user"})
			session.SubmitTranscript(ctx, transcript, "user")
			continue
		}

		var event voiceEvent
		if err := json.Unmarshal(data, &event); err != nil {
			s.logger.Logger(ctx).Warn("[Voice] Discarding malformed event",
				zap.Error(err), zap.String("user_id", userID))
			continue
		}

		switch event.Type {
		case "call-start", "speech-start", "speech-end":
			// Lifecycle noise; nothing for the session to do.
		case "transcript", "message":
			if event.TranscriptType == "final" {
				session.SubmitTranscript(ctx, event.Transcript, event.Role)
			}
		case "error":
			s.logger.Logger(ctx).Warn("[Voice] Voice SDK reported an error",
				zap.String("user_id", userID),
				zap.String("message", event.Message),
				zap.String("code", event.Code))
		case "call-end":
			session.OnConversationEnd(ctx)
			if record := session.Plan(); record != nil {
				wrapped.writeJSON(map[string]any{"type": "plan", "plan": record})
			}
			return
		}
	}
}
