package httpapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

type chatRequest struct {
	Text string `json:"text"`
}

type chatResponse struct {
	Reply string `json:"reply,omitempty"`
	Error string `json:"error,omitempty"`
}

// handleChatWS exposes the assistant over a websocket for local development,
// without needing a tunnel back to Twilio or Meta. Each connection gets its
// own conversation id, so histories from different browser tabs stay apart.
func (s *Server) handleChatWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	conversationID := "ws:" + uuid.NewString()
	logger := s.logger.With().Str("conversation_id", conversationID).Logger()
	logger.Info().Msg("chat websocket connected")

	conn.SetReadLimit(64 << 10)
	for {
		var req chatRequest
		if err := conn.ReadJSON(&req); err != nil {
			break
		}
		if strings.TrimSpace(req.Text) == "" {
			continue
		}

		reply, err := s.assistant.HandleMessage(r.Context(), conversationID, req.Text)
		resp := chatResponse{Reply: reply}
		if err != nil {
			logger.Error().Err(err).Msg("handle message")
			resp = chatResponse{Error: "assistant unavailable"}
		}

		_ = conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
		if err := conn.WriteJSON(resp); err != nil {
			break
		}
	}

	logger.Info().Msg("chat websocket disconnected")
}
