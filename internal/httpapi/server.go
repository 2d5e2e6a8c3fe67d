package httpapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/tomascufaro/whatsup-assistant/internal/channel"
	"github.com/tomascufaro/whatsup-assistant/internal/config"
	"github.com/tomascufaro/whatsup-assistant/internal/memory"
	"github.com/tomascufaro/whatsup-assistant/internal/observability"
	"github.com/tomascufaro/whatsup-assistant/internal/policy"
)

// Assistant produces a reply for one inbound message in a conversation.
type Assistant interface {
	HandleMessage(ctx context.Context, conversationID, text string) (string, error)
}

// MetaReplier sends an outbound text over the Meta WhatsApp Cloud API.
type MetaReplier interface {
	SendText(ctx context.Context, to, body string) error
}

type Server struct {
	cfg       config.Config
	assistant Assistant
	store     *memory.Store
	meta      MetaReplier
	metrics   *observability.Metrics
	logger    zerolog.Logger
	upgrader  websocket.Upgrader
}

func New(cfg config.Config, assistant Assistant, store *memory.Store, meta MetaReplier, metrics *observability.Metrics, logger zerolog.Logger) *Server {
	return &Server{
		cfg:       cfg,
		assistant: assistant,
		store:     store,
		meta:      meta,
		metrics:   metrics,
		logger:    logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				// Only allow browser websocket connections from the same origin,
				// so other websites cannot drive the dev chat console.
				if cfg.AllowAnyOrigin {
					return true
				}
				origin := strings.TrimSpace(r.Header.Get("Origin"))
				if origin == "" {
					// Non-browser clients often omit Origin. Allow them.
					return true
				}
				u, err := url.Parse(origin)
				if err != nil {
					return false
				}
				if u.Scheme != "http" && u.Scheme != "https" {
					return false
				}
				return strings.EqualFold(u.Host, r.Host)
			},
		},
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		observability.MetricsHandler().ServeHTTP(w, r)
	})

	r.Post("/webhook/whatsapp", s.handleTwilioWebhook)
	r.Get("/webhook/meta", s.handleMetaVerify)
	r.Post("/webhook/meta", s.handleMetaWebhook)
	r.Get("/v1/chat/ws", s.handleChatWS)

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status":      "ok",
		"memory_mode": string(s.store.Mode()),
	})
}

func (s *Server) handleReady(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status":      "ready",
		"memory_mode": string(s.store.Mode()),
	})
}

// handleTwilioWebhook answers an inbound Twilio WhatsApp message with inline
// TwiML. Twilio retries non-2xx responses, so failures still return an empty
// 200 reply rather than surface an error to the caller.
func (s *Server) handleTwilioWebhook(w http.ResponseWriter, r *http.Request) {
	requestID := uuid.NewString()
	if err := r.ParseForm(); err != nil {
		s.metrics.WebhookMessages.WithLabelValues("twilio", "rejected").Inc()
		respondTwiML(w, "")
		return
	}

	inbound, ok := channel.ParseTwilioForm(r.PostForm)
	if !ok {
		s.metrics.WebhookMessages.WithLabelValues("twilio", "ignored").Inc()
		respondTwiML(w, "")
		return
	}

	logger := s.logger.With().
		Str("request_id", requestID).
		Str("provider", "twilio").
		Str("message_id", inbound.MessageID).
		Logger()
	logger.Info().Str("body", policy.Preview(inbound.Body, 80)).Msg("inbound message")

	reply, err := s.assistant.HandleMessage(r.Context(), inbound.From, inbound.Body)
	if err != nil {
		logger.Error().Err(err).Msg("handle message")
		s.metrics.WebhookMessages.WithLabelValues("twilio", "error").Inc()
		respondTwiML(w, "")
		return
	}

	s.metrics.WebhookMessages.WithLabelValues("twilio", "ok").Inc()
	respondTwiML(w, reply)
}

// handleMetaVerify answers the webhook subscription challenge issued by the
// Meta app dashboard.
func (s *Server) handleMetaVerify(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if q.Get("hub.mode") == "subscribe" && q.Get("hub.verify_token") == s.cfg.MetaVerifyToken && s.cfg.MetaVerifyToken != "" {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(q.Get("hub.challenge")))
		return
	}
	http.Error(w, "verification failed", http.StatusForbidden)
}

func (s *Server) handleMetaWebhook(w http.ResponseWriter, r *http.Request) {
	requestID := uuid.NewString()
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		s.metrics.WebhookMessages.WithLabelValues("meta", "rejected").Inc()
		respondJSON(w, http.StatusOK, map[string]string{"status": "received"})
		return
	}

	inbound, ok := channel.ParseMetaPayload(body)
	if !ok {
		// Delivery receipts and other non-message notifications land here.
		s.metrics.WebhookMessages.WithLabelValues("meta", "ignored").Inc()
		respondJSON(w, http.StatusOK, map[string]string{"status": "received"})
		return
	}

	logger := s.logger.With().
		Str("request_id", requestID).
		Str("provider", "meta").
		Str("message_id", inbound.MessageID).
		Logger()
	logger.Info().Str("body", policy.Preview(inbound.Body, 80)).Msg("inbound message")

	reply, err := s.assistant.HandleMessage(r.Context(), inbound.From, inbound.Body)
	if err != nil {
		logger.Error().Err(err).Msg("handle message")
		s.metrics.WebhookMessages.WithLabelValues("meta", "error").Inc()
		respondJSON(w, http.StatusOK, map[string]string{"status": "received"})
		return
	}

	if s.meta != nil && reply != "" {
		ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
		defer cancel()
		if err := s.meta.SendText(ctx, inbound.From, reply); err != nil {
			logger.Error().Err(err).Msg("send reply")
			s.metrics.WebhookMessages.WithLabelValues("meta", "error").Inc()
			respondJSON(w, http.StatusOK, map[string]string{"status": "received"})
			return
		}
	}

	s.metrics.WebhookMessages.WithLabelValues("meta", "ok").Inc()
	respondJSON(w, http.StatusOK, map[string]string{"status": "received"})
}

func respondTwiML(w http.ResponseWriter, body string) {
	w.Header().Set("Content-Type", "application/xml")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(channel.TwiML(body))
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
