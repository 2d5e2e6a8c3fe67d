package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomascufaro/whatsup-assistant/internal/memory"
	"github.com/tomascufaro/whatsup-assistant/internal/modal"
	"github.com/tomascufaro/whatsup-assistant/internal/observability"
	"github.com/tomascufaro/whatsup-assistant/internal/tools"
)

const (
	// ResetToken clears a conversation's memory when received as the whole
	// message, case-insensitively. It is never forwarded to the model.
	ResetToken = "reset"

	// ResetConfirmation is the fixed reply after a successful reset.
	ResetConfirmation = "Listo, borré nuestra conversación. Empecemos de nuevo."

	maxToolRounds = 3
)

// Agent turns an inbound message into a reply: reset handling, context
// replay, model completion, tool rounds and memory recording.
type Agent struct {
	store    *memory.Store
	model    modal.Client
	executor *tools.Executor
	metrics  *observability.Metrics
	logger   zerolog.Logger

	maxTokens   int
	temperature float64
}

func New(store *memory.Store, model modal.Client, executor *tools.Executor, metrics *observability.Metrics, logger zerolog.Logger) *Agent {
	return &Agent{
		store:       store,
		model:       model,
		executor:    executor,
		metrics:     metrics,
		logger:      logger,
		maxTokens:   500,
		temperature: 0.7,
	}
}

// HandleMessage produces the assistant's reply for one inbound message. A
// failed memory write never suppresses the reply; the error is logged and
// counted, and context falls back to the last committed history.
func (a *Agent) HandleMessage(ctx context.Context, conversationID, text string) (string, error) {
	trimmed := strings.TrimSpace(text)

	if strings.EqualFold(trimmed, ResetToken) {
		if err := a.store.Clear(conversationID); err != nil {
			return "", fmt.Errorf("reset conversation: %w", err)
		}
		a.metrics.ResetCommands.Inc()
		return ResetConfirmation, nil
	}

	msgs := make([]memory.Message, 0, a.store.MaxTurns()+2)
	msgs = append(msgs, memory.Message{Role: memory.RoleSystem, Content: systemPrompt})
	msgs = append(msgs, a.store.BuildContext(conversationID)...)
	msgs = append(msgs, memory.Message{Role: memory.RoleUser, Content: trimmed})

	reply, err := a.generate(ctx, msgs)
	if err != nil {
		return "", err
	}

	if err := a.store.RecordTurn(conversationID, trimmed, reply); err != nil {
		a.metrics.MemoryWriteFailures.Inc()
		a.logger.Error().Err(err).
			Str("conversation", memory.SanitizeID(conversationID)).
			Msg("record turn failed, replying without persisted memory")
	}
	return reply, nil
}

// generate runs the completion, executing tool directives until the model
// produces a plain text reply.
func (a *Agent) generate(ctx context.Context, msgs []memory.Message) (string, error) {
	for round := 0; round < maxToolRounds; round++ {
		start := time.Now()
		res, err := a.model.Generate(ctx, modal.Request{
			Messages:    msgs,
			MaxTokens:   a.maxTokens,
			Temperature: a.temperature,
		})
		a.metrics.ObserveModelLatency(time.Since(start))
		if err != nil {
			return "", fmt.Errorf("model generate: %w", err)
		}

		req, ok := tools.ParseDirective(res.Text)
		if !ok {
			return res.Text, nil
		}

		result, err := a.executor.Execute(ctx, req)
		if err != nil {
			a.metrics.ToolCalls.WithLabelValues(string(req.Kind), "error").Inc()
			a.logger.Warn().Err(err).Str("tool", string(req.Kind)).Msg("tool execution failed")
			result = "Error: " + err.Error()
		} else {
			a.metrics.ToolCalls.WithLabelValues(string(req.Kind), "ok").Inc()
		}

		msgs = append(msgs,
			memory.Message{Role: memory.RoleAssistant, Content: res.Text},
			memory.Message{Role: memory.RoleUser, Content: "Resultado de la herramienta: " + result + "\nResponde al usuario en español con este resultado."},
		)
	}
	return "", errors.New("tool loop exceeded maximum rounds")
}
