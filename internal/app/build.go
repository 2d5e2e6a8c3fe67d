package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/tomascufaro/whatsup-assistant/internal/agent"
	"github.com/tomascufaro/whatsup-assistant/internal/channel"
	"github.com/tomascufaro/whatsup-assistant/internal/config"
	"github.com/tomascufaro/whatsup-assistant/internal/httpapi"
	"github.com/tomascufaro/whatsup-assistant/internal/memory"
	"github.com/tomascufaro/whatsup-assistant/internal/modal"
	"github.com/tomascufaro/whatsup-assistant/internal/observability"
	"github.com/tomascufaro/whatsup-assistant/internal/tools"
)

type BuildResult struct {
	Config  config.Config
	API     *httpapi.Server
	Agent   *agent.Agent
	Store   *memory.Store
	Metrics *observability.Metrics

	// Cleanup should be called on shutdown to release external resources (DB pools, etc).
	Cleanup func() error
}

func Build(ctx context.Context, cfg config.Config, logger zerolog.Logger) (*BuildResult, error) {
	metrics := observability.NewMetrics(cfg.MetricsNamespace)

	store := memory.NewStore(cfg.MemoryDir, cfg.MemoryMaxTurns, logger,
		memory.WithCorruptRecordHook(func() {
			metrics.CorruptRecords.Inc()
		}),
	)
	if store.Mode() == memory.ModeDurable {
		metrics.MemoryMode.Set(1)
	} else {
		metrics.MemoryMode.Set(0)
	}

	model, err := modal.NewClient(modal.Config{
		Mode:        cfg.ModelMode,
		EndpointURL: cfg.ModelEndpointURL,
		APIKey:      cfg.ModelAPIKey,
		Model:       cfg.ModelName,
	})
	if err != nil {
		return nil, fmt.Errorf("model client init failed: %w", err)
	}

	registry, err := tools.NewRegistry(ctx, cfg.DatabaseURL, cfg.ClientsCSVPath)
	if err != nil {
		return nil, fmt.Errorf("client registry init failed: %w", err)
	}

	calendar, err := tools.NewCalendar(cfg.CalendarPath)
	if err != nil {
		_ = registry.Close()
		return nil, fmt.Errorf("calendar init failed: %w", err)
	}

	mailer := tools.NewMailer(tools.SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     cfg.SMTPFrom,
	})

	executor := tools.NewExecutor(registry, mailer, calendar)
	assistant := agent.New(store, model, executor, metrics, logger)

	var meta httpapi.MetaReplier
	if strings.EqualFold(cfg.ChannelProvider, "meta") && cfg.MetaAccessToken != "" {
		meta = channel.NewMetaSender(channel.MetaConfig{
			AccessToken:   cfg.MetaAccessToken,
			PhoneNumberID: cfg.MetaPhoneNumberID,
		})
	}

	api := httpapi.New(cfg, assistant, store, meta, metrics, logger)

	return &BuildResult{
		Config:  cfg,
		API:     api,
		Agent:   assistant,
		Store:   store,
		Metrics: metrics,
		Cleanup: func() error {
			return registry.Close()
		},
	}, nil
}
