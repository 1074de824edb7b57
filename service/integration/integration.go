package integration

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"notibridge/service/config"
	"notibridge/service/delivery"
	"notibridge/service/integration/nats"
	"notibridge/service/integration/telegram"
	"notibridge/service/integration/webpush"
	"notibridge/service/subscription"

	"github.com/go-chi/chi/v5"
)

type Integration interface {
	Channel() subscription.Channel
	Sender() delivery.NotificationSender
	RegisterRoutes(router chi.Router, auth func(http.Handler) http.Handler)
	Start(ctx context.Context)
	IsEnabled() bool
	Health(ctx context.Context) (linked bool, account string)
	Close() error
}

type Integrations struct {
	Publisher    *delivery.Publisher
	integrations []Integration
	logger       *slog.Logger
}

func Initialize(cfg *config.Config, store *subscription.Store, logger *slog.Logger) (*Integrations, error) {
	integrations := []Integration{webpush.NewIntegration(cfg, store, logger)}

	if cfg.IsTelegramEnabled() {
		telegramIntegration, err := telegram.NewIntegration(cfg.TelegramBotToken, store, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize telegram: %w", err)
		}
		integrations = append(integrations, telegramIntegration)
	}

	if cfg.IsNATSEnabled() {
		natsIntegration, err := nats.NewIntegration(cfg.NATSURL, cfg.NATSSubjectPrefix, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize nats: %w", err)
		}
		integrations = append(integrations, natsIntegration)
	}

	return New(store, logger, cfg.DeliveryMaxRetries, integrations...), nil
}

// New wires the given integrations into a publisher.
func New(store *subscription.Store, logger *slog.Logger, maxRetries int, integrations ...Integration) *Integrations {
	publisher := delivery.NewPublisher(store, logger, maxRetries)
	for _, integration := range integrations {
		if integration.IsEnabled() {
			publisher.RegisterSender(integration.Channel(), integration.Sender())
		}
	}

	return &Integrations{
		Publisher:    publisher,
		integrations: integrations,
		logger:       logger,
	}
}

func (i *Integrations) Start(ctx context.Context) {
	for _, integration := range i.integrations {
		if integration.IsEnabled() {
			integration.Start(ctx)
		}
	}
}

func (i *Integrations) RegisterAll(router chi.Router, auth func(http.Handler) http.Handler) {
	for _, integration := range i.integrations {
		if integration.IsEnabled() {
			integration.RegisterRoutes(router, auth)
		}
	}
}

type Status struct {
	Linked  bool   `json:"linked"`
	Account string `json:"account,omitempty"`
}

// Health reports each enabled integration by channel name.
func (i *Integrations) Health(ctx context.Context) map[string]Status {
	statuses := make(map[string]Status, len(i.integrations))
	for _, integration := range i.integrations {
		if !integration.IsEnabled() {
			continue
		}
		linked, account := integration.Health(ctx)
		statuses[integration.Channel().String()] = Status{Linked: linked, Account: account}
	}
	return statuses
}

func (i *Integrations) Close() {
	for _, integration := range i.integrations {
		if err := integration.Close(); err != nil {
			i.logger.Warn("Failed to close integration", "channel", integration.Channel(), "error", err)
		}
	}
}
