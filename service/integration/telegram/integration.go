package telegram

import (
	"context"
	"log/slog"
	"net/http"

	"notibridge/service/delivery"
	"notibridge/service/subscription"

	"github.com/go-chi/chi/v5"
)

type Integration struct {
	client   *Client
	handlers *Handlers
	sender   *Sender
	logger   *slog.Logger
}

func NewIntegration(token string, store *subscription.Store, logger *slog.Logger) (*Integration, error) {
	client, err := NewClient(token)
	if err != nil {
		return nil, err
	}

	return &Integration{
		client:   client,
		handlers: NewHandlers(client, store, logger),
		sender:   NewSender(client, logger),
		logger:   logger,
	}, nil
}

func (t *Integration) Channel() subscription.Channel {
	return subscription.ChannelTelegram
}

func (t *Integration) Sender() delivery.NotificationSender {
	return t.sender
}

func (t *Integration) RegisterRoutes(router chi.Router, auth func(http.Handler) http.Handler) {
	RegisterRoutes(router, t.handlers, auth)
}

func (t *Integration) Start(ctx context.Context) {
	bot, err := t.client.GetMe(ctx)
	if err != nil {
		t.logger.Error("Telegram bot error", "error", err)
		return
	}
	t.logger.Info("Telegram enabled", "bot", bot.Username)
}

func (t *Integration) IsEnabled() bool {
	return t.client != nil
}

func (t *Integration) Health(ctx context.Context) (bool, string) {
	bot, err := t.client.GetMe(ctx)
	if err != nil {
		return false, ""
	}
	return true, "@" + bot.Username
}

func (t *Integration) Close() error {
	return nil
}
