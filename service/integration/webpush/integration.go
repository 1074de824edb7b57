package webpush

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"notibridge/service/config"
	"notibridge/service/delivery"
	"notibridge/service/subscription"

	"github.com/go-chi/chi/v5"
)

type Integration struct {
	handlers *Handlers
	sender   *Sender
}

func NewIntegration(cfg *config.Config, store *subscription.Store, logger *slog.Logger) *Integration {
	client := &http.Client{Timeout: 30 * time.Second}
	return &Integration{
		handlers: NewHandlers(store, cfg.RequireHTTPSPush, logger),
		sender:   NewSender(client, cfg.WebPushTTL, cfg.WebPushSubscriber, logger),
	}
}

func (w *Integration) Channel() subscription.Channel {
	return subscription.ChannelWebPush
}

func (w *Integration) Sender() delivery.NotificationSender {
	return w.sender
}

func (w *Integration) RegisterRoutes(router chi.Router, auth func(http.Handler) http.Handler) {
	RegisterRoutes(router, w.handlers, auth)
}

func (w *Integration) Start(ctx context.Context) {}

func (w *Integration) IsEnabled() bool {
	return true
}

func (w *Integration) Health(ctx context.Context) (bool, string) { return true, "" }

func (w *Integration) Close() error {
	return nil
}
