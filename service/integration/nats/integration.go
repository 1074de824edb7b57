package nats

import (
	"context"
	"log/slog"
	"net/http"

	"notibridge/service/delivery"
	"notibridge/service/subscription"

	"github.com/go-chi/chi/v5"
)

type Integration struct {
	client *Client
	sender *Sender
	logger *slog.Logger
}

func NewIntegration(url, prefix string, logger *slog.Logger) (*Integration, error) {
	client, err := NewClient(url, logger)
	if err != nil {
		return nil, err
	}

	return &Integration{
		client: client,
		sender: NewSender(client.nc, prefix, logger),
		logger: logger,
	}, nil
}

func (n *Integration) Channel() subscription.Channel {
	return subscription.ChannelNATS
}

func (n *Integration) Sender() delivery.NotificationSender {
	return n.sender
}

// NATS is a broadcast channel and has no subscription routes.
func (n *Integration) RegisterRoutes(router chi.Router, auth func(http.Handler) http.Handler) {}

func (n *Integration) Start(ctx context.Context) {
	n.logger.Info("NATS enabled", "url", n.client.ConnectedURL(), "subjects", n.sender.prefix+".>")
}

func (n *Integration) IsEnabled() bool {
	return n.client != nil
}

func (n *Integration) Health(ctx context.Context) (bool, string) {
	if !n.client.IsConnected() {
		return false, ""
	}
	return true, n.client.ConnectedURL()
}

func (n *Integration) Close() error {
	n.client.Close()
	return nil
}
