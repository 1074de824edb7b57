package nats

import (
	"fmt"
	"log/slog"
	"time"

	natspkg "github.com/nats-io/nats.go"
)

type Client struct {
	nc *natspkg.Conn
}

func NewClient(url string, logger *slog.Logger) (*Client, error) {
	nc, err := natspkg.Connect(url,
		natspkg.Name("notibridge"),
		natspkg.MaxReconnects(-1),
		natspkg.ReconnectWait(2*time.Second),
		natspkg.DisconnectErrHandler(func(_ *natspkg.Conn, err error) {
			if err != nil {
				logger.Warn("NATS disconnected", "error", err)
			}
		}),
		natspkg.ReconnectHandler(func(nc *natspkg.Conn) {
			logger.Info("NATS reconnected", "url", nc.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to nats: %w", err)
	}
	return &Client{nc: nc}, nil
}

func (c *Client) Close() {
	c.nc.Close()
}

func (c *Client) IsConnected() bool {
	return c.nc != nil && c.nc.Status() == natspkg.CONNECTED
}

func (c *Client) ConnectedURL() string {
	return c.nc.ConnectedUrl()
}
