package nats

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"notibridge/service/delivery"
	"notibridge/service/subscription"

	natspkg "github.com/nats-io/nats.go"
)

const (
	HeaderKind = "Notibridge-Kind"
	HeaderApp  = "Notibridge-App"
)

type conn interface {
	PublishMsg(msg *natspkg.Msg) error
	FlushWithContext(ctx context.Context) error
}

// Sender publishes bundle JSON to <prefix>.<appName>.
type Sender struct {
	conn   conn
	prefix string
	logger *slog.Logger
}

func NewSender(conn conn, prefix string, logger *slog.Logger) *Sender {
	return &Sender{
		conn:   conn,
		prefix: prefix,
		logger: logger,
	}
}

func (s *Sender) Subject(appName string) string {
	return s.prefix + "." + subjectToken(appName)
}

func (s *Sender) Send(ctx context.Context, sub *subscription.Subscription, notif delivery.Notification) error {
	payload, err := notif.Payload()
	if err != nil {
		return delivery.Permanentf("failed to marshal notification: %w", err)
	}

	msg := natspkg.NewMsg(s.Subject(sub.AppName))
	msg.Data = payload
	msg.Header.Set(HeaderKind, string(notif.Kind))
	msg.Header.Set(HeaderApp, sub.AppName)

	if err := s.conn.PublishMsg(msg); err != nil {
		return fmt.Errorf("failed to publish to nats: %w", err)
	}
	if err := s.conn.FlushWithContext(ctx); err != nil {
		return fmt.Errorf("failed to flush nats connection: %w", err)
	}

	s.logger.Debug("Published notification to NATS", "app", sub.AppName, "subject", msg.Subject)
	return nil
}

// subjectToken maps an app name onto a single subject token.
func subjectToken(appName string) string {
	token := strings.Map(func(r rune) rune {
		switch r {
		case '.', '*', '>', ' ', '\t', '\r', '\n':
			return '_'
		}
		return r
	}, appName)
	if token == "" {
		return "_"
	}
	return token
}
