package telegram

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"strconv"
	"strings"
	"unicode/utf8"

	"notibridge/service/delivery"
	"notibridge/service/subscription"
	"notibridge/service/util"
)

// Telegram rejects messages longer than this many characters.
const maxMessageLength = 4096

type messageSender interface {
	SendMessage(ctx context.Context, chatID int64, text string) error
}

type Sender struct {
	client messageSender
	logger *slog.Logger
}

func NewSender(client messageSender, logger *slog.Logger) *Sender {
	return &Sender{
		client: client,
		logger: logger,
	}
}

func (s *Sender) Send(ctx context.Context, sub *subscription.Subscription, notif delivery.Notification) error {
	if s.client == nil {
		return delivery.Permanentf("telegram integration not enabled")
	}

	if sub.Telegram == nil || sub.Telegram.ChatID == "" {
		return delivery.Permanentf("no telegram chat configured for subscription")
	}

	chatID, err := strconv.ParseInt(sub.Telegram.ChatID, 10, 64)
	if err != nil {
		return delivery.Permanentf("invalid chat ID: %w", err)
	}

	message, err := formatMessage(sub.AppName, notif)
	if err != nil {
		return delivery.NewPermanentError(err)
	}

	if err := s.client.SendMessage(ctx, chatID, message); err != nil {
		s.logger.Error("Failed to send telegram message", "chatID", chatID, "error", err)
		return err
	}

	return nil
}

// formatMessage renders the human-readable fields as HTML. Objects without
// any text, such as bare triggers, are shown as their bundle JSON.
func formatMessage(appName string, notif delivery.Notification) (string, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "<b>%s</b>\n\n", html.EscapeString(util.Truncate(appName, 128)))

	if notif.Title == "" && notif.Subtitle == "" && notif.Message == "" {
		payload, err := notif.Payload()
		if err != nil {
			return "", fmt.Errorf("failed to marshal notification: %w", err)
		}
		fmt.Fprintf(&b, "<i>%s</i>\n<pre>", html.EscapeString(string(notif.Kind)))
		b.WriteString(escapeWithin(string(payload), room(&b, len("</pre>"))))
		b.WriteString("</pre>")
		return b.String(), nil
	}

	if notif.Title != "" {
		fmt.Fprintf(&b, "<b>%s</b>\n", html.EscapeString(util.Truncate(notif.Title, 256)))
	}
	if notif.Subtitle != "" {
		fmt.Fprintf(&b, "<i>%s</i>\n", html.EscapeString(util.Truncate(notif.Subtitle, 256)))
	}
	b.WriteString(escapeWithin(notif.Message, room(&b, 0)))

	return strings.TrimRight(b.String(), "\n"), nil
}

func room(b *strings.Builder, reserve int) int {
	left := maxMessageLength - utf8.RuneCountInString(b.String()) - reserve
	if left < 0 {
		return 0
	}
	return left
}

// escapeWithin escapes s, cutting raw runes until the escaped text fits in
// limit runes so that no entity is split.
func escapeWithin(s string, limit int) string {
	raw := []rune(s)
	n := min(len(raw), limit)
	for n > 0 {
		escaped := html.EscapeString(string(raw[:n]))
		over := utf8.RuneCountInString(escaped) - limit
		if over <= 0 {
			return escaped
		}
		n -= max(1, over/5)
	}
	return ""
}
