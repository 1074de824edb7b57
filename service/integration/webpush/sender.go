package webpush

import (
	"bytes"
	"context"
	"crypto/ecdh"
	"encoding/base64"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"notibridge/service/delivery"
	"notibridge/service/notification"
	"notibridge/service/subscription"

	webpush "github.com/SherClockHolmes/webpush-go"
)

type Sender struct {
	client     *http.Client
	ttl        int
	subscriber string
	logger     *slog.Logger
}

func NewSender(client *http.Client, ttl int, subscriber string, logger *slog.Logger) *Sender {
	if client == nil {
		client = http.DefaultClient
	}
	return &Sender{
		client:     client,
		ttl:        ttl,
		subscriber: subscriber,
		logger:     logger,
	}
}

func (s *Sender) Send(ctx context.Context, sub *subscription.Subscription, notif delivery.Notification) error {
	if sub.WebPush == nil {
		return delivery.Permanentf("no push endpoint configured for subscription %s", sub.ID)
	}

	payload, err := notif.Payload()
	if err != nil {
		return delivery.Permanentf("failed to marshal notification: %w", err)
	}

	if sub.WebPush.HasEncryption() {
		publicKey, err := vapidPublicKey(sub.WebPush.VapidPrivateKey)
		if err != nil {
			return delivery.NewPermanentError(err)
		}

		target := &webpush.Subscription{
			Endpoint: sub.WebPush.Endpoint,
			Keys: webpush.Keys{
				P256dh: sub.WebPush.P256dh,
				Auth:   sub.WebPush.Auth,
			},
		}

		resp, err := webpush.SendNotificationWithContext(ctx, payload, target, &webpush.Options{
			HTTPClient:      s.client,
			Subscriber:      s.subscriber,
			VAPIDPublicKey:  publicKey,
			VAPIDPrivateKey: sub.WebPush.VapidPrivateKey,
			TTL:             s.ttl,
			Urgency:         urgency(notif.Priority),
		})
		if err != nil {
			return fmt.Errorf("failed to send webpush: %w", err)
		}
		defer resp.Body.Close()

		if err := checkStatus("webpush", resp); err != nil {
			return err
		}

		s.logger.Debug("Sent encrypted webpush notification", "app", sub.AppName, "url", sub.WebPush.Endpoint)
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, sub.WebPush.Endpoint, bytes.NewReader(payload))
	if err != nil {
		return delivery.Permanentf("failed to build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Notibridge-Kind", string(notif.Kind))

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send webhook: %w", err)
	}
	defer resp.Body.Close()

	if err := checkStatus("webhook", resp); err != nil {
		return err
	}

	s.logger.Debug("Sent plain webhook notification", "app", sub.AppName, "url", sub.WebPush.Endpoint)
	return nil
}

// checkStatus treats a vanished endpoint and other client errors as
// permanent. Throttling and server errors are retried.
func checkStatus(what string, resp *http.Response) error {
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	err := fmt.Errorf("%s returned status %d", what, resp.StatusCode)
	if resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
		return delivery.NewPermanentError(err)
	}
	return err
}

func urgency(p notification.Priority) webpush.Urgency {
	switch p {
	case notification.PriorityMin:
		return webpush.UrgencyVeryLow
	case notification.PriorityLow:
		return webpush.UrgencyLow
	case notification.PriorityHigh, notification.PriorityMax:
		return webpush.UrgencyHigh
	default:
		return webpush.UrgencyNormal
	}
}

func vapidPublicKey(privateKey string) (string, error) {
	decoded, err := base64.RawURLEncoding.DecodeString(privateKey)
	if err != nil {
		return "", fmt.Errorf("invalid VAPID private key encoding")
	}

	key, err := ecdh.P256().NewPrivateKey(decoded)
	if err != nil {
		return "", fmt.Errorf("invalid VAPID private key: %w", err)
	}

	return base64.RawURLEncoding.EncodeToString(key.PublicKey().Bytes()), nil
}
