package delivery

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"notibridge/service/metrics"
	"notibridge/service/subscription"
	"notibridge/service/util"
)

type NotificationSender interface {
	Send(ctx context.Context, sub *subscription.Subscription, notif Notification) error
}

type ChannelResult struct {
	Sent   int `json:"sent"`
	Failed int `json:"failed"`
}

// Summary counts delivery outcomes per channel.
type Summary map[subscription.Channel]*ChannelResult

func (s Summary) record(channel subscription.Channel, err error) {
	r, ok := s[channel]
	if !ok {
		r = &ChannelResult{}
		s[channel] = r
	}
	if err != nil {
		r.Failed++
	} else {
		r.Sent++
	}
}

type Publisher struct {
	Store      *subscription.Store
	senders    map[subscription.Channel]NotificationSender
	mu         sync.RWMutex
	maxRetries int
	baseDelay  time.Duration
	logger     *slog.Logger
}

func NewPublisher(store *subscription.Store, logger *slog.Logger, maxRetries int) *Publisher {
	if maxRetries < 1 {
		maxRetries = 1
	}
	return &Publisher{
		Store:      store,
		senders:    make(map[subscription.Channel]NotificationSender),
		maxRetries: maxRetries,
		baseDelay:  500 * time.Millisecond,
		logger:     logger,
	}
}

func (p *Publisher) RegisterSender(channel subscription.Channel, sender NotificationSender) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.senders[channel] = sender
}

func (p *Publisher) DeregisterSender(channel subscription.Channel) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.senders, channel)
}

func (p *Publisher) HasChannel(channel subscription.Channel) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	_, ok := p.senders[channel]
	return ok
}

func (p *Publisher) sender(channel subscription.Channel) (NotificationSender, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	s, ok := p.senders[channel]
	return s, ok
}

func (p *Publisher) broadcastChannels() []subscription.Channel {
	p.mu.RLock()
	defer p.mu.RUnlock()
	var channels []subscription.Channel
	for channel := range p.senders {
		if channel.IsBroadcast() {
			channels = append(channels, channel)
		}
	}
	return channels
}

// Publish delivers notif to every stored subscription of appName and to
// every registered broadcast channel. It fails only when nothing was sent
// and at least one attempt failed.
func (p *Publisher) Publish(ctx context.Context, appName string, notif Notification) (Summary, error) {
	app, err := p.Store.GetApp(appName)
	if err != nil {
		return nil, util.LogError(p.logger, "Failed to get app", err, "app", appName)
	}

	targets := make([]subscription.Subscription, 0)
	if app != nil {
		targets = append(targets, app.Subscriptions...)
	}
	for _, channel := range p.broadcastChannels() {
		targets = append(targets, subscription.Subscription{AppName: appName, Channel: channel})
	}

	summary := Summary{}
	if len(targets) == 0 {
		p.logger.Warn("No subscriptions found for app, dropping notification", "app", appName)
		return summary, nil
	}

	var lastErr error
	successCount := 0

	for i := range targets {
		sub := &targets[i]
		sender, ok := p.sender(sub.Channel)
		if !ok {
			p.logger.Debug("Skipping subscription for disabled channel", "channel", sub.Channel, "subscriptionID", sub.ID)
			continue
		}

		err := p.sendWithRetry(ctx, sender, sub, notif)
		summary.record(sub.Channel, err)
		if err != nil {
			metrics.Deliveries.WithLabelValues(sub.Channel.String(), "failure").Inc()
			lastErr = err
		} else {
			metrics.Deliveries.WithLabelValues(sub.Channel.String(), "success").Inc()
			successCount++
		}
	}

	if successCount == 0 && lastErr != nil {
		return summary, lastErr
	}

	return summary, nil
}

func (p *Publisher) sendWithRetry(ctx context.Context, sender NotificationSender, sub *subscription.Subscription, notif Notification) error {
	var lastErr error
	for attempt := 0; attempt < p.maxRetries; attempt++ {
		err := sender.Send(ctx, sub, notif)
		if err == nil {
			if attempt > 0 {
				p.logger.Info("Notification sent after retry", "app", sub.AppName, "subscriptionID", sub.ID, "attempt", attempt+1)
			}
			return nil
		}

		lastErr = err

		if IsPermanent(err) {
			p.logger.Error("Permanent error, not retrying", "app", sub.AppName, "subscriptionID", sub.ID, "error", err)
			return err
		}

		if attempt < p.maxRetries-1 {
			delay := p.baseDelay * time.Duration(1<<uint(attempt))
			p.logger.Warn("Failed to send notification, retrying", "app", sub.AppName, "subscriptionID", sub.ID, "attempt", attempt+1, "error", err, "retryIn", delay)

			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
		}
	}

	p.logger.Error("Failed to send notification after retries", "app", sub.AppName, "subscriptionID", sub.ID, "attempts", p.maxRetries, "error", lastErr)
	return lastErr
}
