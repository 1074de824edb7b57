package delivery

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"notibridge/service/bundle"
	"notibridge/service/notification"
	"notibridge/service/subscription"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSender struct {
	mu    sync.Mutex
	errs  []error
	calls []string
}

func (f *fakeSender) Send(ctx context.Context, sub *subscription.Subscription, notif Notification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, sub.AppName)
	if len(f.errs) == 0 {
		return nil
	}
	err := f.errs[0]
	f.errs = f.errs[1:]
	return err
}

func newTestPublisher(t *testing.T, maxRetries int) *Publisher {
	t.Helper()

	db, err := subscription.OpenDB(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store, err := subscription.NewStore(db, "secret", logger)
	require.NoError(t, err)

	p := NewPublisher(store, logger, maxRetries)
	p.baseDelay = time.Millisecond
	return p
}

func addTelegram(t *testing.T, p *Publisher, app string) {
	t.Helper()
	_, err := p.Store.AddSubscription(subscription.Subscription{
		AppName:  app,
		Channel:  subscription.ChannelTelegram,
		Telegram: &subscription.TelegramSubscription{ChatID: "1"},
	})
	require.NoError(t, err)
}

func TestPublishRetriesTransientErrors(t *testing.T) {
	p := newTestPublisher(t, 3)
	addTelegram(t, p, "alerts")

	sender := &fakeSender{errs: []error{errors.New("flaky"), errors.New("flaky")}}
	p.RegisterSender(subscription.ChannelTelegram, sender)

	summary, err := p.Publish(context.Background(), "alerts", Notification{})
	require.NoError(t, err)
	assert.Len(t, sender.calls, 3)
	assert.Equal(t, 1, summary[subscription.ChannelTelegram].Sent)
}

func TestPublishStopsOnPermanentError(t *testing.T) {
	p := newTestPublisher(t, 5)
	addTelegram(t, p, "alerts")

	sender := &fakeSender{errs: []error{NewPermanentError(errors.New("gone"))}}
	p.RegisterSender(subscription.ChannelTelegram, sender)

	summary, err := p.Publish(context.Background(), "alerts", Notification{})
	require.Error(t, err)
	assert.True(t, IsPermanent(err))
	assert.Len(t, sender.calls, 1)
	assert.Equal(t, 1, summary[subscription.ChannelTelegram].Failed)
}

func TestPublishHonoursCancellation(t *testing.T) {
	p := newTestPublisher(t, 5)
	p.baseDelay = time.Hour
	addTelegram(t, p, "alerts")
	p.RegisterSender(subscription.ChannelTelegram, &fakeSender{errs: []error{errors.New("flaky")}})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	_, err := p.Publish(ctx, "alerts", Notification{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPublishBroadcastWithoutSubscriptions(t *testing.T) {
	p := newTestPublisher(t, 1)

	nats := &fakeSender{}
	p.RegisterSender(subscription.ChannelNATS, nats)
	p.RegisterSender(subscription.ChannelTelegram, &fakeSender{})

	summary, err := p.Publish(context.Background(), "unknown-app", Notification{})
	require.NoError(t, err)
	assert.Equal(t, []string{"unknown-app"}, nats.calls)
	assert.Equal(t, 1, summary[subscription.ChannelNATS].Sent)
	assert.NotContains(t, summary, subscription.ChannelTelegram)
}

func TestPublishNoTargets(t *testing.T) {
	p := newTestPublisher(t, 1)

	summary, err := p.Publish(context.Background(), "alerts", Notification{})
	require.NoError(t, err)
	assert.Empty(t, summary)
}

func TestPublishSkipsDisabledChannel(t *testing.T) {
	p := newTestPublisher(t, 1)
	addTelegram(t, p, "alerts")

	summary, err := p.Publish(context.Background(), "alerts", Notification{})
	require.NoError(t, err)
	assert.Empty(t, summary)
	assert.False(t, p.HasChannel(subscription.ChannelTelegram))
}

func TestNewNotification(t *testing.T) {
	title, text := "Hi", "There"
	b := bundle.New()
	b.PutString("k", "v")

	n := NewNotification(notification.KindContent, b, &notification.Content{Title: &title, Text: &text})
	assert.Equal(t, "Hi", n.Title)
	assert.Equal(t, "There", n.Message)
	assert.Empty(t, n.Subtitle)

	data, err := n.Payload()
	require.NoError(t, err)
	assert.JSONEq(t, `{"k":"v"}`, string(data))
}

func TestPermanentErrorUnwraps(t *testing.T) {
	base := errors.New("bad request")
	err := NewPermanentError(base)
	assert.ErrorIs(t, err, base)
	assert.False(t, IsPermanent(base))
}

func TestPermanentfWrapsOnce(t *testing.T) {
	base := errors.New("gone")
	err := Permanentf("endpoint %s: %w", "x", base)
	assert.EqualError(t, err, "permanent: endpoint x: gone")
	assert.ErrorIs(t, err, base)
	assert.Same(t, err, NewPermanentError(err))
	assert.NoError(t, NewPermanentError(nil))
}
