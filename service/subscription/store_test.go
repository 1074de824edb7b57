package subscription

import (
	"bytes"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T, dbPath, password string) *Store {
	t.Helper()

	db, err := OpenDB(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	store, err := NewStore(db, password, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	return store
}

func TestStoreWebPushRoundTrip(t *testing.T) {
	store := newTestStore(t, filepath.Join(t.TempDir(), "subs.db"), "secret")

	id, err := store.AddSubscription(Subscription{
		AppName: "alerts",
		Channel: ChannelWebPush,
		WebPush: &WebPushSubscription{
			Endpoint:        "https://push.example.com/abc",
			P256dh:          "p",
			Auth:            "a",
			VapidPrivateKey: "vapid-private",
		},
	})
	require.NoError(t, err)
	_, err = uuid.Parse(id)
	require.NoError(t, err)

	sub, err := store.GetSubscription(id)
	require.NoError(t, err)
	assert.Equal(t, "alerts", sub.AppName)
	assert.Equal(t, ChannelWebPush, sub.Channel)
	require.NotNil(t, sub.WebPush)
	assert.True(t, sub.WebPush.HasEncryption())
	assert.Equal(t, "vapid-private", sub.WebPush.VapidPrivateKey)
	assert.False(t, sub.CreatedAt.IsZero())

	var sealed []byte
	require.NoError(t, store.DB.QueryRow(`SELECT vapidPrivateKey FROM subscriptions WHERE id = ?`, id).Scan(&sealed))
	assert.False(t, bytes.Contains(sealed, []byte("vapid-private")))
}

func TestStorePlainWebhookAndTelegram(t *testing.T) {
	store := newTestStore(t, filepath.Join(t.TempDir(), "subs.db"), "secret")

	_, err := store.AddSubscription(Subscription{
		AppName: "alerts",
		Channel: ChannelWebPush,
		WebPush: &WebPushSubscription{Endpoint: "http://hook.local/in"},
	})
	require.NoError(t, err)
	_, err = store.AddSubscription(Subscription{
		AppName:  "alerts",
		Channel:  ChannelTelegram,
		Telegram: &TelegramSubscription{ChatID: "42"},
	})
	require.NoError(t, err)

	app, err := store.GetApp("alerts")
	require.NoError(t, err)
	require.NotNil(t, app)
	require.Len(t, app.Subscriptions, 2)

	byChannel := map[Channel]Subscription{}
	for _, sub := range app.Subscriptions {
		byChannel[sub.Channel] = sub
	}
	assert.False(t, byChannel[ChannelWebPush].WebPush.HasEncryption())
	assert.Equal(t, "42", byChannel[ChannelTelegram].Telegram.ChatID)

	require.NoError(t, store.DeleteSubscriptionsByChannel(ChannelTelegram))
	subs, err := store.GetSubscriptions("alerts")
	require.NoError(t, err)
	assert.Len(t, subs, 1)
}

func TestStoreMissing(t *testing.T) {
	store := newTestStore(t, filepath.Join(t.TempDir(), "subs.db"), "secret")

	app, err := store.GetApp("nobody")
	require.NoError(t, err)
	assert.Nil(t, app)

	_, err = store.GetSubscription("nope")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, store.DeleteSubscription("nope"), ErrNotFound)
}

func TestStoreRemoveAppCascades(t *testing.T) {
	store := newTestStore(t, filepath.Join(t.TempDir(), "subs.db"), "secret")

	id, err := store.AddSubscription(Subscription{
		AppName:  "alerts",
		Channel:  ChannelTelegram,
		Telegram: &TelegramSubscription{ChatID: "1"},
	})
	require.NoError(t, err)
	require.NoError(t, store.RegisterApp("empty"))

	apps, err := store.GetAllApps()
	require.NoError(t, err)
	require.Len(t, apps, 2)
	assert.Equal(t, "alerts", apps[0].AppName)
	assert.Empty(t, apps[1].Subscriptions)

	require.NoError(t, store.RemoveApp("alerts"))
	_, err = store.GetSubscription(id)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStoreClearsKeysAfterPasswordChange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "subs.db")
	first := newTestStore(t, path, "old")

	id, err := first.AddSubscription(Subscription{
		AppName: "alerts",
		Channel: ChannelWebPush,
		WebPush: &WebPushSubscription{Endpoint: "https://push.example.com/x", P256dh: "p", Auth: "a", VapidPrivateKey: "k"},
	})
	require.NoError(t, err)
	require.NoError(t, first.Close())

	second := newTestStore(t, path, "new")
	sub, err := second.GetSubscription(id)
	require.NoError(t, err)
	require.NotNil(t, sub.WebPush)
	assert.False(t, sub.WebPush.HasEncryption())
	assert.Equal(t, "https://push.example.com/x", sub.WebPush.Endpoint)
}

func TestSealerRejectsTampering(t *testing.T) {
	sealer, err := NewSealer("secret")
	require.NoError(t, err)

	sealed, err := sealer.Seal([]byte("hello"))
	require.NoError(t, err)

	opened, err := sealer.Open(sealed)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(opened))

	sealed[len(sealed)-1] ^= 0xff
	_, err = sealer.Open(sealed)
	assert.ErrorIs(t, err, ErrCorruptSecret)

	_, err = sealer.Open([]byte{1})
	assert.ErrorIs(t, err, ErrCorruptSecret)
}

func TestChannel(t *testing.T) {
	assert.Equal(t, "WebPush", ChannelWebPush.Label())
	assert.True(t, ChannelNATS.IsBroadcast())
	assert.False(t, ChannelTelegram.IsAvailable(false, true))
	assert.True(t, ChannelNATS.IsAvailable(false, true))
}
