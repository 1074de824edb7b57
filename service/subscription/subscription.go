package subscription

import "time"

type WebPushSubscription struct {
	Endpoint        string `json:"endpoint"`
	P256dh          string `json:"p256dh,omitempty"`
	Auth            string `json:"auth,omitempty"`
	VapidPrivateKey string `json:"-"`
}

func (w *WebPushSubscription) HasEncryption() bool {
	return w.P256dh != "" && w.Auth != "" && w.VapidPrivateKey != ""
}

type TelegramSubscription struct {
	ChatID string `json:"chatId"`
}

type Subscription struct {
	ID        string                `json:"id"`
	AppName   string                `json:"appName"`
	Channel   Channel               `json:"channel"`
	WebPush   *WebPushSubscription  `json:"webPush,omitempty"`
	Telegram  *TelegramSubscription `json:"telegram,omitempty"`
	CreatedAt time.Time             `json:"createdAt"`
}

type App struct {
	AppName       string         `json:"appName"`
	Subscriptions []Subscription `json:"subscriptions"`
}
