package notification

import (
	"sort"

	"notibridge/service/bundle"
)

// RemoteMessage is the payload of a push delivered by the remote messaging
// service. The bridge treats it as opaque and only forwards it.
type RemoteMessage struct {
	MessageID        string              `json:"messageId,omitempty" yaml:"messageId"`
	From             string              `json:"from,omitempty" yaml:"from"`
	To               string              `json:"to,omitempty" yaml:"to"`
	CollapseKey      string              `json:"collapseKey,omitempty" yaml:"collapseKey"`
	MessageType      string              `json:"messageType,omitempty" yaml:"messageType"`
	Priority         int                 `json:"priority,omitempty" yaml:"priority"`
	OriginalPriority int                 `json:"originalPriority,omitempty" yaml:"originalPriority"`
	SentTime         int64               `json:"sentTime,omitempty" yaml:"sentTime"`
	TTL              int                 `json:"ttl,omitempty" yaml:"ttl"`
	Data             map[string]string   `json:"data,omitempty" yaml:"data"`
	Notification     *RemoteNotification `json:"notification,omitempty" yaml:"notification"`
}

type RemoteNotification struct {
	Title             string  `json:"title,omitempty" yaml:"title"`
	Body              string  `json:"body,omitempty" yaml:"body"`
	Icon              string  `json:"icon,omitempty" yaml:"icon"`
	ImageURL          string  `json:"imageUrl,omitempty" yaml:"imageUrl"`
	Sound             string  `json:"sound,omitempty" yaml:"sound"`
	Tag               string  `json:"tag,omitempty" yaml:"tag"`
	Color             string  `json:"color,omitempty" yaml:"color"`
	ClickAction       string  `json:"clickAction,omitempty" yaml:"clickAction"`
	ChannelID         string  `json:"channelId,omitempty" yaml:"channelId"`
	Ticker            string  `json:"ticker,omitempty" yaml:"ticker"`
	Sticky            bool    `json:"sticky,omitempty" yaml:"sticky"`
	LocalOnly         bool    `json:"localOnly,omitempty" yaml:"localOnly"`
	NotificationCount *int    `json:"notificationCount,omitempty" yaml:"notificationCount"`
	VibrateTimings    []int64 `json:"vibrateTimings,omitempty" yaml:"vibrateTimings"`
}

// RemoteMessageSerializer turns a remote message into the bundle nested under
// a push trigger's "remoteMessage" key.
type RemoteMessageSerializer interface {
	ToBundle(msg *RemoteMessage) *bundle.Bundle
}

type DefaultRemoteMessageSerializer struct{}

func (DefaultRemoteMessageSerializer) ToBundle(msg *RemoteMessage) *bundle.Bundle {
	if msg == nil {
		return nil
	}

	b := bundle.New()
	b.PutString("collapseKey", msg.CollapseKey)
	b.PutBundle("data", stringMapBundle(msg.Data))
	b.PutString("from", msg.From)
	b.PutString("messageId", msg.MessageID)
	b.PutString("messageType", msg.MessageType)
	b.PutInt("originalPriority", int32(msg.OriginalPriority))
	b.PutInt("priority", int32(msg.Priority))
	b.PutLong("sentTime", msg.SentTime)
	b.PutString("to", msg.To)
	b.PutInt("ttl", int32(msg.TTL))
	b.PutBundle("notification", remoteNotificationBundle(msg.Notification))
	return b
}

func stringMapBundle(m map[string]string) *bundle.Bundle {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	b := bundle.New()
	for _, k := range keys {
		b.PutString(k, m[k])
	}
	return b
}

func remoteNotificationBundle(n *RemoteNotification) *bundle.Bundle {
	if n == nil {
		return nil
	}

	b := bundle.New()
	b.PutString("title", n.Title)
	b.PutString("body", n.Body)
	b.PutString("icon", n.Icon)
	b.PutString("imageUrl", n.ImageURL)
	b.PutString("sound", n.Sound)
	b.PutString("tag", n.Tag)
	b.PutString("color", n.Color)
	b.PutString("clickAction", n.ClickAction)
	b.PutString("channelId", n.ChannelID)
	b.PutString("ticker", n.Ticker)
	b.PutBool("sticky", n.Sticky)
	b.PutBool("localOnly", n.LocalOnly)
	if n.NotificationCount != nil {
		b.PutInt("notificationCount", int32(*n.NotificationCount))
	}
	if n.VibrateTimings != nil {
		b.PutDoubleArray("vibrateTimings", widen(n.VibrateTimings))
	}
	return b
}

// RemoteMessageFromBundle reverses DefaultRemoteMessageSerializer.
func RemoteMessageFromBundle(b *bundle.Bundle) *RemoteMessage {
	if b == nil {
		return nil
	}

	msg := &RemoteMessage{
		MessageID:        str(b, "messageId"),
		From:             str(b, "from"),
		To:               str(b, "to"),
		CollapseKey:      str(b, "collapseKey"),
		MessageType:      str(b, "messageType"),
		Priority:         int(long(b, "priority")),
		OriginalPriority: int(long(b, "originalPriority")),
		SentTime:         long(b, "sentTime"),
		TTL:              int(long(b, "ttl")),
	}

	if data, ok := b.GetBundle("data"); ok && data.Len() > 0 {
		msg.Data = make(map[string]string, data.Len())
		for _, e := range data.Entries() {
			s, _ := e.Value.AsString()
			msg.Data[e.Key] = s
		}
	}

	if n, ok := b.GetBundle("notification"); ok {
		rn := &RemoteNotification{
			Title:       str(n, "title"),
			Body:        str(n, "body"),
			Icon:        str(n, "icon"),
			ImageURL:    str(n, "imageUrl"),
			Sound:       str(n, "sound"),
			Tag:         str(n, "tag"),
			Color:       str(n, "color"),
			ClickAction: str(n, "clickAction"),
			ChannelID:   str(n, "channelId"),
			Ticker:      str(n, "ticker"),
		}
		rn.Sticky, _ = n.GetBool("sticky")
		rn.LocalOnly, _ = n.GetBool("localOnly")
		if count, ok := n.GetLong("notificationCount"); ok {
			c := int(count)
			rn.NotificationCount = &c
		}
		if v, ok := n.Get("vibrateTimings"); ok {
			if f, ok := v.AsDoubleArray(); ok {
				rn.VibrateTimings = narrow(f)
			}
		}
		msg.Notification = rn
	}

	return msg
}

func str(b *bundle.Bundle, key string) string {
	s, _ := b.GetString(key)
	return s
}

func long(b *bundle.Bundle, key string) int64 {
	i, _ := b.GetLong(key)
	return i
}
