package notification

import (
	"fmt"
	"time"

	"notibridge/service/bundle"
)

func ResponseFromBundle(b *bundle.Bundle) (*Response, error) {
	if b == nil {
		return nil, nil
	}
	nb, _ := b.GetBundle("notification")
	n, err := NotificationFromBundle(nb)
	if err != nil {
		return nil, fmt.Errorf("notification: %w", err)
	}
	return &Response{
		ActionIdentifier: str(b, "actionIdentifier"),
		Notification:     n,
	}, nil
}

func NotificationFromBundle(b *bundle.Bundle) (*Notification, error) {
	if b == nil {
		return nil, nil
	}
	date, ok := b.GetLong("date")
	if !ok {
		return nil, fmt.Errorf("missing date")
	}
	rb, _ := b.GetBundle("request")
	req, err := RequestFromBundle(rb)
	if err != nil {
		return nil, fmt.Errorf("request: %w", err)
	}
	return &Notification{
		Request: req,
		Date:    time.UnixMilli(date),
	}, nil
}

func RequestFromBundle(b *bundle.Bundle) (*Request, error) {
	if b == nil {
		return nil, nil
	}
	cb, _ := b.GetBundle("content")
	content, err := ContentFromBundle(cb)
	if err != nil {
		return nil, fmt.Errorf("content: %w", err)
	}
	tb, _ := b.GetBundle("trigger")
	trigger, err := TriggerFromBundle(tb)
	if err != nil {
		return nil, fmt.Errorf("trigger: %w", err)
	}
	return &Request{
		Identifier: str(b, "identifier"),
		Content:    content,
		Trigger:    trigger,
	}, nil
}

func ContentFromBundle(b *bundle.Bundle) (*Content, error) {
	if b == nil {
		return nil, nil
	}

	c := &Content{
		Title:    optString(b, "title"),
		Subtitle: optString(b, "subtitle"),
		Text:     optString(b, "message"),
	}
	if body, ok := b.GetBundle("body"); ok {
		c.Body = ObjectFromBundle(body)
	}
	if v, ok := b.Get("badge"); ok {
		if badge, ok := v.AsInt(); ok {
			c.Badge = &badge
		}
	}
	if sound, ok := b.GetString("sound"); ok {
		if sound == "default" {
			c.PlayDefaultSound = true
		} else {
			c.Sound = sound
		}
	}
	if tag, ok := b.GetString("priority"); ok {
		p, err := ParsePriority(tag)
		if err != nil {
			return nil, err
		}
		c.Priority = p
	}
	if v, ok := b.Get("vibrationPattern"); ok {
		if pattern, ok := v.AsDoubleArray(); ok {
			c.VibrationPattern = narrow(pattern)
		}
	}
	return c, nil
}

// TriggerFromBundle maps unrecognised type tags to UnknownTrigger.
func TriggerFromBundle(b *bundle.Bundle) (Trigger, error) {
	if b == nil {
		return nil, nil
	}
	kind, ok := b.GetString("type")
	if !ok {
		return nil, fmt.Errorf("missing trigger type")
	}

	switch kind {
	case TriggerTypePush:
		rb, _ := b.GetBundle("remoteMessage")
		return &PushTrigger{RemoteMessage: RemoteMessageFromBundle(rb)}, nil
	case TriggerTypeInterval:
		ms, ok := b.GetLong("value")
		if !ok {
			return nil, fmt.Errorf("interval trigger without value")
		}
		repeats, _ := b.GetBool("repeats")
		interval, err := intervalFromMillis(ms)
		if err != nil {
			return nil, err
		}
		return &TimeIntervalTrigger{Interval: interval, Repeats: repeats}, nil
	case TriggerTypeDate:
		ms, ok := b.GetLong("value")
		if !ok {
			return nil, fmt.Errorf("date trigger without value")
		}
		return &DateTrigger{At: time.UnixMilli(ms)}, nil
	default:
		return &UnknownTrigger{Kind: kind}, nil
	}
}

func optString(b *bundle.Bundle, key string) *string {
	s, ok := b.GetString(key)
	if !ok {
		return nil
	}
	return &s
}
