package delivery

import (
	"encoding/json"

	"notibridge/service/bundle"
	"notibridge/service/notification"
)

// Notification is a serialized object ready for fan-out. Bundle is the
// payload every machine channel receives; the text fields feed channels
// that render for humans.
type Notification struct {
	Kind     notification.Kind
	Title    string
	Subtitle string
	Message  string
	Priority notification.Priority
	Bundle   *bundle.Bundle
}

func NewNotification(kind notification.Kind, b *bundle.Bundle, content *notification.Content) Notification {
	n := Notification{Kind: kind, Bundle: b}
	if content != nil {
		n.Title = deref(content.Title)
		n.Subtitle = deref(content.Subtitle)
		n.Message = deref(content.Text)
		n.Priority = content.Priority
	}
	return n
}

// Payload is the JSON encoding of the bundle.
func (n Notification) Payload() ([]byte, error) {
	return json.Marshal(n.Bundle)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
