package notification

import (
	"log/slog"

	"notibridge/service/bundle"
	"notibridge/service/payload"
)

const logComponent = "notification-serializer"

// Serializer converts notification objects into bundles. It never fails: a
// nil object becomes a nil bundle, and unreadable body fields are dropped,
// logged and returned to the caller. It is safe for concurrent use.
type Serializer struct {
	logger *slog.Logger
	remote RemoteMessageSerializer
}

func NewSerializer(logger *slog.Logger, remote RemoteMessageSerializer) *Serializer {
	if logger == nil {
		logger = slog.Default()
	}
	if remote == nil {
		remote = DefaultRemoteMessageSerializer{}
	}
	return &Serializer{
		logger: logger.With("component", logComponent),
		remote: remote,
	}
}

func (s *Serializer) Response(r *Response) (*bundle.Bundle, []FieldError) {
	if r == nil {
		return nil, nil
	}
	n, dropped := s.Notification(r.Notification)

	b := bundle.New()
	b.PutString("actionIdentifier", r.ActionIdentifier)
	b.PutBundle("notification", n)
	return b, dropped
}

func (s *Serializer) Notification(n *Notification) (*bundle.Bundle, []FieldError) {
	if n == nil {
		return nil, nil
	}
	req, dropped := s.Request(n.Request)

	b := bundle.New()
	b.PutBundle("request", req)
	b.PutLong("date", n.Date.UnixMilli())
	return b, dropped
}

func (s *Serializer) Request(r *Request) (*bundle.Bundle, []FieldError) {
	if r == nil {
		return nil, nil
	}
	content, dropped := s.Content(r.Content)

	b := bundle.New()
	b.PutString("identifier", r.Identifier)
	b.PutBundle("content", content)
	b.PutBundle("trigger", s.Trigger(r.Trigger))
	return b, dropped
}

func (s *Serializer) Content(c *Content) (*bundle.Bundle, []FieldError) {
	if c == nil {
		return nil, nil
	}
	body, dropped := s.Body(c.Body)

	b := bundle.New()
	b.Put("title", bundle.StringPtr(c.Title))
	b.Put("subtitle", bundle.StringPtr(c.Subtitle))
	b.Put("message", bundle.StringPtr(c.Text))
	b.PutBundle("body", body)
	if c.Badge != nil {
		b.PutInt("badge", *c.Badge)
	}
	if c.PlayDefaultSound {
		b.PutString("sound", "default")
	} else if c.Sound != "" {
		b.PutString("sound", c.Sound)
	}
	if c.Priority.IsSet() {
		b.PutString("priority", c.Priority.String())
	}
	if c.VibrationPattern != nil {
		b.PutDoubleArray("vibrationPattern", widen(c.VibrationPattern))
	}
	return b, dropped
}

// Body converts a free-form body and logs every dropped field.
func (s *Serializer) Body(obj *payload.Object) (*bundle.Bundle, []FieldError) {
	b, dropped := ObjectToBundle(obj)
	for _, fe := range dropped {
		s.logger.Error("Could not serialize whole notification, dropped value",
			"key", fe.Key,
			"raw", fe.Raw,
			"error", fe.Err)
	}
	return b, dropped
}

// Trigger returns a bundle tagged with the trigger type. Unknown triggers
// produce {type: "unknown"} and nothing else.
func (s *Serializer) Trigger(t Trigger) *bundle.Bundle {
	if t == nil {
		return nil
	}
	enc := &triggerEncoder{remote: s.remote}
	t.Accept(enc)
	return enc.out
}

type triggerEncoder struct {
	remote RemoteMessageSerializer
	out    *bundle.Bundle
}

var _ TriggerVisitor = (*triggerEncoder)(nil)

func (e *triggerEncoder) VisitPush(t *PushTrigger) {
	if t == nil {
		return
	}
	e.out = bundle.New()
	e.out.PutString("type", TriggerTypePush)
	e.out.PutBundle("remoteMessage", e.remote.ToBundle(t.RemoteMessage))
}

func (e *triggerEncoder) VisitTimeInterval(t *TimeIntervalTrigger) {
	if t == nil {
		return
	}
	e.out = bundle.New()
	e.out.PutString("type", TriggerTypeInterval)
	e.out.PutBool("repeats", t.Repeats)
	e.out.PutLong("value", t.Interval.Milliseconds())
}

func (e *triggerEncoder) VisitDate(t *DateTrigger) {
	if t == nil {
		return
	}
	e.out = bundle.New()
	e.out.PutString("type", TriggerTypeDate)
	e.out.PutLong("value", t.At.UnixMilli())
}

func (e *triggerEncoder) VisitUnknown(t *UnknownTrigger) {
	if t == nil {
		return
	}
	e.out = bundle.New()
	e.out.PutString("type", TriggerTypeUnknown)
}

func widen(pattern []int64) []float64 {
	out := make([]float64, len(pattern))
	for i, v := range pattern {
		out[i] = float64(v)
	}
	return out
}

func narrow(pattern []float64) []int64 {
	out := make([]int64, len(pattern))
	for i, v := range pattern {
		out[i] = int64(v)
	}
	return out
}
