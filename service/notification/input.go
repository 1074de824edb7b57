package notification

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"notibridge/service/bundle"
	"notibridge/service/payload"

	yaml "go.yaml.in/yaml/v3"
)

var ErrUnknownKind = errors.New("unknown object kind")

// Kind names a serializable object type on the wire.
type Kind string

const (
	KindResponse     Kind = "response"
	KindNotification Kind = "notification"
	KindRequest      Kind = "request"
	KindContent      Kind = "content"
	KindTrigger      Kind = "trigger"
)

type Format int

const (
	FormatJSON Format = iota
	FormatYAML
)

// Input is a decoded wire object that can be serialized into a bundle.
type Input interface {
	Serialize(s *Serializer) (*bundle.Bundle, []FieldError, error)
}

type ResponseInput struct {
	ActionIdentifier string             `json:"actionIdentifier" yaml:"actionIdentifier" validate:"required"`
	Notification     *NotificationInput `json:"notification" yaml:"notification" validate:"required"`
}

type NotificationInput struct {
	Request *RequestInput `json:"request" yaml:"request" validate:"required"`
	// Date is epoch milliseconds.
	Date int64 `json:"date" yaml:"date"`
}

type RequestInput struct {
	Identifier string        `json:"identifier" yaml:"identifier" validate:"required"`
	Content    *ContentInput `json:"content" yaml:"content" validate:"required"`
	Trigger    *TriggerInput `json:"trigger,omitempty" yaml:"trigger"`
}

type ContentInput struct {
	Title    *string         `json:"title,omitempty" yaml:"title"`
	Subtitle *string         `json:"subtitle,omitempty" yaml:"subtitle"`
	Text     *string         `json:"text,omitempty" yaml:"text"`
	Message  *string         `json:"message,omitempty" yaml:"message"`
	Body     *payload.Object `json:"body,omitempty" yaml:"body"`
	Badge    *int32          `json:"badge,omitempty" yaml:"badge" validate:"omitempty,min=0"`

	Sound            string `json:"sound,omitempty" yaml:"sound"`
	PlayDefaultSound bool   `json:"playDefaultSound,omitempty" yaml:"playDefaultSound"`

	Priority         Priority `json:"priority,omitempty" yaml:"priority"`
	VibrationPattern []int64  `json:"vibrationPattern,omitempty" yaml:"vibrationPattern" validate:"omitempty,dive,min=0"`
}

// TriggerInput mirrors the serialized trigger shape. Value is milliseconds
// for interval triggers and epoch milliseconds for date triggers.
type TriggerInput struct {
	Type          string         `json:"type" yaml:"type" validate:"required"`
	Repeats       bool           `json:"repeats,omitempty" yaml:"repeats"`
	Value         *int64         `json:"value,omitempty" yaml:"value"`
	RemoteMessage *RemoteMessage `json:"remoteMessage,omitempty" yaml:"remoteMessage"`
}

func (in *ResponseInput) Response() (*Response, error) {
	if in == nil {
		return nil, nil
	}
	n, err := in.Notification.Notification()
	if err != nil {
		return nil, err
	}
	return &Response{ActionIdentifier: in.ActionIdentifier, Notification: n}, nil
}

func (in *NotificationInput) Notification() (*Notification, error) {
	if in == nil {
		return nil, nil
	}
	req, err := in.Request.Request()
	if err != nil {
		return nil, err
	}
	return &Notification{Request: req, Date: time.UnixMilli(in.Date)}, nil
}

func (in *RequestInput) Request() (*Request, error) {
	if in == nil {
		return nil, nil
	}
	trigger, err := in.Trigger.Trigger()
	if err != nil {
		return nil, fmt.Errorf("trigger: %w", err)
	}
	return &Request{
		Identifier: in.Identifier,
		Content:    in.Content.Content(),
		Trigger:    trigger,
	}, nil
}

func (in *ContentInput) Content() *Content {
	if in == nil {
		return nil
	}
	text := in.Text
	if text == nil {
		text = in.Message
	}
	c := &Content{
		Title:            in.Title,
		Subtitle:         in.Subtitle,
		Text:             text,
		Body:             in.Body,
		Badge:            in.Badge,
		PlayDefaultSound: in.PlayDefaultSound,
		Sound:            in.Sound,
		Priority:         in.Priority,
		VibrationPattern: in.VibrationPattern,
	}
	if c.Sound == "default" {
		c.PlayDefaultSound = true
		c.Sound = ""
	}
	return c
}

func (in *TriggerInput) Trigger() (Trigger, error) {
	if in == nil {
		return nil, nil
	}
	switch in.Type {
	case TriggerTypePush:
		return &PushTrigger{RemoteMessage: in.RemoteMessage}, nil
	case TriggerTypeInterval:
		if in.Value == nil {
			return nil, fmt.Errorf("interval trigger requires value")
		}
		interval, err := intervalFromMillis(*in.Value)
		if err != nil {
			return nil, err
		}
		return &TimeIntervalTrigger{Interval: interval, Repeats: in.Repeats}, nil
	case TriggerTypeDate:
		if in.Value == nil {
			return nil, fmt.Errorf("date trigger requires value")
		}
		return &DateTrigger{At: time.UnixMilli(*in.Value)}, nil
	default:
		return &UnknownTrigger{Kind: in.Type}, nil
	}
}

func (in *ResponseInput) Serialize(s *Serializer) (*bundle.Bundle, []FieldError, error) {
	r, err := in.Response()
	if err != nil {
		return nil, nil, err
	}
	b, dropped := s.Response(r)
	return b, dropped, nil
}

func (in *NotificationInput) Serialize(s *Serializer) (*bundle.Bundle, []FieldError, error) {
	n, err := in.Notification()
	if err != nil {
		return nil, nil, err
	}
	b, dropped := s.Notification(n)
	return b, dropped, nil
}

func (in *RequestInput) Serialize(s *Serializer) (*bundle.Bundle, []FieldError, error) {
	r, err := in.Request()
	if err != nil {
		return nil, nil, err
	}
	b, dropped := s.Request(r)
	return b, dropped, nil
}

func (in *ContentInput) Serialize(s *Serializer) (*bundle.Bundle, []FieldError, error) {
	b, dropped := s.Content(in.Content())
	return b, dropped, nil
}

func (in *TriggerInput) Serialize(s *Serializer) (*bundle.Bundle, []FieldError, error) {
	t, err := in.Trigger()
	if err != nil {
		return nil, nil, err
	}
	return s.Trigger(t), nil, nil
}

// NewInput returns an empty input for kind, ready to be decoded into.
func NewInput(kind Kind) (Input, error) {
	switch kind {
	case KindResponse:
		return &ResponseInput{}, nil
	case KindNotification:
		return &NotificationInput{}, nil
	case KindRequest:
		return &RequestInput{}, nil
	case KindContent:
		return &ContentInput{}, nil
	case KindTrigger:
		return &TriggerInput{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
}

// DecodeInput decodes data into the input for kind. Unknown fields are
// rejected in both formats. Trigger conversion errors surface here as well
// as from Serialize.
func DecodeInput(kind Kind, data []byte, format Format) (Input, error) {
	in, err := NewInput(kind)
	if err != nil {
		return nil, err
	}

	switch format {
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(in); err != nil {
			return nil, fmt.Errorf("yaml decode: %w", err)
		}
	default:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(in); err != nil {
			return nil, fmt.Errorf("json decode: %w", err)
		}
	}

	if err := checkInput(in); err != nil {
		return nil, err
	}
	return in, nil
}

func checkInput(in Input) error {
	var err error
	switch t := in.(type) {
	case *ResponseInput:
		_, err = t.Response()
	case *NotificationInput:
		_, err = t.Notification()
	case *RequestInput:
		_, err = t.Request()
	case *TriggerInput:
		_, err = t.Trigger()
	}
	return err
}
