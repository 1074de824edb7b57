package notification

import (
	"fmt"
	"time"

	"notibridge/service/payload"
)

// Response is a user interaction with a delivered notification.
type Response struct {
	ActionIdentifier string
	Notification     *Notification
}

// Notification is a request that has been presented at Date.
type Notification struct {
	Request *Request
	Date    time.Time
}

type Request struct {
	Identifier string
	Content    *Content
	Trigger    Trigger
}

type Content struct {
	Title    *string
	Subtitle *string
	Text     *string
	Body     *payload.Object
	Badge    *int32

	// PlayDefaultSound takes precedence over Sound.
	PlayDefaultSound bool
	Sound            string

	Priority         Priority
	VibrationPattern []int64
}

type Priority int

const (
	PriorityUnset Priority = iota
	PriorityMin
	PriorityLow
	PriorityDefault
	PriorityHigh
	PriorityMax
)

var priorityTags = map[Priority]string{
	PriorityMin:     "min",
	PriorityLow:     "low",
	PriorityDefault: "default",
	PriorityHigh:    "high",
	PriorityMax:     "max",
}

// String returns the priority tag, or "" when unset.
func (p Priority) String() string {
	return priorityTags[p]
}

func (p Priority) IsSet() bool {
	_, ok := priorityTags[p]
	return ok
}

func ParsePriority(tag string) (Priority, error) {
	if tag == "" {
		return PriorityUnset, nil
	}
	for p, t := range priorityTags {
		if t == tag {
			return p, nil
		}
	}
	return PriorityUnset, fmt.Errorf("unknown priority %q", tag)
}

func (p Priority) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func (p *Priority) UnmarshalText(text []byte) error {
	parsed, err := ParsePriority(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}
