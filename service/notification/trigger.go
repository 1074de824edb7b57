package notification

import (
	"fmt"
	"math"
	"time"
)

// Trigger describes why a notification fired. The set of variants is closed:
// PushTrigger, TimeIntervalTrigger, DateTrigger and UnknownTrigger.
type Trigger interface {
	Accept(v TriggerVisitor)
}

// TriggerVisitor has one method per trigger variant. A new variant adds a
// method here, so every visitor has to handle it before the build passes.
type TriggerVisitor interface {
	VisitPush(t *PushTrigger)
	VisitTimeInterval(t *TimeIntervalTrigger)
	VisitDate(t *DateTrigger)
	VisitUnknown(t *UnknownTrigger)
}

// PushTrigger marks a notification delivered by a remote push message.
type PushTrigger struct {
	RemoteMessage *RemoteMessage
}

// maxIntervalMillis is the longest interval a time.Duration can hold.
const maxIntervalMillis = math.MaxInt64 / int64(time.Millisecond)

func intervalFromMillis(ms int64) (time.Duration, error) {
	if ms < 0 || ms > maxIntervalMillis {
		return 0, fmt.Errorf("interval %dms out of range [0, %d]", ms, maxIntervalMillis)
	}
	return time.Duration(ms) * time.Millisecond, nil
}

type TimeIntervalTrigger struct {
	Interval time.Duration
	Repeats  bool
}

type DateTrigger struct {
	At time.Time
}

// UnknownTrigger stands in for trigger kinds this build does not model. Kind
// is informational and is not serialized.
type UnknownTrigger struct {
	Kind string
}

func (t *PushTrigger) Accept(v TriggerVisitor) { v.VisitPush(t) }

func (t *TimeIntervalTrigger) Accept(v TriggerVisitor) { v.VisitTimeInterval(t) }

func (t *DateTrigger) Accept(v TriggerVisitor) { v.VisitDate(t) }

func (t *UnknownTrigger) Accept(v TriggerVisitor) { v.VisitUnknown(t) }

const (
	TriggerTypePush     = "push"
	TriggerTypeInterval = "interval"
	TriggerTypeDate     = "date"
	TriggerTypeUnknown  = "unknown"
)
