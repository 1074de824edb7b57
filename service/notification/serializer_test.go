package notification

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"notibridge/service/bundle"
	"notibridge/service/payload"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSerializer() *Serializer {
	return NewSerializer(slog.New(slog.NewTextHandler(io.Discard, nil)), nil)
}

func strPtr(s string) *string { return &s }

func intPtr(i int) *int { return &i }

func int32Ptr(i int32) *int32 { return &i }

func mustJSON(t *testing.T, b *bundle.Bundle) string {
	t.Helper()
	out, err := json.Marshal(b)
	require.NoError(t, err)
	return string(out)
}

func TestContentStringFields(t *testing.T) {
	s := newTestSerializer()

	b, dropped := s.Content(&Content{
		Title:    strPtr("Hello"),
		Subtitle: strPtr("Sub"),
		Text:     strPtr("Body text"),
	})
	require.Empty(t, dropped)

	assert.Equal(t, []string{"title", "subtitle", "message", "body"}, b.Keys())
	title, _ := b.GetString("title")
	assert.Equal(t, "Hello", title)
	subtitle, _ := b.GetString("subtitle")
	assert.Equal(t, "Sub", subtitle)
	message, _ := b.GetString("message")
	assert.Equal(t, "Body text", message)

	body, ok := b.Get("body")
	require.True(t, ok)
	assert.True(t, body.IsNull())
}

func TestContentNilStringsAreNull(t *testing.T) {
	b, _ := newTestSerializer().Content(&Content{})

	assert.Equal(t, `{"title":null,"subtitle":null,"message":null,"body":null}`, mustJSON(t, b))
}

func TestContentBadge(t *testing.T) {
	s := newTestSerializer()

	withBadge, _ := s.Content(&Content{Badge: int32Ptr(7)})
	v, ok := withBadge.Get("badge")
	require.True(t, ok)
	assert.Equal(t, bundle.KindInt, v.Kind())
	n, _ := v.AsInt()
	assert.Equal(t, int32(7), n)

	zero, _ := s.Content(&Content{Badge: int32Ptr(0)})
	assert.True(t, zero.Has("badge"))

	without, _ := s.Content(&Content{})
	assert.False(t, without.Has("badge"))
}

func TestContentSound(t *testing.T) {
	tests := []struct {
		name    string
		content Content
		want    string
		present bool
	}{
		{name: "default flag", content: Content{PlayDefaultSound: true}, want: "default", present: true},
		{name: "default wins over named", content: Content{PlayDefaultSound: true, Sound: "chime.wav"}, want: "default", present: true},
		{name: "named", content: Content{Sound: "chime.wav"}, want: "chime.wav", present: true},
		{name: "none", content: Content{}, present: false},
	}

	s := newTestSerializer()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, _ := s.Content(&tt.content)
			got, ok := b.GetString("sound")
			assert.Equal(t, tt.present, ok)
			if tt.present {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestContentPriority(t *testing.T) {
	s := newTestSerializer()

	b, _ := s.Content(&Content{Priority: PriorityHigh})
	p, ok := b.GetString("priority")
	require.True(t, ok)
	assert.Equal(t, "high", p)

	unset, _ := s.Content(&Content{})
	assert.False(t, unset.Has("priority"))
}

func TestContentVibrationPattern(t *testing.T) {
	s := newTestSerializer()

	pattern := []int64{0, 250, 1 << 40, 250}
	b, _ := s.Content(&Content{VibrationPattern: pattern})

	v, ok := b.Get("vibrationPattern")
	require.True(t, ok)
	got, ok := v.AsDoubleArray()
	require.True(t, ok)
	require.Len(t, got, len(pattern))
	for i := range pattern {
		assert.Equal(t, float64(pattern[i]), got[i])
	}

	empty, _ := s.Content(&Content{VibrationPattern: []int64{}})
	v, ok = empty.Get("vibrationPattern")
	require.True(t, ok)
	got, _ = v.AsDoubleArray()
	assert.Empty(t, got)

	absent, _ := s.Content(&Content{})
	assert.False(t, absent.Has("vibrationPattern"))
}

func TestBodyNullKeyOmittedArrayNullKept(t *testing.T) {
	body, err := payload.ParseJSONObject([]byte(`{"a": null, "b": [1, null, "x"]}`))
	require.NoError(t, err)

	b, dropped := newTestSerializer().Body(body)
	require.Empty(t, dropped)

	assert.False(t, b.Has("a"))
	assert.Equal(t, `{"b":[1,null,"x"]}`, mustJSON(t, b))
}

func TestBodyNestedStructure(t *testing.T) {
	body, err := payload.ParseJSONObject([]byte(`{"z":{"deep":{"n":2147483648}},"flag":false,"f":0.5,"arr":[[1],{"k":"v"}]}`))
	require.NoError(t, err)

	b, dropped := newTestSerializer().Body(body)
	require.Empty(t, dropped)

	assert.Equal(t, []string{"z", "flag", "f", "arr"}, b.Keys())
	assert.Equal(t, `{"z":{"deep":{"n":2147483648}},"flag":false,"f":0.5,"arr":[[1],{"k":"v"}]}`, mustJSON(t, b))

	z, _ := b.GetBundle("z")
	deep, _ := z.GetBundle("deep")
	n, _ := deep.Get("n")
	assert.Equal(t, bundle.KindLong, n.Kind())
}

func TestBodyMalformedFieldDroppedAndLogged(t *testing.T) {
	var logs bytes.Buffer
	s := NewSerializer(slog.New(slog.NewJSONHandler(&logs, nil)), nil)

	body, err := payload.ParseJSONObject([]byte(`{"ok":1,"bad":1e400,"nested":{"worse":-1e999,"fine":"y"},"after":"kept"}`))
	require.NoError(t, err)

	b, dropped := s.Body(body)

	assert.Equal(t, []string{"ok", "nested", "after"}, b.Keys())
	nested, _ := b.GetBundle("nested")
	assert.Equal(t, []string{"fine"}, nested.Keys())

	require.Len(t, dropped, 2)
	assert.Equal(t, "bad", dropped[0].Key)
	assert.Equal(t, "1e400", dropped[0].Raw)
	assert.ErrorIs(t, dropped[0], payload.ErrMalformedNumber)
	assert.Equal(t, "nested.worse", dropped[1].Key)

	assert.Contains(t, logs.String(), `"key":"bad"`)
	assert.Contains(t, logs.String(), `"component":"notification-serializer"`)
}

func TestBodyArrayErrorDropsEnclosingKey(t *testing.T) {
	body, err := payload.ParseJSONObject([]byte(`{"list":[1,1e400,3],"other":true}`))
	require.NoError(t, err)

	b, dropped := newTestSerializer().Body(body)

	assert.Equal(t, []string{"other"}, b.Keys())
	require.Len(t, dropped, 1)
	assert.Equal(t, "list", dropped[0].Key)
	assert.ErrorIs(t, dropped[0], payload.ErrMalformedNumber)
}

func TestArrayToListDirect(t *testing.T) {
	list, dropped, err := ArrayToList([]payload.Value{payload.Int(1), payload.Null(), payload.String("x")})
	require.NoError(t, err)
	assert.Empty(t, dropped)
	require.Len(t, list, 3)
	assert.True(t, list[1].IsNull())

	_, _, err = ArrayToList([]payload.Value{payload.Number("1e400")})
	assert.ErrorIs(t, err, payload.ErrMalformedNumber)
}

func TestTriggerSerialization(t *testing.T) {
	s := newTestSerializer()

	tests := []struct {
		name    string
		trigger Trigger
		want    string
	}{
		{
			name:    "interval",
			trigger: &TimeIntervalTrigger{Interval: 3600000 * time.Millisecond, Repeats: true},
			want:    `{"type":"interval","repeats":true,"value":3600000}`,
		},
		{
			name:    "date",
			trigger: &DateTrigger{At: time.UnixMilli(1700000000000)},
			want:    `{"type":"date","value":1700000000000}`,
		},
		{
			name:    "unknown",
			trigger: &UnknownTrigger{Kind: "location"},
			want:    `{"type":"unknown"}`,
		},
		{
			name:    "push without message",
			trigger: &PushTrigger{},
			want:    `{"type":"push","remoteMessage":null}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, mustJSON(t, s.Trigger(tt.trigger)))
		})
	}
}

func TestTriggerNil(t *testing.T) {
	s := newTestSerializer()
	assert.Nil(t, s.Trigger(nil))

	var typedNil *DateTrigger
	assert.Nil(t, s.Trigger(typedNil))
}

type stubRemoteSerializer struct{ calls int }

func (r *stubRemoteSerializer) ToBundle(msg *RemoteMessage) *bundle.Bundle {
	r.calls++
	b := bundle.New()
	b.PutString("id", msg.MessageID)
	return b
}

func TestPushTriggerUsesRemoteSerializer(t *testing.T) {
	remote := &stubRemoteSerializer{}
	s := NewSerializer(nil, remote)

	b := s.Trigger(&PushTrigger{RemoteMessage: &RemoteMessage{MessageID: "m-1"}})

	assert.Equal(t, 1, remote.calls)
	assert.Equal(t, `{"type":"push","remoteMessage":{"id":"m-1"}}`, mustJSON(t, b))
}

func TestDefaultRemoteMessageSerializer(t *testing.T) {
	b := DefaultRemoteMessageSerializer{}.ToBundle(&RemoteMessage{
		MessageID: "0:1",
		From:      "sender",
		SentTime:  1700000000000,
		TTL:       3600,
		Data:      map[string]string{"b": "2", "a": "1"},
		Notification: &RemoteNotification{
			Title:          "Hi",
			VibrateTimings: []int64{100},
		},
	})

	data, ok := b.GetBundle("data")
	require.True(t, ok)
	assert.Equal(t, []string{"a", "b"}, data.Keys())

	sent, _ := b.GetLong("sentTime")
	assert.Equal(t, int64(1700000000000), sent)

	n, ok := b.GetBundle("notification")
	require.True(t, ok)
	title, _ := n.GetString("title")
	assert.Equal(t, "Hi", title)
	assert.False(t, n.Has("notificationCount"))
}

func TestRequestNotificationResponse(t *testing.T) {
	s := newTestSerializer()

	resp := &Response{
		ActionIdentifier: "expo.modules.notifications.actions.DEFAULT",
		Notification: &Notification{
			Date: time.UnixMilli(1700000001234),
			Request: &Request{
				Identifier: "req-1",
				Content:    &Content{Title: strPtr("T")},
			},
		},
	}

	b, dropped := s.Response(resp)
	require.Empty(t, dropped)

	assert.Equal(t,
		`{"actionIdentifier":"expo.modules.notifications.actions.DEFAULT","notification":{"request":{"identifier":"req-1","content":{"title":"T","subtitle":null,"message":null,"body":null},"trigger":null},"date":1700000001234}}`,
		mustJSON(t, b))
}

func TestNilTopLevelObjects(t *testing.T) {
	s := newTestSerializer()

	b, _ := s.Response(nil)
	assert.Nil(t, b)
	b, _ = s.Notification(nil)
	assert.Nil(t, b)
	b, _ = s.Request(nil)
	assert.Nil(t, b)
	b, _ = s.Content(nil)
	assert.Nil(t, b)
	b, _ = s.Body(nil)
	assert.Nil(t, b)
}

func TestSerializationDoesNotMutateInput(t *testing.T) {
	body, err := payload.ParseJSONObject([]byte(`{"a":null,"b":{"c":1e400}}`))
	require.NoError(t, err)
	pattern := []int64{1, 2}
	content := &Content{Body: body, VibrationPattern: pattern}

	s := newTestSerializer()
	first, _ := s.Content(content)
	second, _ := s.Content(content)

	assert.Equal(t, first, second)
	assert.Equal(t, []string{"a", "b"}, body.Keys())
	assert.Equal(t, []int64{1, 2}, pattern)
}
