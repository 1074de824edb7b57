package util

import (
	"bytes"
	"encoding/base64"
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerifyAPIKey(t *testing.T) {
	basic := base64.StdEncoding.EncodeToString([]byte("anyone:secret"))

	tests := []struct {
		name   string
		header string
		value  string
		want   bool
	}{
		{name: "bearer", header: "Authorization", value: "Bearer secret", want: true},
		{name: "basic", header: "Authorization", value: "Basic " + basic, want: true},
		{name: "header", header: "X-API-Key", value: "secret", want: true},
		{name: "wrong", header: "Authorization", value: "Bearer nope", want: false},
		{name: "garbage basic", header: "Authorization", value: "Basic !!!", want: false},
		{name: "missing", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/", nil)
			if tt.header != "" {
				r.Header.Set(tt.header, tt.value)
			}
			assert.Equal(t, tt.want, VerifyAPIKey(r, "secret"))
		})
	}
}

func TestVerifyAPIKeyEmptyConfiguredKey(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	r.Header.Set("X-API-Key", "")
	assert.False(t, VerifyAPIKey(r, ""))
}

func TestColorHandlerComponentPrefix(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerTo(&buf, false).With("component", "serializer")

	logger.Debug("hidden")
	logger.Info("Dropped value", "key", "a.b")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "serializer")
	assert.Contains(t, out, "Dropped value key=a.b")
	assert.NotContains(t, out, "component=")
}

func TestLogErrorWraps(t *testing.T) {
	var buf bytes.Buffer
	base := errors.New("boom")

	err := LogError(NewLoggerTo(&buf, true), "Failed to publish", base, "app", "x")

	require.Error(t, err)
	assert.ErrorIs(t, err, base)
	assert.Equal(t, "Failed to publish: boom", err.Error())
	assert.Contains(t, buf.String(), "app=x")
}

func TestFormatUptime(t *testing.T) {
	assert.Equal(t, "0s", FormatUptime(0))
	assert.Equal(t, "1d 2h 3m 4s", FormatUptime(26*time.Hour+3*time.Minute+4*time.Second))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "héll", Truncate("héllo", 4))
	assert.Equal(t, "hi", Truncate("hi", 10))
}

func TestValidateStruct(t *testing.T) {
	type item struct {
		Name  string `validate:"required"`
		Count int    `validate:"min=1"`
	}

	require.NoError(t, ValidateStruct(item{Name: "a", Count: 1}))

	err := ValidateStruct(item{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "item.Name failed required")
	assert.Contains(t, err.Error(), "item.Count failed min=1")
}
