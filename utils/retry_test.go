package utils

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRetrySucceedsAfterFailures(t *testing.T) {
	r := &RetryConfig{MaxAttempts: 3, BaseDelay: time.Millisecond, Logger: NopLogger()}

	calls := 0
	err := r.Do(context.Background(), "fetch", func(context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("flaky")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestRetryGivesUp(t *testing.T) {
	r := &RetryConfig{MaxAttempts: 2, BaseDelay: time.Millisecond}
	flaky := errors.New("flaky")

	calls := 0
	err := r.Do(context.Background(), "fetch", func(context.Context) error {
		calls++
		return flaky
	})

	assert.True(t, errors.Is(err, flaky))
	assert.Contains(t, err.Error(), "fetch failed after 2 attempts")
	assert.Equal(t, 2, calls)
}

func TestRetryStopsOnPermanentError(t *testing.T) {
	permanent := errors.New("not found")
	r := &RetryConfig{
		MaxAttempts: 5,
		BaseDelay:   time.Millisecond,
		ShouldRetry: func(err error) bool { return !errors.Is(err, permanent) },
	}

	calls := 0
	err := r.Do(context.Background(), "fetch", func(context.Context) error {
		calls++
		return permanent
	})

	assert.Equal(t, permanent, err)
	assert.Equal(t, 1, calls)
}

func TestRetryHonoursContext(t *testing.T) {
	r := &RetryConfig{MaxAttempts: 5, BaseDelay: time.Hour}
	ctx, cancel := context.WithCancel(context.Background())

	err := r.Do(ctx, "fetch", func(context.Context) error {
		cancel()
		return errors.New("flaky")
	})

	assert.True(t, errors.Is(err, context.Canceled))
}

func TestNewLoggerFormats(t *testing.T) {
	var buf bytes.Buffer
	log := NewLoggerTo(&buf, "debug", LogFormatJSON)
	log.Debug("[test] hello", "n", 1)
	assert.True(t, strings.HasPrefix(buf.String(), "{"), buf.String())
	assert.Contains(t, buf.String(), `"n":1`)

	buf.Reset()
	log = NewLoggerTo(&buf, "warn", LogFormatText)
	log.Info("hidden")
	log.Warn("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")

	buf.Reset()
	log = NewLoggerTo(&buf, "", "")
	log.Info("[test] colour")
	assert.Contains(t, buf.String(), "[test] colour")
}

func TestParseLevel(t *testing.T) {
	tests := map[string]string{
		"debug":   "DEBUG",
		"WARNING": "WARN",
		"error":   "ERROR",
		"":        "INFO",
		"verbose": "INFO",
	}
	for in, want := range tests {
		if got := ParseLevel(in).String(); got != want {
			t.Errorf("ParseLevel(%q) = %s; want %s", in, got, want)
		}
	}
}
