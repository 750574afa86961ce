package logger

import (
	"context"
	"errors"
	"testing"

	"collection-tracker/internal/shared/contextkeys"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLoggerInterface_Contract(t *testing.T) {
	var _ Logger = NewLogger()
	var _ Logger = NewLoggerWithConfig("info", "json")
	var _ Logger = NewZapLoggerFrom(zap.NewNop())
}

func TestLogrusLogger_WithFieldsAndContext(t *testing.T) {
	logger := NewLogger()
	logger2 := logger.WithFields(map[string]interface{}{"foo": "bar"})
	assert.NotNil(t, logger2)
	ctx := context.Background()
	ctx = context.WithValue(ctx, contextkeys.UserIDKey, "user1")
	logger3 := logger.WithContext(ctx)
	assert.NotNil(t, logger3)
}

func TestLogrusLogger_WithComponent(t *testing.T) {
	logger := NewLogger()
	logger2 := logger.WithComponent("test-component")
	assert.NotNil(t, logger2)
}

func TestContextFields(t *testing.T) {
	ctx := context.WithValue(context.Background(), contextkeys.UserIDKey, "u1")
	ctx = context.WithValue(ctx, contextkeys.SetIDKey, "neo")
	ctx = context.WithValue(ctx, contextkeys.CardIDKey, "")

	fields := contextFields(ctx)
	assert.Equal(t, map[string]interface{}{"user_id": "u1", "set_id": "neo"}, fields)
}

func TestSplitKeyValues(t *testing.T) {
	msg, fields, ok := splitKeyValues([]interface{}{"card written", "userID", "u1", "error", errors.New("boom")})
	require.True(t, ok)
	assert.Equal(t, "card written", msg)
	assert.Equal(t, "u1", fields["userID"])
	assert.Equal(t, "boom", fields["error"])

	_, _, ok = splitKeyValues([]interface{}{"just a message"})
	assert.False(t, ok)
	_, _, ok = splitKeyValues([]interface{}{"msg", 42, "value"})
	assert.False(t, ok)
	_, _, ok = splitKeyValues([]interface{}{"msg", "dangling"})
	assert.False(t, ok)
}

func TestNewLoggerForBackend(t *testing.T) {
	l, err := NewLoggerForBackend("logrus", "debug", "text")
	require.NoError(t, err)
	assert.IsType(t, &LogrusLogger{}, l)

	l, err = NewLoggerForBackend("zap", "warn", "json")
	require.NoError(t, err)
	assert.IsType(t, &ZapLogger{}, l)

	_, err = NewLoggerForBackend("syslog", "info", "text")
	assert.Error(t, err)
}

func TestZapLogger_Chaining(t *testing.T) {
	z := NewZapLoggerFrom(zap.NewNop())
	ctx := context.WithValue(context.Background(), contextkeys.RequestIDKey, "r1")
	assert.NotPanics(t, func() {
		z.WithComponent("orchestrator").WithContext(ctx).Info("card written", "version", int64(3))
		z.Warn("plain", "message", "with", "odd")
	})
}
