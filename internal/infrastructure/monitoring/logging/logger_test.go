package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewLoggerDefaults(t *testing.T) {
	l, err := NewLogger(LogConfig{})
	require.NoError(t, err)
	require.NotNil(t, l)
	// Must not panic on any level.
	l.Debug("debug line")
	l.Info("info line", String("k", "v"))
	l.Warn("warn line", Int("n", 3))
	l.Error("error line", Err(nil))
}

func TestFieldsReachZapCore(t *testing.T) {
	core, observed := observer.New(zapcore.DebugLevel)
	l := NewLoggerFromCore(core)

	l.Info("candidate selected",
		String("tier", "lexical_fallback"),
		Int64("catalog_id", 7),
		Float64("score", 0.78),
		Bool("fallback", true),
	)

	entries := observed.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "candidate selected", entries[0].Message)

	fields := entries[0].ContextMap()
	assert.Equal(t, "lexical_fallback", fields["tier"])
	assert.Equal(t, int64(7), fields["catalog_id"])
	assert.Equal(t, 0.78, fields["score"])
	assert.Equal(t, true, fields["fallback"])
}

func TestWithAndNamed(t *testing.T) {
	core, observed := observer.New(zapcore.DebugLevel)
	l := NewLoggerFromCore(core).Named("matching").With(String("request_id", "r-1"))

	l.Debug("normalized")

	entries := observed.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "matching", entries[0].LoggerName)
	assert.Equal(t, "r-1", entries[0].ContextMap()["request_id"])
}

func TestDefaultLoggerSwap(t *testing.T) {
	orig := Default()
	defer SetDefault(orig)

	nop := NewNopLogger()
	SetDefault(nop)
	assert.Equal(t, nop, Default())

	// nil is ignored, not installed.
	SetDefault(nil)
	assert.Equal(t, nop, Default())
}
