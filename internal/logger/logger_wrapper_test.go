package logger

import (
	"errors"
	"testing"

	"github.com/leandrodaf/miditransport/sdk/contracts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestZapLoggerWritesStructuredFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := NewZapLoggerFrom(zap.New(core))

	log.Info("port bound",
		log.Field().String("port", "IAC Bus 1"),
		log.Field().Uint8("channel", 3),
		log.Field().Error("error", errors.New("boom")),
	)

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "port bound", entry.Message)
	assert.Equal(t, zapcore.InfoLevel, entry.Level)
	ctx := entry.ContextMap()
	assert.Equal(t, "IAC Bus 1", ctx["port"])
	assert.EqualValues(t, 3, ctx["channel"])
	assert.Equal(t, "boom", ctx["error"])
}

func TestZapLoggerLevelFiltering(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := NewZapLoggerFrom(zap.New(core))
	log.SetLevel(contracts.WarnLevel)

	log.Debug("dropped")
	log.Info("dropped")
	log.Warn("kept")
	log.Error("kept")

	assert.Equal(t, 2, logs.Len())
	assert.Equal(t, 2, logs.FilterMessage("kept").Len())
	assert.False(t, log.Enabled(contracts.DebugLevel))
	assert.True(t, log.Enabled(contracts.ErrorLevel))
}

func TestZapLoggerEnabledFollowsCore(t *testing.T) {
	core, _ := observer.New(zapcore.InfoLevel)
	log := NewZapLoggerFrom(zap.New(core))
	assert.False(t, log.Enabled(contracts.DebugLevel))
	assert.True(t, log.Enabled(contracts.InfoLevel))
}

func TestZapLoggerWithSharesLevel(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	parent := NewZapLoggerFrom(zap.New(core))
	child := parent.With(parent.Field().String("transport", "abc"))

	parent.SetLevel(contracts.ErrorLevel)
	child.Info("filtered")
	child.Error("visible")

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "abc", logs.All()[0].ContextMap()["transport"])
}

func TestNopLogger(t *testing.T) {
	log := NewNopLogger()
	assert.False(t, log.Enabled(contracts.ErrorLevel))
	assert.NotPanics(t, func() {
		log.Info("nothing", log.Field().Bool("ok", true))
		log.SetDestination(contracts.FileLog)
	})
}
