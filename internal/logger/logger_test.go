package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestNew_Modes(t *testing.T) {
	for _, mode := range []string{"dev", "prod", "production", ""} {
		l, err := New(mode)
		require.NoError(t, err, mode)
		require.NotNil(t, l.SugaredLogger)
	}
}

func TestWith_CarriesFields(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	l := &Logger{SugaredLogger: zap.New(core).Sugar()}

	l.With("component", "classifier").Warn("chunk failed", "chunk", 2)

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "chunk failed", entries[0].Message)
	fields := entries[0].ContextMap()
	assert.Equal(t, "classifier", fields["component"])
	assert.EqualValues(t, 2, fields["chunk"])
}

func TestOrNop(t *testing.T) {
	assert.NotNil(t, OrNop(nil).SugaredLogger)

	l := Nop()
	assert.Same(t, l, OrNop(l))
}
