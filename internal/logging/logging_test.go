package logging_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/Mohsinsiddi/hhbridge/internal/logging"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zapcore.Level
	}{
		{"", zapcore.InfoLevel},
		{"debug", zapcore.DebugLevel},
		{"WARN", zapcore.WarnLevel},
		{"error", zapcore.ErrorLevel},
	}
	for _, tt := range tests {
		got, err := logging.ParseLevel(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	_, err := logging.ParseLevel("loud")
	assert.Error(t, err)
}

func TestNew(t *testing.T) {
	l, err := logging.New("debug")
	require.NoError(t, err)
	assert.NotNil(t, l)

	_, err = logging.New("loud")
	assert.Error(t, err)
}

func TestNewWriterFiltersLevel(t *testing.T) {
	var buf bytes.Buffer
	l, err := logging.NewWriter(&buf, "warn")
	require.NoError(t, err)

	l.Infow("hidden")
	l.Warnw("shown", "job", "verify_contract")
	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "shown")
	assert.Contains(t, out, "verify_contract")
}
