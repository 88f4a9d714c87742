package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		give    string
		want    zapcore.Level
		wantErr bool
	}{
		{give: "debug", want: zapcore.DebugLevel},
		{give: "info", want: zapcore.InfoLevel},
		{give: "WARN", want: zapcore.WarnLevel},
		{give: "verbose", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.give, func(t *testing.T) {
			t.Parallel()

			got, err := ParseLevel(tt.give)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestConfig_New(t *testing.T) {
	t.Parallel()

	cfg := Config{Level: zapcore.WarnLevel, Encoding: "console"}
	lggr, err := cfg.New()
	require.NoError(t, err)
	assert.Equal(t, "calctl", lggr.Named("calctl").Name())

	cfg = Config{Encoding: "xml"}
	_, err = cfg.New()
	require.Error(t, err)
}

func TestTestObserved(t *testing.T) {
	t.Parallel()

	lggr, logs := TestObserved(t, zapcore.InfoLevel)
	lggr = lggr.Named("sqlstore").With("driver", "ramsql")

	lggr.Debugw("not recorded")
	lggr.Infow("Pushed calibrations", "snapshot", "abc")

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "Pushed calibrations", entries[0].Message)
	assert.Equal(t, "sqlstore", entries[0].LoggerName)
	assert.Equal(t, map[string]any{"driver": "ramsql", "snapshot": "abc"}, entries[0].ContextMap())
}

func TestNop(t *testing.T) {
	t.Parallel()

	lggr := Nop()
	lggr.Errorw("dropped", "key", "value")
	assert.Empty(t, lggr.Name())
}
