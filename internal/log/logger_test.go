package log

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLevelForVerbosity(t *testing.T) {
	tests := []struct {
		count int
		want  string
	}{
		{-1, "info"},
		{0, "info"},
		{1, "debug"},
		{2, "trace"},
		{5, "trace"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, LevelForVerbosity(tt.count), "count %d", tt.count)
	}
}

func TestWithComponent(t *testing.T) {
	// Configure is once-only; whichever call ran first, the logger must be usable.
	l := WithComponent("parser")
	assert.NotPanics(t, func() {
		l.Debug().Str("event", "test").Msg("hello")
	})
	assert.NotPanics(t, func() {
		b := Base()
		b.Info().Msg("base")
	})
}
