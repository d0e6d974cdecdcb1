package logging

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestNew_RespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, zap.WarnLevel)
	l.Info("hidden info")
	l.Debug("hidden debug")
	l.Warn("shown warn", zap.String("view", "kpis"))
	l.Error("shown error")
	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "WARN")
	assert.Contains(t, out, "shown warn")
	assert.Contains(t, out, `"view": "kpis"`)
	assert.Contains(t, out, "shown error")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zap.DebugLevel, ParseLevel("debug"))
	assert.Equal(t, zap.WarnLevel, ParseLevel(" WARNING "))
	assert.Equal(t, zap.ErrorLevel, ParseLevel("ERROR"))
	assert.Equal(t, zap.InfoLevel, ParseLevel("chatty"))
}

func TestOrNop(t *testing.T) {
	l := OrNop(nil)
	assert.NotNil(t, l)
	l.Info("no panic")
	named := zap.NewExample()
	assert.Same(t, named, OrNop(named))
}
