// Package logging builds the zap loggers shared by the CLI, the HTTP server
// and the view graph.
package logging

import (
	"io"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ParseLevel maps ERROR|WARN|INFO|DEBUG (any case) to a zap level; unknown
// values yield InfoLevel.
func ParseLevel(s string) zapcore.Level {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "ERROR":
		return zap.ErrorLevel
	case "WARN", "WARNING":
		return zap.WarnLevel
	case "DEBUG":
		return zap.DebugLevel
	default:
		return zap.InfoLevel
	}
}

// New returns a console logger writing to w at the given level.
func New(w io.Writer, level zapcore.Level) *zap.Logger {
	enc := zap.NewDevelopmentEncoderConfig()
	enc.EncodeLevel = zapcore.CapitalLevelEncoder
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(enc), zapcore.AddSync(w), level)
	return zap.New(core)
}

// NewDefault writes to stderr at the level named by CHURNBOARD_LOG_LEVEL (INFO if unset).
func NewDefault() *zap.Logger {
	return New(os.Stderr, ParseLevel(os.Getenv("CHURNBOARD_LOG_LEVEL")))
}

// OrNop returns l, or a no-op logger when l is nil.
func OrNop(l *zap.Logger) *zap.Logger {
	if l == nil {
		return zap.NewNop()
	}
	return l
}
