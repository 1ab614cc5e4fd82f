// Package logging builds the zap loggers used for pipeline diagnostics.
//
// Diagnostics go to an injectable writer (stderr in the CLI) so that the
// display payloads on stdout stay machine-readable.
package logging

import (
	"io"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Options controls the logger output.
type Options struct {
	Verbose bool // enable debug level (stage transitions, commands)
	Quiet   bool // errors only; Verbose wins when both are set
	JSON    bool // JSON lines instead of console text
}

// New creates a logger writing to w. Info level unless Verbose or Quiet
// is set.
func New(w io.Writer, opts Options) *zap.Logger {
	encoderConfig := zapcore.EncoderConfig{
		LevelKey:         "level",
		MessageKey:       "message",
		EncodeLevel:      zapcore.LowercaseLevelEncoder,
		EncodeDuration:   zapcore.StringDurationEncoder,
		ConsoleSeparator: " ",
	}

	var encoder zapcore.Encoder
	if opts.JSON {
		encoderConfig.TimeKey = "timestamp"
		encoderConfig.EncodeTime = zapcore.RFC3339NanoTimeEncoder
		encoder = zapcore.NewJSONEncoder(encoderConfig)
	} else {
		encoder = zapcore.NewConsoleEncoder(encoderConfig)
	}

	level := zapcore.InfoLevel
	switch {
	case opts.Verbose:
		level = zapcore.DebugLevel
	case opts.Quiet:
		level = zapcore.ErrorLevel
	}

	core := zapcore.NewCore(encoder, zapcore.Lock(zapcore.AddSync(w)), level)
	return zap.New(core)
}

// Nop returns a logger that discards everything.
func Nop() *zap.Logger {
	return zap.NewNop()
}
