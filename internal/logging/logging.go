// Package logging builds the zap logger used across ncwatchdog.
package logging

import (
	"fmt"
	"runtime"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/mackeh/ncwatchdog/internal/config"
	"github.com/mackeh/ncwatchdog/internal/security/redactor"
)

// New creates a logger from cfg. Output passes through r so credentials
// never reach the log. The returned function closes file outputs.
func New(cfg config.LoggingConfig, r *redactor.Redactor) (*zap.Logger, func(), error) {
	level := zapcore.InfoLevel
	if cfg.Level != "" {
		if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
			return nil, nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
		}
	}

	output := cfg.Output
	if output == "" {
		output = "stderr"
	}
	sink, closeSink, err := zap.Open(output)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log output %q: %w", output, err)
	}

	encoder, err := newEncoder(cfg.Encoding)
	if err != nil {
		closeSink()
		return nil, nil, err
	}

	if r == nil {
		r = redactor.New()
	}
	core := zapcore.NewCore(encoder, zapcore.AddSync(redactor.NewWriter(sink, r)), level)
	return zap.New(core, zap.ErrorOutput(sink)), closeSink, nil
}

func newEncoder(encoding string) (zapcore.Encoder, error) {
	levelEncoder := zapcore.CapitalColorLevelEncoder
	if runtime.GOOS == "windows" {
		levelEncoder = zapcore.CapitalLevelEncoder
	}

	ec := zapcore.EncoderConfig{
		TimeKey:        "T",
		LevelKey:       "L",
		NameKey:        "N",
		CallerKey:      "C",
		MessageKey:     "M",
		StacktraceKey:  "S",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    levelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}

	switch encoding {
	case "", "console":
		return zapcore.NewConsoleEncoder(ec), nil
	case "json":
		ec.EncodeLevel = zapcore.CapitalLevelEncoder
		return zapcore.NewJSONEncoder(ec), nil
	default:
		return nil, fmt.Errorf("unknown log encoding %q (want console or json)", encoding)
	}
}
