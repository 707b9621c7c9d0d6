package log

import (
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LevelEnvVar is the environment variable controlling log verbosity.
const LevelEnvVar = "LOG_LEVEL"

// ParseLevel maps a level name to a zap level. "trace" is accepted for
// compatibility with other dyndns tooling and maps to debug since zap has no
// trace level.
func ParseLevel(level string) (zapcore.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "", "info":
		return zapcore.InfoLevel, nil
	case "trace", "debug":
		return zapcore.DebugLevel, nil
	case "warn", "warning":
		return zapcore.WarnLevel, nil
	case "error":
		return zapcore.ErrorLevel, nil
	default:
		return zapcore.InfoLevel, fmt.Errorf("log: unknown log level %q", level)
	}
}

func NewLogger() (*zap.Logger, error) {
	level, err := ParseLevel(os.Getenv(LevelEnvVar))
	if err != nil {
		return nil, err
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(level)
	return cfg.Build(
		zap.AddCaller(),
		zap.AddStacktrace(zap.DPanicLevel),
	)
}

func MustNewLogger() *zap.Logger {
	l, err := NewLogger()
	if err != nil {
		panic(fmt.Errorf("could not create new logger: %w", err))
	}
	return l
}
