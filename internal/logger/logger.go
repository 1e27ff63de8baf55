package logger

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/brizzai/swapi/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var globalLogger = zap.NewNop()

// InitLogger replaces the global logger with one built from cfg
func InitLogger(cfg *config.LoggingConfig) error {
	l, err := NewLogger(cfg)
	if err != nil {
		return err
	}
	globalLogger = l
	return nil
}

// NewLogger builds a zap logger. Console output goes to stdout, or stderr
// when cfg.Stderr is set; OutputPath adds a log file.
func NewLogger(cfg *config.LoggingConfig) (*zap.Logger, error) {
	levelName := cfg.Level
	if levelName == "" {
		levelName = "info"
	}
	level, err := zapcore.ParseLevel(levelName)
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %v", err)
	}

	encoding, encoderConfig, err := encoderFor(cfg)
	if err != nil {
		return nil, err
	}

	outputs, err := outputPaths(cfg)
	if err != nil {
		return nil, err
	}

	zapConfig := zap.Config{
		Level:            zap.NewAtomicLevelAt(level),
		Development:      encoding == "console",
		Encoding:         encoding,
		OutputPaths:      outputs,
		ErrorOutputPaths: []string{"stderr"},
		EncoderConfig:    encoderConfig,
	}

	opts := []zap.Option{zap.AddCallerSkip(1)}
	if !cfg.DisableStacktrace {
		opts = append(opts, zap.AddStacktrace(zapcore.ErrorLevel))
	}
	l, err := zapConfig.Build(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %v", err)
	}
	return l, nil
}

func encoderFor(cfg *config.LoggingConfig) (string, zapcore.EncoderConfig, error) {
	switch cfg.Format {
	case "json":
		ec := zap.NewProductionEncoderConfig()
		ec.EncodeTime = zapcore.ISO8601TimeEncoder
		ec.EncodeLevel = zapcore.CapitalLevelEncoder
		return "json", ec, nil
	case "console", "":
		ec := zap.NewDevelopmentEncoderConfig()
		ec.EncodeTime = zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05.000")
		ec.EncodeLevel = zapcore.CapitalLevelEncoder
		if cfg.Color {
			ec.EncodeLevel = zapcore.CapitalColorLevelEncoder
		}
		ec.EncodeCaller = zapcore.ShortCallerEncoder
		ec.EncodeDuration = zapcore.StringDurationEncoder
		return "console", ec, nil
	default:
		return "", zapcore.EncoderConfig{}, fmt.Errorf("invalid log format: %q", cfg.Format)
	}
}

// outputPaths lists the zap sinks. With the console disabled and no file
// configured, logs still go to the console stream.
func outputPaths(cfg *config.LoggingConfig) ([]string, error) {
	console := "stdout"
	if cfg.Stderr {
		console = "stderr"
	}

	var paths []string
	if !cfg.DisableConsole {
		paths = append(paths, console)
	}
	if cfg.OutputPath != "" {
		if dir := filepath.Dir(cfg.OutputPath); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("failed to create log directory %s: %v", dir, err)
			}
		}
		paths = append(paths, cfg.OutputPath)
	}
	if len(paths) == 0 {
		paths = append(paths, console)
	}
	return paths, nil
}

// GetLogger returns the global logger instance
func GetLogger() *zap.Logger {
	return globalLogger
}

func Debug(msg string, fields ...zap.Field) {
	globalLogger.Debug(msg, fields...)
}

func Info(msg string, fields ...zap.Field) {
	globalLogger.Info(msg, fields...)
}

func Warn(msg string, fields ...zap.Field) {
	globalLogger.Warn(msg, fields...)
}

func Error(msg string, fields ...zap.Field) {
	globalLogger.Error(msg, fields...)
}

// Sync flushes any buffered log entries
func Sync() error {
	return globalLogger.Sync()
}

// SetLogger replaces the global logger; nil installs a no-op logger
func SetLogger(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	globalLogger = l
}

// Module initializes the global logger from the logging config and flushes it on stop
var Module = fx.Module("logger",
	fx.Invoke(func(lc fx.Lifecycle, cfg *config.LoggingConfig) error {
		if err := InitLogger(cfg); err != nil {
			return err
		}
		lc.Append(fx.StopHook(func() {
			_ = Sync()
		}))
		return nil
	}),
)
