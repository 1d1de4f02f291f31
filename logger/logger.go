// Package logger builds the zap loggers tallyvm components log through.
//
// Nothing is installed globally: New returns a logger and a Guard, and the
// caller hands the logger to the components that need it.
package logger

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/caffeineduck/tallyvm/config"
)

// Guard flushes and releases the logger's output.
type Guard struct {
	logger *zap.Logger
	file   *dailyFile
}

// Close flushes buffered entries and closes the log file, if any.
func (g *Guard) Close() error {
	syncErr := g.logger.Sync()
	if g.file != nil {
		if err := g.file.Close(); err != nil {
			return err
		}
		return syncErr
	}
	// Sync on a terminal stderr fails with EINVAL; nothing was buffered.
	return nil
}

func NewFromConfig(cfg config.LoggingConfig) (*zap.Logger, *Guard, error) {
	return New(cfg.Mode, cfg.Level, cfg.Dir)
}

// New creates a logger for mode ("production" or "development") at level.
// With a non-empty dir it writes to a daily file under dir instead of
// stderr.
func New(mode, level, dir string) (*zap.Logger, *Guard, error) {
	var encCfg zapcore.EncoderConfig
	var encoder func(zapcore.EncoderConfig) zapcore.Encoder

	switch mode {
	case "development":
		encCfg = zap.NewDevelopmentEncoderConfig()
		encCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		encoder = zapcore.NewConsoleEncoder
	case "production":
		encCfg = zap.NewProductionEncoderConfig()
		encCfg.TimeKey = "timestamp"
		encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
		encoder = zapcore.NewJSONEncoder
	default:
		return nil, nil, fmt.Errorf("invalid logging mode: %s, must be 'production' or 'development'", mode)
	}

	logLevel, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid logging level: %s, must be one of 'debug', 'info', 'warn', 'error', 'dpanic', 'panic', 'fatal'", level)
	}

	var sink zapcore.WriteSyncer = zapcore.Lock(os.Stderr)
	var file *dailyFile
	if dir != "" {
		file, err = openDailyFile(dir)
		if err != nil {
			return nil, nil, err
		}
		sink = file
		// no color codes in files
		if mode == "development" {
			encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
		}
	}

	core := zapcore.NewCore(encoder(encCfg), sink, zap.NewAtomicLevelAt(logLevel))
	opts := []zap.Option{zap.AddStacktrace(zapcore.ErrorLevel)}
	if mode == "development" {
		opts = append(opts, zap.Development(), zap.AddCaller())
	}

	l := zap.New(core, opts...)
	return l, &Guard{logger: l, file: file}, nil
}
