// Package diag routes the stage logs of every component through zap.
package diag

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Levels used across the codebase. ANALYSIS is progress chatter, RISK is
// a degraded path that still produced a result.
const (
	LevelInfo     = "INFO"
	LevelAnalysis = "ANALYSIS"
	LevelRisk     = "RISK"
	LevelError    = "ERROR"
)

type Options struct {
	// Level is the minimum zap level: debug, info, warn or error.
	Level string
	// Format is "json" or "console".
	Format string
	// SessionDir, when set, also receives a plain session-<time>.log file.
	SessionDir string
}

// Logger implements the Log(level, stage, message, detail) contract on
// top of a zap core.
type Logger struct {
	z           *zap.Logger
	sessionFile string
	session     *os.File
}

func New(opts Options) (*Logger, error) {
	level := zapcore.InfoLevel
	if strings.TrimSpace(opts.Level) != "" {
		if err := level.Set(strings.ToLower(opts.Level)); err != nil {
			return nil, fmt.Errorf("log level %q: %w", opts.Level, err)
		}
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	var enc zapcore.Encoder
	if opts.Format == "console" {
		enc = zapcore.NewConsoleEncoder(encCfg)
	} else {
		enc = zapcore.NewJSONEncoder(encCfg)
	}
	cores := []zapcore.Core{zapcore.NewCore(enc, zapcore.Lock(os.Stderr), level)}

	l := &Logger{}
	if opts.SessionDir != "" {
		if err := os.MkdirAll(opts.SessionDir, 0o755); err != nil {
			return nil, fmt.Errorf("create session log dir: %w", err)
		}
		l.sessionFile = filepath.Join(opts.SessionDir, "session-"+time.Now().Format("20060102-150405")+".log")
		f, err := os.OpenFile(l.sessionFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open session log: %w", err)
		}
		l.session = f
		fileCfg := zap.NewProductionEncoderConfig()
		fileCfg.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05.000")
		cores = append(cores, zapcore.NewCore(zapcore.NewConsoleEncoder(fileCfg), zapcore.AddSync(f), zapcore.DebugLevel))
	}

	l.z = zap.New(zapcore.NewTee(cores...))
	return l, nil
}

// FromZap wraps an existing zap logger.
func FromZap(z *zap.Logger) *Logger {
	if z == nil {
		z = zap.NewNop()
	}
	return &Logger{z: z}
}

func Nop() *Logger {
	return FromZap(nil)
}

func (l *Logger) Log(level, stage, message, detail string) {
	if l == nil || l.z == nil {
		return
	}
	fields := []zap.Field{zap.String("stage", stage)}
	if strings.TrimSpace(detail) != "" {
		fields = append(fields, zap.String("detail", detail))
	}
	switch strings.ToUpper(level) {
	case LevelRisk:
		l.z.Warn(message, fields...)
	case LevelError:
		l.z.Error(message, fields...)
	case LevelAnalysis:
		l.z.Debug(message, fields...)
	default:
		l.z.Info(message, fields...)
	}
}

// Zap exposes the underlying logger for components that log natively.
func (l *Logger) Zap() *zap.Logger {
	if l == nil || l.z == nil {
		return zap.NewNop()
	}
	return l.z
}

// SessionFile is the plain-text log path, or "" when none is kept.
func (l *Logger) SessionFile() string {
	if l == nil {
		return ""
	}
	return l.sessionFile
}

func (l *Logger) Sync() error {
	if l == nil || l.z == nil {
		return nil
	}
	return l.z.Sync()
}

// Close flushes the logger and releases the session log file. Logging after
// Close still reaches stderr.
func (l *Logger) Close() error {
	if l == nil {
		return nil
	}
	// Syncing stderr fails on some terminals; only the file matters here.
	_ = l.Sync()
	if l.session == nil {
		return nil
	}
	err := l.session.Close()
	l.session = nil
	return err
}
