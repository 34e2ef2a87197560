// Package logger provides structured logging.
package logger

import (
	"os"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/agentnetph/agent-network-backend/internal/common/config"
)

var (
	log   *zap.Logger
	sugar *zap.SugaredLogger
)

// Init initializes the logger
func Init(cfg *config.LoggerConfig) error {
	level := getLogLevel(cfg.Level)

	encoderConfig := zapcore.EncoderConfig{
		TimeKey:        "time",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		FunctionKey:    zapcore.OmitKey,
		MessageKey:     "msg",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     customTimeEncoder,
		EncodeDuration: zapcore.SecondsDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}

	var encoder zapcore.Encoder
	if cfg.Format == "json" {
		encoder = zapcore.NewJSONEncoder(encoderConfig)
	} else {
		encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		encoder = zapcore.NewConsoleEncoder(encoderConfig)
	}

	var writers []zapcore.WriteSyncer

	if cfg.Output == "stdout" || cfg.Output == "" {
		writers = append(writers, zapcore.AddSync(os.Stdout))
	}

	if cfg.FilePath != "" && cfg.Output != "stdout" {
		fileWriter := &lumberjack.Logger{
			Filename:   cfg.FilePath,
			MaxSize:    cfg.MaxSize,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAge,
			Compress:   cfg.Compress,
			LocalTime:  true,
		}
		writers = append(writers, zapcore.AddSync(fileWriter))
	}

	core := zapcore.NewCore(
		encoder,
		zapcore.NewMultiWriteSyncer(writers...),
		level,
	)

	options := []zap.Option{
		zap.AddStacktrace(zapcore.ErrorLevel),
	}
	if cfg.Caller {
		options = append(options, zap.AddCaller(), zap.AddCallerSkip(1))
	}

	log = zap.New(core, options...)
	sugar = log.Sugar()

	return nil
}

// customTimeEncoder formats timestamps
func customTimeEncoder(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
	enc.AppendString(t.Format("2006-01-02 15:04:05.000"))
}

// getLogLevel maps the configured level
func getLogLevel(level string) zapcore.Level {
	switch level {
	case "debug":
		return zapcore.DebugLevel
	case "info":
		return zapcore.InfoLevel
	case "warn":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// GetLogger returns the raw logger
func GetLogger() *zap.Logger {
	if log == nil {
		log, _ = zap.NewDevelopment()
		sugar = log.Sugar()
	}
	return log
}

// GetSugar returns the sugared logger
func GetSugar() *zap.SugaredLogger {
	if sugar == nil {
		log, _ = zap.NewDevelopment()
		sugar = log.Sugar()
	}
	return sugar
}

// Sync flushes buffered log entries
func Sync() error {
	if log != nil {
		return log.Sync()
	}
	return nil
}

// Debug debug-level log
func Debug(msg string, fields ...zap.Field) {
	GetLogger().Debug(msg, fields...)
}

// Info info-level log
func Info(msg string, fields ...zap.Field) {
	GetLogger().Info(msg, fields...)
}

// Warn warn-level log
func Warn(msg string, fields ...zap.Field) {
	GetLogger().Warn(msg, fields...)
}

// Error error-level log
func Error(msg string, fields ...zap.Field) {
	GetLogger().Error(msg, fields...)
}

// Fatal fatal-level log
func Fatal(msg string, fields ...zap.Field) {
	GetLogger().Fatal(msg, fields...)
}

// Debugf formatted debug-level log
func Debugf(template string, args ...interface{}) {
	GetSugar().Debugf(template, args...)
}

// Infof formatted info-level log
func Infof(template string, args ...interface{}) {
	GetSugar().Infof(template, args...)
}

// Warnf formatted warn-level log
func Warnf(template string, args ...interface{}) {
	GetSugar().Warnf(template, args...)
}

// Errorf formatted error-level log
func Errorf(template string, args ...interface{}) {
	GetSugar().Errorf(template, args...)
}

// With returns a logger with preset fields
func With(fields ...zap.Field) *zap.Logger {
	return GetLogger().With(fields...)
}

// Named returns a named logger
func Named(name string) *zap.Logger {
	return GetLogger().Named(name)
}

// Common field constructors
var (
	String   = zap.String
	Int      = zap.Int
	Int64    = zap.Int64
	Float64  = zap.Float64
	Bool     = zap.Bool
	Any      = zap.Any
	Err      = zap.Error
	Duration = zap.Duration
	Time     = zap.Time
)

// RequestID request ID field
func RequestID(id string) zap.Field {
	return zap.String("request_id", id)
}

// AgentID agent ID field
func AgentID(id int64) zap.Field {
	return zap.Int64("agent_id", id)
}

// AgentCode agent code field
func AgentCode(code string) zap.Field {
	return zap.String("agent_code", code)
}

// AdminID admin ID field
func AdminID(id int64) zap.Field {
	return zap.Int64("admin_id", id)
}

// PaymentRef payment reference field
func PaymentRef(ref string) zap.Field {
	return zap.String("payment_ref", ref)
}

// WalletID wallet ID field
func WalletID(id int64) zap.Field {
	return zap.Int64("wallet_id", id)
}

// Tier commission tier field
func Tier(tier int) zap.Field {
	return zap.Int("tier", tier)
}

// AmountCents amount field in minor currency units
func AmountCents(amount int64) zap.Field {
	return zap.Int64("amount_cents", amount)
}

// Module module field
func Module(name string) zap.Field {
	return zap.String("module", name)
}
