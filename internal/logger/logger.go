package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"cdnsync/internal/config"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	defaultLogger = zap.NewNop().Sugar()
	mu            sync.RWMutex
)

// LogLevel 日志级别类型
type LogLevel int

const (
	DEBUG LogLevel = iota
	INFO
	WARN
	ERROR
)

// GetLogLevelFromString 将字符串转换为日志级别
func GetLogLevelFromString(level string) LogLevel {
	switch strings.ToLower(level) {
	case "debug":
		return DEBUG
	case "info":
		return INFO
	case "warn":
		return WARN
	case "error":
		return ERROR
	default:
		return WARN // 默认级别
	}
}

func (l LogLevel) zapLevel() zapcore.Level {
	switch l {
	case DEBUG:
		return zapcore.DebugLevel
	case INFO:
		return zapcore.InfoLevel
	case ERROR:
		return zapcore.ErrorLevel
	default:
		return zapcore.WarnLevel
	}
}

// InitLogger 初始化日志系统
func InitLogger(cfg *config.LogConfig) error {
	output := "stderr"
	if cfg.Path != "" && cfg.Path != "console" {
		if err := os.MkdirAll(filepath.Dir(cfg.Path), 0755); err != nil {
			return fmt.Errorf("create log directory: %w", err)
		}
		output = cfg.Path
	}

	zcfg := zap.NewProductionConfig()
	zcfg.Encoding = "console"
	zcfg.Level = zap.NewAtomicLevelAt(GetLogLevelFromString(cfg.Level).zapLevel())
	zcfg.OutputPaths = []string{output}
	zcfg.ErrorOutputPaths = []string{"stderr"}
	zcfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	zcfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	zcfg.DisableStacktrace = true
	zcfg.Sampling = nil

	l, err := zcfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	SetLogger(l)
	return nil
}

// SetLogger replaces the backing logger, mainly for tests.
func SetLogger(l *zap.Logger) {
	mu.Lock()
	defer mu.Unlock()
	defaultLogger = l.Sugar()
}

// Sync flushes buffered entries.
func Sync() {
	_ = get().Sync()
}

func get() *zap.SugaredLogger {
	mu.RLock()
	defer mu.RUnlock()
	return defaultLogger
}

// Debug 输出调试日志
func Debug(v ...interface{}) {
	get().Debug(v...)
}

// Debugf 输出格式化调试日志
func Debugf(format string, v ...interface{}) {
	get().Debugf(format, v...)
}

// Info 输出信息日志
func Info(v ...interface{}) {
	get().Info(v...)
}

// Infof 输出格式化信息日志
func Infof(format string, v ...interface{}) {
	get().Infof(format, v...)
}

// Warn 输出警告日志
func Warn(v ...interface{}) {
	get().Warn(v...)
}

// Warnf 输出格式化警告日志
func Warnf(format string, v ...interface{}) {
	get().Warnf(format, v...)
}

// Error 输出错误日志
func Error(v ...interface{}) {
	get().Error(v...)
}

// Errorf 输出格式化错误日志
func Errorf(format string, v ...interface{}) {
	get().Errorf(format, v...)
}

// Fatal 输出致命错误日志并退出程序
func Fatal(v ...interface{}) {
	get().Error(v...)
	Sync()
	fmt.Fprintln(os.Stderr, v...)
	os.Exit(1)
}

// Fatalf 输出格式化致命错误日志并退出程序
func Fatalf(format string, v ...interface{}) {
	get().Errorf(format, v...)
	Sync()
	fmt.Fprintf(os.Stderr, format+"\n", v...)
	os.Exit(1)
}
