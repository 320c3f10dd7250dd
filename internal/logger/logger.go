package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"

	"tg-filedrop/internal/config"
)

// Level orders log severities; messages below the configured level are dropped
type Level int32

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarning
	LevelError
	LevelFatal
)

var levelNames = map[Level]string{
	LevelDebug:   "DEBUG",
	LevelInfo:    "INFO",
	LevelWarning: "WARNING",
	LevelError:   "ERROR",
	LevelFatal:   "FATAL",
}

var currentLevel atomic.Int32

func init() {
	currentLevel.Store(int32(LevelInfo))
}

// ParseLevel maps a configured level name to a Level, defaulting to INFO
func ParseLevel(name string) Level {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "DEBUG":
		return LevelDebug
	case "WARN", "WARNING":
		return LevelWarning
	case "ERROR":
		return LevelError
	case "FATAL":
		return LevelFatal
	default:
		return LevelInfo
	}
}

// SetLevel changes the minimum level written to the log
func SetLevel(level Level) {
	currentLevel.Store(int32(level))
}

// Enabled reports whether messages at level are written
func Enabled(level Level) bool {
	return level >= Level(currentLevel.Load())
}

// createLogFilePath generates a log file path with the current date
func createLogFilePath(logDir, prefix string) string {
	currentDate := time.Now().Format("2006-01-02")
	return filepath.Join(logDir, fmt.Sprintf("%s-%s.log", prefix, currentDate))
}

// createRotatingLogger creates a lumberjack rotating logger
func createRotatingLogger(logFilePath string, cfg *config.Config) *lumberjack.Logger {
	return &lumberjack.Logger{
		Filename:   logFilePath,
		MaxSize:    cfg.Logger.Rotation.MaxSize,
		MaxBackups: cfg.Logger.Rotation.MaxBackups,
		MaxAge:     cfg.Logger.Rotation.MaxAge,
		Compress:   cfg.Logger.Rotation.Compress,
	}
}

// Setup configures logging to output to both stdout and a rotating log file
func Setup(cfg *config.Config) error {
	logDir := cfg.Logger.Directory

	if err := os.MkdirAll(logDir, 0755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}

	logFilePath := createLogFilePath(logDir, "tg-filedrop")
	rotatingLogger := createRotatingLogger(logFilePath, cfg)

	log.SetOutput(io.MultiWriter(os.Stdout, rotatingLogger))
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
	SetLevel(ParseLevel(cfg.Logger.Level))

	log.Printf("Logging initialized: writing to %s (level %s)", logFilePath, levelNames[Level(currentLevel.Load())])
	return nil
}

// output skips this file's frames so Lshortfile points at the caller
func output(level Level, msg string) {
	if !Enabled(level) {
		return
	}
	log.Output(3, "["+levelNames[level]+"] "+msg)
}

func Debug(v ...interface{})   { output(LevelDebug, fmt.Sprint(v...)) }
func Info(v ...interface{})    { output(LevelInfo, fmt.Sprint(v...)) }
func Warning(v ...interface{}) { output(LevelWarning, fmt.Sprint(v...)) }
func Error(v ...interface{})   { output(LevelError, fmt.Sprint(v...)) }

func Debugf(format string, v ...interface{})   { output(LevelDebug, fmt.Sprintf(format, v...)) }
func Infof(format string, v ...interface{})    { output(LevelInfo, fmt.Sprintf(format, v...)) }
func Warningf(format string, v ...interface{}) { output(LevelWarning, fmt.Sprintf(format, v...)) }
func Errorf(format string, v ...interface{})   { output(LevelError, fmt.Sprintf(format, v...)) }

// Fatalf logs regardless of level and exits
func Fatalf(format string, v ...interface{}) {
	log.Output(2, "["+levelNames[LevelFatal]+"] "+fmt.Sprintf(format, v...))
	os.Exit(1)
}
