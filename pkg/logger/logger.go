package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	logDirName  = ".oralvis/logs"
	logFileName = "oralvis-sync.log"
	maxSizeMB   = 2
	maxAgeDays  = 14
	maxBackups  = 10
)

// Level represents the log level
type Level int

const (
	DEBUG Level = iota
	INFO
	WARN
	ERROR
)

func (l Level) String() string {
	switch l {
	case DEBUG:
		return "DEBUG"
	case INFO:
		return "INFO"
	case WARN:
		return "WARN"
	case ERROR:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Logger writes leveled, timestamped lines to a rotated log file and
// optionally mirrors them to stderr.
type Logger struct {
	mu         sync.Mutex
	out        io.WriteCloser
	level      Level
	alsoStderr bool
}

var (
	instance *Logger
	once     sync.Once
)

// Init initializes the package logger, creating the log directory if needed.
func Init() error {
	var err error
	once.Do(func() {
		home, homeErr := os.UserHomeDir()
		if homeErr != nil {
			err = fmt.Errorf("failed to get home directory: %w", homeErr)
			return
		}

		logDir := filepath.Join(home, logDirName)
		if mkdirErr := os.MkdirAll(logDir, 0755); mkdirErr != nil {
			err = fmt.Errorf("failed to create log directory: %w", mkdirErr)
			return
		}

		rotator := &lumberjack.Logger{
			Filename:   filepath.Join(logDir, logFileName),
			MaxSize:    maxSizeMB,
			MaxAge:     maxAgeDays,
			MaxBackups: maxBackups,
			Compress:   true,
			LocalTime:  true,
		}

		instance = &Logger{
			out:   rotator,
			level: levelFromEnv(),
		}
	})
	return err
}

// Get returns the logger instance, falling back to stderr-only if the log
// file can't be created.
func Get() *Logger {
	if instance == nil {
		if err := Init(); err != nil {
			instance = &Logger{
				level:      levelFromEnv(),
				alsoStderr: true,
			}
		}
	}
	return instance
}

// Close closes the log file
func Close() error {
	if instance != nil && instance.out != nil {
		return instance.out.Close()
	}
	return nil
}

func levelFromEnv() Level {
	switch strings.ToLower(os.Getenv("ORALVIS_LOG_LEVEL")) {
	case "debug":
		return DEBUG
	case "warn", "warning":
		return WARN
	case "error":
		return ERROR
	default:
		return INFO
	}
}

// SetLevel sets the minimum log level
func (l *Logger) SetLevel(level Level) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.level = level
}

// SetAlsoStderr sets whether to also write to stderr
func (l *Logger) SetAlsoStderr(enabled bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.alsoStderr = enabled
}

func (l *Logger) log(level Level, format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if level < l.level {
		return
	}

	line := fmt.Sprintf("[%s] %s: %s\n",
		time.Now().Format("2006-01-02 15:04:05"), level, fmt.Sprintf(format, args...))

	if l.out != nil {
		l.out.Write([]byte(line))
	}
	if l.alsoStderr {
		fmt.Fprint(os.Stderr, line)
	}
}

// Debug logs a debug message
func (l *Logger) Debug(format string, args ...interface{}) {
	l.log(DEBUG, format, args...)
}

// Info logs an info message
func (l *Logger) Info(format string, args ...interface{}) {
	l.log(INFO, format, args...)
}

// Warn logs a warning message
func (l *Logger) Warn(format string, args ...interface{}) {
	l.log(WARN, format, args...)
}

// Error logs an error message
func (l *Logger) Error(format string, args ...interface{}) {
	l.log(ERROR, format, args...)
}

// Package-level convenience functions
func Debug(format string, args ...interface{}) {
	Get().Debug(format, args...)
}

func Info(format string, args ...interface{}) {
	Get().Info(format, args...)
}

func Warn(format string, args ...interface{}) {
	Get().Warn(format, args...)
}

func Error(format string, args ...interface{}) {
	Get().Error(format, args...)
}
