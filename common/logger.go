// Package common provides shared constants, types, and utilities
// used across the tunnel manager.
package common

import (
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"
)

// LogLevel represents the severity level of a log message.
type LogLevel int

const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelWarn
	LevelError
)

var levelNames = [...]string{"DEBUG", "INFO", "WARN", "ERROR"}

// String returns the upper-case name of the level.
func (l LogLevel) String() string {
	if l < LevelDebug || int(l) >= len(levelNames) {
		return "UNKNOWN"
	}
	return levelNames[l]
}

// ParseLogLevel converts a configuration value to a LogLevel.
// Unknown values map to LevelInfo.
func ParseLogLevel(level string) LogLevel {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case LogLevelDebug:
		return LevelDebug
	case LogLevelWarn, "warning":
		return LevelWarn
	case LogLevelError:
		return LevelError
	default:
		return LevelInfo
	}
}

const (
	defaultMaxFileSize = 5 << 20
	defaultMaxBackups  = 5
	backupStamp        = "20060102-150405.000"
)

// LogConfig holds configuration options for the logger.
type LogConfig struct {
	Level       LogLevel
	EnableFile  bool
	LogDir      string // defaults to GetLogDir()
	MaxFileSize int64  // rotate once the file reaches this size
	MaxBackups  int    // rotated files kept next to the live one
}

// AppLogger writes levelled lines to the console and, optionally, a log file.
type AppLogger struct {
	mu          sync.Mutex
	level       LogLevel
	console     io.Writer
	quiet       bool
	file        *os.File
	maxFileSize int64
	maxBackups  int
}

// NewLogger returns a logger printing lines at or above level to console.
func NewLogger(level LogLevel, console io.Writer) *AppLogger {
	return &AppLogger{
		level:       level,
		console:     console,
		maxFileSize: defaultMaxFileSize,
		maxBackups:  defaultMaxBackups,
	}
}

var (
	defaultLogger *AppLogger
	loggerOnce    sync.Once
)

// GetLogger returns the process-wide logger. It starts at LevelWarn on
// stderr so command output on stdout stays clean.
func GetLogger() *AppLogger {
	loggerOnce.Do(func() {
		defaultLogger = NewLogger(LevelWarn, os.Stderr)
	})
	return defaultLogger
}

// InitLogger applies config to the default logger.
func InitLogger(config LogConfig) error {
	logger := GetLogger()
	logger.mu.Lock()
	logger.level = config.Level
	if config.MaxFileSize > 0 {
		logger.maxFileSize = config.MaxFileSize
	}
	if config.MaxBackups > 0 {
		logger.maxBackups = config.MaxBackups
	}
	logger.mu.Unlock()

	if !config.EnableFile {
		return nil
	}
	dir := config.LogDir
	if dir == "" {
		dir = GetLogDir()
	}
	return logger.EnableFileLogging(dir)
}

// SetLevel sets the minimum log level.
func (l *AppLogger) SetLevel(level LogLevel) {
	l.mu.Lock()
	l.level = level
	l.mu.Unlock()
}

// SetConsole turns console output on or off. File output is unaffected.
// Full-screen interfaces disable the console while they own the terminal.
func (l *AppLogger) SetConsole(enabled bool) {
	l.mu.Lock()
	l.quiet = !enabled
	l.mu.Unlock()
}

// EnableFileLogging appends log lines to LogFileName inside logDir,
// rotating the existing file first if it is already too large.
func (l *AppLogger) EnableFileLogging(logDir string) error {
	if logDir == "" {
		return errors.New("log directory is empty")
	}
	if err := refuseSymlink(logDir); err != nil {
		return err
	}
	if err := os.MkdirAll(logDir, 0700); err != nil {
		return err
	}
	logPath := filepath.Join(logDir, LogFileName)
	if err := refuseSymlink(logPath); err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file != nil {
		l.file.Close()
		l.file = nil
	}
	if err := rotateLog(logPath, l.maxFileSize, l.maxBackups); err != nil {
		fmt.Fprintf(os.Stderr, "log rotation failed: %v\n", err)
	}
	file, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return err
	}
	l.file = file
	return nil
}

// writer returns the destinations for the next line. Callers hold l.mu.
func (l *AppLogger) writer() io.Writer {
	var ws []io.Writer
	if !l.quiet && l.console != nil {
		ws = append(ws, l.console)
	}
	if l.file != nil {
		ws = append(ws, l.file)
	}
	switch len(ws) {
	case 0:
		return io.Discard
	case 1:
		return ws[0]
	}
	return io.MultiWriter(ws...)
}

func (l *AppLogger) log(level LogLevel, msg string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if level < l.level {
		return
	}

	caller := "???"
	if _, file, line, ok := runtime.Caller(2); ok {
		caller = fmt.Sprintf("%s:%d", filepath.Base(file), line)
	}
	if len(args) > 0 {
		msg = fmt.Sprintf(msg, args...)
	}
	fmt.Fprintf(l.writer(), "%s [%s] %s: %s\n",
		time.Now().Format("2006/01/02 15:04:05"), level, caller, msg)
}

func (l *AppLogger) Debug(msg string, args ...any) { l.log(LevelDebug, msg, args...) }
func (l *AppLogger) Info(msg string, args ...any)  { l.log(LevelInfo, msg, args...) }
func (l *AppLogger) Warn(msg string, args ...any)  { l.log(LevelWarn, msg, args...) }
func (l *AppLogger) Error(msg string, args ...any) { l.log(LevelError, msg, args...) }

// Shorthands for the default logger.
func LogDebug(msg string, args ...any) { GetLogger().log(LevelDebug, msg, args...) }
func LogInfo(msg string, args ...any)  { GetLogger().log(LevelInfo, msg, args...) }
func LogWarn(msg string, args ...any)  { GetLogger().log(LevelWarn, msg, args...) }
func LogError(msg string, args ...any) { GetLogger().log(LevelError, msg, args...) }

// Close closes the log file, if any. Console logging keeps working.
func (l *AppLogger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}

// CloseLogger closes the default logger.
func CloseLogger() error {
	return GetLogger().Close()
}

// GetLogDir returns the default log directory, or "" without a home directory.
func GetLogDir() string {
	dir, err := GetConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "logs")
}

func refuseSymlink(path string) error {
	info, err := os.Lstat(path)
	if err != nil || info.Mode()&os.ModeSymlink == 0 {
		return nil
	}
	return fmt.Errorf("refusing to log through symlink %s", path)
}

// rotateLog moves path aside as a gzipped backup once it reaches maxSize
// and keeps only the newest keep backups. A missing file is not an error.
func rotateLog(path string, maxSize int64, keep int) error {
	info, err := os.Stat(path)
	if err != nil || info.Size() < maxSize {
		return nil
	}

	backup := path + "." + time.Now().Format(backupStamp)
	if err := gzipFile(path, backup+".gz"); err != nil {
		os.Remove(backup + ".gz")
		if err := os.Rename(path, backup); err != nil {
			return err
		}
	} else if err := os.Remove(path); err != nil {
		return err
	}

	// Backup names embed a sortable timestamp, oldest first.
	backups, err := filepath.Glob(path + ".*")
	if err != nil {
		return err
	}
	sort.Strings(backups)
	for len(backups) > keep {
		os.Remove(backups[0])
		backups = backups[1:]
	}
	return nil
}

func gzipFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	zw := gzip.NewWriter(out)
	if _, err := io.Copy(zw, in); err != nil {
		out.Close()
		return err
	}
	if err := zw.Close(); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
