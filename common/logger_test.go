package common

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLogLevel_String(t *testing.T) {
	tests := []struct {
		level    LogLevel
		expected string
	}{
		{LevelDebug, "DEBUG"},
		{LevelInfo, "INFO"},
		{LevelWarn, "WARN"},
		{LevelError, "ERROR"},
		{LogLevel(99), "UNKNOWN"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if got := tt.level.String(); got != tt.expected {
				t.Errorf("LogLevel.String() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want LogLevel
	}{
		{"debug", LevelDebug},
		{"DEBUG", LevelDebug},
		{"info", LevelInfo},
		{" warn ", LevelWarn},
		{"warning", LevelWarn},
		{"error", LevelError},
		{"", LevelInfo},
		{"verbose", LevelInfo},
	}

	for _, tt := range tests {
		if got := ParseLogLevel(tt.in); got != tt.want {
			t.Errorf("ParseLogLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestAppLogger_LogFiltering(t *testing.T) {
	var buf bytes.Buffer

	logger := NewLogger(LevelWarn, &buf)

	logger.Debug("debug message")
	logger.Info("info message")

	if buf.Len() > 0 {
		t.Error("Debug/Info messages should be filtered when level is Warn")
	}

	logger.Warn("warn message")
	if !strings.Contains(buf.String(), "WARN") {
		t.Error("Warn message should be logged")
	}

	buf.Reset()
	logger.Error("error message")
	if !strings.Contains(buf.String(), "ERROR") {
		t.Error("Error message should be logged")
	}
}

func TestAppLogger_LogFormatting(t *testing.T) {
	var buf bytes.Buffer

	logger := NewLogger(LevelDebug, &buf)

	logger.Info("Imported tunnel %s", "wg0")

	output := buf.String()

	if !strings.Contains(output, time.Now().Format("2006/01/02")) {
		t.Error("Log should contain date in YYYY/MM/DD format")
	}
	if !strings.Contains(output, "[INFO]") {
		t.Error("Log should contain level indicator")
	}
	if !strings.Contains(output, "logger_test.go:") {
		t.Errorf("Log should contain caller file, got %q", output)
	}
	if !strings.Contains(output, "Imported tunnel wg0") {
		t.Error("Log should contain formatted message")
	}
}

func TestEnableFileLogging(t *testing.T) {
	dir := t.TempDir()

	logger := NewLogger(LevelInfo, nil)
	if err := logger.EnableFileLogging(dir); err != nil {
		t.Fatalf("EnableFileLogging() error = %v", err)
	}
	logger.Info("written to file")
	if err := logger.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, LogFileName))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "written to file") {
		t.Errorf("log file content = %q", data)
	}
}

func TestSetConsole_FileOnly(t *testing.T) {
	dir := t.TempDir()

	var console bytes.Buffer
	logger := NewLogger(LevelInfo, &console)
	if err := logger.EnableFileLogging(dir); err != nil {
		t.Fatal(err)
	}
	logger.SetConsole(false)
	logger.Info("quiet line")
	logger.SetConsole(true)
	logger.Info("loud line")
	if strings.Contains(console.String(), "quiet line") {
		t.Error("console should be silent while disabled")
	}
	if !strings.Contains(console.String(), "loud line") {
		t.Error("console should resume once re-enabled")
	}
	if err := logger.Close(); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(filepath.Join(dir, LogFileName))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "quiet line") {
		t.Errorf("log file content = %q", data)
	}
}

func TestEnableFileLogging_RejectsSymlink(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "real")
	link := filepath.Join(dir, "link")
	if err := os.Mkdir(target, 0700); err != nil {
		t.Fatal(err)
	}
	if err := os.Symlink(target, link); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}

	logger := NewLogger(LevelInfo, nil)
	if err := logger.EnableFileLogging(link); err == nil {
		t.Error("EnableFileLogging() should refuse a symlinked directory")
	}
}

func TestRotateLog(t *testing.T) {
	tempDir := t.TempDir()
	logFile := filepath.Join(tempDir, "test.log")

	// Older backups sort ahead of anything stamped now.
	for _, stamp := range []string{"20200101-000000.000", "20200102-000000.000"} {
		if err := os.WriteFile(logFile+"."+stamp+".gz", nil, 0600); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.WriteFile(logFile, []byte(strings.Repeat("x", 1<<20)), 0600); err != nil {
		t.Fatal(err)
	}

	if err := rotateLog(logFile, 512<<10, 2); err != nil {
		t.Fatalf("rotateLog() error = %v", err)
	}

	if _, err := os.Stat(logFile); !os.IsNotExist(err) {
		t.Error("live log should be moved aside after rotation")
	}
	matches, _ := filepath.Glob(logFile + ".*")
	if len(matches) != 2 {
		t.Fatalf("backups = %v, want 2", matches)
	}
	for _, m := range matches {
		if strings.Contains(m, "20200101") {
			t.Errorf("oldest backup %s should be pruned", m)
		}
	}
}

func TestRotateLog_BelowLimit(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "test.log")
	if err := os.WriteFile(logFile, []byte("short"), 0600); err != nil {
		t.Fatal(err)
	}
	if err := rotateLog(logFile, 512<<10, 2); err != nil {
		t.Fatal(err)
	}
	if data, _ := os.ReadFile(logFile); string(data) != "short" {
		t.Errorf("log content = %q, want untouched", data)
	}
	if err := rotateLog(filepath.Join(t.TempDir(), "missing.log"), 1, 2); err != nil {
		t.Errorf("rotateLog(missing) error = %v", err)
	}
}

func TestWrapError(t *testing.T) {
	wrapped := WrapError(ErrTunnelNotFound, "remove wg0")

	if wrapped == nil {
		t.Fatal("WrapError should return non-nil error")
	}
	if !strings.Contains(wrapped.Error(), "remove wg0") {
		t.Error("WrapError should include additional context")
	}
	if !errors.Is(wrapped, ErrTunnelNotFound) {
		t.Error("WrapError should unwrap to the original error")
	}

	if WrapError(nil, "context") != nil {
		t.Error("WrapError(nil) should return nil")
	}
}

func TestGenerateID(t *testing.T) {
	id1 := GenerateID()
	id2 := GenerateID()

	if len(id1) != 36 {
		t.Errorf("GenerateID() length = %v, want 36", len(id1))
	}
	if id1 == id2 {
		t.Error("GenerateID() should return unique IDs")
	}
}

func TestStringInSlice(t *testing.T) {
	slice := []string{"a", "b", "c"}

	if !StringInSlice("b", slice) {
		t.Error("StringInSlice should return true for existing element")
	}
	if StringInSlice("d", slice) {
		t.Error("StringInSlice should return false for non-existing element")
	}
}

func TestFileExists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "exists")
	if err := os.WriteFile(path, nil, 0600); err != nil {
		t.Fatal(err)
	}

	if !FileExists(path) {
		t.Error("FileExists() should return true for existing file")
	}
	if FileExists("/nonexistent/path/to/file") {
		t.Error("FileExists() should return false for non-existing file")
	}
}
