package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestLogger(t *testing.T) {
	var buf bytes.Buffer
	cfg := Config{
		Level:      LevelDebug,
		Output:     &buf,
		JSON:       true,
		AddSource:  false,
		TimeFormat: time.RFC3339,
	}

	logger := New(cfg)
	if logger == nil {
		t.Fatal("New logger should not be nil")
	}

	t.Run("Levels", func(t *testing.T) {
		buf.Reset()
		logger.Debug("debug msg")
		if !strings.Contains(buf.String(), "debug msg") {
			t.Error("debug logging failed")
		}

		buf.Reset()
		logger.Warn("warn msg")
		if !strings.Contains(buf.String(), "warn msg") {
			t.Error("warn logging failed")
		}
	})

	t.Run("DynamicLevel", func(t *testing.T) {
		logger.SetLevel(LevelError)
		if logger.GetLevel() != LevelError {
			t.Error("SetLevel failed")
		}

		buf.Reset()
		logger.Info("should not appear")
		if buf.Len() > 0 {
			t.Error("Logged info message when level was Error")
		}

		logger.SetLevel(LevelDebug)
	})

	t.Run("WithComponent", func(t *testing.T) {
		buf.Reset()
		l := logger.WithComponent("opennebula")
		l.Info("msg")
		if !strings.Contains(buf.String(), "opennebula") {
			t.Error("WithComponent missing component field")
		}
	})

	t.Run("WithFields", func(t *testing.T) {
		buf.Reset()
		l := logger.WithFields(map[string]any{"path": "/mnt/context.sh"})
		l.Info("msg")
		if !strings.Contains(buf.String(), "/mnt/context.sh") {
			t.Error("WithFields missing fields")
		}
	})
}

func TestConsoleFormat(t *testing.T) {
	var buf bytes.Buffer
	SetPrefix("cloud-agent")
	l := New(Config{Level: LevelDebug, Output: &buf})

	l.WithComponent("OpenNebula").Debug("context variable", "key", "ETH0_IP", "value", "two words")
	line := buf.String()

	if !strings.Contains(line, "cloud-agent[") {
		t.Errorf("missing process header: %q", line)
	}
	if !strings.Contains(line, "[debug] opennebula: context variable") {
		t.Errorf("missing level/component/message: %q", line)
	}
	if !strings.Contains(line, `key=ETH0_IP value="two words"`) {
		t.Errorf("attributes not formatted: %q", line)
	}
	if strings.Contains(line, "component=") {
		t.Errorf("component should be promoted to the header: %q", line)
	}
}

func TestConsoleHandler_NilOptions(t *testing.T) {
	h := NewConsoleHandler(&bytes.Buffer{}, nil)
	if h.Enabled(context.Background(), LevelDebug) {
		t.Error("debug should be disabled by default")
	}
	if !h.Enabled(context.Background(), LevelInfo) {
		t.Error("info should be enabled by default")
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]Level{
		"debug":   LevelDebug,
		"INFO":    LevelInfo,
		"":        LevelInfo,
		"warning": LevelWarn,
		"error":   LevelError,
	}
	for in, want := range tests {
		got, err := ParseLevel(in)
		if err != nil {
			t.Errorf("ParseLevel(%q) error: %v", in, err)
		}
		if got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}

	if _, err := ParseLevel("chatty"); err == nil {
		t.Error("expected error for unknown level")
	}
}

func TestDefaultLogger(t *testing.T) {
	l := Default()
	if l == nil {
		t.Fatal("Default logger is nil")
	}

	var buf bytes.Buffer
	cfg := DefaultConfig()
	cfg.Output = &buf
	SetDefault(New(cfg))

	Debug("debug")
	Info("info")
	Warn("warn")
	Error("error")
	Errorf("error %s", "formatted")

	WithComponent("comp").Info("comp msg")

	if !strings.Contains(buf.String(), "comp: comp msg") {
		t.Errorf("Default logger did not capture component output: %q", buf.String())
	}
}

func TestJSONLogParsing(t *testing.T) {
	var buf bytes.Buffer
	cfg := Config{Level: LevelInfo, Output: &buf, JSON: true}
	l := New(cfg)

	l.Info("json test", "key", "value")

	var data map[string]any
	if err := json.Unmarshal(buf.Bytes(), &data); err != nil {
		t.Fatalf("Failed to parse JSON log: %v", err)
	}

	if data["msg"] != "json test" {
		t.Error("JSON msg field incorrect")
	}
	if data["key"] != "value" {
		t.Error("JSON extra field incorrect")
	}
	if data["level"] != "INFO" {
		t.Error("JSON level incorrect")
	}
}
