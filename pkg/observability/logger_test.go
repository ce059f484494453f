package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
)

func TestNewLogger_Levels(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewLogger("info", FormatJSON, &buf)
	if err != nil {
		t.Fatalf("NewLogger failed: %v", err)
	}

	t.Run("debug not logged at info level", func(t *testing.T) {
		buf.Reset()
		logger.Debug("debug message")
		if buf.Len() > 0 {
			t.Error("Debug message should not be logged at Info level")
		}
	})

	t.Run("info logged as json", func(t *testing.T) {
		buf.Reset()
		logger.WithField("root", "src/main/avro").Info("info message")

		var entry map[string]any
		if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
			t.Fatalf("Failed to unmarshal log entry: %v", err)
		}
		if entry["level"] != "info" {
			t.Errorf("Expected level info, got %v", entry["level"])
		}
		if entry["msg"] != "info message" {
			t.Errorf("Expected message 'info message', got %v", entry["msg"])
		}
		if entry["root"] != "src/main/avro" {
			t.Errorf("Expected root field, got %v", entry["root"])
		}
	})
}

func TestNewLogger_Text(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewLogger("debug", FormatText, &buf)
	if err != nil {
		t.Fatalf("NewLogger failed: %v", err)
	}
	if logger.GetLevel() != logrus.DebugLevel {
		t.Errorf("Expected debug level, got %v", logger.GetLevel())
	}

	logger.Debug("hello")
	if !strings.Contains(buf.String(), "msg=hello") {
		t.Errorf("Expected text output, got %q", buf.String())
	}
}

func TestNewLogger_Invalid(t *testing.T) {
	if _, err := NewLogger("loud", FormatText, nil); err == nil {
		t.Error("Expected error for invalid level")
	}
	if _, err := NewLogger("info", "xml", nil); err == nil {
		t.Error("Expected error for invalid format")
	}
}

func TestFromContext(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewLogger("info", FormatJSON, &buf)
	if err != nil {
		t.Fatalf("NewLogger failed: %v", err)
	}

	ctx := WithRunID(WithLogger(context.Background(), logger), "run-1")
	if got := GetRunID(ctx); got != "run-1" {
		t.Errorf("Expected run-1, got %q", got)
	}

	FromContext(ctx).Info("done")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("Failed to unmarshal log entry: %v", err)
	}
	if entry["run_id"] != "run-1" {
		t.Errorf("Expected run_id run-1, got %v", entry["run_id"])
	}
}

func TestGetLogger_Default(t *testing.T) {
	if GetLogger(context.Background()) != logrus.StandardLogger() {
		t.Error("Expected the standard logger without one in context")
	}
	if GetRunID(context.Background()) != "" {
		t.Error("Expected empty run ID")
	}
}
