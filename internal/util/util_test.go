package util

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestNewLoggerLevels(t *testing.T) {
	var buf bytes.Buffer

	log := NewLoggerTo(&buf, "warn", "text")
	log.Info("dropped")
	log.Warn("kept")

	out := buf.String()
	if strings.Contains(out, "dropped") {
		t.Error("info record should be filtered at warn level")
	}
	if !strings.Contains(out, "kept") {
		t.Error("warn record missing from output")
	}
}

func TestNewLoggerUnknownLevelDefaultsToInfo(t *testing.T) {
	var buf bytes.Buffer

	log := NewLoggerTo(&buf, "chatty", "text")
	log.Debug("dropped")
	log.Info("kept")

	out := buf.String()
	if strings.Contains(out, "dropped") {
		t.Error("debug record should be filtered at default level")
	}
	if !strings.Contains(out, "kept") {
		t.Error("info record missing from output")
	}
}

func TestNewLoggerJSONFormat(t *testing.T) {
	var buf bytes.Buffer

	log := NewLoggerTo(&buf, "info", "json")
	log.Info("hello", "symbol", "AAPL")

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, buf.String())
	}
	if record["msg"] != "hello" || record["symbol"] != "AAPL" {
		t.Errorf("unexpected record: %v", record)
	}
}
