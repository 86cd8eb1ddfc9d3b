package log

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"sync"
	"testing"
)

func TestSetup(t *testing.T) {
	logger = nil
	once = *new(sync.Once)

	Setup("DEBUG")
	if logger == nil {
		t.Fatal("Logger should not be nil")
	}
}

func TestWithComponent(t *testing.T) {
	var buf bytes.Buffer
	h := slog.NewJSONHandler(&buf, nil)
	logger = slog.New(h)

	l2 := WithComponent("webhook")
	l2.Info("hello")

	var out map[string]any
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatalf("Failed to decode JSON: %v", err)
	}

	if out["component"] != "webhook" {
		t.Errorf("Expected component 'webhook', got %v", out["component"])
	}
	if out["msg"] != "hello" {
		t.Errorf("Expected msg 'hello', got %v", out["msg"])
	}
}

func TestWithDomain(t *testing.T) {
	var buf bytes.Buffer
	h := slog.NewJSONHandler(&buf, nil)
	logger = slog.New(h)

	WithDomain("example.com").Info("domain msg")

	var out map[string]any
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatalf("Failed to decode JSON: %v", err)
	}

	if out["domain"] != "example.com" {
		t.Errorf("Expected domain 'example.com', got %v", out["domain"])
	}
}

func TestWithDeployment(t *testing.T) {
	var buf bytes.Buffer
	h := slog.NewJSONHandler(&buf, nil)
	logger = slog.New(h)

	WithDeployment("dep-123").Info("deploy msg")

	var out map[string]any
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatalf("Failed to decode JSON: %v", err)
	}

	if out["deployment_id"] != "dep-123" {
		t.Errorf("Expected deployment_id 'dep-123', got %v", out["deployment_id"])
	}
}
