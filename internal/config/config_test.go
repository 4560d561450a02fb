package config

import (
	"os"
	"testing"
	"time"
)

func TestLoadConfig(t *testing.T) {
	yaml := []byte(`
server:
  port: 8090
  host: localhost
  show_trace: false
transcription:
  base_url: http://localhost:9900
  poll_interval: 10ms
chat:
  url: http://localhost:11434
  model: test-model
`)
	f, _ := os.CreateTemp("", "config-*.yaml")
	f.Write(yaml)
	f.Close()
	defer os.Remove(f.Name())

	cfg, err := Load(f.Name())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Server.Port != 8090 {
		t.Errorf("Expected port 8090, got %d", cfg.Server.Port)
	}
	if cfg.Server.ShowTrace {
		t.Error("Expected show_trace false")
	}
	if cfg.Transcription.PollInterval != 10*time.Millisecond {
		t.Errorf("Expected poll_interval 10ms, got %s", cfg.Transcription.PollInterval)
	}
	if cfg.Chat.Model != "test-model" {
		t.Errorf("Expected model test-model, got %s", cfg.Chat.Model)
	}
	// Defaults fill in whatever the file left unset.
	if cfg.Emotion.FrameStride != 15 {
		t.Errorf("Expected default frame_stride 15, got %d", cfg.Emotion.FrameStride)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load("/nonexistent/config.yaml")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Server.Port != 5000 {
		t.Errorf("Expected default port 5000, got %d", cfg.Server.Port)
	}
	if !cfg.Server.ShowTrace {
		t.Error("Expected show_trace on by default")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("PORT", "6100")
	t.Setenv("SHOW_TRACE", "0")

	cfg, err := Load("/nonexistent/config.yaml")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Server.Port != 6100 {
		t.Errorf("Expected port 6100, got %d", cfg.Server.Port)
	}
	if cfg.Server.ShowTrace {
		t.Error("Expected SHOW_TRACE=0 to disable traces")
	}
}

func TestValidate(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate failed: %v", err)
	}
}

func TestValidateInvalidPort(t *testing.T) {
	cfg := Default()
	cfg.Server.Port = -1
	if err := cfg.Validate(); err == nil {
		t.Error("Expected validation error for invalid port")
	}
}
