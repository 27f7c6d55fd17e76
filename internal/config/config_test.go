package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Oracle.BaseURL != DefaultOllamaURL {
		t.Errorf("ollama url = %q", cfg.Oracle.BaseURL)
	}
	if cfg.Oracle.IntentModel != DefaultIntentModel {
		t.Errorf("intent model = %q", cfg.Oracle.IntentModel)
	}
	if cfg.Pipeline.ConfidenceThreshold != DefaultConfidenceMin {
		t.Errorf("confidence threshold = %v", cfg.Pipeline.ConfidenceThreshold)
	}
	if cfg.Pipeline.Timezone != DefaultTimezone {
		t.Errorf("timezone = %q", cfg.Pipeline.Timezone)
	}
	if cfg.Calendar.CalendarID != DefaultCalendarID {
		t.Errorf("calendar id = %q", cfg.Calendar.CalendarID)
	}
}

func TestLoadConfig_FromFile(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	dir := filepath.Join(home, ".kalanaya")
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	raw := map[string]any{
		"oracle":   map[string]any{"baseUrl": "http://oracle:11434"},
		"pipeline": map[string]any{"timezone": "UTC", "confidenceThreshold": 0.9},
		"calendar": map[string]any{"baseUrl": "http://cal/v3", "token": "secret"},
	}
	data, _ := json.Marshal(raw)
	if err := os.WriteFile(filepath.Join(dir, "config.json"), data, 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Oracle.BaseURL != "http://oracle:11434" {
		t.Errorf("ollama url = %q", cfg.Oracle.BaseURL)
	}
	if cfg.Pipeline.Timezone != "UTC" {
		t.Errorf("timezone = %q", cfg.Pipeline.Timezone)
	}
	if cfg.Pipeline.ConfidenceThreshold != 0.9 {
		t.Errorf("threshold = %v", cfg.Pipeline.ConfidenceThreshold)
	}
	if cfg.Calendar.Token != "secret" {
		t.Errorf("token = %q", cfg.Calendar.Token)
	}
	// Fields the file left out keep their defaults.
	if cfg.Oracle.IntentModel != DefaultIntentModel {
		t.Errorf("intent model = %q", cfg.Oracle.IntentModel)
	}
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("KALANAYA_OLLAMA_URL", "http://other:11434")
	t.Setenv("KALANAYA_CALENDAR_TOKEN", "env-token")
	t.Setenv("KALANAYA_TIMEZONE", "Europe/Berlin")
	t.Setenv("KALANAYA_CONFIDENCE_THRESHOLD", "0.6")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Oracle.BaseURL != "http://other:11434" {
		t.Errorf("ollama url = %q", cfg.Oracle.BaseURL)
	}
	if cfg.Calendar.Token != "env-token" {
		t.Errorf("token = %q", cfg.Calendar.Token)
	}
	if cfg.Pipeline.Timezone != "Europe/Berlin" {
		t.Errorf("timezone = %q", cfg.Pipeline.Timezone)
	}
	if cfg.Pipeline.ConfidenceThreshold != 0.6 {
		t.Errorf("threshold = %v", cfg.Pipeline.ConfidenceThreshold)
	}
}

func TestLoadConfig_BadJSON(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	dir := filepath.Join(home, ".kalanaya")
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "config.json"), []byte("{broken"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadConfig(); err == nil {
		t.Error("expected error for malformed config")
	}
}

func TestSaveConfig_RoundTrip(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cfg := DefaultConfig()
	cfg.Calendar.BaseURL = "http://cal/v3"
	if err := SaveConfig(cfg); err != nil {
		t.Fatalf("SaveConfig: %v", err)
	}

	loaded, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if loaded.Calendar.BaseURL != "http://cal/v3" {
		t.Errorf("calendar url = %q", loaded.Calendar.BaseURL)
	}
}
