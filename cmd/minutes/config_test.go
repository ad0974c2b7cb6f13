package main

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/kbukum/minutes/bootstrap"
	"github.com/kbukum/minutes/errors"
	"github.com/kbukum/minutes/logger"
	"github.com/kbukum/minutes/validation"
	"github.com/kbukum/minutes/voice/bridge"
)

func testConfig(t *testing.T) *Config {
	t.Helper()
	cfg := &Config{
		Bridge: bridge.Config{URL: "ws://127.0.0.1:9000/voice"},
	}
	cfg.Notes.Dir = t.TempDir()
	cfg.Capture.RecordingDir = t.TempDir()
	cfg.Transcription.OpenAI.APIKey = "test-key"
	return cfg
}

func TestConfigDefaults(t *testing.T) {
	cfg := testConfig(t)
	cfg.ApplyDefaults()

	if cfg.Name != "minutes" || cfg.Environment != "development" {
		t.Errorf("service = %q/%q", cfg.Name, cfg.Environment)
	}
	if len(cfg.Transcription.Priority) != 1 || cfg.Transcription.Priority[0] != "openai" {
		t.Errorf("priority = %v", cfg.Transcription.Priority)
	}
	if cfg.Transcription.Language != "ja" || cfg.Transcription.OpenAI.Language != "ja" || cfg.Transcription.Whisper.Language != "ja" {
		t.Errorf("language not propagated: %+v", cfg.Transcription)
	}
	if cfg.Transcription.Resilience.Retry == nil {
		t.Error("transcription retry not defaulted")
	}
	if cfg.Publish.Resilience.CircuitBreaker == nil || cfg.Publish.Resilience.Retry == nil {
		t.Error("publish resilience not defaulted")
	}
	if cfg.Observability.Environment != "development" {
		t.Errorf("observability environment = %q", cfg.Observability.Environment)
	}
	if cfg.DrainTimeout != 3*time.Minute || cfg.drainBudget() != 3*time.Minute+shutdownSlack {
		t.Errorf("drain = %v budget = %v", cfg.DrainTimeout, cfg.drainBudget())
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"missing bridge url", func(c *Config) { c.Bridge.URL = "" }, "bridge.url"},
		{"http bridge url", func(c *Config) { c.Bridge.URL = "http://gateway" }, "ws or wss"},
		{"bad time zone", func(c *Config) { c.Notes.TimeZone = "Mars/Olympus" }, "notes.time_zone"},
		{"summary without key", func(c *Config) { c.Summary.Enabled = true }, "summary.api_key"},
		{"archive without notes", func(c *Config) {
			c.Storage.Enabled = true
			c.Notes.Disabled = true
		}, "enable notes"},
		{"unknown backend", func(c *Config) { c.Transcription.Priority = []string{"deepgram"} }, "transcription.priority[0]: must be one of: openai whisper"},
		{"negative drain", func(c *Config) { c.DrainTimeout = -time.Second }, "drain_timeout: must be 0 or more"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig(t)
			tt.mutate(cfg)
			cfg.ApplyDefaults()
			err := cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("err = %v, want %q", err, tt.want)
			}
		})
	}
}

func TestConfigTagErrorsAreValidationErrors(t *testing.T) {
	cfg := testConfig(t)
	cfg.Transcription.Priority = []string{"openai", "vosk"}
	cfg.ApplyDefaults()

	appErr, ok := errors.AsAppError(cfg.Validate())
	if !ok {
		t.Fatal("want AppError")
	}
	fields, _ := appErr.Details["fields"].([]validation.FieldError)
	if len(fields) != 1 || fields[0].Field != "transcription.priority[1]" {
		t.Errorf("fields = %+v", fields)
	}
}

func TestBackendSettings(t *testing.T) {
	cfg := testConfig(t)
	cfg.ApplyDefaults()

	oa := cfg.Transcription.Backend("openai")
	if oa["api_key"] != "test-key" || oa["language"] != "ja" {
		t.Errorf("openai = %v", oa)
	}
	w := cfg.Transcription.Backend("whisper")
	if w["url"] != cfg.Transcription.Whisper.URL || w["timeout"] != cfg.Transcription.Whisper.Timeout {
		t.Errorf("whisper = %v", w)
	}
	if cfg.Transcription.Backend("vosk") != nil {
		t.Error("unknown backend has settings")
	}
}

func newTestApp(t *testing.T, cfg *Config) *bootstrap.App[*Config] {
	t.Helper()
	app, err := bootstrap.NewApp(cfg,
		bootstrap.WithLogger(logger.NewNop()),
		bootstrap.WithSummaryOutput(io.Discard),
	)
	if err != nil {
		t.Fatalf("NewApp: %v", err)
	}
	return app
}

func TestWiringRegistersComponents(t *testing.T) {
	cfg := testConfig(t)
	cfg.Transcription.Priority = []string{"whisper", "openai"}
	cfg.Chat.WebhookURL = "http://127.0.0.1:1/hook"
	app := newTestApp(t, cfg)

	deps, err := registerInfra(app)
	if err != nil {
		t.Fatalf("registerInfra: %v", err)
	}
	if deps.redis != nil || deps.events != nil {
		t.Error("disabled infrastructure was wired")
	}
	for _, name := range []string{"observability", "storage"} {
		if app.Components.Get(name) == nil {
			t.Errorf("%s not registered", name)
		}
	}

	if err := wireSession(context.Background(), app, deps); err != nil {
		t.Fatalf("wireSession: %v", err)
	}
	names := make([]string, 0, len(app.Components.All()))
	for _, c := range app.Components.All() {
		names = append(names, c.Name())
	}
	want := "observability,storage,session,http-server"
	if got := strings.Join(names, ","); got != want {
		t.Errorf("components = %s, want %s", got, want)
	}
}

func TestWiringRejectsOpenAIWithoutKey(t *testing.T) {
	cfg := testConfig(t)
	cfg.Transcription.OpenAI.APIKey = ""
	app := newTestApp(t, cfg)

	deps, err := registerInfra(app)
	if err != nil {
		t.Fatalf("registerInfra: %v", err)
	}
	err = wireSession(context.Background(), app, deps)
	if err == nil || !strings.Contains(err.Error(), "transcription backend openai") {
		t.Fatalf("err = %v", err)
	}
}

func TestNewAppAppliesDrainBudget(t *testing.T) {
	cfg := testConfig(t)
	cfg.DrainTimeout = time.Minute
	app, err := newApp(cfg, bootstrap.WithLogger(logger.NewNop()), bootstrap.WithSummaryOutput(io.Discard))
	if err != nil {
		t.Fatalf("newApp: %v", err)
	}
	if app.Cfg.drainBudget() != time.Minute+shutdownSlack {
		t.Errorf("budget = %v", app.Cfg.drainBudget())
	}
}
