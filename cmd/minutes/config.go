package main

import (
	"fmt"
	"slices"
	"time"

	"github.com/kbukum/minutes/capture"
	"github.com/kbukum/minutes/config"
	"github.com/kbukum/minutes/kafka"
	"github.com/kbukum/minutes/observability"
	"github.com/kbukum/minutes/provider"
	"github.com/kbukum/minutes/publish"
	"github.com/kbukum/minutes/redis"
	"github.com/kbukum/minutes/resilience"
	"github.com/kbukum/minutes/server"
	"github.com/kbukum/minutes/speaker"
	"github.com/kbukum/minutes/storage"
	"github.com/kbukum/minutes/summary"
	"github.com/kbukum/minutes/transcription"
	"github.com/kbukum/minutes/transcription/openai"
	"github.com/kbukum/minutes/transcription/whisper"
	"github.com/kbukum/minutes/validation"
	"github.com/kbukum/minutes/version"
	"github.com/kbukum/minutes/voice/bridge"
)

const serviceName = "minutes"

// Config is the full minutes service configuration.
type Config struct {
	config.ServiceConfig `yaml:",inline" mapstructure:",squash"`

	Server        server.Config        `yaml:"server" mapstructure:"server"`
	Capture       capture.Config       `yaml:"capture" mapstructure:"capture"`
	Bridge        bridge.Config        `yaml:"bridge" mapstructure:"bridge"`
	Transcription TranscriptionConfig  `yaml:"transcription" mapstructure:"transcription"`
	Speaker       speaker.Config       `yaml:"speaker" mapstructure:"speaker"`
	Redis         redis.Config         `yaml:"redis" mapstructure:"redis"`
	Notes         publish.NotesConfig  `yaml:"notes" mapstructure:"notes"`
	Chat          publish.ChatConfig   `yaml:"chat" mapstructure:"chat"`
	Publish       PublishConfig        `yaml:"publish" mapstructure:"publish"`
	Storage       storage.Config       `yaml:"storage" mapstructure:"storage"`
	Kafka         kafka.Config         `yaml:"kafka" mapstructure:"kafka"`
	Summary       summary.Config       `yaml:"summary" mapstructure:"summary"`
	Observability observability.Config `yaml:"observability" mapstructure:"observability"`

	// DrainTimeout bounds how long shutdown waits for an active session.
	DrainTimeout time.Duration `yaml:"drain_timeout" mapstructure:"drain_timeout" validate:"gte=0"`
}

// TranscriptionConfig orders the backends and configures each of them.
type TranscriptionConfig struct {
	Priority   []string                  `yaml:"priority" mapstructure:"priority" validate:"min=1,dive,oneof=openai whisper"`
	Language   string                    `yaml:"language" mapstructure:"language"`
	OpenAI     openai.Config             `yaml:"openai" mapstructure:"openai"`
	Whisper    whisper.Config            `yaml:"whisper" mapstructure:"whisper"`
	Resilience provider.ResilienceConfig `yaml:"resilience" mapstructure:"resilience"`
}

// PublishConfig holds the policies wrapped around the remote publishers.
type PublishConfig struct {
	Resilience provider.ResilienceConfig `yaml:"resilience" mapstructure:"resilience"`
}

// ApplyDefaults fills every section.
func (c *Config) ApplyDefaults() {
	if c.Name == "" {
		c.Name = serviceName
	}
	if c.Version == "" {
		c.Version = version.Get().Version
	}
	c.ServiceConfig.ApplyDefaults()

	c.Server.ApplyDefaults()
	c.Capture.ApplyDefaults()
	c.Bridge.ApplyDefaults()
	c.Transcription.ApplyDefaults()
	c.Speaker.Directory.ApplyDefaults()
	c.Redis.ApplyDefaults()
	c.Notes.ApplyDefaults()
	c.Chat.ApplyDefaults()
	c.Publish.ApplyDefaults()
	c.Storage.ApplyDefaults()
	c.Kafka.ApplyDefaults()
	c.Summary.ApplyDefaults()
	if c.Observability.Environment == "" {
		c.Observability.Environment = c.Environment
	}
	c.Observability.ApplyDefaults()

	if c.DrainTimeout == 0 {
		c.DrainTimeout = 3 * time.Minute
	}
}

// Validate checks every section, then the struct tags.
func (c *Config) Validate() error {
	if err := c.ServiceConfig.Validate(); err != nil {
		return err
	}
	sections := []interface{ Validate() error }{
		&c.Server,
		&c.Capture,
		&c.Bridge,
		&c.Redis,
		&c.Notes,
		&c.Kafka,
		&c.Summary,
		&c.Observability,
	}
	if c.Storage.Enabled {
		sections = append(sections, &c.Storage)
	}
	for _, s := range sections {
		if err := s.Validate(); err != nil {
			return err
		}
	}
	if c.Storage.Enabled && c.Notes.Disabled {
		return fmt.Errorf("storage archives notes pages; enable notes or disable storage")
	}
	return validation.Validate(c)
}

// ApplyDefaults fills unset fields. Language flows into both backends.
func (c *TranscriptionConfig) ApplyDefaults() {
	svc := c.Service()
	svc.ApplyDefaults()
	c.Priority, c.Language = svc.Priority, svc.Language
	if c.OpenAI.Language == "" {
		c.OpenAI.Language = c.Language
	}
	if c.Whisper.Language == "" {
		c.Whisper.Language = c.Language
	}
	c.OpenAI.ApplyDefaults()
	c.Whisper.ApplyDefaults()
	if c.Resilience.IsEmpty() {
		retry := resilience.DefaultRetryConfig()
		c.Resilience.Retry = &retry
	}
}

// Service returns the dispatch-side settings.
func (c *TranscriptionConfig) Service() transcription.Config {
	return transcription.Config{Priority: slices.Clone(c.Priority), Language: c.Language}
}

// Backend returns the factory settings of the named backend.
func (c *TranscriptionConfig) Backend(name string) map[string]any {
	switch name {
	case openai.ProviderName:
		return map[string]any{
			"base_url": c.OpenAI.BaseURL,
			"api_key":  c.OpenAI.APIKey,
			"model":    c.OpenAI.Model,
			"language": c.OpenAI.Language,
			"timeout":  c.OpenAI.Timeout,
		}
	case whisper.ProviderName:
		return map[string]any{
			"url":      c.Whisper.URL,
			"model":    c.Whisper.Model,
			"language": c.Whisper.Language,
			"timeout":  c.Whisper.Timeout,
		}
	default:
		return nil
	}
}

// ApplyDefaults gives the remote publishers a breaker and a short retry.
func (c *PublishConfig) ApplyDefaults() {
	if !c.Resilience.IsEmpty() {
		return
	}
	cb := resilience.DefaultCircuitBreakerConfig("publish")
	retry := resilience.DefaultRetryConfig()
	retry.MaxAttempts = 2
	c.Resilience.CircuitBreaker = &cb
	c.Resilience.Retry = &retry
}
