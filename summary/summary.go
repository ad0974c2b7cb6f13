// Package summary condenses a finished transcript with an OpenAI-compatible
// chat completion endpoint.
package summary

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	goopenai "github.com/sashabaranov/go-openai"

	apperrors "github.com/kbukum/minutes/errors"
	"github.com/kbukum/minutes/logger"
	"github.com/kbukum/minutes/observability"
	"github.com/kbukum/minutes/provider"
)

const (
	providerName = "summary"

	defaultBaseURL = "https://api.ai.sakura.ad.jp/v1"
	defaultModel   = "gpt-oss-120b"
	defaultTimeout = 60 * time.Second

	systemPrompt = "会議の議事録を要約してください。重要なポイント、決定事項、アクションアイテムを簡潔にまとめてください。"
)

// Config is the summary section of the service configuration.
type Config struct {
	Enabled     bool                      `yaml:"enabled" mapstructure:"enabled"`
	BaseURL     string                    `yaml:"base_url" mapstructure:"base_url"`
	APIKey      string                    `yaml:"api_key" mapstructure:"api_key"`
	Model       string                    `yaml:"model" mapstructure:"model"`
	MaxTokens   int                       `yaml:"max_tokens" mapstructure:"max_tokens"`
	Temperature float32                   `yaml:"temperature" mapstructure:"temperature"`
	Timeout     time.Duration             `yaml:"timeout" mapstructure:"timeout"`
	Resilience  provider.ResilienceConfig `yaml:"resilience" mapstructure:"resilience"`
}

// ApplyDefaults fills unset fields.
func (c *Config) ApplyDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = defaultBaseURL
	}
	if c.Model == "" {
		c.Model = defaultModel
	}
	if c.Timeout == 0 {
		c.Timeout = defaultTimeout
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.Enabled && c.APIKey == "" {
		return fmt.Errorf("summary.api_key is required when summary is enabled")
	}
	if c.MaxTokens < 0 {
		return fmt.Errorf("summary.max_tokens must not be negative (got: %d)", c.MaxTokens)
	}
	return nil
}

// chatProvider is the raw completion call.
type chatProvider struct {
	cfg    Config
	client *goopenai.Client
}

func (p *chatProvider) Name() string { return providerName }

func (p *chatProvider) IsAvailable(context.Context) bool { return p.cfg.APIKey != "" }

func (p *chatProvider) Execute(ctx context.Context, transcript string) (string, error) {
	resp, err := p.client.CreateChatCompletion(ctx, goopenai.ChatCompletionRequest{
		Model: p.cfg.Model,
		Messages: []goopenai.ChatCompletionMessage{
			{Role: goopenai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: goopenai.ChatMessageRoleUser, Content: transcript},
		},
		MaxTokens:   p.cfg.MaxTokens,
		Temperature: p.cfg.Temperature,
	})
	if err != nil {
		return "", classify(err)
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func classify(err error) error {
	var apiErr *goopenai.APIError
	if errors.As(err, &apiErr) && apiErr.HTTPStatusCode > 0 && apiErr.HTTPStatusCode < 500 && apiErr.HTTPStatusCode != http.StatusTooManyRequests {
		return apperrors.New(apperrors.ErrCodeInvalidInput, apiErr.Message, apiErr.HTTPStatusCode).WithCause(err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return apperrors.Timeout("summary").WithCause(err)
	}
	return apperrors.ExternalServiceError(providerName, err)
}

// Summarizer produces meeting summaries. Failures are logged and yield "".
type Summarizer struct {
	rr  provider.RequestResponse[string, string]
	log *logger.Logger
}

// New creates a summarizer.
func New(cfg Config, log *logger.Logger, metrics *observability.Metrics) *Summarizer {
	cfg.ApplyDefaults()
	if log == nil {
		log = logger.NewNop()
	}
	log = log.WithComponent("summary")

	oc := goopenai.DefaultConfig(cfg.APIKey)
	oc.BaseURL = cfg.BaseURL
	oc.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	raw := &chatProvider{cfg: cfg, client: goopenai.NewClientWithConfig(oc)}

	observe := provider.Observe[string, string]("summary", log, metrics)
	rr := observe(provider.WithResilience[string, string](raw, cfg.Resilience))
	return &Summarizer{rr: rr, log: log}
}

// Summarize returns a summary of transcript, or "" when the call failed or
// there is nothing to summarize.
func (s *Summarizer) Summarize(ctx context.Context, transcript string) string {
	if strings.TrimSpace(transcript) == "" || !s.rr.IsAvailable(ctx) {
		return ""
	}
	s.log.Info("summarizing minutes", logger.Fields("chars", len([]rune(transcript))))
	out, err := s.rr.Execute(ctx, transcript)
	if err != nil {
		s.log.Warn("summary failed", logger.ErrorFields("summarize", err))
		return ""
	}
	return out
}
