// Package openai transcribes clips through an OpenAI-compatible
// /audio/transcriptions endpoint. The default endpoint is the Sakura AI
// Engine, which serves whisper-large-v3-turbo under the OpenAI API.
package openai

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	goopenai "github.com/sashabaranov/go-openai"

	apperrors "github.com/kbukum/minutes/errors"
	"github.com/kbukum/minutes/provider"
	"github.com/kbukum/minutes/transcription"
)

const (
	// ProviderName is the registered name for this backend.
	ProviderName = "openai"

	defaultBaseURL = "https://api.ai.sakura.ad.jp/v1"
	defaultModel   = "whisper-large-v3-turbo"
	defaultTimeout = 30 * time.Second
)

// Config holds configuration for the OpenAI-compatible backend.
type Config struct {
	BaseURL  string        `yaml:"base_url" mapstructure:"base_url"`
	APIKey   string        `yaml:"api_key" mapstructure:"api_key"`
	Model    string        `yaml:"model" mapstructure:"model"`
	Language string        `yaml:"language" mapstructure:"language"`
	Timeout  time.Duration `yaml:"timeout" mapstructure:"timeout"`
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

// Provider implements transcription.Provider with go-openai.
type Provider struct {
	cfg    Config
	client *goopenai.Client
}

var _ transcription.Provider = (*Provider)(nil)

// NewProvider creates a new backend.
func NewProvider(cfg Config) *Provider {
	cfg.ApplyDefaults()
	oc := goopenai.DefaultConfig(cfg.APIKey)
	oc.BaseURL = cfg.BaseURL
	oc.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	return &Provider{cfg: cfg, client: goopenai.NewClientWithConfig(oc)}
}

// Factory returns a provider.Factory building backends from a config map.
func Factory() provider.Factory[transcription.Provider] {
	return func(settings map[string]any) (transcription.Provider, error) {
		cfg, err := provider.DecodeSettings[Config](settings)
		if err != nil {
			return nil, err
		}
		if cfg.APIKey == "" {
			return nil, apperrors.MissingField("api_key")
		}
		return NewProvider(cfg), nil
	}
}

// Name returns the provider name.
func (p *Provider) Name() string { return ProviderName }

// IsAvailable reports whether an API key is configured.
func (p *Provider) IsAvailable(context.Context) bool { return p.cfg.APIKey != "" }

// Execute uploads the clip and returns the recognized text.
func (p *Provider) Execute(ctx context.Context, req transcription.Request) (*transcription.Response, error) {
	lang := cmp.Or(req.Language, p.cfg.Language)

	resp, err := p.client.CreateTranscription(ctx, goopenai.AudioRequest{
		Model:    cmp.Or(req.Model, p.cfg.Model),
		FilePath: req.AudioPath,
		Language: lang,
		Format:   goopenai.AudioResponseFormatJSON,
	})
	if err != nil {
		return nil, classify(err)
	}

	out := &transcription.Response{
		Text:     resp.Text,
		Duration: resp.Duration,
		Language: cmp.Or(resp.Language, lang),
	}
	for _, seg := range resp.Segments {
		out.Segments = append(out.Segments, transcription.Segment{Start: seg.Start, End: seg.End, Text: seg.Text})
	}
	return out, nil
}

// classify maps API failures onto AppErrors so retries only hit transient
// statuses.
func classify(err error) error {
	var apiErr *goopenai.APIError
	if errors.As(err, &apiErr) {
		return statusError(apiErr.HTTPStatusCode, err)
	}
	var reqErr *goopenai.RequestError
	if errors.As(err, &reqErr) {
		return statusError(reqErr.HTTPStatusCode, err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return apperrors.Timeout("transcription").WithCause(err)
	}
	return apperrors.ExternalServiceError(ProviderName, err)
}

func statusError(status int, err error) error {
	switch {
	case status == http.StatusTooManyRequests:
		return apperrors.RateLimited().WithCause(err)
	case status >= 500:
		return apperrors.ServiceUnavailable(ProviderName).WithCause(err)
	default:
		appErr := apperrors.New(apperrors.ErrCodeExternalService,
			fmt.Sprintf("%s rejected the request (status %d)", ProviderName, status),
			http.StatusBadGateway)
		appErr.Retryable = false
		return appErr.WithCause(err)
	}
}
