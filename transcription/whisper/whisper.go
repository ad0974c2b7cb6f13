// Package whisper transcribes clips through a self-hosted faster-whisper
// HTTP sidecar. It is the fallback when the hosted API is down.
package whisper

import (
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"

	apperrors "github.com/kbukum/minutes/errors"
	"github.com/kbukum/minutes/provider"
	"github.com/kbukum/minutes/transcription"
)

// ProviderName is the name the backend registers under.
const ProviderName = "whisper"

const (
	defaultURL     = "http://localhost:8387"
	defaultModel   = "large-v3"
	defaultTimeout = 120 * time.Second
)

type Config struct {
	URL      string        `yaml:"url" mapstructure:"url"`
	Model    string        `yaml:"model" mapstructure:"model"`
	Language string        `yaml:"language" mapstructure:"language"`
	Timeout  time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

func (c *Config) ApplyDefaults() {
	if c.URL == "" {
		c.URL = defaultURL
	}
	if c.Model == "" {
		c.Model = defaultModel
	}
	if c.Timeout == 0 {
		c.Timeout = defaultTimeout
	}
}

// Provider posts clips to the sidecar's /transcribe endpoint.
type Provider struct {
	cfg    Config
	client *http.Client
}

var _ transcription.Provider = (*Provider)(nil)

func NewProvider(cfg Config) *Provider {
	cfg.ApplyDefaults()
	return &Provider{cfg: cfg, client: &http.Client{Timeout: cfg.Timeout}}
}

// Factory builds providers from the whisper settings block.
func Factory() provider.Factory[transcription.Provider] {
	return func(settings map[string]any) (transcription.Provider, error) {
		cfg, err := provider.DecodeSettings[Config](settings)
		if err != nil {
			return nil, err
		}
		return NewProvider(cfg), nil
	}
}

func (p *Provider) Name() string { return ProviderName }

// IsAvailable probes the sidecar's /health endpoint.
func (p *Provider) IsAvailable(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.cfg.URL+"/health", nil)
	if err != nil {
		return false
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// Execute uploads the clip as multipart form data. The body is streamed
// from disk rather than buffered.
func (p *Provider) Execute(ctx context.Context, req transcription.Request) (*transcription.Response, error) {
	clip, err := os.Open(req.AudioPath)
	if err != nil {
		return nil, apperrors.InvalidInput("audio_path", err.Error())
	}
	defer clip.Close()

	fields := map[string]string{"model": cmp.Or(req.Model, p.cfg.Model)}
	if lang := cmp.Or(req.Language, p.cfg.Language); lang != "" {
		fields["language"] = lang
	}

	body, form := io.Pipe()
	mw := multipart.NewWriter(form)
	go func() {
		form.CloseWithError(writeForm(mw, clip, fields))
	}()
	defer body.Close()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.cfg.URL+"/transcribe", body)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, apperrors.ExternalServiceError(ProviderName, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		cause := fmt.Errorf("whisper status %d: %s", resp.StatusCode, msg)
		if resp.StatusCode >= http.StatusInternalServerError {
			return nil, apperrors.ServiceUnavailable(ProviderName).WithCause(cause)
		}
		return nil, cause
	}

	var out result
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode whisper response: %w", err)
	}
	return out.response(), nil
}

func writeForm(mw *multipart.Writer, clip *os.File, fields map[string]string) error {
	part, err := mw.CreateFormFile("audio", filepath.Base(clip.Name()))
	if err != nil {
		return err
	}
	if _, err := io.Copy(part, clip); err != nil {
		return err
	}
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			return err
		}
	}
	return mw.Close()
}

// result is the sidecar's JSON answer.
type result struct {
	Text     string    `json:"text"`
	Language string    `json:"language"`
	Segments []segment `json:"segments"`
}

type segment struct {
	Text  string  `json:"text"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// response converts r. The duration is where the last segment ends.
func (r *result) response() *transcription.Response {
	out := &transcription.Response{
		Text:     r.Text,
		Language: r.Language,
		Segments: make([]transcription.Segment, len(r.Segments)),
	}
	for i, s := range r.Segments {
		out.Segments[i] = transcription.Segment{Start: s.Start, End: s.End, Text: s.Text}
	}
	if n := len(r.Segments); n > 0 {
		out.Duration = r.Segments[n-1].End
	}
	return out
}
