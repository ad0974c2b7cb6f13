package speaker

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	apperrors "github.com/kbukum/minutes/errors"
	"github.com/kbukum/minutes/provider"
	"github.com/kbukum/minutes/resilience"
)

// DirectoryConfig points at the member directory of the voice platform.
type DirectoryConfig struct {
	// URL is the directory base; lookups GET <URL>/users/<id>.
	URL     string        `yaml:"url" mapstructure:"url"`
	Token   string        `yaml:"token" mapstructure:"token"`
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`
	// Resilience wraps lookups. Without a configured breaker a default one
	// is used so a dead directory stops costing a request per utterance.
	Resilience provider.ResilienceConfig `yaml:"resilience" mapstructure:"resilience"`
}

// ApplyDefaults fills unset fields.
func (c *DirectoryConfig) ApplyDefaults() {
	if c.Timeout == 0 {
		c.Timeout = 2 * time.Second
	}
	if c.Resilience.CircuitBreaker == nil {
		cb := resilience.DefaultCircuitBreakerConfig("speaker-directory")
		c.Resilience.CircuitBreaker = &cb
	}
}

type directoryUser struct {
	DisplayName string `json:"display_name"`
	Username    string `json:"username"`
}

// directoryClient is the raw HTTP lookup.
type directoryClient struct {
	base   string
	token  string
	client *http.Client
}

func (d *directoryClient) Name() string { return "speaker-directory" }

func (d *directoryClient) IsAvailable(context.Context) bool { return d.base != "" }

func (d *directoryClient) Execute(ctx context.Context, speakerID string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.base+"/users/"+url.PathEscape(speakerID), nil)
	if err != nil {
		return "", err
	}
	if d.token != "" {
		req.Header.Set("Authorization", "Bearer "+d.token)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return "", apperrors.ExternalServiceError(d.Name(), err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return "", apperrors.NotFound("speaker", speakerID)
	case resp.StatusCode >= 500:
		return "", apperrors.ServiceUnavailable(d.Name())
	case resp.StatusCode != http.StatusOK:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("directory status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var u directoryUser
	if err := json.NewDecoder(resp.Body).Decode(&u); err != nil {
		return "", fmt.Errorf("decode directory user: %w", err)
	}
	if u.DisplayName != "" {
		return u.DisplayName, nil
	}
	if u.Username != "" {
		return u.Username, nil
	}
	return "", ErrUnknownSpeaker
}

// Directory resolves names over HTTP through the provider resilience chain.
type Directory struct {
	rr provider.RequestResponse[string, string]
}

var _ Resolver = (*Directory)(nil)

// NewDirectory creates a directory resolver.
func NewDirectory(cfg DirectoryConfig) *Directory {
	cfg.ApplyDefaults()
	raw := &directoryClient{
		base:   strings.TrimRight(cfg.URL, "/"),
		token:  cfg.Token,
		client: &http.Client{Timeout: cfg.Timeout},
	}
	return &Directory{rr: provider.WithResilience[string, string](raw, cfg.Resilience)}
}

// Lookup implements Resolver.
func (d *Directory) Lookup(ctx context.Context, speakerID string) (string, error) {
	return d.rr.Execute(ctx, speakerID)
}
