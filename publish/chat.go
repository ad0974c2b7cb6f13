package publish

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	apperrors "github.com/kbukum/minutes/errors"
)

const chatName = "chat"

// ChatConfig is the chat echo section of the notes configuration.
type ChatConfig struct {
	// WebhookURL receives {"content": "..."} posts. Empty disables the echo.
	WebhookURL string        `yaml:"webhook_url" mapstructure:"webhook_url"`
	Timeout    time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

// ApplyDefaults fills unset fields.
func (c *ChatConfig) ApplyDefaults() {
	if c.Timeout == 0 {
		c.Timeout = 5 * time.Second
	}
}

// ChatEcho mirrors every entry into a chat channel through a webhook and
// posts the page link when the session completes.
type ChatEcho struct {
	url     string
	client  *http.Client
	pageURL func(SessionInfo) string
}

var (
	_ Publisher = (*ChatEcho)(nil)
	_ Observer  = (*ChatEcho)(nil)
)

// NewChatEcho creates the chat publisher. pageURL may be nil.
func NewChatEcho(cfg ChatConfig, pageURL func(SessionInfo) string) *ChatEcho {
	cfg.ApplyDefaults()
	return &ChatEcho{
		url:     cfg.WebhookURL,
		client:  &http.Client{Timeout: cfg.Timeout},
		pageURL: pageURL,
	}
}

// Name implements provider.Provider.
func (c *ChatEcho) Name() string { return chatName }

// IsAvailable implements provider.Provider.
func (c *ChatEcho) IsAvailable(context.Context) bool { return c.url != "" }

// Send posts "**label:** text".
func (c *ChatEcho) Send(ctx context.Context, e Entry) error {
	return c.post(ctx, fmt.Sprintf("**%s:** %s", e.Label, e.Text))
}

// SessionStarted is a no-op.
func (c *ChatEcho) SessionStarted(context.Context, SessionInfo) error { return nil }

// SessionCompleted posts the page link.
func (c *ChatEcho) SessionCompleted(ctx context.Context, info SessionInfo) error {
	if c.pageURL == nil || c.url == "" {
		return nil
	}
	return c.post(ctx, "📎 議事録: "+c.pageURL(info))
}

func (c *ChatEcho) post(ctx context.Context, content string) error {
	body, err := json.Marshal(map[string]string{"content": content})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return apperrors.ExternalServiceError(chatName, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
		return apperrors.ExternalServiceError(chatName, fmt.Errorf("webhook status %d", resp.StatusCode))
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return apperrors.New(apperrors.ErrCodeInvalidInput,
			fmt.Sprintf("chat webhook rejected the message: %d %s", resp.StatusCode, strings.TrimSpace(string(msg))),
			http.StatusBadRequest)
	}
	return nil
}
