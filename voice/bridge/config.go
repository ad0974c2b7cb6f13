package bridge

import (
	"fmt"
	"net/url"
	"time"
)

// Config configures the voice gateway connection.
type Config struct {
	// URL is the gateway WebSocket endpoint (ws:// or wss://).
	URL string `yaml:"url" mapstructure:"url"`
	// Token is sent as a bearer token on the upgrade request when set.
	Token string `yaml:"token" mapstructure:"token"`
	// HandshakeTimeout bounds the WebSocket upgrade itself.
	HandshakeTimeout time.Duration `yaml:"handshake_timeout" mapstructure:"handshake_timeout"`
	// PendingSilence ends a speaker's stream that no subscriber has claimed
	// after this long without media.
	PendingSilence time.Duration `yaml:"pending_silence" mapstructure:"pending_silence"`
	// ReadBufferSize and WriteBufferSize size the socket buffers.
	ReadBufferSize  int `yaml:"read_buffer_size" mapstructure:"read_buffer_size"`
	WriteBufferSize int `yaml:"write_buffer_size" mapstructure:"write_buffer_size"`
}

// ApplyDefaults fills unset fields.
func (c *Config) ApplyDefaults() {
	if c.HandshakeTimeout == 0 {
		c.HandshakeTimeout = 10 * time.Second
	}
	if c.PendingSilence <= 0 {
		c.PendingSilence = 2 * time.Second
	}
	if c.ReadBufferSize == 0 {
		c.ReadBufferSize = 64 * 1024
	}
	if c.WriteBufferSize == 0 {
		c.WriteBufferSize = 4 * 1024
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.URL == "" {
		return fmt.Errorf("bridge.url is required")
	}
	u, err := url.Parse(c.URL)
	if err != nil {
		return fmt.Errorf("bridge.url is invalid: %w", err)
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return fmt.Errorf("bridge.url must use ws or wss (got: %s)", u.Scheme)
	}
	return nil
}
