package capture

import (
	"fmt"
	"time"
)

// Config is the capture section of the service configuration.
type Config struct {
	// RecordingDir receives encoded clips until they are dispatched.
	RecordingDir string `yaml:"recording_dir" mapstructure:"recording_dir"`
	// Silence ends an utterance after this long without audio.
	Silence time.Duration `yaml:"silence" mapstructure:"silence"`
	// ConnectTimeout bounds attaching to the audio source.
	ConnectTimeout time.Duration `yaml:"connect_timeout" mapstructure:"connect_timeout"`
	// Transcoder encodes each utterance.
	Transcoder TranscoderConfig `yaml:"transcoder" mapstructure:"transcoder"`
}

// TranscoderConfig selects the encoder binary and its settings.
type TranscoderConfig struct {
	Binary      string        `yaml:"binary" mapstructure:"binary"`
	Quality     int           `yaml:"quality" mapstructure:"quality"`
	GracePeriod time.Duration `yaml:"grace_period" mapstructure:"grace_period"`
}

// ApplyDefaults fills unset fields.
func (c *Config) ApplyDefaults() {
	if c.RecordingDir == "" {
		c.RecordingDir = "./recordings"
	}
	if c.Silence == 0 {
		c.Silence = 1200 * time.Millisecond
	}
	if c.ConnectTimeout == 0 {
		c.ConnectTimeout = 30 * time.Second
	}
	c.Transcoder.ApplyDefaults()
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.Silence < 0 {
		return fmt.Errorf("capture.silence must not be negative (got: %v)", c.Silence)
	}
	if c.ConnectTimeout <= 0 {
		return fmt.Errorf("capture.connect_timeout must be positive (got: %v)", c.ConnectTimeout)
	}
	return c.Transcoder.Validate()
}

// ApplyDefaults fills unset fields.
func (c *TranscoderConfig) ApplyDefaults() {
	if c.Binary == "" {
		c.Binary = "ffmpeg"
	}
	if c.Quality == 0 {
		c.Quality = 6
	}
	if c.GracePeriod == 0 {
		c.GracePeriod = 5 * time.Second
	}
}

// Validate checks the configuration.
func (c *TranscoderConfig) Validate() error {
	if c.Quality < 0 || c.Quality > 9 {
		return fmt.Errorf("capture.transcoder.quality must be within [0, 9] (got: %d)", c.Quality)
	}
	return nil
}
