package kafka

import (
	"fmt"
	"time"
)

// Event types published for a recording session.
const (
	EventTranscript       = "minutes.transcript"
	EventSessionStarted   = "minutes.session.started"
	EventSessionCompleted = "minutes.session.completed"
)

// Config holds Kafka connection and producer configuration.
type Config struct {
	// Enabled controls whether session events are streamed to Kafka.
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`

	Brokers []string `yaml:"brokers" mapstructure:"brokers"`
	// ClientID names the producer towards the brokers and in the provider registry.
	ClientID string `yaml:"client_id" mapstructure:"client_id"`
	// Topic receives transcript and session lifecycle events.
	Topic string `yaml:"topic" mapstructure:"topic"`

	// TLS
	EnableTLS     bool   `yaml:"enable_tls" mapstructure:"enable_tls"`
	TLSSkipVerify bool   `yaml:"tls_skip_verify" mapstructure:"tls_skip_verify"`
	TLSCAFile     string `yaml:"tls_ca_file" mapstructure:"tls_ca_file"`
	TLSCertFile   string `yaml:"tls_cert_file" mapstructure:"tls_cert_file"`
	TLSKeyFile    string `yaml:"tls_key_file" mapstructure:"tls_key_file"`

	// SASL
	EnableSASL    bool   `yaml:"enable_sasl" mapstructure:"enable_sasl"`
	SASLMechanism string `yaml:"sasl_mechanism" mapstructure:"sasl_mechanism"` // PLAIN, SCRAM-SHA-256, SCRAM-SHA-512
	Username      string `yaml:"username" mapstructure:"username"`
	Password      string `yaml:"password" mapstructure:"password"`

	// Producer
	Compression  string        `yaml:"compression" mapstructure:"compression"` // none, gzip, snappy, lz4, zstd
	Retries      int           `yaml:"retries" mapstructure:"retries"`
	BatchSize    int           `yaml:"batch_size" mapstructure:"batch_size"`
	BatchTimeout time.Duration `yaml:"batch_timeout" mapstructure:"batch_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout" mapstructure:"write_timeout"`
	RequiredAcks int           `yaml:"required_acks" mapstructure:"required_acks"`

	// Connection
	DialTimeout time.Duration `yaml:"dial_timeout" mapstructure:"dial_timeout"`
	IdleTimeout time.Duration `yaml:"idle_timeout" mapstructure:"idle_timeout"`
	MetadataTTL time.Duration `yaml:"metadata_ttl" mapstructure:"metadata_ttl"`
}

// ApplyDefaults sets defaults for zero-valued fields.
func (c *Config) ApplyDefaults() {
	if len(c.Brokers) == 0 {
		c.Brokers = []string{"localhost:9092"}
	}
	if c.ClientID == "" {
		c.ClientID = "minutes"
	}
	if c.Topic == "" {
		c.Topic = "minutes.events"
	}
	if c.Compression == "" {
		c.Compression = "snappy"
	}
	if c.Retries <= 0 {
		c.Retries = 3
	}
	if c.BatchSize <= 0 {
		c.BatchSize = 100
	}
	// Entries are written one at a time; a long batch timeout would hold
	// every publish call open.
	if c.BatchTimeout <= 0 {
		c.BatchTimeout = 50 * time.Millisecond
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = 10 * time.Second
	}
	if c.RequiredAcks == 0 {
		c.RequiredAcks = -1 // all replicas
	}
	if c.DialTimeout <= 0 {
		c.DialTimeout = 10 * time.Second
	}
	if c.IdleTimeout <= 0 {
		c.IdleTimeout = 30 * time.Second
	}
	if c.MetadataTTL <= 0 {
		c.MetadataTTL = 6 * time.Second
	}
	if c.SASLMechanism == "" && c.EnableSASL {
		c.SASLMechanism = "PLAIN"
	}
}

// Validate checks that required fields are present.
func (c *Config) Validate() error {
	if !c.Enabled {
		return nil
	}
	if len(c.Brokers) == 0 {
		return fmt.Errorf("kafka brokers are required")
	}
	if c.Topic == "" {
		return fmt.Errorf("kafka topic is required")
	}
	if c.EnableSASL {
		switch c.SASLMechanism {
		case "PLAIN", "SCRAM-SHA-256", "SCRAM-SHA-512":
		default:
			return fmt.Errorf("unsupported SASL mechanism: %s", c.SASLMechanism)
		}
		if c.Username == "" {
			return fmt.Errorf("SASL username is required")
		}
	}
	if c.Retries <= 0 {
		return fmt.Errorf("retries must be > 0")
	}
	if c.BatchSize <= 0 {
		return fmt.Errorf("batch_size must be > 0")
	}
	if c.RequiredAcks < -1 || c.RequiredAcks > 1 {
		return fmt.Errorf("required_acks must be -1, 0 or 1 (got: %d)", c.RequiredAcks)
	}
	return nil
}
