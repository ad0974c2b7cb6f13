package kafka

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
	"strings"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/segmentio/kafka-go/sasl"
	"github.com/segmentio/kafka-go/sasl/plain"
	"github.com/segmentio/kafka-go/sasl/scram"
)

// security is the TLS and SASL setup shared by the writer transport and the
// health-check dialer. Nil members mean plaintext and no authentication.
type security struct {
	tls  *tls.Config
	sasl sasl.Mechanism
}

func (c *Config) security() (security, error) {
	var s security
	if c.EnableTLS {
		tc, err := c.tlsConfig()
		if err != nil {
			return s, fmt.Errorf("TLS config: %w", err)
		}
		s.tls = tc
	}
	if c.EnableSASL {
		m, err := c.saslMechanism()
		if err != nil {
			return s, fmt.Errorf("SASL config: %w", err)
		}
		s.sasl = m
	}
	return s, nil
}

// CreateTransport builds the writer transport.
func CreateTransport(cfg *Config) (*kafkago.Transport, error) {
	sec, err := cfg.security()
	if err != nil {
		return nil, err
	}
	return &kafkago.Transport{
		ClientID:    cfg.ClientID,
		DialTimeout: cfg.DialTimeout,
		IdleTimeout: cfg.IdleTimeout,
		MetadataTTL: cfg.MetadataTTL,
		TLS:         sec.tls,
		SASL:        sec.sasl,
	}, nil
}

// CreateDialer builds the dialer used to probe a broker.
func CreateDialer(cfg *Config) (*kafkago.Dialer, error) {
	sec, err := cfg.security()
	if err != nil {
		return nil, err
	}
	return &kafkago.Dialer{
		ClientID:      cfg.ClientID,
		Timeout:       cfg.DialTimeout,
		DualStack:     true,
		TLS:           sec.tls,
		SASLMechanism: sec.sasl,
	}, nil
}

func (c *Config) tlsConfig() (*tls.Config, error) {
	tc := &tls.Config{
		InsecureSkipVerify: c.TLSSkipVerify, //nolint:gosec // opt-in for self-signed brokers
		MinVersion:         tls.VersionTLS12,
	}
	if c.TLSCAFile != "" {
		pem, err := os.ReadFile(c.TLSCAFile)
		if err != nil {
			return nil, fmt.Errorf("read CA file: %w", err)
		}
		tc.RootCAs = x509.NewCertPool()
		if !tc.RootCAs.AppendCertsFromPEM(pem) {
			return nil, fmt.Errorf("no certificate in %s", c.TLSCAFile)
		}
	}
	if c.TLSCertFile != "" && c.TLSKeyFile != "" {
		cert, err := tls.LoadX509KeyPair(c.TLSCertFile, c.TLSKeyFile)
		if err != nil {
			return nil, fmt.Errorf("load client cert: %w", err)
		}
		tc.Certificates = []tls.Certificate{cert}
	}
	return tc, nil
}

func (c *Config) saslMechanism() (sasl.Mechanism, error) {
	switch strings.ToUpper(c.SASLMechanism) {
	case "PLAIN":
		return plain.Mechanism{Username: c.Username, Password: c.Password}, nil
	case "SCRAM-SHA-256":
		return scram.Mechanism(scram.SHA256, c.Username, c.Password)
	case "SCRAM-SHA-512":
		return scram.Mechanism(scram.SHA512, c.Username, c.Password)
	}
	return nil, fmt.Errorf("unsupported SASL mechanism: %s", c.SASLMechanism)
}

var codecs = map[string]kafkago.Compression{
	"gzip":   kafkago.Gzip,
	"lz4":    kafkago.Lz4,
	"zstd":   kafkago.Zstd,
	"snappy": kafkago.Snappy,
	"none":   0,
}

// ResolveCompression maps a codec name to kafka-go's value. Unknown names
// get snappy.
func ResolveCompression(name string) kafkago.Compression {
	if c, ok := codecs[strings.ToLower(name)]; ok {
		return c
	}
	return kafkago.Snappy
}
