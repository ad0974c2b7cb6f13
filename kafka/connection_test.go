package kafka

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
)

func TestResolveCompression(t *testing.T) {
	tests := []struct {
		name     string
		expected kafkago.Compression
	}{
		{"gzip", kafkago.Gzip},
		{"lz4", kafkago.Lz4},
		{"zstd", kafkago.Zstd},
		{"snappy", kafkago.Snappy},
		{"none", 0},
		{"unknown", kafkago.Snappy},
		{"", kafkago.Snappy},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ResolveCompression(tt.name); got != tt.expected {
				t.Errorf("ResolveCompression(%q) = %v, want %v", tt.name, got, tt.expected)
			}
		})
	}
}

func TestSASLMechanism(t *testing.T) {
	for _, mech := range []string{"PLAIN", "SCRAM-SHA-256", "SCRAM-SHA-512"} {
		t.Run(mech, func(t *testing.T) {
			m, err := (&Config{SASLMechanism: mech, Username: "user", Password: "pass"}).saslMechanism()
			if err != nil {
				t.Fatalf("saslMechanism() error: %v", err)
			}
			if m == nil {
				t.Fatal("expected non-nil mechanism")
			}
		})
	}

	if _, err := (&Config{SASLMechanism: "KERBEROS"}).saslMechanism(); err == nil {
		t.Fatal("expected error for unsupported mechanism")
	}
}

func TestCreateTransport(t *testing.T) {
	bogusCA := filepath.Join(t.TempDir(), "ca.pem")
	if err := os.WriteFile(bogusCA, []byte("not a certificate"), 0o600); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
		check   func(*testing.T, *kafkago.Transport)
	}{
		{
			name: "plain",
			cfg:  Config{ClientID: "minutes", IdleTimeout: 30 * time.Second, MetadataTTL: 6 * time.Second},
			check: func(t *testing.T, tr *kafkago.Transport) {
				if tr.TLS != nil || tr.SASL != nil {
					t.Error("plain transport carries TLS or SASL")
				}
				if tr.ClientID != "minutes" || tr.IdleTimeout != 30*time.Second || tr.MetadataTTL != 6*time.Second {
					t.Errorf("transport = %+v", tr)
				}
			},
		},
		{
			name: "sasl plain",
			cfg:  Config{EnableSASL: true, SASLMechanism: "PLAIN", Username: "user"},
			check: func(t *testing.T, tr *kafkago.Transport) {
				if tr.SASL == nil {
					t.Error("no SASL mechanism")
				}
			},
		},
		{
			name: "tls skip verify",
			cfg:  Config{EnableTLS: true, TLSSkipVerify: true},
			check: func(t *testing.T, tr *kafkago.Transport) {
				if tr.TLS == nil || !tr.TLS.InsecureSkipVerify {
					t.Errorf("TLS = %+v", tr.TLS)
				}
			},
		},
		{name: "unknown sasl", cfg: Config{EnableSASL: true, SASLMechanism: "INVALID"}, wantErr: true},
		{name: "missing ca file", cfg: Config{EnableTLS: true, TLSCAFile: "/nonexistent/ca.pem"}, wantErr: true},
		{name: "unparseable ca file", cfg: Config{EnableTLS: true, TLSCAFile: bogusCA}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr, err := CreateTransport(&tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("CreateTransport() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.check != nil {
				tt.check(t, tr)
			}
		})
	}
}

func TestCreateDialer(t *testing.T) {
	dialer, err := CreateDialer(&Config{DialTimeout: 10 * time.Second})
	if err != nil {
		t.Fatalf("CreateDialer() error: %v", err)
	}
	if !dialer.DualStack || dialer.Timeout != 10*time.Second {
		t.Errorf("dialer = %+v", dialer)
	}
	if dialer.TLS != nil {
		t.Error("expected nil TLS")
	}

	dialer, err = CreateDialer(&Config{EnableSASL: true, SASLMechanism: "SCRAM-SHA-256", Username: "user", Password: "pass"})
	if err != nil {
		t.Fatalf("CreateDialer() with SASL error: %v", err)
	}
	if dialer.SASLMechanism == nil {
		t.Error("expected SASL mechanism")
	}

	if _, err := CreateDialer(&Config{EnableTLS: true, TLSCAFile: "/nonexistent/ca.pem"}); err == nil {
		t.Error("expected error for invalid TLS config")
	}
}
