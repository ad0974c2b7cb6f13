package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestServiceConfigApplyDefaults(t *testing.T) {
	t.Run("empty environment defaults to development", func(t *testing.T) {
		cfg := ServiceConfig{Name: "minutes"}
		cfg.ApplyDefaults()
		if cfg.Environment != "development" {
			t.Errorf("expected 'development', got %q", cfg.Environment)
		}
		if !cfg.Debug {
			t.Error("expected debug=true for development")
		}
		if cfg.Logging.ServiceName != "minutes" {
			t.Errorf("expected logging service name to follow config name, got %q", cfg.Logging.ServiceName)
		}
		if cfg.Logging.Level != "info" {
			t.Errorf("expected logging defaults applied, got level %q", cfg.Logging.Level)
		}
	})

	t.Run("production environment keeps debug false", func(t *testing.T) {
		cfg := ServiceConfig{Name: "minutes", Environment: "production"}
		cfg.ApplyDefaults()
		if cfg.Debug {
			t.Error("expected debug=false for production")
		}
	})
}

func TestServiceConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     ServiceConfig
		wantErr bool
		errMsg  string
	}{
		{"valid development", ServiceConfig{Name: "minutes", Environment: "development"}, false, ""},
		{"valid production", ServiceConfig{Name: "minutes", Environment: "production"}, false, ""},
		{"missing name", ServiceConfig{Environment: "production"}, true, "config.name is required"},
		{"invalid environment", ServiceConfig{Name: "minutes", Environment: "qa"}, true, "config.environment must be one of"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tc.cfg.Logging.ApplyDefaults()
			err := tc.cfg.Validate()
			if tc.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				if !strings.Contains(err.Error(), tc.errMsg) {
					t.Errorf("expected error containing %q, got %q", tc.errMsg, err.Error())
				}
			} else if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

type captureSection struct {
	Silence        time.Duration `mapstructure:"silence"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
	RecordingDir   string        `mapstructure:"recording_dir"`
}

type testConfig struct {
	ServiceConfig `yaml:",inline" mapstructure:",squash"`
	Capture       captureSection `mapstructure:"capture"`
}

func TestLoadConfigWithYAML(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yml")

	yamlContent := `
name: minutes
environment: staging
version: "1.0.0"
capture:
  silence: 1500ms
  connect_timeout: 30s
  recording_dir: ./recordings
`
	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	var cfg testConfig
	err := LoadConfig("minutes", &cfg, WithConfigFile(configPath), WithFileSystem(&RealFileSystem{}))
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.Name != "minutes" {
		t.Errorf("expected name 'minutes', got %q", cfg.Name)
	}
	if cfg.Environment != "staging" {
		t.Errorf("expected environment 'staging', got %q", cfg.Environment)
	}
	if cfg.Capture.Silence != 1500*time.Millisecond {
		t.Errorf("expected silence 1500ms, got %v", cfg.Capture.Silence)
	}
	if cfg.Capture.ConnectTimeout != 30*time.Second {
		t.Errorf("expected connect timeout 30s, got %v", cfg.Capture.ConnectTimeout)
	}
}

func TestLoadConfigEnvOverride(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yml")
	if err := os.WriteFile(configPath, []byte("name: minutes\ncapture:\n  silence: 1200ms\n"), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	t.Setenv("CAPTURE_SILENCE", "800ms")

	var cfg testConfig
	if err := LoadConfig("minutes", &cfg, WithConfigFile(configPath)); err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Capture.Silence != 800*time.Millisecond {
		t.Errorf("expected env override 800ms, got %v", cfg.Capture.Silence)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	var cfg testConfig
	// With no config file found, LoadConfig should still succeed (just empty config)
	err := LoadConfig("nonexistent-service", &cfg, WithConfigFile("/nonexistent/path.yml"))
	if err != nil {
		t.Fatalf("expected LoadConfig to succeed with missing file, got %v", err)
	}
}

func TestResolverWithMockFS(t *testing.T) {
	fs := &mockFS{files: map[string]bool{
		"./cmd/minutes/config.yml": true,
		".env":                     true,
	}}
	resolver := &Resolver{FileSystem: fs}
	files := resolver.ResolveFiles("minutes", LoaderConfig{})
	if files.ConfigFile != "./cmd/minutes/config.yml" {
		t.Errorf("expected config file at ./cmd/minutes/config.yml, got %q", files.ConfigFile)
	}
	if files.EnvFile != ".env" {
		t.Errorf("expected env file .env, got %q", files.EnvFile)
	}
}

func TestResolverExplicitPathsWin(t *testing.T) {
	fs := &mockFS{files: map[string]bool{"./config.yml": true}}
	resolver := &Resolver{FileSystem: fs}
	files := resolver.ResolveFiles("minutes", LoaderConfig{ConfigFile: "/etc/minutes.yml", EnvFile: "/etc/minutes.env"})
	if files.ConfigFile != "/etc/minutes.yml" || files.EnvFile != "/etc/minutes.env" {
		t.Errorf("expected explicit paths, got %+v", files)
	}
}

type mockFS struct {
	files map[string]bool
}

func (m *mockFS) Exists(path string) bool  { return m.files[path] }
func (m *mockFS) LoadEnv(path string) error { return nil }
func (m *mockFS) Getwd() (string, error)    { return "/mock", nil }

func TestGenerateEnvKeyVariants(t *testing.T) {
	got := generateEnvKeyVariants("CAPTURE_CONNECT_TIMEOUT")
	want := []string{"capture_connect_timeout", "capture.connect_timeout", "capture_connect.timeout", "capture.connect.timeout"}
	if strings.Join(got, " ") != strings.Join(want, " ") {
		t.Errorf("variants = %v, want %v", got, want)
	}

	if got := generateEnvKeyVariants("NAME"); len(got) != 1 || got[0] != "name" {
		t.Errorf("expected single lowercase variant, got %v", got)
	}

	long := generateEnvKeyVariants("A_B_C_D_E_F_G_H")
	if len(long) != 8 || long[0] != "a_b_c_d_e_f_g_h" || long[1] != "a.b.c.d.e.f.g.h" {
		t.Errorf("long variants = %v", long)
	}
}

func TestWithFileSystemOption(t *testing.T) {
	var lc LoaderConfig
	fs := &mockFS{}
	WithFileSystem(fs)(&lc)
	if lc.FileSystem == nil {
		t.Error("expected FileSystem to be set")
	}
}

func TestWithConfigFileOption(t *testing.T) {
	var lc LoaderConfig
	WithConfigFile("/path/to/config.yml")(&lc)
	if lc.ConfigFile != "/path/to/config.yml" {
		t.Errorf("expected config file path, got %q", lc.ConfigFile)
	}
}

func TestWithEnvFileOption(t *testing.T) {
	var lc LoaderConfig
	WithEnvFile("/path/to/.env")(&lc)
	if lc.EnvFile != "/path/to/.env" {
		t.Errorf("expected env file path, got %q", lc.EnvFile)
	}
}

func TestLoadConfigEnvQuotesAndSections(t *testing.T) {
	t.Setenv("CAPTURE_RECORDING_DIR", `"/var/lib/minutes"`)
	t.Setenv("RECORDING_DIR", "/ignored")

	var cfg testConfig
	if err := LoadConfig("minutes", &cfg, WithConfigFile("/nonexistent/config.yml"), WithEnvFile("/nonexistent/.env")); err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Capture.RecordingDir != "/var/lib/minutes" {
		t.Errorf("recording dir = %q", cfg.Capture.RecordingDir)
	}
}

func TestTopLevelKeysFlattensSquash(t *testing.T) {
	keys := topLevelKeys(&testConfig{})
	for _, k := range []string{"name", "environment", "logging", "capture"} {
		if !keys[k] {
			t.Errorf("missing key %q in %v", k, keys)
		}
	}
	if keys["serviceconfig"] {
		t.Error("squashed embed listed as a section")
	}
	if topLevelKeys("not a struct") != nil {
		t.Error("non-struct produced keys")
	}
}

func TestCandidatesOrder(t *testing.T) {
	got := candidates("minutes", "config.yml")
	if got[0] != "./cmd/minutes/config.yml" || got[1] != "../cmd/minutes/config.yml" {
		t.Errorf("candidates start with %v", got[:2])
	}
	if got[len(got)-1] != "config.yml" {
		t.Errorf("last candidate = %q", got[len(got)-1])
	}
}
