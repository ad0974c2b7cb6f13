package config

import (
	"fmt"
	"os"
	"path"
	"reflect"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/kbukum/minutes/logger"
	"github.com/kbukum/minutes/util"
)

// FileSystem abstracts the file lookups so resolution can be tested.
type FileSystem interface {
	Exists(path string) bool
	LoadEnv(path string) error
	Getwd() (string, error)
}

// RealFileSystem is the OS-backed FileSystem.
type RealFileSystem struct{}

func (rfs *RealFileSystem) Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func (rfs *RealFileSystem) LoadEnv(path string) error {
	return godotenv.Load(path)
}

func (rfs *RealFileSystem) Getwd() (string, error) {
	return os.Getwd()
}

// Resolver locates the config and env files of a service.
type Resolver struct {
	FileSystem FileSystem
}

// ResolvedFiles are the files LoadConfig reads. Empty means none found.
type ResolvedFiles struct {
	ConfigFile string
	EnvFile    string
}

// ResolveFiles keeps explicit paths and searches for the rest.
func (cr *Resolver) ResolveFiles(serviceName string, opts LoaderConfig) ResolvedFiles {
	files := ResolvedFiles{ConfigFile: opts.ConfigFile, EnvFile: opts.EnvFile}
	if files.ConfigFile == "" {
		files.ConfigFile = cr.first(candidates(serviceName, "config.yml"))
	}
	if files.EnvFile == "" {
		files.EnvFile = cr.first(append(candidates(serviceName, ".env."+serviceName), candidates(serviceName, ".env")...))
	}
	return files
}

func (cr *Resolver) first(paths []string) string {
	for _, p := range paths {
		if cr.FileSystem.Exists(p) {
			return p
		}
	}
	return ""
}

// candidates lists where fileName may live, most specific first: the
// service's cmd directory, its config directory, the shared config
// directory, then the working directory. Each is also tried one and two
// levels up so tests running inside a package directory find the files.
func candidates(serviceName, fileName string) []string {
	dirs := []string{
		path.Join("cmd", serviceName),
		path.Join("config", serviceName),
		"config",
		"",
	}
	var out []string
	for _, dir := range dirs {
		for _, up := range []string{".", "..", "../.."} {
			p := path.Join(up, dir, fileName)
			if up == "." {
				p = "./" + p
			}
			out = append(out, p)
		}
	}
	return append(out, fileName)
}

// LoaderConfig holds the loader dependencies and file overrides.
type LoaderConfig struct {
	FileSystem FileSystem
	ConfigFile string
	EnvFile    string
}

// LoaderOption configures LoadConfig.
type LoaderOption func(*LoaderConfig)

// WithFileSystem replaces the OS file system.
func WithFileSystem(fs FileSystem) LoaderOption {
	return func(lc *LoaderConfig) { lc.FileSystem = fs }
}

// WithConfigFile skips the search for config.yml.
func WithConfigFile(path string) LoaderOption {
	return func(lc *LoaderConfig) { lc.ConfigFile = path }
}

// WithEnvFile skips the search for the .env file.
func WithEnvFile(path string) LoaderOption {
	return func(lc *LoaderConfig) { lc.EnvFile = path }
}

// LoadConfig fills cfg from the YAML file, the environment and the .env
// file, later sources winning. A missing file is not an error.
func LoadConfig(serviceName string, cfg any, opts ...LoaderOption) error {
	var lc LoaderConfig
	for _, opt := range opts {
		opt(&lc)
	}
	if lc.FileSystem == nil {
		lc.FileSystem = &RealFileSystem{}
	}

	files := (&Resolver{FileSystem: lc.FileSystem}).ResolveFiles(serviceName, lc)
	return load(serviceName, cfg, files, lc.FileSystem)
}

func load(serviceName string, cfg any, files ResolvedFiles, fs FileSystem) error {
	log := logger.Get("config")
	v := viper.New()

	if files.ConfigFile != "" && fs.Exists(files.ConfigFile) {
		v.SetConfigFile(files.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			log.Warn("config file unreadable", logger.Fields("file", files.ConfigFile, logger.FieldError, err.Error()))
		} else {
			log.Debug("config file loaded", logger.Fields("file", files.ConfigFile))
		}
	}

	if files.EnvFile != "" && fs.Exists(files.EnvFile) {
		if err := fs.LoadEnv(files.EnvFile); err != nil {
			log.Warn("env file unreadable", logger.Fields("file", files.EnvFile, logger.FieldError, err.Error()))
		}
	}

	v.AutomaticEnv()
	bindEnv(v, topLevelKeys(cfg))

	if err := v.Unmarshal(cfg); err != nil {
		return fmt.Errorf("config %s: %w", serviceName, err)
	}
	return nil
}

// bindEnv sets every nesting of each environment variable whose first
// segment names a config section, so TRANSCRIPTION_OPENAI_API_KEY reaches
// transcription.openai.api_key. Quotes left around values by shells or
// orchestrators are stripped.
func bindEnv(v *viper.Viper, sections map[string]bool) {
	for _, kv := range os.Environ() {
		key, value, ok := strings.Cut(kv, "=")
		if !ok {
			continue
		}
		value = util.SanitizeEnvValue(value)
		for _, variant := range generateEnvKeyVariants(key) {
			top, _, _ := strings.Cut(variant, ".")
			if sections == nil || sections[top] || sections[variant] {
				v.Set(variant, value)
			}
		}
	}
}

// maxExhaustiveParts bounds the variants tried per variable: beyond it only
// single-level splits are produced.
const maxExhaustiveParts = 6

// generateEnvKeyVariants returns the config keys an environment variable may
// stand for: every way of turning its underscores into dots.
//
//	CAPTURE_CONNECT_TIMEOUT -> capture_connect_timeout, capture.connect_timeout,
//	                           capture_connect.timeout, capture.connect.timeout
func generateEnvKeyVariants(envKey string) []string {
	parts := strings.Split(strings.ToLower(envKey), "_")
	if len(parts) == 1 {
		return parts
	}
	if len(parts) > maxExhaustiveParts {
		lower := strings.Join(parts, "_")
		out := []string{lower, strings.Join(parts, ".")}
		for i := 1; i < len(parts); i++ {
			out = append(out, strings.Join(parts[:i], ".")+"."+strings.Join(parts[i:], "_"))
		}
		return removeDuplicates(out)
	}

	gaps := len(parts) - 1
	out := make([]string, 0, 1<<gaps)
	var b strings.Builder
	for mask := 0; mask < 1<<gaps; mask++ {
		b.Reset()
		b.WriteString(parts[0])
		for i := 1; i < len(parts); i++ {
			if mask&(1<<(i-1)) != 0 {
				b.WriteByte('.')
			} else {
				b.WriteByte('_')
			}
			b.WriteString(parts[i])
		}
		out = append(out, b.String())
	}
	return out
}

// topLevelKeys collects the mapstructure names of cfg's fields, flattening
// squashed embeds. It returns nil when cfg is not a struct, which disables
// the section filter.
func topLevelKeys(cfg any) map[string]bool {
	t := reflect.TypeOf(cfg)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil || t.Kind() != reflect.Struct {
		return nil
	}
	keys := make(map[string]bool)
	collectKeys(t, keys)
	return keys
}

func collectKeys(t reflect.Type, keys map[string]bool) {
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		name, opts, _ := strings.Cut(f.Tag.Get("mapstructure"), ",")
		if strings.Contains(opts, "squash") && f.Type.Kind() == reflect.Struct {
			collectKeys(f.Type, keys)
			continue
		}
		if name == "-" {
			continue
		}
		if name == "" {
			name = strings.ToLower(f.Name)
		}
		keys[name] = true
	}
}

func removeDuplicates(items []string) []string {
	seen := make(map[string]bool, len(items))
	out := items[:0]
	for _, item := range items {
		if !seen[item] {
			seen[item] = true
			out = append(out, item)
		}
	}
	return out
}
