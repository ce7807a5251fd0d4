package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/oriys/nimap/internal/logging"
	"github.com/oriys/nimap/internal/observability"
	"gopkg.in/yaml.v3"
)

// DefaultManifest is the manifest file name the ni RewriteMap reads.
const DefaultManifest = "sha-256-map.txt"

// ManifestConfig holds traversal and output settings
type ManifestConfig struct {
	Root    string   `yaml:"root"`
	Output  string   `yaml:"output"`
	Exclude []string `yaml:"exclude"`
}

// LogConfig holds logging settings
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	// RunLog, when set, receives one JSON line per run.
	RunLog string `yaml:"run_log"`
}

// MetricsConfig holds Prometheus settings
type MetricsConfig struct {
	Namespace string `yaml:"namespace"`
	// Textfile, when set, receives the metrics after each run in the
	// node_exporter textfile format.
	Textfile string `yaml:"textfile"`
}

// ServerConfig holds ni resolver settings
type ServerConfig struct {
	Listen    string `yaml:"listen"`
	Authority string `yaml:"authority"`
}

// Config is the central configuration struct embedding all component configs
type Config struct {
	Manifest ManifestConfig       `yaml:"manifest"`
	Log      LogConfig            `yaml:"log"`
	Metrics  MetricsConfig        `yaml:"metrics"`
	Tracing  observability.Config `yaml:"tracing"`
	Server   ServerConfig         `yaml:"server"`
}

// DefaultConfig returns a Config that reproduces the fixed behavior: hash
// the current directory into sha-256-map.txt, skipping .git and .svn.
func DefaultConfig() *Config {
	return &Config{
		Manifest: ManifestConfig{
			Root:    ".",
			Output:  DefaultManifest,
			Exclude: []string{".git", ".svn"},
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Metrics: MetricsConfig{
			Namespace: "nimap",
		},
		Tracing: observability.Config{
			Exporter:    "otlp-http",
			Endpoint:    "localhost:4318",
			ServiceName: "nimap",
			SampleRate:  1.0,
		},
		Server: ServerConfig{
			Listen: ":8080",
		},
	}
}

// Load builds the effective configuration: defaults, then a .env file in
// the working directory, then the YAML file at path (if any), then NIMAP_*
// environment variables.
func Load(path string) (*Config, error) {
	if err := LoadDotEnv(".env"); err != nil {
		return nil, err
	}

	cfg := DefaultConfig()
	if path != "" {
		var err error
		if cfg, err = LoadFromFile(path); err != nil {
			return nil, err
		}
	}
	LoadFromEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadDotEnv exports the variables of a dotenv file into the process
// environment without overriding variables already set. A missing file is
// not an error.
func LoadDotEnv(path string) error {
	err := godotenv.Load(path)
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("load %s: %w", path, err)
}

// LoadFromFile loads configuration from a YAML file over the defaults.
// Unknown keys are rejected.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := DefaultConfig()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	return cfg, nil
}

// LoadFromEnv applies environment variable overrides to the config
func LoadFromEnv(cfg *Config) {
	if v := os.Getenv("NIMAP_ROOT"); v != "" {
		cfg.Manifest.Root = v
	}
	if v := os.Getenv("NIMAP_OUTPUT"); v != "" {
		cfg.Manifest.Output = v
	}
	if v, ok := os.LookupEnv("NIMAP_EXCLUDE"); ok {
		cfg.Manifest.Exclude = splitList(v)
	}
	if v := os.Getenv("NIMAP_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("NIMAP_LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	if v := os.Getenv("NIMAP_RUN_LOG"); v != "" {
		cfg.Log.RunLog = v
	}
	if v := os.Getenv("NIMAP_METRICS_FILE"); v != "" {
		cfg.Metrics.Textfile = v
	}
	if v := os.Getenv("NIMAP_LISTEN"); v != "" {
		cfg.Server.Listen = v
	}
	if v := os.Getenv("NIMAP_AUTHORITY"); v != "" {
		cfg.Server.Authority = v
	}
	if v := os.Getenv("NIMAP_OTLP_ENDPOINT"); v != "" {
		cfg.Tracing.Enabled = true
		cfg.Tracing.Endpoint = v
	}
	if v := os.Getenv("NIMAP_TRACE_SAMPLE_RATE"); v != "" {
		if rate, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Tracing.SampleRate = rate
		}
	}
}

// Validate reports settings that cannot work.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Manifest.Root) == "" {
		return fmt.Errorf("manifest.root is empty")
	}
	if strings.TrimSpace(c.Manifest.Output) == "" {
		return fmt.Errorf("manifest.output is empty")
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("log.format %q: want text or json", c.Log.Format)
	}
	if c.Tracing.SampleRate < 0 || c.Tracing.SampleRate > 1 {
		return fmt.Errorf("tracing.sample_rate %v out of range [0,1]", c.Tracing.SampleRate)
	}
	return nil
}

func splitList(s string) []string {
	out := []string{}
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
