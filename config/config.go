// Package config loads index configuration from YAML with environment
// overrides and turns it into a ready index.
package config

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/viant/sqlite-lsh/band"
	"github.com/viant/sqlite-lsh/kv/sqlitekv"
	"github.com/viant/sqlite-lsh/lsh"
	"github.com/viant/sqlite-lsh/metrics"
	"github.com/viant/sqlite-lsh/params"
	"gopkg.in/yaml.v3"
)

// Backend names.
const (
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

// Config is the top-level configuration.
type Config struct {
	Index   IndexConfig   `yaml:"index"`
	Storage StorageConfig `yaml:"storage"`
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// IndexConfig describes the index layout. Bands and Rows, when both set,
// bypass the layout optimiser.
type IndexConfig struct {
	Location        string         `yaml:"location"`
	Backend         string         `yaml:"backend"`
	Threshold       float64        `yaml:"threshold"`
	SignatureLength int            `yaml:"signatureLength"`
	Weights         params.Weights `yaml:"weights"`
	Bands           int            `yaml:"bands"`
	Rows            int            `yaml:"rows"`
	Hasher          string         `yaml:"hasher"`
}

// StorageConfig holds SQLite settings.
type StorageConfig struct {
	BusyTimeout time.Duration `yaml:"busyTimeout"`
	JournalMode string        `yaml:"journalMode"`
}

// LoggingConfig controls level and output format (text or json).
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// MetricsConfig toggles the Prometheus collector.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

// Load reads the YAML file at path (if not empty), applies LSH_* environment
// overrides and validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}
	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns the configuration used for unset values.
func Default() *Config {
	return &Config{
		Index: IndexConfig{
			Location:        "lsh.db",
			Backend:         BackendSQLite,
			Threshold:       lsh.DefaultThreshold,
			SignatureLength: lsh.DefaultSignatureLength,
			Weights:         params.DefaultWeights,
			Hasher:          band.Default.Name(),
		},
		Storage: StorageConfig{
			BusyTimeout: 5 * time.Second,
			JournalMode: "WAL",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("LSH_LOCATION"); v != "" {
		cfg.Index.Location = v
	}
	if v := os.Getenv("LSH_BACKEND"); v != "" {
		cfg.Index.Backend = v
	}
	if v := os.Getenv("LSH_THRESHOLD"); v != "" {
		t, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("LSH_THRESHOLD: %w", err)
		}
		cfg.Index.Threshold = t
	}
	if v := os.Getenv("LSH_SIGNATURE_LENGTH"); v != "" {
		h, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("LSH_SIGNATURE_LENGTH: %w", err)
		}
		cfg.Index.SignatureLength = h
	}
	if v := os.Getenv("LSH_HASHER"); v != "" {
		cfg.Index.Hasher = v
	}
	if v := os.Getenv("LSH_BUSY_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("LSH_BUSY_TIMEOUT: %w", err)
		}
		cfg.Storage.BusyTimeout = d
	}
	if v := os.Getenv("LSH_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("LSH_LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
	return nil
}

// Validate checks the values that Open cannot check on its own.
func (c *Config) Validate() error {
	if c.Index.Location == "" {
		return fmt.Errorf("config: index.location is required")
	}
	switch c.Index.Backend {
	case BackendSQLite, BackendMemory:
	default:
		return fmt.Errorf("config: unknown backend %q", c.Index.Backend)
	}
	if _, ok := band.ByName(c.Index.Hasher); !ok {
		return fmt.Errorf("config: unknown hasher %q", c.Index.Hasher)
	}
	if (c.Index.Bands == 0) != (c.Index.Rows == 0) {
		return fmt.Errorf("config: index.bands and index.rows must be set together")
	}
	if c.Storage.BusyTimeout < 0 {
		return fmt.Errorf("config: negative storage.busyTimeout")
	}
	switch strings.ToLower(c.Logging.Format) {
	case "", "text", "json":
	default:
		return fmt.Errorf("config: unknown logging.format %q", c.Logging.Format)
	}
	return nil
}

// NewLogger builds a logger writing to stderr.
func NewLogger(c LoggingConfig) *slog.Logger {
	return newLogger(os.Stderr, c)
}

func newLogger(w io.Writer, c LoggingConfig) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(c.Level)}
	if strings.EqualFold(c.Format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// IndexOptions translates the configuration into lsh options.
func (c *Config) IndexOptions(logger *slog.Logger, collector lsh.MetricsCollector) []lsh.Option {
	hasher, _ := band.ByName(c.Index.Hasher)
	opts := []lsh.Option{
		lsh.WithThreshold(c.Index.Threshold),
		lsh.WithSignatureLength(c.Index.SignatureLength),
		lsh.WithWeights(c.Index.Weights),
		lsh.WithHasher(hasher),
		lsh.WithLogger(logger),
		lsh.WithMetricsCollector(collector),
	}
	if c.Index.Bands > 0 {
		opts = append(opts, lsh.WithParams(c.Index.Bands, c.Index.Rows))
	}
	switch c.Index.Backend {
	case BackendMemory:
		opts = append(opts, lsh.WithBackend(lsh.Memory()))
	default:
		opts = append(opts, lsh.WithBackend(lsh.SQLite(
			sqlitekv.WithBusyTimeout(c.Storage.BusyTimeout),
			sqlitekv.WithJournalMode(c.Storage.JournalMode),
			sqlitekv.WithLogger(logger),
		)))
	}
	return opts
}

// Open builds the logger and, when enabled, a Prometheus collector, opens the
// configured index and then registers the collector with reg. Opening again
// with the same registry reuses the registered collectors.
func Open(ctx context.Context, cfg *Config, reg prometheus.Registerer) (*lsh.Index, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logger := NewLogger(cfg.Logging)
	if !cfg.Metrics.Enabled {
		return lsh.Open(ctx, cfg.Index.Location, cfg.IndexOptions(logger, nil)...)
	}

	collector, err := metrics.New(nil)
	if err != nil {
		return nil, err
	}
	x, err := lsh.Open(ctx, cfg.Index.Location, cfg.IndexOptions(logger, collector)...)
	if err != nil {
		return nil, err
	}
	if reg != nil {
		if err := collector.Register(reg); err != nil {
			return nil, errors.Join(err, x.Close())
		}
	}
	return x, nil
}
