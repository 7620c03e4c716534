package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for vsm.
type Config struct {
	Analyzer AnalyzerConfig `yaml:"analyzer"`
	Retrieve RetrieveConfig `yaml:"retrieve"`
	Serve    ServeConfig    `yaml:"serve"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// AnalyzerConfig controls how query text is turned into terms. It must match
// the analysis used when the index was built.
type AnalyzerConfig struct {
	Lowercase   bool `yaml:"lowercase"`
	Stopwords   bool `yaml:"stopwords"`
	MinTokenLen int  `yaml:"min_token_len"`
}

// RetrieveConfig holds retrieval configuration.
type RetrieveConfig struct {
	TopK            int           `yaml:"top_k"`
	MinScore        float64       `yaml:"min_score"`        // Filter results below this score (0 = disabled)
	IntegrityPolicy string        `yaml:"integrity_policy"` // "fail" or "drop"
	ParallelTerms   int           `yaml:"parallel_terms"`
	BatchWorkers    int           `yaml:"batch_workers"`
	CacheSize       int           `yaml:"cache_size"`
	CacheTTL        time.Duration `yaml:"cache_ttl"`
}

// ServeConfig holds HTTP server configuration.
type ServeConfig struct {
	Addr            string        `yaml:"addr"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	RateLimit       float64       `yaml:"rate_limit"` // search requests per second, 0 = unlimited
	RateBurst       int           `yaml:"rate_burst"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "text" or "json"
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Analyzer: AnalyzerConfig{
			Lowercase:   true,
			Stopwords:   false,
			MinTokenLen: 1,
		},
		Retrieve: RetrieveConfig{
			TopK:            20,
			IntegrityPolicy: "fail",
			ParallelTerms:   1,
			BatchWorkers:    4,
			CacheSize:       256,
			CacheTTL:        5 * time.Minute,
		},
		Serve: ServeConfig{
			Addr:            ":8080",
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load loads configuration from a YAML file.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil // Return defaults if no config file
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}

	return cfg, nil
}

// LoadFromDir loads configuration from a directory (looks for vsm.yaml).
func LoadFromDir(dir string) (*Config, error) {
	path := filepath.Join(dir, "vsm.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	path = filepath.Join(dir, ".vsm", "config.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	return DefaultConfig(), nil
}

// Validate rejects settings that cannot be acted on.
func (c *Config) Validate() error {
	switch c.Retrieve.IntegrityPolicy {
	case "", "fail", "drop":
	default:
		return fmt.Errorf("retrieve.integrity_policy: unknown policy %q", c.Retrieve.IntegrityPolicy)
	}
	if c.Retrieve.TopK < 0 {
		return fmt.Errorf("retrieve.top_k must not be negative")
	}
	if c.Retrieve.ParallelTerms < 0 || c.Retrieve.BatchWorkers < 0 {
		return fmt.Errorf("retrieve: worker counts must not be negative")
	}
	if c.Retrieve.CacheSize < 0 {
		return fmt.Errorf("retrieve.cache_size must not be negative")
	}
	if c.Serve.RateLimit < 0 || c.Serve.RateBurst < 0 {
		return fmt.Errorf("serve: rate limit must not be negative")
	}
	if c.Analyzer.MinTokenLen < 0 {
		return fmt.Errorf("analyzer.min_token_len must not be negative")
	}
	switch c.Logging.Format {
	case "", "text", "json":
	default:
		return fmt.Errorf("logging.format: unknown format %q", c.Logging.Format)
	}
	return nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// IndexDBPath returns the path to the index database.
func IndexDBPath(dir string) string {
	return filepath.Join(dir, ".vsm", "index.db")
}

// EnsureDir ensures the .vsm directory exists.
func EnsureDir(dir string) error {
	return os.MkdirAll(filepath.Join(dir, ".vsm"), 0755)
}
