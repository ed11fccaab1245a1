// Package config provides configuration loading and validation for the CLI and server.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the application configuration loaded from a YAML file.
// All fields are optional; missing values use defaults, and env vars win over the file.
type Config struct {
	DatabaseURL string           `yaml:"database_url"`
	Log         LogConfig        `yaml:"log"`
	Server      ServerConfig     `yaml:"server"`
	LLM         LLMConfig        `yaml:"llm"`
	Classifier  ClassifierConfig `yaml:"classifier"`
	Redis       RedisConfig      `yaml:"redis"`
	Snapshot    SnapshotConfig   `yaml:"snapshot"`
}

// LogConfig controls the zap encoder
type LogConfig struct {
	Mode string `yaml:"mode"` // "dev" or "prod"
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port      int             `yaml:"port"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
}

// RateLimitConfig throttles API clients. Analysis runs get their own, tighter bucket
// because each one calls the LLM.
type RateLimitConfig struct {
	Disabled       bool          `yaml:"disabled"`
	DefaultLimit   int           `yaml:"default_limit"`
	DefaultWindow  time.Duration `yaml:"default_window"`
	AnalysisLimit  int           `yaml:"analysis_limit"`
	AnalysisWindow time.Duration `yaml:"analysis_window"`
	AnalysisBurst  int           `yaml:"analysis_burst"`
	Allow          []string      `yaml:"allow"` // client ids never limited
	Deny           []string      `yaml:"deny"`  // client ids always rejected
}

// LLMConfig selects the classification provider
type LLMConfig struct {
	Provider string `yaml:"provider"` // "gemini" or "openai"
	APIKey   string `yaml:"api_key"`
	BaseURL  string `yaml:"base_url"` // OpenAI-compatible endpoints only
	Model    string `yaml:"model"`    // Overrides the lite tier model
}

// ClassifierConfig controls batching, pacing and failure handling of classification calls
type ClassifierConfig struct {
	ChunkSize         int           `yaml:"chunk_size"`
	ChunkTimeout      time.Duration `yaml:"chunk_timeout"`
	MaxConcurrency    int           `yaml:"max_concurrency"`
	RequestsPerMinute int           `yaml:"requests_per_minute"`
	Burst             int           `yaml:"burst"`
	MaxRetries        int           `yaml:"max_retries"`
}

// RedisConfig enables the classification cache when Addr is set
type RedisConfig struct {
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"`
}

// SnapshotConfig bounds paginated snapshot reads
type SnapshotConfig struct {
	DefaultPageSize int `yaml:"default_page_size"`
	MaxPageSize     int `yaml:"max_page_size"`
}

// Default returns the built-in defaults.
func Default() Config {
	return Config{
		Log: LogConfig{Mode: "dev"},
		Server: ServerConfig{
			Port: 8080,
			RateLimit: RateLimitConfig{
				DefaultLimit:   1000,
				DefaultWindow:  time.Minute,
				AnalysisLimit:  10,
				AnalysisWindow: time.Hour,
				AnalysisBurst:  2,
			},
		},
		LLM: LLMConfig{Provider: "gemini"},
		Classifier: ClassifierConfig{
			ChunkSize:         50,
			ChunkTimeout:      45 * time.Second,
			MaxConcurrency:    8,
			RequestsPerMinute: 60,
			Burst:             4,
			MaxRetries:        2,
		},
		Redis:    RedisConfig{TTL: 24 * time.Hour},
		Snapshot: SnapshotConfig{DefaultPageSize: 20, MaxPageSize: 100},
	}
}

// LoadConfig loads configuration from a YAML file.
// Returns an error if the file cannot be read or parsed.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config YAML: %w", err)
	}

	return &cfg, nil
}

// Load reads the optional YAML file at path, applies env overrides, fills defaults and validates.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if path != "" {
		loaded, err := LoadConfig(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	cfg.ApplyEnv()
	merged := cfg.MergeWithDefaults(Default())
	if err := merged.Validate(); err != nil {
		return nil, err
	}
	return &merged, nil
}

// ApplyEnv overrides file values with environment variables when they are set.
func (c *Config) ApplyEnv() {
	setString(&c.DatabaseURL, "DATABASE_URL")
	setString(&c.Log.Mode, "LOG_MODE")
	setString(&c.LLM.Provider, "LLM_PROVIDER")
	setString(&c.LLM.BaseURL, "OPENAI_BASE_URL")
	setString(&c.LLM.Model, "LLM_MODEL")
	setString(&c.Redis.Addr, "REDIS_ADDR")
	setString(&c.Redis.Password, "REDIS_PASSWORD")

	// The key variable depends on the provider
	switch strings.ToLower(c.LLM.Provider) {
	case "openai":
		setString(&c.LLM.APIKey, "OPENAI_API_KEY")
	default:
		setString(&c.LLM.APIKey, "GEMINI_API_KEY")
	}

	if v := os.Getenv("PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Server.Port = port
		}
	}
	if v := os.Getenv("RATE_LIMIT_DISABLED"); v != "" {
		if disabled, err := strconv.ParseBool(v); err == nil {
			c.Server.RateLimit.Disabled = disabled
		}
	}
}

// Validate checks that the configuration has valid values.
func (c *Config) Validate() error {
	switch strings.ToLower(c.LLM.Provider) {
	case "", "gemini", "openai":
	default:
		return fmt.Errorf("config error: unknown llm provider %q", c.LLM.Provider)
	}

	if c.Classifier.ChunkSize < 0 {
		return fmt.Errorf("config error: 'classifier.chunk_size' must be non-negative")
	}
	if c.Classifier.ChunkTimeout < 0 {
		return fmt.Errorf("config error: 'classifier.chunk_timeout' must be non-negative")
	}
	if c.Classifier.MaxConcurrency < 0 {
		return fmt.Errorf("config error: 'classifier.max_concurrency' must be non-negative")
	}
	if c.Classifier.RequestsPerMinute < 0 {
		return fmt.Errorf("config error: 'classifier.requests_per_minute' must be non-negative")
	}
	if c.Classifier.MaxRetries < 0 {
		return fmt.Errorf("config error: 'classifier.max_retries' must be non-negative")
	}

	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("config error: 'server.port' out of range: %d", c.Server.Port)
	}

	rl := c.Server.RateLimit
	if rl.DefaultLimit < 0 || rl.AnalysisLimit < 0 || rl.AnalysisBurst < 0 {
		return fmt.Errorf("config error: 'server.rate_limit' limits must be non-negative")
	}
	if rl.DefaultWindow < 0 || rl.AnalysisWindow < 0 {
		return fmt.Errorf("config error: 'server.rate_limit' windows must be non-negative")
	}

	if c.Snapshot.MaxPageSize > 0 && c.Snapshot.DefaultPageSize > c.Snapshot.MaxPageSize {
		return fmt.Errorf("config error: 'snapshot.default_page_size' exceeds 'snapshot.max_page_size'")
	}

	return nil
}

// MergeWithDefaults returns a new Config with zero-valued fields filled from defaults.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	// String fields: use default if empty
	if result.DatabaseURL == "" {
		result.DatabaseURL = defaults.DatabaseURL
	}
	if result.Log.Mode == "" {
		result.Log.Mode = defaults.Log.Mode
	}
	if result.LLM.Provider == "" {
		result.LLM.Provider = defaults.LLM.Provider
	}
	if result.LLM.APIKey == "" {
		result.LLM.APIKey = defaults.LLM.APIKey
	}
	if result.LLM.BaseURL == "" {
		result.LLM.BaseURL = defaults.LLM.BaseURL
	}
	if result.LLM.Model == "" {
		result.LLM.Model = defaults.LLM.Model
	}
	if result.Redis.Addr == "" {
		result.Redis.Addr = defaults.Redis.Addr
	}

	// Numeric fields: use default if zero
	if result.Server.Port == 0 {
		result.Server.Port = defaults.Server.Port
	}
	rl := &result.Server.RateLimit
	if rl.DefaultLimit == 0 {
		rl.DefaultLimit = defaults.Server.RateLimit.DefaultLimit
	}
	if rl.DefaultWindow == 0 {
		rl.DefaultWindow = defaults.Server.RateLimit.DefaultWindow
	}
	if rl.AnalysisLimit == 0 {
		rl.AnalysisLimit = defaults.Server.RateLimit.AnalysisLimit
	}
	if rl.AnalysisWindow == 0 {
		rl.AnalysisWindow = defaults.Server.RateLimit.AnalysisWindow
	}
	if rl.AnalysisBurst == 0 {
		rl.AnalysisBurst = defaults.Server.RateLimit.AnalysisBurst
	}
	if result.Classifier.ChunkSize == 0 {
		result.Classifier.ChunkSize = defaults.Classifier.ChunkSize
	}
	if result.Classifier.ChunkTimeout == 0 {
		result.Classifier.ChunkTimeout = defaults.Classifier.ChunkTimeout
	}
	if result.Classifier.MaxConcurrency == 0 {
		result.Classifier.MaxConcurrency = defaults.Classifier.MaxConcurrency
	}
	if result.Classifier.RequestsPerMinute == 0 {
		result.Classifier.RequestsPerMinute = defaults.Classifier.RequestsPerMinute
	}
	if result.Classifier.Burst == 0 {
		result.Classifier.Burst = defaults.Classifier.Burst
	}
	if result.Classifier.MaxRetries == 0 {
		result.Classifier.MaxRetries = defaults.Classifier.MaxRetries
	}
	if result.Redis.TTL == 0 {
		result.Redis.TTL = defaults.Redis.TTL
	}
	if result.Snapshot.DefaultPageSize == 0 {
		result.Snapshot.DefaultPageSize = defaults.Snapshot.DefaultPageSize
	}
	if result.Snapshot.MaxPageSize == 0 {
		result.Snapshot.MaxPageSize = defaults.Snapshot.MaxPageSize
	}

	return result
}

func setString(dst *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}
