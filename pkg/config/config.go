// Package config loads runtime configuration for legiscompare. Values come
// from defaults, then an optional YAML file, then the environment (a local
// .env file is read first when present).
package config

import (
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/coolbeans/legiscompare/pkg/billtext"
	"github.com/coolbeans/legiscompare/pkg/citation"
	"github.com/coolbeans/legiscompare/pkg/linkcheck"
	"github.com/coolbeans/legiscompare/pkg/llm"
)

// EnvPrefix prefixes the application's own environment variables.
const EnvPrefix = "LEGISCOMPARE_"

// Bill text sources.
const (
	SourceMock = "mock"
	SourceHTTP = "http"
)

// Config represents the complete configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Log      LogConfig      `yaml:"log"`
	LLM      LLMConfig      `yaml:"llm"`
	BillText BillTextConfig `yaml:"billtext"`
	Links    LinksConfig    `yaml:"links"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Addr           string        `yaml:"addr"`
	AllowedOrigins []string      `yaml:"allowed_origins"`
	ReadTimeout    time.Duration `yaml:"read_timeout"`
	// WriteTimeout must cover a full analysis, which may chain several model calls.
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// LogConfig configures zap.
type LogConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

// LLMConfig selects and tunes the model endpoint.
type LLMConfig struct {
	// Provider is "gemini", "openai" or "static".
	Provider    string        `yaml:"provider"`
	URL         string        `yaml:"url"`
	Model       string        `yaml:"model"`
	APIKey      string        `yaml:"-"`
	Temperature float64       `yaml:"temperature"`
	MaxTokens   int           `yaml:"max_tokens"`
	Timeout     time.Duration `yaml:"timeout"`
	MaxAttempts int           `yaml:"max_attempts"`
}

// BillTextConfig selects where bill text comes from.
type BillTextConfig struct {
	// Source is "mock" (in-process generator) or "http".
	Source    string        `yaml:"source"`
	BaseURL   string        `yaml:"base_url"`
	RateLimit time.Duration `yaml:"rate_limit"`
}

// LinksConfig holds citation URL bases and link checking limits.
type LinksConfig struct {
	HouseBaseURL       string        `yaml:"house_base_url"`
	SenateSearchURL    string        `yaml:"senate_search_url"`
	RepublicActBaseURL string        `yaml:"republic_act_base_url"`
	CheckTimeout       time.Duration `yaml:"check_timeout"`
	CheckConcurrency   int           `yaml:"check_concurrency"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:           ":9002",
			AllowedOrigins: []string{"*"},
			ReadTimeout:    15 * time.Second,
			WriteTimeout:   3 * time.Minute,
		},
		Log: LogConfig{
			Level: "info",
		},
		LLM: LLMConfig{
			Provider:    "gemini",
			Temperature: 0.2,
			Timeout:     2 * time.Minute,
			MaxAttempts: 3,
		},
		BillText: BillTextConfig{
			Source:    SourceMock,
			BaseURL:   billtext.DefaultBaseURL,
			RateLimit: billtext.DefaultRateLimit,
		},
		Links: LinksConfig{
			HouseBaseURL:       citation.DefaultHouseBaseURL,
			SenateSearchURL:    citation.DefaultSenateSearchURL,
			RepublicActBaseURL: citation.DefaultRepublicActBaseURL,
			CheckTimeout:       10 * time.Second,
			CheckConcurrency:   5,
		},
	}
}

// Load builds the configuration: defaults, then the YAML file at path (if
// path is non-empty), then environment overrides. The result is validated.
func Load(path string) (*Config, error) {
	// Best-effort: load .env from current directory
	_ = godotenv.Load()

	config := DefaultConfig()
	if path != "" {
		fileConfig, err := LoadFromFile(path)
		if err != nil {
			return nil, err
		}
		config = fileConfig
	}

	if err := config.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// LoadFromFile loads configuration from a YAML file layered over the defaults.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// ApplyEnv overrides fields from environment variables found by lookup.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	get := func(key string) (string, bool) {
		value, ok := lookup(key)
		value = strings.TrimSpace(value)
		return value, ok && value != ""
	}

	if port, ok := get("PORT"); ok {
		c.Server.Addr = ":" + port
	}
	if addr, ok := get(EnvPrefix + "ADDR"); ok {
		c.Server.Addr = addr
	}
	if origins, ok := get(EnvPrefix + "CORS_ORIGINS"); ok {
		c.Server.AllowedOrigins = splitList(origins)
	}

	if level, ok := get(EnvPrefix + "LOG_LEVEL"); ok {
		c.Log.Level = level
	}
	if dev, ok := get(EnvPrefix + "LOG_DEVELOPMENT"); ok {
		c.Log.Development = dev == "1" || strings.EqualFold(dev, "true")
	}

	if provider, ok := get(EnvPrefix + "LLM_PROVIDER"); ok {
		c.LLM.Provider = strings.ToLower(provider)
	}
	if url, ok := get(EnvPrefix + "LLM_URL"); ok {
		c.LLM.URL = url
	}
	if model, ok := get(EnvPrefix + "LLM_MODEL"); ok {
		c.LLM.Model = model
	}
	if raw, ok := get(EnvPrefix + "LLM_TEMPERATURE"); ok {
		temperature, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return fmt.Errorf("invalid %sLLM_TEMPERATURE %q: %w", EnvPrefix, raw, err)
		}
		c.LLM.Temperature = temperature
	}

	// Provider-specific keys are used only when no explicit key is given.
	keyVars := []string{EnvPrefix + "LLM_API_KEY"}
	switch c.LLM.Provider {
	case "gemini":
		keyVars = append(keyVars, "GOOGLE_API_KEY", "GEMINI_API_KEY")
	case "openai":
		keyVars = append(keyVars, "OPENAI_API_KEY")
	}
	for _, key := range keyVars {
		if value, ok := get(key); ok {
			c.LLM.APIKey = value
			break
		}
	}

	if source, ok := get(EnvPrefix + "BILLTEXT_SOURCE"); ok {
		c.BillText.Source = strings.ToLower(source)
	}
	if url, ok := get(EnvPrefix + "BILLTEXT_URL"); ok {
		c.BillText.BaseURL = url
	}

	return nil
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr is required")
	}

	if _, err := zap.ParseAtomicLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level %q is invalid: %w", c.Log.Level, err)
	}

	providers := append(llm.ListProviders(), llm.StaticProvider)
	if !slices.Contains(providers, c.LLM.Provider) {
		return fmt.Errorf("llm.provider %q must be one of %s", c.LLM.Provider, strings.Join(providers, ", "))
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		return fmt.Errorf("llm.temperature must be between 0 and 2")
	}
	if c.LLM.MaxAttempts < 1 {
		return fmt.Errorf("llm.max_attempts must be at least 1")
	}

	switch c.BillText.Source {
	case SourceMock:
	case SourceHTTP:
		if c.BillText.BaseURL == "" {
			return fmt.Errorf("billtext.base_url is required when billtext.source is %q", SourceHTTP)
		}
	default:
		return fmt.Errorf("billtext.source %q must be %q or %q", c.BillText.Source, SourceMock, SourceHTTP)
	}

	if c.Links.CheckConcurrency < 1 {
		return fmt.Errorf("links.check_concurrency must be at least 1")
	}
	return nil
}

// RequireAPIKey reports an error when the selected provider needs a key
// and none is configured.
func (l LLMConfig) RequireAPIKey() error {
	if l.Provider == llm.StaticProvider || l.APIKey != "" {
		return nil
	}
	switch l.Provider {
	case "gemini":
		return fmt.Errorf("no API key for provider gemini: set GOOGLE_API_KEY or GEMINI_API_KEY")
	case "openai":
		return fmt.Errorf("no API key for provider openai: set OPENAI_API_KEY")
	default:
		return fmt.Errorf("no API key for provider %s: set %sLLM_API_KEY", l.Provider, EnvPrefix)
	}
}

// Endpoint converts the LLM settings to an llm.Endpoint.
func (l LLMConfig) Endpoint() llm.Endpoint {
	return llm.Endpoint{
		Provider: l.Provider,
		URL:      l.URL,
		Model:    l.Model,
		APIKey:   l.APIKey,
	}
}

// Linker builds the citation linker from the configured URL bases.
func (l LinksConfig) Linker() *citation.Linker {
	return citation.NewLinker(l.HouseBaseURL, l.SenateSearchURL, l.RepublicActBaseURL)
}

// CheckerConfig builds the link checker settings.
func (l LinksConfig) CheckerConfig() linkcheck.Config {
	checkerConfig := linkcheck.DefaultConfig()
	checkerConfig.Timeout = l.CheckTimeout
	checkerConfig.Concurrency = l.CheckConcurrency
	return checkerConfig
}

// Fetcher builds the configured bill text source.
func (b BillTextConfig) Fetcher() billtext.Fetcher {
	if b.Source == SourceHTTP {
		clientConfig := billtext.DefaultClientConfig()
		clientConfig.BaseURL = b.BaseURL
		clientConfig.RateLimit = b.RateLimit
		return billtext.NewClient(clientConfig)
	}
	return billtext.NewMockSource()
}

// NewLogger builds a zap logger at the configured level.
func (l LogConfig) NewLogger() (*zap.Logger, error) {
	level, err := zap.ParseAtomicLevel(l.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", l.Level, err)
	}

	zapConfig := zap.NewProductionConfig()
	if l.Development {
		zapConfig = zap.NewDevelopmentConfig()
	}
	zapConfig.Level = level

	logger, err := zapConfig.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}
	return logger, nil
}

func splitList(raw string) []string {
	var values []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			values = append(values, part)
		}
	}
	return values
}
