package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coolbeans/legiscompare/pkg/billtext"
	"github.com/coolbeans/legiscompare/pkg/citation"
)

func envMap(values map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		value, ok := values[key]
		return value, ok
	}
}

func TestDefaultConfigIsValid(t *testing.T) {
	config := DefaultConfig()
	require.NoError(t, config.Validate())

	assert.Equal(t, ":9002", config.Server.Addr)
	assert.Equal(t, "gemini", config.LLM.Provider)
	assert.Equal(t, SourceMock, config.BillText.Source)
	assert.Equal(t, citation.DefaultHouseBaseURL, config.Links.HouseBaseURL)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "legiscompare.yaml")
	content := `
server:
  addr: ":8080"
  write_timeout: 90s
llm:
  provider: openai
  model: gpt-test
  temperature: 0.5
billtext:
  source: http
  base_url: http://bills.local
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	config, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, ":8080", config.Server.Addr)
	assert.Equal(t, 90*time.Second, config.Server.WriteTimeout)
	assert.Equal(t, "openai", config.LLM.Provider)
	assert.Equal(t, "gpt-test", config.LLM.Model)
	assert.Equal(t, 0.5, config.LLM.Temperature)
	assert.Equal(t, SourceHTTP, config.BillText.Source)

	// Unset fields keep their defaults.
	assert.Equal(t, 3, config.LLM.MaxAttempts)
	assert.Equal(t, citation.DefaultSenateSearchURL, config.Links.SenateSearchURL)
}

func TestLoadFromFileErrors(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [unclosed"), 0o644))
	_, err = LoadFromFile(path)
	assert.Error(t, err)
}

func TestApplyEnv(t *testing.T) {
	tests := []struct {
		name  string
		env   map[string]string
		check func(t *testing.T, c *Config)
	}{
		{
			name: "port sets addr",
			env:  map[string]string{"PORT": "3000"},
			check: func(t *testing.T, c *Config) {
				assert.Equal(t, ":3000", c.Server.Addr)
			},
		},
		{
			name: "explicit addr wins over port",
			env:  map[string]string{"PORT": "3000", "LEGISCOMPARE_ADDR": "127.0.0.1:4000"},
			check: func(t *testing.T, c *Config) {
				assert.Equal(t, "127.0.0.1:4000", c.Server.Addr)
			},
		},
		{
			name: "google key for gemini",
			env:  map[string]string{"GOOGLE_API_KEY": "g-key", "OPENAI_API_KEY": "o-key"},
			check: func(t *testing.T, c *Config) {
				assert.Equal(t, "g-key", c.LLM.APIKey)
			},
		},
		{
			name: "gemini key fallback",
			env:  map[string]string{"GEMINI_API_KEY": "gm-key"},
			check: func(t *testing.T, c *Config) {
				assert.Equal(t, "gm-key", c.LLM.APIKey)
			},
		},
		{
			name: "openai provider uses openai key",
			env:  map[string]string{"LEGISCOMPARE_LLM_PROVIDER": "OpenAI", "GOOGLE_API_KEY": "g-key", "OPENAI_API_KEY": "o-key"},
			check: func(t *testing.T, c *Config) {
				assert.Equal(t, "openai", c.LLM.Provider)
				assert.Equal(t, "o-key", c.LLM.APIKey)
			},
		},
		{
			name: "explicit key wins",
			env:  map[string]string{"LEGISCOMPARE_LLM_API_KEY": "explicit", "GOOGLE_API_KEY": "g-key"},
			check: func(t *testing.T, c *Config) {
				assert.Equal(t, "explicit", c.LLM.APIKey)
			},
		},
		{
			name: "cors origins list",
			env:  map[string]string{"LEGISCOMPARE_CORS_ORIGINS": "http://a.local, http://b.local,,"},
			check: func(t *testing.T, c *Config) {
				assert.Equal(t, []string{"http://a.local", "http://b.local"}, c.Server.AllowedOrigins)
			},
		},
		{
			name: "blank values ignored",
			env:  map[string]string{"LEGISCOMPARE_LOG_LEVEL": "  ", "LEGISCOMPARE_BILLTEXT_SOURCE": "HTTP"},
			check: func(t *testing.T, c *Config) {
				assert.Equal(t, "info", c.Log.Level)
				assert.Equal(t, SourceHTTP, c.BillText.Source)
			},
		},
		{
			name: "temperature parsed",
			env:  map[string]string{"LEGISCOMPARE_LLM_TEMPERATURE": "0.7"},
			check: func(t *testing.T, c *Config) {
				assert.Equal(t, 0.7, c.LLM.Temperature)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultConfig()
			require.NoError(t, config.ApplyEnv(envMap(tt.env)))
			tt.check(t, config)
		})
	}
}

func TestApplyEnvRejectsBadTemperature(t *testing.T) {
	config := DefaultConfig()
	err := config.ApplyEnv(envMap(map[string]string{"LEGISCOMPARE_LLM_TEMPERATURE": "warm"}))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(c *Config)
	}{
		{"empty addr", func(c *Config) { c.Server.Addr = "" }},
		{"bad log level", func(c *Config) { c.Log.Level = "loud" }},
		{"unknown provider", func(c *Config) { c.LLM.Provider = "oracle" }},
		{"temperature too high", func(c *Config) { c.LLM.Temperature = 3 }},
		{"no attempts", func(c *Config) { c.LLM.MaxAttempts = 0 }},
		{"unknown source", func(c *Config) { c.BillText.Source = "ftp" }},
		{"http without base", func(c *Config) { c.BillText.Source = SourceHTTP; c.BillText.BaseURL = "" }},
		{"no check concurrency", func(c *Config) { c.Links.CheckConcurrency = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultConfig()
			tt.modify(config)
			assert.Error(t, config.Validate())
		})
	}

	config := DefaultConfig()
	config.LLM.Provider = "static"
	assert.NoError(t, config.Validate())
}

func TestRequireAPIKey(t *testing.T) {
	assert.NoError(t, LLMConfig{Provider: "static"}.RequireAPIKey())
	assert.NoError(t, LLMConfig{Provider: "gemini", APIKey: "k"}.RequireAPIKey())
	assert.ErrorContains(t, LLMConfig{Provider: "gemini"}.RequireAPIKey(), "GOOGLE_API_KEY")
	assert.ErrorContains(t, LLMConfig{Provider: "openai"}.RequireAPIKey(), "OPENAI_API_KEY")
}

func TestBuilders(t *testing.T) {
	config := DefaultConfig()
	config.LLM.Model = "gemini-test"
	config.LLM.APIKey = "k"

	endpoint := config.LLM.Endpoint()
	assert.Equal(t, "gemini", endpoint.Provider)
	assert.Equal(t, "gemini-test", endpoint.Model)
	assert.Equal(t, "k", endpoint.APIKey)

	linker := config.Links.Linker()
	assert.Equal(t, citation.DefaultRepublicActBaseURL, linker.RepublicActBaseURL)

	checkerConfig := config.Links.CheckerConfig()
	assert.Equal(t, 10*time.Second, checkerConfig.Timeout)
	assert.Equal(t, 5, checkerConfig.Concurrency)

	_, isMock := config.BillText.Fetcher().(*billtext.MockSource)
	assert.True(t, isMock)

	config.BillText.Source = SourceHTTP
	_, isClient := config.BillText.Fetcher().(*billtext.Client)
	assert.True(t, isClient)

	logger, err := config.Log.NewLogger()
	require.NoError(t, err)
	assert.NotNil(t, logger)
}
