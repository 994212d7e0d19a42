package llm

import (
	"net/http"
	"sort"
	"sync"
)

// Endpoint describes where and how to reach a model.
type Endpoint struct {
	// Provider is a registered provider name ("gemini", "openai").
	Provider string `yaml:"provider" json:"provider"`

	// URL is the API base URL. Empty uses the provider default.
	URL string `yaml:"url" json:"url,omitempty"`

	// Model is the model identifier.
	Model string `yaml:"model" json:"model"`

	// APIKey authenticates requests.
	APIKey string `yaml:"-" json:"-"`
}

// Provider adapts the generic request to one vendor's wire format.
type Provider interface {
	// Name returns the provider identifier.
	Name() string

	// DefaultModel is used when the endpoint leaves Model empty.
	DefaultModel() string

	// BuildURL constructs the full request URL for the endpoint.
	BuildURL(endpoint Endpoint) string

	// SetHeaders adds provider-specific headers to the request.
	SetHeaders(req *http.Request, endpoint Endpoint)

	// BuildRequestBody creates the JSON request body.
	BuildRequestBody(endpoint Endpoint, req Request) ([]byte, error)

	// ParseResponse extracts the response from provider-specific JSON.
	ParseResponse(body []byte, endpoint Endpoint) (*Response, error)
}

var (
	providerRegistry = make(map[string]Provider)
	providerMu       sync.RWMutex
)

func init() {
	RegisterProvider(&GeminiProvider{})
	RegisterProvider(&OpenAIProvider{})
}

// RegisterProvider adds a provider to the registry.
func RegisterProvider(p Provider) {
	providerMu.Lock()
	defer providerMu.Unlock()
	providerRegistry[p.Name()] = p
}

// GetProvider retrieves a provider by name.
func GetProvider(name string) Provider {
	providerMu.RLock()
	defer providerMu.RUnlock()
	return providerRegistry[name]
}

// ListProviders returns all registered provider names, sorted.
func ListProviders() []string {
	providerMu.RLock()
	defer providerMu.RUnlock()

	names := make([]string, 0, len(providerRegistry))
	for name := range providerRegistry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
