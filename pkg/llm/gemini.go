package llm

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// GeminiProvider implements the Google Generative Language generateContent API.
type GeminiProvider struct{}

// Name returns the provider identifier.
func (g *GeminiProvider) Name() string {
	return "gemini"
}

// DefaultModel returns the model used when none is configured.
func (g *GeminiProvider) DefaultModel() string {
	return "gemini-2.0-flash"
}

// BuildURL constructs the generateContent endpoint. The API key travels in
// the query string.
func (g *GeminiProvider) BuildURL(endpoint Endpoint) string {
	baseURL := endpoint.URL
	if baseURL == "" {
		baseURL = "https://generativelanguage.googleapis.com"
	}
	baseURL = strings.TrimRight(baseURL, "/")

	modelName := endpoint.Model
	if modelName == "" {
		modelName = g.DefaultModel()
	}

	requestURL := fmt.Sprintf("%s/v1beta/models/%s:generateContent", baseURL, url.PathEscape(modelName))
	if endpoint.APIKey != "" {
		requestURL += "?key=" + url.QueryEscape(endpoint.APIKey)
	}
	return requestURL
}

// SetHeaders adds Gemini headers.
func (g *GeminiProvider) SetHeaders(req *http.Request, _ Endpoint) {
	req.Header.Set("Accept", "application/json")
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiGenerationConfig struct {
	ResponseMIMEType string   `json:"responseMimeType,omitempty"`
	Temperature      *float64 `json:"temperature,omitempty"`
	MaxOutputTokens  int      `json:"maxOutputTokens,omitempty"`
}

type geminiRequest struct {
	Contents          []geminiContent         `json:"contents"`
	SystemInstruction *geminiContent          `json:"systemInstruction,omitempty"`
	GenerationConfig  *geminiGenerationConfig `json:"generationConfig,omitempty"`
}

// BuildRequestBody creates the generateContent request body.
func (g *GeminiProvider) BuildRequestBody(_ Endpoint, req Request) ([]byte, error) {
	body := geminiRequest{
		Contents: []geminiContent{{Role: "user", Parts: []geminiPart{{Text: req.Prompt}}}},
	}
	if req.System != "" {
		body.SystemInstruction = &geminiContent{Parts: []geminiPart{{Text: req.System}}}
	}

	if req.JSONMode || req.Temperature != nil || req.MaxTokens > 0 {
		config := &geminiGenerationConfig{
			Temperature:     req.Temperature,
			MaxOutputTokens: req.MaxTokens,
		}
		if req.JSONMode {
			config.ResponseMIMEType = "application/json"
		}
		body.GenerationConfig = config
	}

	return json.Marshal(body)
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
		FinishReason string `json:"finishReason"`
	} `json:"candidates"`
	UsageMetadata struct {
		PromptTokenCount     int `json:"promptTokenCount"`
		CandidatesTokenCount int `json:"candidatesTokenCount"`
		TotalTokenCount      int `json:"totalTokenCount"`
	} `json:"usageMetadata"`
	ModelVersion string `json:"modelVersion"`
}

// ParseResponse joins the text parts of the first candidate.
func (g *GeminiProvider) ParseResponse(body []byte, endpoint Endpoint) (*Response, error) {
	var resp geminiResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("parse gemini response: %w", err)
	}

	if len(resp.Candidates) == 0 {
		return nil, fmt.Errorf("no candidates in response")
	}

	var content strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		content.WriteString(part.Text)
	}

	modelName := resp.ModelVersion
	if modelName == "" {
		modelName = endpoint.Model
	}

	return &Response{
		Content: content.String(),
		Model:   modelName,
		Usage: TokenUsage{
			PromptTokens:     resp.UsageMetadata.PromptTokenCount,
			CompletionTokens: resp.UsageMetadata.CandidatesTokenCount,
			TotalTokens:      resp.UsageMetadata.TotalTokenCount,
		},
		FinishReason: resp.Candidates[0].FinishReason,
	}, nil
}
