package classify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

const (
	// BackendGemini tags outcomes produced by the Gemini backend.
	BackendGemini = "gemini"

	defaultGeminiBaseURL = "https://generativelanguage.googleapis.com"
	defaultGeminiModel   = "gemini-2.0-flash"

	// geminiTemperature is deliberately low to minimize response variance;
	// the reply must be a single category name.
	geminiTemperature = 0.1

	// geminiCostPerToken is the flat blended per-token rate applied to the
	// API-reported total token count.
	geminiCostPerToken = 0.00000015
)

// GeminiBackend calls the Gemini generateContent HTTP API. It is the primary
// classification backend: the reply is plain text holding the category name.
type GeminiBackend struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
}

// NewGemini creates a Gemini backend with the given API key.
func NewGemini(apiKey string) *GeminiBackend {
	return &GeminiBackend{
		apiKey:     apiKey,
		model:      defaultGeminiModel,
		baseURL:    defaultGeminiBaseURL,
		httpClient: backendHTTPClient,
	}
}

// Name returns the backend tag.
func (g *GeminiBackend) Name() string {
	return BackendGemini
}

type geminiRequest struct {
	Contents         []geminiContent `json:"contents"`
	GenerationConfig geminiGenConfig `json:"generationConfig"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiGenConfig struct {
	Temperature float64 `json:"temperature"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	UsageMetadata struct {
		TotalTokenCount int64 `json:"totalTokenCount"`
	} `json:"usageMetadata"`
}

// Classify performs one generateContent call and returns the trimmed reply
// text as the candidate category.
func (g *GeminiBackend) Classify(ctx context.Context, prompt string) (string, Usage, error) {
	reqBody := geminiRequest{
		Contents: []geminiContent{
			{Parts: []geminiPart{{Text: prompt}}},
		},
		GenerationConfig: geminiGenConfig{Temperature: geminiTemperature},
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", Usage{}, fmt.Errorf("failed to encode request: %w", err)
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent", g.baseURL, g.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", Usage{}, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", g.apiKey)

	res, err := g.httpClient.Do(req)
	if err != nil {
		return "", Usage{}, fmt.Errorf("gemini request failed: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return "", Usage{}, fmt.Errorf("gemini returned http status %s", res.Status)
	}

	var parsed geminiResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return "", Usage{}, fmt.Errorf("failed to decode gemini response: %w", err)
	}

	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return "", Usage{}, fmt.Errorf("gemini returned no candidates")
	}

	reply := strings.TrimSpace(parsed.Candidates[0].Content.Parts[0].Text)
	usage := Usage{TotalTokens: parsed.UsageMetadata.TotalTokenCount}

	return reply, usage, nil
}

// Cost applies the flat per-token rate to the total token count.
func (g *GeminiBackend) Cost(u Usage) float64 {
	return float64(u.TotalTokens) * geminiCostPerToken
}
