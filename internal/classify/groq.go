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
	// BackendGroq tags outcomes produced by the Groq backend.
	BackendGroq = "groq"

	defaultGroqBaseURL = "https://api.groq.com"
	defaultGroqModel   = "llama-3.1-8b-instant"

	groqTemperature = 0.1

	// Groq bills input and output tokens at different per-token rates.
	groqInputCostPerToken  = 0.00000005
	groqOutputCostPerToken = 0.00000008
)

// GroqBackend calls the Groq OpenAI-compatible chat completions API. It is
// the optional secondary backend: the reply is requested as a JSON object
// with a single "category" field.
type GroqBackend struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
}

// NewGroq creates a Groq backend with the given API key.
func NewGroq(apiKey string) *GroqBackend {
	return &GroqBackend{
		apiKey:     apiKey,
		model:      defaultGroqModel,
		baseURL:    defaultGroqBaseURL,
		httpClient: backendHTTPClient,
	}
}

// Name returns the backend tag.
func (g *GroqBackend) Name() string {
	return BackendGroq
}

type groqRequest struct {
	Model          string        `json:"model"`
	Messages       []groqMessage `json:"messages"`
	Temperature    float64       `json:"temperature"`
	ResponseFormat groqFormat    `json:"response_format"`
}

type groqMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type groqFormat struct {
	Type string `json:"type"`
}

type groqResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int64 `json:"prompt_tokens"`
		CompletionTokens int64 `json:"completion_tokens"`
		TotalTokens      int64 `json:"total_tokens"`
	} `json:"usage"`
}

// groqReply is the single-field structured reply requested from the model.
type groqReply struct {
	Category string `json:"category"`
}

// Classify performs one chat completion call and returns the category field
// parsed from the structured reply.
func (g *GroqBackend) Classify(ctx context.Context, prompt string) (string, Usage, error) {
	reqBody := groqRequest{
		Model: g.model,
		Messages: []groqMessage{
			{Role: "user", Content: prompt + "\n\nRespond as JSON: {\"category\": \"<name>\"}"},
		},
		Temperature:    groqTemperature,
		ResponseFormat: groqFormat{Type: "json_object"},
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", Usage{}, fmt.Errorf("failed to encode request: %w", err)
	}

	url := g.baseURL + "/openai/v1/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", Usage{}, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.apiKey)

	res, err := g.httpClient.Do(req)
	if err != nil {
		return "", Usage{}, fmt.Errorf("groq request failed: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return "", Usage{}, fmt.Errorf("groq returned http status %s", res.Status)
	}

	var parsed groqResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return "", Usage{}, fmt.Errorf("failed to decode groq response: %w", err)
	}

	if len(parsed.Choices) == 0 {
		return "", Usage{}, fmt.Errorf("groq returned no choices")
	}

	var reply groqReply
	if err := json.Unmarshal([]byte(parsed.Choices[0].Message.Content), &reply); err != nil {
		return "", Usage{}, fmt.Errorf("failed to parse groq reply: %w", err)
	}

	usage := Usage{
		PromptTokens:     parsed.Usage.PromptTokens,
		CompletionTokens: parsed.Usage.CompletionTokens,
		TotalTokens:      parsed.Usage.TotalTokens,
	}

	return strings.TrimSpace(reply.Category), usage, nil
}

// Cost applies the separate input and output per-token rates to the reported
// prompt and completion token counts.
func (g *GroqBackend) Cost(u Usage) float64 {
	return float64(u.PromptTokens)*groqInputCostPerToken +
		float64(u.CompletionTokens)*groqOutputCostPerToken
}
