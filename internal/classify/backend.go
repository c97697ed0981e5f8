package classify

import (
	"context"
	"net/http"
	"time"
)

// Usage holds the token counts a backend reported for one completion call.
type Usage struct {
	PromptTokens     int64
	CompletionTokens int64
	TotalTokens      int64
}

// Backend is a single classification service in the fallback chain. A Backend
// takes the assembled prompt, performs one completion call, and returns the
// candidate category string it extracted from the reply. Validation against
// the category set is the caller's job.
type Backend interface {
	// Name identifies the backend in outcomes, logs and metrics.
	Name() string

	// Classify performs one completion call and returns the raw candidate
	// category value plus the usage the API reported.
	Classify(ctx context.Context, prompt string) (string, Usage, error)

	// Cost converts reported usage into a dollar estimate using the
	// backend's published per-token rates.
	Cost(u Usage) float64
}

// backendHTTPClient is a configured HTTP client with proper timeouts shared by
// the completion backends.
var backendHTTPClient = &http.Client{
	Timeout: 30 * time.Second,
	Transport: &http.Transport{
		MaxIdleConns:          10,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		DisableKeepAlives:     false,
	},
}
