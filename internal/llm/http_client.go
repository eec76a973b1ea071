package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-resty/resty/v2"

	"github.com/smartshop/checkout/internal/patterns"
)

// HTTPClient calls a text-generation backend over HTTP, guarded by a
// circuit breaker and a bulkhead so a failing or slow provider cannot
// stall checkouts.
type HTTPClient struct {
	client     *resty.Client
	circuit    *patterns.CircuitBreakerWrapper
	bulkhead   *patterns.Bulkhead
	baseURL    string
	deployment string
}

type generateRequest struct {
	Deployment string    `json:"deployment,omitempty"`
	Messages   []Message `json:"messages"`
}

type generateResponse struct {
	Text string `json:"text"`
}

// NewHTTPClient creates an HTTP adapter for the given backend
func NewHTTPClient(cfg Config, service string) *HTTPClient {
	return &HTTPClient{
		client: resty.New().
			SetTimeout(patterns.GenerateTimeout).
			SetRetryCount(0), // No automatic retries, failures resolve to agent fallback
		circuit:    patterns.NewCircuitBreaker("TextGen", service),
		bulkhead:   patterns.NewBulkhead(10, "textgen", service),
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		deployment: cfg.Deployment,
	}
}

// Generate posts the message list to the backend and returns its text.
// The call is bounded by GenerateTimeout and by the caller's context.
func (c *HTTPClient) Generate(ctx context.Context, messages []Message) (string, error) {
	callCtx, cancel := patterns.WithTimeout(ctx, patterns.GenerateTimeout)
	defer cancel()

	var text string
	err := c.bulkhead.Execute(callCtx, func() error {
		result, cbErr := c.circuit.Execute(func() (interface{}, error) {
			resp, httpErr := c.client.R().
				SetContext(callCtx).
				SetHeader("Content-Type", "application/json").
				SetBody(generateRequest{
					Deployment: c.deployment,
					Messages:   messages,
				}).
				Post(c.baseURL + "/v1/generate")

			if httpErr != nil {
				return nil, fmt.Errorf("HTTP error: %w", httpErr)
			}

			if resp.StatusCode() != http.StatusOK {
				return nil, fmt.Errorf("text-generation backend returned status %d: %s", resp.StatusCode(), resp.String())
			}

			var response generateResponse
			if err := json.Unmarshal(resp.Body(), &response); err != nil {
				return nil, fmt.Errorf("failed to parse response: %w", err)
			}

			if strings.TrimSpace(response.Text) == "" {
				return nil, ErrEmptyResponse
			}

			return response.Text, nil
		})

		if cbErr != nil {
			return patterns.FormatError("TextGen", cbErr)
		}

		text = result.(string)
		return nil
	})

	if err != nil {
		return "", err
	}
	return text, nil
}

// Circuit exposes the breaker for status endpoints
func (c *HTTPClient) Circuit() *patterns.CircuitBreakerWrapper {
	return c.circuit
}
