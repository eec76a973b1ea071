// Package llm abstracts the external text-generation backend used by the
// checkout agents. The backend is optional: when disabled by configuration
// the injected client fails every call with ErrDisabled and callers resolve
// to their deterministic fallbacks.
package llm

import (
	"context"
	"errors"
)

// Message roles
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one entry in a generation conversation
type Message struct {
	Role string `json:"role"`
	Text string `json:"text"`
}

// Client generates text from an ordered message list. Implementations must
// be safe for concurrent use by many checkout requests.
type Client interface {
	Generate(ctx context.Context, messages []Message) (string, error)
}

// Config selects and parameterizes the text-generation adapter
type Config struct {
	Enabled    bool
	BaseURL    string
	Deployment string
}

// ErrDisabled is returned when text generation is turned off by configuration
var ErrDisabled = errors.New("text generation is disabled")

// ErrEmptyResponse is returned when the backend produces blank text
var ErrEmptyResponse = errors.New("text-generation backend returned empty response")

// New selects an adapter from configuration. Call sites never nil-check:
// a disabled backend is an adapter that always fails.
func New(cfg Config, service string) Client {
	if !cfg.Enabled {
		return Disabled()
	}
	return NewHTTPClient(cfg, service)
}

type disabledClient struct{}

// Disabled returns a client that fails every call with ErrDisabled
func Disabled() Client {
	return disabledClient{}
}

func (disabledClient) Generate(context.Context, []Message) (string, error) {
	return "", ErrDisabled
}
