// Package llm builds the OpenAI-compatible client handed to the
// external decision-making agent. The agent itself lives outside this
// repository; the workflow only sees its tool calls.
package llm

import (
	"strings"

	openaisdk "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

type Config struct {
	BaseURL string `envconfig:"BASE_URL" split_words:"true"`
	APIKey  string `envconfig:"API_KEY" split_words:"true"`
	Model   string `envconfig:"MODEL" split_words:"true"`
}

// NewClient returns nil when no API key is configured, which callers
// treat as "run without a decision-making agent attached".
func NewClient(cfg Config) *openaisdk.Client {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil
	}

	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if trimmed := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"); trimmed != "" {
		opts = append(opts, option.WithBaseURL(trimmed))
	}

	client := openaisdk.NewClient(opts...)
	return &client
}
