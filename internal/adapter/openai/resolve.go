package openai

import (
	"strings"

	"github.com/taskchat/taskchat/internal/config"
)

// Default models per backend, used when no model is configured.
const (
	DefaultOpenAIModel = "gpt-4o-mini"
	DefaultGroqModel   = "meta-llama/llama-4-scout-17b-16e-instruct"
)

// Resolve picks the reasoning backend from configuration. An explicit
// provider setting wins; otherwise the first backend with an API key is
// chosen, Groq before OpenAI. Returns nil when nothing is configured so the
// server can start and fail chat turns individually instead of refusing to
// boot.
func Resolve(cfg config.Reasoning) *Client {
	switch strings.ToLower(cfg.Provider) {
	case "groq":
		return newGroq(cfg)
	case "openai":
		return newOpenAI(cfg)
	}

	if cfg.GroqAPIKey != "" {
		return newGroq(cfg)
	}
	if cfg.OpenAIAPIKey != "" {
		return newOpenAI(cfg)
	}
	return nil
}

func newGroq(cfg config.Reasoning) *Client {
	model := cfg.Model
	if model == "" {
		model = DefaultGroqModel
	}
	return NewClient("groq", cfg.GroqBaseURL, cfg.GroqAPIKey, model)
}

func newOpenAI(cfg config.Reasoning) *Client {
	model := cfg.Model
	if model == "" {
		model = DefaultOpenAIModel
	}
	return NewClient("openai", cfg.OpenAIBaseURL, cfg.OpenAIAPIKey, model)
}
