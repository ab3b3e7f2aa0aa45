// internal/llm/factory/factory.go
package factory

import (
	"github.com/newthinker/sentinel/internal/config"
	"github.com/newthinker/sentinel/internal/core"
	"github.com/newthinker/sentinel/internal/llm"
	"github.com/newthinker/sentinel/internal/llm/claude"
	"github.com/newthinker/sentinel/internal/llm/openai"
)

// New creates an LLM provider based on configuration.
func New(cfg config.LLMConfig) (llm.Provider, error) {
	switch cfg.Provider {
	case "claude":
		return claude.New(cfg.Claude.APIKey, cfg.Claude.Model, cfg.Claude.BaseURL)
	case "openai":
		return openai.New(cfg.OpenAI.APIKey, cfg.OpenAI.Model, cfg.OpenAI.BaseURL)
	default:
		return nil, core.Errorf(core.ErrConfigInvalid, "unknown LLM provider: %s", cfg.Provider)
	}
}
