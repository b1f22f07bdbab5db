package provider

import (
	"fmt"

	"github.com/gwbischof/ghstyle/internal/provider/claude"
	"github.com/gwbischof/ghstyle/internal/provider/codex"
)

// Config contains provider configuration
type Config struct {
	// Provider name: "claude" or "codex"
	Name string

	// Claude configuration
	ClaudeAPIKey string
	ClaudeModel  string

	// Codex configuration (OpenAI-compatible environment)
	OpenAIAPIKey  string
	OpenAIBaseURL string
	CodexModel    string
}

// NewProvider creates a provider based on configuration.
// This is a factory function that eliminates if-else branches at the
// call sites.
func NewProvider(cfg *Config) (Provider, error) {
	switch cfg.Name {
	case "claude":
		return claude.NewProvider(cfg.ClaudeAPIKey, cfg.ClaudeModel), nil
	case "codex":
		return codex.NewProvider(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.CodexModel), nil
	default:
		return nil, fmt.Errorf("unknown provider: %s (supported: claude, codex)", cfg.Name)
	}
}
