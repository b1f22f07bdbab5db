package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for the ghstyle tools
type Config struct {
	// GitHub auth settings. GitHubToken is the default credential; the
	// App settings are only required when fetching private comments.
	GitHubToken          string
	GitHubAppID          string
	GitHubPrivateKey     string
	GitHubInstallationID int64

	// AI Provider selection
	Provider string // "claude" or "codex"

	// Claude settings
	ClaudeAPIKey string
	ClaudeModel  string

	// Codex settings (uses OpenAI-compatible environment variables)
	OpenAIAPIKey  string
	OpenAIBaseURL string // Optional: custom API endpoint
	CodexModel    string

	// Generation settings
	BatchSize int
	MaxLines  int

	// Cost control settings. Zero means unlimited.
	MaxLLMCalls int
	MaxSpendUSD float64

	// Per-call timeouts
	AnalyzeTimeout time.Duration
	MergeTimeout   time.Duration
	CompactTimeout time.Duration
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	privateKey := normalizePrivateKey(os.Getenv("GITHUB_PRIVATE_KEY"))

	cfg := &Config{
		GitHubToken:          os.Getenv("GITHUB_TOKEN"),
		GitHubAppID:          os.Getenv("GITHUB_APP_ID"),
		GitHubPrivateKey:     privateKey,
		GitHubInstallationID: getEnvInt64("GITHUB_INSTALLATION_ID", 0),
		Provider:             getEnv("PROVIDER", "claude"),
		ClaudeAPIKey:         os.Getenv("ANTHROPIC_API_KEY"),
		ClaudeModel:          os.Getenv("CLAUDE_MODEL"),
		OpenAIAPIKey:         os.Getenv("OPENAI_API_KEY"),
		OpenAIBaseURL:        os.Getenv("OPENAI_BASE_URL"),
		CodexModel:           getEnv("CODEX_MODEL", "gpt-5-codex"),
		BatchSize:            getEnvInt("BATCH_SIZE", 50),
		MaxLines:             getEnvInt("MAX_STYLE_LINES", 5000),
		MaxLLMCalls:          getEnvInt("MAX_LLM_CALLS", 0),
		MaxSpendUSD:          getEnvFloat("MAX_SPEND_USD", 0),
		AnalyzeTimeout:       time.Duration(getEnvInt("ANALYZE_TIMEOUT_SECONDS", 60)) * time.Second,
		MergeTimeout:         time.Duration(getEnvInt("MERGE_TIMEOUT_SECONDS", 120)) * time.Second,
		CompactTimeout:       time.Duration(getEnvInt("COMPACT_TIMEOUT_SECONDS", 600)) * time.Second,
	}

	// Validate required fields
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func normalizePrivateKey(value string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return ""
	}

	if strings.HasPrefix(trimmed, "\"") && strings.HasSuffix(trimmed, "\"") {
		trimmed = strings.TrimPrefix(trimmed, "\"")
		trimmed = strings.TrimSuffix(trimmed, "\"")
	}
	if strings.HasPrefix(trimmed, "'") && strings.HasSuffix(trimmed, "'") {
		trimmed = strings.TrimPrefix(trimmed, "'")
		trimmed = strings.TrimSuffix(trimmed, "'")
	}

	trimmed = strings.ReplaceAll(trimmed, "\r\n", "\n")
	trimmed = strings.ReplaceAll(trimmed, "\r", "\n")
	if strings.Contains(trimmed, "\\n") {
		trimmed = strings.ReplaceAll(trimmed, "\\r", "")
		trimmed = strings.ReplaceAll(trimmed, "\\n", "\n")
	}

	return trimmed
}

// validate checks that all required configuration is present. GitHub
// credentials are checked separately via ValidateGitHubAuth because only
// the fetch path talks to GitHub.
func (c *Config) validate() error {
	if err := c.validateProviderConfig(); err != nil {
		return err
	}

	return c.validateGenerationConfig()
}

// ValidateGitHubAuth checks that a usable GitHub credential is configured.
func (c *Config) ValidateGitHubAuth() error {
	if c.GitHubToken != "" {
		return nil
	}
	if c.GitHubAppID == "" && c.GitHubPrivateKey == "" {
		return fmt.Errorf("GITHUB_TOKEN is required (or GITHUB_APP_ID + GITHUB_PRIVATE_KEY for app auth)")
	}
	if c.GitHubAppID == "" {
		return fmt.Errorf("GITHUB_APP_ID is required for app auth")
	}
	if c.GitHubPrivateKey == "" {
		return fmt.Errorf("GITHUB_PRIVATE_KEY is required for app auth")
	}
	if c.GitHubInstallationID == 0 {
		return fmt.Errorf("GITHUB_INSTALLATION_ID is required for app auth")
	}
	return nil
}

// HasAppAuth reports whether GitHub App credentials are configured.
func (c *Config) HasAppAuth() bool {
	return c.GitHubAppID != "" && c.GitHubPrivateKey != "" && c.GitHubInstallationID != 0
}

func (c *Config) validateProviderConfig() error {
	switch c.Provider {
	case "claude":
		if c.ClaudeAPIKey == "" {
			log.Printf("Warning: ANTHROPIC_API_KEY not set, claude CLI will use its own credentials")
		}
	case "codex":
		if c.OpenAIAPIKey == "" {
			log.Printf("Warning: OPENAI_API_KEY not set, using default OpenAI credentials")
		}
	default:
		return fmt.Errorf("invalid provider: %s (must be 'claude' or 'codex')", c.Provider)
	}
	return nil
}

func (c *Config) validateGenerationConfig() error {
	if c.BatchSize <= 0 {
		return fmt.Errorf("BATCH_SIZE must be greater than 0")
	}
	if c.MaxLines <= 0 {
		return fmt.Errorf("MAX_STYLE_LINES must be greater than 0")
	}
	if c.MaxLLMCalls < 0 {
		return fmt.Errorf("MAX_LLM_CALLS must not be negative")
	}
	if c.MaxSpendUSD < 0 {
		return fmt.Errorf("MAX_SPEND_USD must not be negative")
	}
	if c.AnalyzeTimeout <= 0 {
		return fmt.Errorf("ANALYZE_TIMEOUT_SECONDS must be greater than 0")
	}
	if c.MergeTimeout <= 0 {
		return fmt.Errorf("MERGE_TIMEOUT_SECONDS must be greater than 0")
	}
	if c.CompactTimeout <= 0 {
		return fmt.Errorf("COMPACT_TIMEOUT_SECONDS must be greater than 0")
	}
	return nil
}

// getEnv gets environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt gets environment variable as int with a default value
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}
