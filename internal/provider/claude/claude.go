package claude

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/exec"
	"strings"
	"time"
)

// defaultTimeout bounds a single CLI call when the request carries none.
const defaultTimeout = 60 * time.Second

// execCommandContext is overridable for tests.
var execCommandContext = exec.CommandContext

// Request is a single summarization call to an external LLM CLI.
// Defined here (not in the parent package) so both providers can share
// it without an import cycle.
type Request struct {
	// Prompt is the full prompt, including any system preamble.
	Prompt string

	// Timeout bounds the CLI invocation. Zero means the provider default.
	Timeout time.Duration
}

// Response is the text produced by the external tool plus its reported
// cost when the tool exposes one.
type Response struct {
	Text    string
	CostUSD float64
}

// CLIResult represents the result from Claude CLI
type CLIResult struct {
	Result  string  `json:"result"`
	IsError bool    `json:"isError"`
	CostUSD float64 `json:"costUSD"`
}

// Provider invokes the `claude` CLI as a subprocess.
type Provider struct {
	model string
}

// NewProvider creates a new Claude provider.
// Supports both ANTHROPIC_API_KEY and ANTHROPIC_AUTH_TOKEN; an empty key
// relies on an already-authenticated CLI session.
func NewProvider(apiKey, model string) *Provider {
	if apiKey != "" {
		_ = os.Setenv("ANTHROPIC_API_KEY", apiKey)
		_ = os.Setenv("ANTHROPIC_AUTH_TOKEN", apiKey)
	}

	// Preserve ANTHROPIC_BASE_URL if already set in environment
	if baseURL := os.Getenv("ANTHROPIC_BASE_URL"); baseURL != "" {
		log.Printf("[Claude] Using custom API endpoint: %s", baseURL)
	}

	return &Provider{model: model}
}

// Name returns the provider name
func (p *Provider) Name() string {
	return "claude"
}

// Summarize sends the prompt to the claude CLI over stdin and parses the
// JSON result envelope.
func (p *Provider) Summarize(ctx context.Context, req *Request) (*Response, error) {
	if strings.TrimSpace(req.Prompt) == "" {
		return nil, fmt.Errorf("prompt is required")
	}

	timeout := req.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	args := []string{"-p", "--output-format", "json"}
	if p.model != "" {
		args = append(args, "--model", p.model)
	}

	cmd := execCommandContext(ctx, "claude", args...)
	cmd.Stdin = strings.NewReader(req.Prompt)
	if cmd.Env == nil {
		cmd.Env = os.Environ()
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	log.Printf("[Claude CLI] Calling claude with %d character prompt (model: %s)", len(req.Prompt), p.model)

	start := time.Now()
	err := cmd.Run()
	duration := time.Since(start)

	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, fmt.Errorf("claude CLI timed out after %v", duration)
		}
		stderrText := strings.TrimSpace(stderr.String())
		if stderrText == "" {
			stderrText = err.Error()
		}
		log.Printf("[Claude CLI] Command failed after %v: %s", duration, stderrText)
		return nil, fmt.Errorf("claude CLI execution failed: %s", stderrText)
	}

	log.Printf("[Claude CLI] Command completed in %v", duration)

	var result CLIResult
	if err := json.Unmarshal(stdout.Bytes(), &result); err != nil {
		preview := truncateString(stdout.String(), 1000)
		log.Printf("[Claude CLI] Failed to parse JSON response: %v", err)
		return nil, fmt.Errorf("failed to parse claude CLI JSON response: %w (output preview: %s)", err, preview)
	}

	if result.IsError {
		return nil, fmt.Errorf("claude CLI error: %s", result.Result)
	}

	text := strings.TrimSpace(result.Result)
	log.Printf("[Claude CLI] Response length: %d characters, cost: $%.4f", len(text), result.CostUSD)

	return &Response{Text: text, CostUSD: result.CostUSD}, nil
}

// truncateString truncates a string for logging
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
