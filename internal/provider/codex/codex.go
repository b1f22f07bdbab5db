package codex

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/gwbischof/ghstyle/internal/provider/claude"
)

const codexCommand = "codex"

// defaultTimeout matches codex exec's typical latency on large prompts.
const defaultTimeout = 10 * time.Minute

var execCommandContext = exec.CommandContext

// Provider invokes the `codex` CLI as a subprocess.
type Provider struct {
	model   string
	apiKey  string
	baseURL string
}

// NewProvider creates a new Codex provider
func NewProvider(apiKey, baseURL, model string) *Provider {
	if apiKey != "" {
		// OPENAI_API_KEY is what the codex CLI reads
		os.Setenv("OPENAI_API_KEY", apiKey)
	}
	if baseURL != "" {
		// OPENAI_BASE_URL allows custom API endpoints (proxies, local deployments)
		os.Setenv("OPENAI_BASE_URL", baseURL)
	}

	return &Provider{
		model:   model,
		apiKey:  apiKey,
		baseURL: baseURL,
	}
}

// Name returns the provider name
func (p *Provider) Name() string {
	return "codex"
}

// Summarize runs `codex exec` non-interactively with the prompt as the
// initial instruction and returns the raw output text. Codex does not
// report per-call cost, so CostUSD stays zero.
func (p *Provider) Summarize(ctx context.Context, req *claude.Request) (*claude.Response, error) {
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

	args := []string{"exec"}
	if p.model != "" {
		args = append(args, "-m", p.model)
	}
	args = append(args, req.Prompt)

	cmd := execCommandContext(ctx, codexCommand, args...)

	env := cmd.Env
	if env == nil {
		env = os.Environ()
	}
	if p.apiKey != "" {
		env = append(env, "OPENAI_API_KEY="+p.apiKey)
	}
	if p.baseURL != "" {
		env = append(env, "OPENAI_BASE_URL="+p.baseURL)
	}
	cmd.Env = env

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	log.Printf("[Codex] Executing: codex exec -m %s", p.model)
	log.Printf("[Codex] Prompt length: %d characters", len(req.Prompt))

	start := time.Now()
	if err := cmd.Run(); err != nil {
		duration := time.Since(start)
		log.Printf("[Codex] Command failed after %v", duration)

		stderrText := strings.TrimSpace(stderr.String())
		if stderrText == "" {
			stderrText = err.Error()
		}

		if ctx.Err() == context.DeadlineExceeded {
			return nil, fmt.Errorf("codex CLI timeout after %v: %s", duration, stderrText)
		}

		log.Printf("[Codex] Error: %s", stderrText)
		return nil, fmt.Errorf("codex CLI error: %s", stderrText)
	}

	duration := time.Since(start)
	output := strings.TrimSpace(stdout.String())
	log.Printf("[Codex] Command completed in %v, output length: %d bytes", duration, len(output))

	if output == "" {
		return nil, fmt.Errorf("no content found in response")
	}

	return &claude.Response{Text: output}, nil
}
