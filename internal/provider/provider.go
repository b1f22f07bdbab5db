package provider

import (
	"context"

	"github.com/gwbischof/ghstyle/internal/provider/claude"
)

// Provider is the interface all LLM CLI backends implement.
type Provider interface {
	// Summarize sends the prompt to the external tool and returns its
	// output. A failed or unreachable tool is an error; the caller
	// decides whether that aborts the run or is retried.
	Summarize(ctx context.Context, req *claude.Request) (*claude.Response, error)

	// Name returns the provider name
	Name() string
}
