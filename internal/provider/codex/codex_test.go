package codex

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"testing"

	"github.com/gwbischof/ghstyle/internal/provider/claude"
)

func TestNewProvider_Name(t *testing.T) {
	provider := NewProvider("", "", "gpt-5-codex")
	if provider.Name() != "codex" {
		t.Fatalf("Name() = %s, want codex", provider.Name())
	}
}

func withHelperProcess(t *testing.T, mode string) {
	t.Helper()
	original := execCommandContext
	t.Cleanup(func() { execCommandContext = original })

	execCommandContext = func(ctx context.Context, name string, args ...string) *exec.Cmd {
		cmdArgs := []string{"-test.run=TestCodexHelperProcess", "--", name}
		cmdArgs = append(cmdArgs, args...)
		cmd := exec.CommandContext(ctx, os.Args[0], cmdArgs...)
		cmd.Env = append(os.Environ(), "GO_WANT_CODEX_HELPER=1", "CODEX_HELPER_MODE="+mode)
		return cmd
	}
}

func TestSummarize_Success(t *testing.T) {
	withHelperProcess(t, "ok")

	provider := NewProvider("", "", "test-model")
	resp, err := provider.Summarize(context.Background(), &claude.Request{Prompt: "Analyze these comments"})
	if err != nil {
		t.Fatalf("Summarize() error = %v", err)
	}
	if resp.Text != "Codex style analysis" {
		t.Fatalf("Text = %q, want Codex style analysis", resp.Text)
	}
	if resp.CostUSD != 0 {
		t.Fatalf("CostUSD = %v, want 0 (codex reports no cost)", resp.CostUSD)
	}
}

func TestSummarize_EmptyOutput(t *testing.T) {
	withHelperProcess(t, "empty")

	provider := NewProvider("", "", "test-model")
	_, err := provider.Summarize(context.Background(), &claude.Request{Prompt: "p"})
	if err == nil || !strings.Contains(err.Error(), "no content") {
		t.Fatalf("expected empty output error, got: %v", err)
	}
}

func TestSummarize_Failure(t *testing.T) {
	withHelperProcess(t, "fail")

	provider := NewProvider("", "", "test-model")
	_, err := provider.Summarize(context.Background(), &claude.Request{Prompt: "p"})
	if err == nil || !strings.Contains(err.Error(), "codex CLI error") {
		t.Fatalf("expected codex CLI error, got: %v", err)
	}
}

func TestCodexHelperProcess(t *testing.T) {
	if os.Getenv("GO_WANT_CODEX_HELPER") != "1" {
		return
	}
	defer os.Exit(0)

	args := os.Args
	idx := -1
	for i, arg := range args {
		if arg == "--" {
			idx = i
			break
		}
	}
	if idx == -1 || idx+1 >= len(args) || args[idx+1] != codexCommand {
		fmt.Fprintf(os.Stderr, "unexpected command: %v", args)
		os.Exit(1)
	}

	switch os.Getenv("CODEX_HELPER_MODE") {
	case "ok":
		fmt.Println("Codex style analysis")
	case "empty":
		// print nothing
	case "fail":
		fmt.Fprint(os.Stderr, "quota exceeded")
		os.Exit(1)
	}
}
