package github

import (
	"strings"
	"testing"
)

func TestSanitizeContentStripsHiddenText(t *testing.T) {
	in := "visible <!-- hidden instruction --> text​ with zero-width"
	out := SanitizeContent(in)

	if strings.Contains(out, "hidden instruction") {
		t.Fatalf("HTML comment not stripped: %q", out)
	}
	if strings.Contains(out, "​") {
		t.Fatalf("zero-width character not stripped: %q", out)
	}
	if !strings.Contains(out, "visible") || !strings.Contains(out, "with zero-width") {
		t.Fatalf("visible text damaged: %q", out)
	}
}

func TestSanitizeContentKeepsFormatting(t *testing.T) {
	in := "line one\n\tindented code\nline three"
	if out := SanitizeContent(in); out != in {
		t.Fatalf("newlines and tabs should survive, got %q", out)
	}
}

func TestRedactGitHubTokens(t *testing.T) {
	in := "token is ghp_" + strings.Repeat("a", 36) + " ok"
	out := RedactGitHubTokens(in)
	if strings.Contains(out, "ghp_") {
		t.Fatalf("token not redacted: %q", out)
	}
	if !strings.Contains(out, "[REDACTED_GITHUB_TOKEN]") {
		t.Fatalf("redaction marker missing: %q", out)
	}
}

func TestSanitizeContentEmpty(t *testing.T) {
	if out := SanitizeContent(""); out != "" {
		t.Fatalf("empty input should stay empty, got %q", out)
	}
}
