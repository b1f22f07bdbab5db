package github

import (
	"regexp"
	"strings"
)

var (
	reInvisible  = regexp.MustCompile("[\u200b\u200c\u200d\ufeff]")
	reControl    = regexp.MustCompile("[\x00-\x08\x0b\x0c\x0e-\x1f\x7f-\u009f]")
	reBidi       = regexp.MustCompile("[‪-‮⁦-⁩]")
	reHTMLCmnt   = regexp.MustCompile(`<!--[\s\S]*?-->`)
	reTokenPAT   = regexp.MustCompile(`\bghp_[A-Za-z0-9]{36}\b`)
	reTokenOAuth = regexp.MustCompile(`\bgho_[A-Za-z0-9]{36}\b`)
	reTokenInst  = regexp.MustCompile(`\bghs_[A-Za-z0-9]{36}\b`)
	reTokenFine  = regexp.MustCompile(`\bgithub_pat_[A-Za-z0-9_]{11,221}\b`)
)

// SanitizeContent cleans a comment body before it is embedded in an LLM
// prompt: hidden characters and HTML comments could smuggle instructions
// past a human reviewer, and token-like strings must never reach an
// external tool.
func SanitizeContent(s string) string {
	if s == "" {
		return s
	}
	s = reHTMLCmnt.ReplaceAllString(s, "")
	s = reInvisible.ReplaceAllString(s, "")
	s = reControl.ReplaceAllString(s, "")
	s = reBidi.ReplaceAllString(s, "")
	s = RedactGitHubTokens(s)
	return strings.TrimSpace(s)
}

// RedactGitHubTokens censors GitHub token-like strings.
func RedactGitHubTokens(s string) string {
	s = reTokenPAT.ReplaceAllString(s, "[REDACTED_GITHUB_TOKEN]")
	s = reTokenOAuth.ReplaceAllString(s, "[REDACTED_GITHUB_TOKEN]")
	s = reTokenInst.ReplaceAllString(s, "[REDACTED_GITHUB_TOKEN]")
	s = reTokenFine.ReplaceAllString(s, "[REDACTED_GITHUB_TOKEN]")
	return s
}
