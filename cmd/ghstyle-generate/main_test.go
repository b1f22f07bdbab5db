package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gwbischof/ghstyle/internal/commentstore"
	"github.com/gwbischof/ghstyle/internal/provider"
	"github.com/gwbischof/ghstyle/internal/provider/claude"
)

type stubProvider struct {
	name  string
	calls int
}

func (s *stubProvider) Summarize(ctx context.Context, req *claude.Request) (*claude.Response, error) {
	s.calls++
	return &claude.Response{Text: "- Uses short sentences\n- Friendly tone"}, nil
}

func (s *stubProvider) Name() string {
	return s.name
}

func stubSummarizer(t *testing.T) *stubProvider {
	t.Helper()
	stub := &stubProvider{name: "stub"}
	prev := newProvider
	t.Cleanup(func() { newProvider = prev })
	newProvider = func(cfg *provider.Config) (provider.Provider, error) {
		return stub, nil
	}
	return stub
}

func writeComments(t *testing.T, path string, n int) {
	t.Helper()
	records := make([]commentstore.CommentRecord, n)
	for i := range records {
		records[i] = commentstore.CommentRecord{
			CommentID:   "IC_1",
			Repository:  "octocat/hello",
			CommentBody: "looks good to me",
		}
	}
	if err := commentstore.Write(path, records); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
}

func noServe(string, http.Handler) error { return nil }

func TestRun_Usage(t *testing.T) {
	err := run(context.Background(), []string{}, noServe)
	if err == nil || !strings.Contains(err.Error(), "usage:") {
		t.Fatalf("expected usage error, got %v", err)
	}
}

func TestRun_MissingCommentStore(t *testing.T) {
	t.Setenv("PROVIDER", "claude")
	dir := t.TempDir()

	err := run(context.Background(), []string{
		"--comments", filepath.Join(dir, "nope.json"),
		"--checkpoint", filepath.Join(dir, "progress.json"),
		"octocat",
	}, noServe)
	if err == nil || !strings.Contains(err.Error(), "failed to load comment store") {
		t.Fatalf("expected load error, got %v", err)
	}
}

func TestRun_EmptyStoreIsNoOp(t *testing.T) {
	t.Setenv("PROVIDER", "claude")
	dir := t.TempDir()
	comments := filepath.Join(dir, "octocat_comments.json")
	writeComments(t, comments, 0)

	stub := stubSummarizer(t)
	err := run(context.Background(), []string{
		"--comments", comments,
		"--checkpoint", filepath.Join(dir, "progress.json"),
		"octocat",
	}, noServe)
	if err != nil {
		t.Fatalf("run() returned error: %v", err)
	}
	if stub.calls != 0 {
		t.Errorf("summarizer called %d times for empty store, want 0", stub.calls)
	}
}

func TestRun_GeneratesDocument(t *testing.T) {
	t.Setenv("PROVIDER", "claude")
	dir := t.TempDir()
	comments := filepath.Join(dir, "octocat_comments.json")
	output := filepath.Join(dir, "octocat_style_document.md")
	writeComments(t, comments, 10)

	stub := stubSummarizer(t)
	err := run(context.Background(), []string{
		"--comments", comments,
		"--output", output,
		"--checkpoint", filepath.Join(dir, "progress.json"),
		"--batch-size", "5",
		"octocat",
	}, noServe)
	if err != nil {
		t.Fatalf("run() returned error: %v", err)
	}

	// 2 batches of 5: one analysis each, one merge for the second.
	if stub.calls != 3 {
		t.Errorf("summarizer calls = %d, want 3", stub.calls)
	}

	content, err := os.ReadFile(output)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if !strings.Contains(string(content), "Generated from 10 comments") {
		t.Errorf("document header missing processed count:\n%s", content)
	}
}

func TestRun_DefaultOutputName(t *testing.T) {
	t.Setenv("PROVIDER", "claude")
	dir := t.TempDir()

	cwd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd failed: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Chdir failed: %v", err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(cwd); err != nil {
			t.Fatalf("restore cwd failed: %v", err)
		}
	})

	writeComments(t, "octocat_comments.json", 3)
	stubSummarizer(t)

	if err := run(context.Background(), []string{"octocat"}, noServe); err != nil {
		t.Fatalf("run() returned error: %v", err)
	}

	if _, err := os.Stat("octocat_style_document.md"); err != nil {
		t.Errorf("expected default output octocat_style_document.md: %v", err)
	}
}

func TestRun_CleanRemovesCheckpoint(t *testing.T) {
	t.Setenv("PROVIDER", "claude")
	dir := t.TempDir()
	comments := filepath.Join(dir, "octocat_comments.json")
	cpPath := filepath.Join(dir, "progress.json")
	writeComments(t, comments, 0)

	if err := os.WriteFile(cpPath, []byte(`{"current_line": 50}`), 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	stubSummarizer(t)
	err := run(context.Background(), []string{
		"--comments", comments,
		"--checkpoint", cpPath,
		"--clean",
		"octocat",
	}, noServe)
	if err != nil {
		t.Fatalf("run() returned error: %v", err)
	}

	if _, err := os.Stat(cpPath); !os.IsNotExist(err) {
		t.Error("checkpoint file should be removed by --clean")
	}
}

func TestRun_CorruptCheckpointAborts(t *testing.T) {
	t.Setenv("PROVIDER", "claude")
	dir := t.TempDir()
	comments := filepath.Join(dir, "octocat_comments.json")
	cpPath := filepath.Join(dir, "progress.json")
	writeComments(t, comments, 10)

	if err := os.WriteFile(cpPath, []byte("{not json"), 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	stub := stubSummarizer(t)
	err := run(context.Background(), []string{
		"--comments", comments,
		"--checkpoint", cpPath,
		"octocat",
	}, noServe)
	if err == nil || !strings.Contains(err.Error(), "corrupt checkpoint") {
		t.Fatalf("expected corrupt checkpoint error, got %v", err)
	}
	if stub.calls != 0 {
		t.Errorf("summarizer called %d times after corrupt checkpoint, want 0", stub.calls)
	}
}

func TestRun_UnsupportedProvider(t *testing.T) {
	t.Setenv("PROVIDER", "unknown")
	dir := t.TempDir()
	comments := filepath.Join(dir, "octocat_comments.json")
	writeComments(t, comments, 1)

	err := run(context.Background(), []string{
		"--comments", comments,
		"--checkpoint", filepath.Join(dir, "progress.json"),
		"octocat",
	}, noServe)
	if err == nil || !strings.Contains(err.Error(), "invalid provider") {
		t.Fatalf("expected provider error, got %v", err)
	}
}

func TestRun_StatusServerWired(t *testing.T) {
	t.Setenv("PROVIDER", "claude")
	dir := t.TempDir()
	comments := filepath.Join(dir, "octocat_comments.json")
	writeComments(t, comments, 5)

	stubSummarizer(t)

	served := make(chan http.Handler, 1)
	serve := func(addr string, handler http.Handler) error {
		if addr != ":0" {
			t.Errorf("serve addr = %q, want :0", addr)
		}
		served <- handler
		return nil
	}

	err := run(context.Background(), []string{
		"--comments", comments,
		"--output", filepath.Join(dir, "octocat_style_document.md"),
		"--checkpoint", filepath.Join(dir, "progress.json"),
		"--status-addr", ":0",
		"octocat",
	}, serve)
	if err != nil {
		t.Fatalf("run() returned error: %v", err)
	}

	handler := <-served
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("/health status = %d, want 200", rec.Code)
	}

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("/ status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "octocat") {
		t.Error("run list should include the username")
	}
}
