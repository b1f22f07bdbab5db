package generator

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gwbischof/ghstyle/internal/checkpoint"
	"github.com/gwbischof/ghstyle/internal/commentstore"
	"github.com/gwbischof/ghstyle/internal/costcontrol"
	"github.com/gwbischof/ghstyle/internal/progress"
	"github.com/gwbischof/ghstyle/internal/provider/claude"
)

// callKind classifies a summarizer invocation by its prompt.
type callKind string

const (
	kindAnalyze callKind = "analyze"
	kindMerge   callKind = "merge"
	kindCompact callKind = "compact"
)

func classify(prompt string) callKind {
	switch {
	case strings.Contains(prompt, "has grown too large"):
		return kindCompact
	case strings.Contains(prompt, "updating a GitHub comment style guide"):
		return kindMerge
	default:
		return kindAnalyze
	}
}

// mockSummarizer is a function-field mock in the style of the other
// test doubles in this repo.
type mockSummarizer struct {
	SummarizeFunc func(kind callKind, req *claude.Request) (*claude.Response, error)
	Calls         []callKind
	Prompts       []string
}

func (m *mockSummarizer) Summarize(_ context.Context, req *claude.Request) (*claude.Response, error) {
	kind := classify(req.Prompt)
	m.Calls = append(m.Calls, kind)
	m.Prompts = append(m.Prompts, req.Prompt)
	if m.SummarizeFunc != nil {
		return m.SummarizeFunc(kind, req)
	}
	return &claude.Response{Text: "analysis for batch", CostUSD: 0.01}, nil
}

func (m *mockSummarizer) Name() string { return "mock" }

func records(n int) []commentstore.CommentRecord {
	out := make([]commentstore.CommentRecord, n)
	for i := range out {
		out[i] = commentstore.CommentRecord{
			CommentID:   fmt.Sprintf("IC_%04d", i),
			Repository:  "o/r",
			IssueNumber: i,
			IssueTitle:  fmt.Sprintf("issue %d", i),
			CommentBody: fmt.Sprintf("comment body %d", i),
		}
	}
	return out
}

func newEnv(t *testing.T) (*checkpoint.Store, Config) {
	t.Helper()
	dir := t.TempDir()
	cfg := Config{
		Username:   "gwbischof",
		OutputPath: filepath.Join(dir, "gwbischof_style_document.md"),
		BatchSize:  50,
		MaxLines:   5000,
		RunID:      "test-run",
	}
	return checkpoint.NewStore(filepath.Join(dir, "progress.json")), cfg
}

func TestRunProcessesAllBatches(t *testing.T) {
	cps, cfg := newEnv(t)
	mock := &mockSummarizer{
		SummarizeFunc: func(kind callKind, req *claude.Request) (*claude.Response, error) {
			switch kind {
			case kindAnalyze:
				return &claude.Response{Text: "new insight", CostUSD: 0.01}, nil
			case kindMerge:
				// Grow the document so the shrink guard accepts it.
				return &claude.Response{Text: strings.Repeat("merged insight\n", 5)}, nil
			}
			t.Fatalf("unexpected compaction call")
			return nil, nil
		},
	}

	gen := New(records(120), cps, mock, nil, nil, cfg)
	if err := gen.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	// 120 records at batch size 50: 3 analyze calls, 2 merges (the
	// first batch seeds the document without merging).
	var analyses, merges int
	for _, k := range mock.Calls {
		switch k {
		case kindAnalyze:
			analyses++
		case kindMerge:
			merges++
		}
	}
	if analyses != 3 || merges != 2 {
		t.Fatalf("calls = %d analyses, %d merges, want 3 and 2", analyses, merges)
	}

	cp, ok, err := cps.Load()
	if err != nil || !ok {
		t.Fatalf("checkpoint after run: ok=%v err=%v", ok, err)
	}
	if cp.CurrentLine != 120 {
		t.Fatalf("final cursor = %d, want 120", cp.CurrentLine)
	}

	data, err := os.ReadFile(cfg.OutputPath)
	if err != nil {
		t.Fatalf("document not written: %v", err)
	}
	if !strings.Contains(string(data), "Generated from 120 comments") {
		t.Fatalf("document header wrong:\n%s", data)
	}
}

func TestRunEachRecordExactlyOnce(t *testing.T) {
	cps, cfg := newEnv(t)
	seen := map[string]int{}
	mock := &mockSummarizer{
		SummarizeFunc: func(kind callKind, req *claude.Request) (*claude.Response, error) {
			if kind == kindAnalyze {
				for i := 0; i < 120; i++ {
					if strings.Contains(req.Prompt, fmt.Sprintf("comment body %d\n", i)) {
						seen[fmt.Sprintf("%d", i)]++
					}
				}
			}
			return &claude.Response{Text: strings.Repeat("x\n", 10)}, nil
		},
	}

	gen := New(records(120), cps, mock, nil, nil, cfg)
	if err := gen.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if len(seen) != 120 {
		t.Fatalf("saw %d distinct records, want 120", len(seen))
	}
	for id, count := range seen {
		if count != 1 {
			t.Fatalf("record %s analyzed %d times, want exactly once", id, count)
		}
	}
}

func TestRunResumesFromCheckpoint(t *testing.T) {
	cps, cfg := newEnv(t)

	// First run: the summarizer dies on the second batch.
	failing := &mockSummarizer{
		SummarizeFunc: func(kind callKind, req *claude.Request) (*claude.Response, error) {
			if kind == kindAnalyze && strings.Contains(req.Prompt, "comment body 50\n") {
				return nil, errors.New("CLI unreachable")
			}
			return &claude.Response{Text: "insight"}, nil
		},
	}
	gen := New(records(120), cps, failing, nil, nil, cfg)
	err := gen.Run(context.Background())
	if !errors.Is(err, ErrSummarizerUnavailable) {
		t.Fatalf("first run error = %v, want ErrSummarizerUnavailable", err)
	}

	cp, _, _ := cps.Load()
	if cp.CurrentLine != 50 {
		t.Fatalf("checkpoint after interrupted run = %d, want 50", cp.CurrentLine)
	}

	// Second run resumes and must only touch records [50, 120).
	resumed := &mockSummarizer{
		SummarizeFunc: func(kind callKind, req *claude.Request) (*claude.Response, error) {
			if kind == kindAnalyze && strings.Contains(req.Prompt, "comment body 0\n") {
				t.Fatal("resumed run reprocessed the first batch")
			}
			return &claude.Response{Text: strings.Repeat("more insight\n", 3)}, nil
		},
	}
	gen = New(records(120), cps, resumed, nil, nil, cfg)
	if err := gen.Run(context.Background()); err != nil {
		t.Fatalf("resumed run failed: %v", err)
	}

	cp, _, _ = cps.Load()
	if cp.CurrentLine != 120 {
		t.Fatalf("final cursor = %d, want 120", cp.CurrentLine)
	}

	// Two analyze calls for batches [50,100) and [100,120).
	var analyses int
	for _, k := range resumed.Calls {
		if k == kindAnalyze {
			analyses++
		}
	}
	if analyses != 2 {
		t.Fatalf("resumed analyses = %d, want 2", analyses)
	}
}

func TestRunTriggersCompaction(t *testing.T) {
	cps, cfg := newEnv(t)
	cfg.MaxLines = 10

	big := strings.Repeat("insight line\n", 15) + "KEY INSIGHT"
	mock := &mockSummarizer{
		SummarizeFunc: func(kind callKind, req *claude.Request) (*claude.Response, error) {
			switch kind {
			case kindAnalyze:
				return &claude.Response{Text: big}, nil
			case kindMerge:
				return &claude.Response{Text: big + "\n" + big}, nil
			case kindCompact:
				if !strings.Contains(req.Prompt, "KEY INSIGHT") {
					t.Error("compaction prompt missing accumulated content")
				}
				return &claude.Response{Text: "compacted: KEY INSIGHT"}, nil
			}
			return nil, nil
		},
	}

	gen := New(records(60), cps, mock, nil, nil, cfg)
	if err := gen.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	var compactions int
	for _, k := range mock.Calls {
		if k == kindCompact {
			compactions++
		}
	}
	if compactions == 0 {
		t.Fatal("compaction never triggered despite oversized document")
	}

	cp, _, _ := cps.Load()
	if cp.CompactionCount == 0 {
		t.Fatal("compaction count not persisted")
	}
	// Insight from before compaction survives in some form.
	if !strings.Contains(cp.StyleContent, "KEY INSIGHT") {
		t.Fatalf("compacted content lost the key insight: %q", cp.StyleContent)
	}
}

func TestCompactionFailureIsNonFatal(t *testing.T) {
	cps, cfg := newEnv(t)
	cfg.MaxLines = 5

	mock := &mockSummarizer{
		SummarizeFunc: func(kind callKind, req *claude.Request) (*claude.Response, error) {
			if kind == kindCompact {
				return nil, errors.New("compactor down")
			}
			return &claude.Response{Text: strings.Repeat("line\n", 20)}, nil
		},
	}

	gen := New(records(50), cps, mock, nil, nil, cfg)
	if err := gen.Run(context.Background()); err != nil {
		t.Fatalf("Run should survive compaction failure, got: %v", err)
	}

	cp, _, _ := cps.Load()
	if cp.CurrentLine != 50 {
		t.Fatalf("cursor = %d, want 50", cp.CurrentLine)
	}
	if cp.CompactionCount != 0 {
		t.Fatalf("failed compaction must not bump the count, got %d", cp.CompactionCount)
	}
}

func TestMaybeCompactIdentityUnderThreshold(t *testing.T) {
	cps, cfg := newEnv(t)
	mock := &mockSummarizer{}
	gen := New(records(10), cps, mock, nil, nil, cfg)

	content := "a\nb\nc"
	got, n, changed := gen.maybeCompact(context.Background(), content, 3)
	if changed || got != content || n != 3 {
		t.Fatalf("maybeCompact under threshold must be identity, got changed=%v content=%q n=%d", changed, got, n)
	}
	if len(mock.Calls) != 0 {
		t.Fatal("no summarizer call expected under the threshold")
	}
}

func TestCorruptCheckpointAborts(t *testing.T) {
	cps, cfg := newEnv(t)
	if err := os.WriteFile(cps.Path(), []byte("{{not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	mock := &mockSummarizer{}
	gen := New(records(10), cps, mock, nil, nil, cfg)

	err := gen.Run(context.Background())
	if !errors.Is(err, checkpoint.ErrCorrupt) {
		t.Fatalf("error = %v, want checkpoint.ErrCorrupt", err)
	}
	if len(mock.Calls) != 0 {
		t.Fatal("no summarizer calls should happen with a corrupt checkpoint")
	}
	if _, err := os.Stat(cfg.OutputPath); !os.IsNotExist(err) {
		t.Fatal("style document must not be touched on corrupt checkpoint")
	}
}

func TestCursorBeyondStoreAborts(t *testing.T) {
	cps, cfg := newEnv(t)
	if err := cps.Save(checkpoint.Checkpoint{CurrentLine: 50}); err != nil {
		t.Fatal(err)
	}

	gen := New(records(10), cps, &mockSummarizer{}, nil, nil, cfg)
	err := gen.Run(context.Background())
	if !errors.Is(err, ErrCursorBeyondStore) {
		t.Fatalf("error = %v, want ErrCursorBeyondStore", err)
	}
}

func TestMergeShrinkFallsBackToAppend(t *testing.T) {
	cps, cfg := newEnv(t)

	long := strings.Repeat("established insight\n", 50)
	mock := &mockSummarizer{
		SummarizeFunc: func(kind callKind, req *claude.Request) (*claude.Response, error) {
			switch kind {
			case kindAnalyze:
				if strings.Contains(req.Prompt, "comment body 0\n") {
					return &claude.Response{Text: long}, nil
				}
				return &claude.Response{Text: "fresh analysis"}, nil
			case kindMerge:
				return &claude.Response{Text: "tiny"}, nil // way under 90%
			}
			return nil, nil
		},
	}

	gen := New(records(100), cps, mock, nil, nil, cfg)
	if err := gen.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	cp, _, _ := cps.Load()
	if !strings.Contains(cp.StyleContent, "established insight") {
		t.Fatal("shrunken merge replaced the document")
	}
	if !strings.Contains(cp.StyleContent, "fresh analysis") {
		t.Fatal("fallback append lost the new analysis")
	}
}

func TestBudgetExhaustedStopsCleanly(t *testing.T) {
	cps, cfg := newEnv(t)
	tracker := costcontrol.NewTracker(1, 0)

	mock := &mockSummarizer{
		SummarizeFunc: func(kind callKind, req *claude.Request) (*claude.Response, error) {
			return &claude.Response{Text: "insight", CostUSD: 0.5}, nil
		},
	}

	gen := New(records(120), cps, mock, tracker, nil, cfg)
	err := gen.Run(context.Background())
	if !errors.Is(err, ErrBudgetExhausted) {
		t.Fatalf("error = %v, want ErrBudgetExhausted", err)
	}

	// The first batch committed before the budget ran out.
	cp, ok, _ := cps.Load()
	if !ok || cp.CurrentLine != 50 {
		t.Fatalf("checkpoint = %d (ok=%v), want 50", cp.CurrentLine, ok)
	}
}

func TestProgressStoreTracksRun(t *testing.T) {
	cps, cfg := newEnv(t)
	runs := progress.NewStore()
	runs.Create(&progress.Run{ID: cfg.RunID, Username: cfg.Username, TotalComments: 120, BatchSize: 50})

	mock := &mockSummarizer{
		SummarizeFunc: func(kind callKind, req *claude.Request) (*claude.Response, error) {
			return &claude.Response{Text: strings.Repeat("x\n", 4)}, nil
		},
	}

	gen := New(records(120), cps, mock, nil, runs, cfg)
	if err := gen.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	run, _ := runs.Get(cfg.RunID)
	if run.Processed != 120 {
		t.Fatalf("run.Processed = %d, want 120", run.Processed)
	}
	if run.Status != progress.StatusCompleted {
		t.Fatalf("run.Status = %s, want completed", run.Status)
	}

	// 3 batch commits plus the completion entry.
	if len(run.Logs) != 4 {
		t.Fatalf("run.Logs length = %d, want 4: %+v", len(run.Logs), run.Logs)
	}
	if !strings.Contains(run.Logs[0].Message, "50/120") {
		t.Errorf("first log = %q, want first batch commit", run.Logs[0].Message)
	}
	last := run.Logs[len(run.Logs)-1]
	if last.Level != "success" || !strings.Contains(last.Message, "Run completed") {
		t.Errorf("last log = %+v, want success completion entry", last)
	}
}
