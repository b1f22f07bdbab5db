package generator

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/gwbischof/ghstyle/internal/checkpoint"
	"github.com/gwbischof/ghstyle/internal/commentstore"
	"github.com/gwbischof/ghstyle/internal/costcontrol"
	"github.com/gwbischof/ghstyle/internal/document"
	"github.com/gwbischof/ghstyle/internal/progress"
	"github.com/gwbischof/ghstyle/internal/prompt"
	"github.com/gwbischof/ghstyle/internal/provider"
	"github.com/gwbischof/ghstyle/internal/provider/claude"
)

const (
	DefaultBatchSize = 50
	DefaultMaxLines  = 5000

	defaultAnalyzeTimeout = 60 * time.Second
	defaultMergeTimeout   = 120 * time.Second
	defaultCompactTimeout = 600 * time.Second

	// mergeShrinkRatio guards the merge step: the document must not
	// shrink below this fraction of its prior size, otherwise the merge
	// response is rejected and the new analysis is appended instead.
	mergeShrinkRatio = 0.9
)

// Config holds the knobs for one generation run.
type Config struct {
	Username   string
	OutputPath string
	BatchSize  int
	MaxLines   int
	RunID      string

	AnalyzeTimeout time.Duration
	MergeTimeout   time.Duration
	CompactTimeout time.Duration
}

func (c *Config) applyDefaults() {
	if c.BatchSize <= 0 {
		c.BatchSize = DefaultBatchSize
	}
	if c.MaxLines <= 0 {
		c.MaxLines = DefaultMaxLines
	}
	if c.AnalyzeTimeout <= 0 {
		c.AnalyzeTimeout = defaultAnalyzeTimeout
	}
	if c.MergeTimeout <= 0 {
		c.MergeTimeout = defaultMergeTimeout
	}
	if c.CompactTimeout <= 0 {
		c.CompactTimeout = defaultCompactTimeout
	}
}

// Generator drives repeated summarization calls over the comment store
// in fixed-size batches, committing a checkpoint after every batch.
type Generator struct {
	records     []commentstore.CommentRecord
	checkpoints *checkpoint.Store
	summarizer  provider.Provider
	tracker     *costcontrol.Tracker
	runs        *progress.Store
	cfg         Config
}

// New wires a generator. tracker and runs may be nil when budgeting or
// the status UI are not wanted.
func New(records []commentstore.CommentRecord, checkpoints *checkpoint.Store, summarizer provider.Provider, tracker *costcontrol.Tracker, runs *progress.Store, cfg Config) *Generator {
	cfg.applyDefaults()
	return &Generator{
		records:     records,
		checkpoints: checkpoints,
		summarizer:  summarizer,
		tracker:     tracker,
		runs:        runs,
		cfg:         cfg,
	}
}

// Run executes the processing loop: load checkpoint, then for each
// non-empty batch summarize it into the document, persist the document,
// compact if oversized, and commit the advanced checkpoint. Interrupt
// the process at any point and the next Run resumes from the last
// committed checkpoint with no duplicate work.
//
// Precondition: exactly one Run may operate on a given checkpoint file
// at a time. Two concurrent instances against the same files is
// undefined behavior; there is deliberately no locking.
func (g *Generator) Run(ctx context.Context) error {
	cp, resumed, err := g.checkpoints.Load()
	if err != nil {
		return fmt.Errorf("load checkpoint: %w", err)
	}
	if cp.CurrentLine > len(g.records) {
		return fmt.Errorf("%w: cursor %d, store has %d records", ErrCursorBeyondStore, cp.CurrentLine, len(g.records))
	}
	if resumed {
		log.Printf("[Generator] Resuming from line %d, compactions: %d", cp.CurrentLine, cp.CompactionCount)
	}

	cursor := cp.CurrentLine
	content := cp.StyleContent
	compactions := cp.CompactionCount
	total := len(g.records)

	log.Printf("[Generator] Total comments to process: %d, starting from line: %d", total, cursor)
	g.setStatus(progress.StatusRunning, "")

	for {
		batch, newCursor := commentstore.NextBatch(g.records, cursor, g.cfg.BatchSize)
		if len(batch) == 0 {
			break
		}
		if err := ctx.Err(); err != nil {
			g.setStatus(progress.StatusFailed, err.Error())
			return fmt.Errorf("run canceled: %w", err)
		}

		pct := float64(cursor) / float64(total) * 100
		log.Printf("[Generator] Processing batch: lines %d-%d (%.1f%%)", cursor, newCursor, pct)

		newContent, batchCost, err := g.summarizeBatch(ctx, content, batch)
		if err != nil {
			g.setStatus(progress.StatusFailed, err.Error())
			return err
		}
		content = newContent

		// Persist the document before compaction so the committed batch
		// is never lost to a failed compaction attempt.
		if err := g.saveDocument(content, newCursor, compactions); err != nil {
			g.setStatus(progress.StatusFailed, err.Error())
			return err
		}

		if compacted, n, changed := g.maybeCompact(ctx, content, compactions); changed {
			content = compacted
			compactions = n
			if err := g.saveDocument(content, newCursor, compactions); err != nil {
				g.setStatus(progress.StatusFailed, err.Error())
				return err
			}
			if g.runs != nil {
				g.runs.RecordCompaction(g.cfg.RunID, document.CountLines(content))
			}
			g.addLog("info", "Compacted document to %d lines (compaction #%d)", document.CountLines(content), compactions)
		}

		// Commit point: only now has the batch "happened".
		err = g.checkpoints.Save(checkpoint.Checkpoint{
			CurrentLine:     newCursor,
			StyleContent:    content,
			CompactionCount: compactions,
		})
		if err != nil {
			g.setStatus(progress.StatusFailed, err.Error())
			return fmt.Errorf("persist checkpoint: %w", err)
		}

		cursor = newCursor
		if g.runs != nil {
			g.runs.RecordBatch(g.cfg.RunID, cursor, document.CountLines(content), batchCost)
		}
		g.addLog("info", "Committed batch: %d/%d comments processed", cursor, total)
	}

	log.Printf("[Generator] Completed: %d comments processed, %d compactions", cursor, compactions)
	g.setStatus(progress.StatusCompleted, "")
	g.addLog("success", "Run completed: %d comments processed, %d compactions", cursor, compactions)
	return nil
}

// summarizeBatch analyzes one batch and folds the result into the
// accumulated content. Returns the updated content and the cost of the
// calls made for this batch.
func (g *Generator) summarizeBatch(ctx context.Context, content string, batch []commentstore.CommentRecord) (string, float64, error) {
	if !g.allowCall() {
		return "", 0, ErrBudgetExhausted
	}

	analysisResp, err := g.summarizer.Summarize(ctx, &claude.Request{
		Prompt:  prompt.WithPreamble(prompt.Analysis(batch)),
		Timeout: g.cfg.AnalyzeTimeout,
	})
	if err != nil {
		return "", 0, fmt.Errorf("%w: analyze batch: %v", ErrSummarizerUnavailable, err)
	}
	g.recordCall(analysisResp.CostUSD)
	cost := analysisResp.CostUSD
	analysis := analysisResp.Text

	if content == "" {
		log.Printf("[Generator] First batch - setting initial content (%d characters)", len(analysis))
		return analysis, cost, nil
	}

	if !g.allowCall() {
		return "", cost, ErrBudgetExhausted
	}

	mergedResp, err := g.summarizer.Summarize(ctx, &claude.Request{
		Prompt:  prompt.WithPreamble(prompt.Merge(content, analysis)),
		Timeout: g.cfg.MergeTimeout,
	})
	if err != nil {
		// The analysis already succeeded; losing it to a merge hiccup
		// would waste a paid call. Fall back to appending.
		log.Printf("[Generator] Merge failed (%v), appending analysis instead", err)
		return content + "\n\n" + analysis, cost, nil
	}
	g.recordCall(mergedResp.CostUSD)
	cost += mergedResp.CostUSD

	merged := mergedResp.Text
	if len(merged) < int(float64(len(content))*mergeShrinkRatio) {
		log.Printf("[Generator] Merge shrank document (%d -> %d characters), appending instead", len(content), len(merged))
		return content + "\n\n" + analysis, cost, nil
	}

	log.Printf("[Generator] Merge successful: %d -> %d characters", len(content), len(merged))
	return merged, cost, nil
}

// maybeCompact condenses the content when it exceeds MaxLines. Identity
// when under the threshold. Compaction failure is non-fatal: processing
// continues with the uncompacted document and the next oversized batch
// retries.
func (g *Generator) maybeCompact(ctx context.Context, content string, compactions int) (string, int, bool) {
	lines := document.CountLines(content)
	if lines <= g.cfg.MaxLines {
		return content, compactions, false
	}

	log.Printf("[Generator] Compacting style document (current: %d lines)...", lines)

	if !g.allowCall() {
		log.Printf("[Generator] Compaction skipped: budget exhausted")
		return content, compactions, false
	}

	resp, err := g.summarizer.Summarize(ctx, &claude.Request{
		Prompt:  prompt.WithPreamble(prompt.Compaction(content)),
		Timeout: g.cfg.CompactTimeout,
	})
	if err != nil {
		log.Printf("[Generator] Compaction failed (%v), continuing uncompacted", err)
		return content, compactions, false
	}
	g.recordCall(resp.CostUSD)

	if resp.Text == "" {
		log.Printf("[Generator] Compaction returned empty content, continuing uncompacted")
		return content, compactions, false
	}

	newLines := document.CountLines(resp.Text)
	log.Printf("[Generator] Compaction complete. New size: %d lines (compaction #%d)", newLines, compactions+1)
	return resp.Text, compactions + 1, true
}

func (g *Generator) saveDocument(content string, processed, compactions int) error {
	doc := &document.StyleDocument{
		Username:        g.cfg.Username,
		Content:         content,
		Processed:       processed,
		CompactionCount: compactions,
	}
	if err := doc.SaveTo(g.cfg.OutputPath); err != nil {
		return fmt.Errorf("persist document: %w", err)
	}
	return nil
}

func (g *Generator) allowCall() bool {
	return g.tracker == nil || g.tracker.CanMakeCall()
}

func (g *Generator) recordCall(costUSD float64) {
	if g.tracker != nil {
		g.tracker.RecordCall(costUSD)
	}
}

func (g *Generator) setStatus(status progress.RunStatus, errorMsg string) {
	if g.runs != nil {
		g.runs.UpdateStatus(g.cfg.RunID, status, errorMsg)
		if errorMsg != "" {
			g.runs.AddLog(g.cfg.RunID, "error", errorMsg)
		}
	}
}

func (g *Generator) addLog(level, format string, args ...interface{}) {
	if g.runs != nil {
		g.runs.AddLog(g.cfg.RunID, level, fmt.Sprintf(format, args...))
	}
}
