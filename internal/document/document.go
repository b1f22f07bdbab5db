package document

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// StyleDocument is the cumulative output of a generation run. The
// canonical content lives in the checkpoint; this type renders and
// persists the human-readable markdown file.
type StyleDocument struct {
	Username        string
	Content         string
	Processed       int
	CompactionCount int
}

// CountLines reports the number of lines in text, zero for empty text.
func CountLines(text string) int {
	if text == "" {
		return 0
	}
	return strings.Count(text, "\n") + 1
}

// Lines reports the current size of the document content.
func (d *StyleDocument) Lines() int {
	return CountLines(d.Content)
}

// Render produces the full markdown file content with the generation
// header ahead of the accumulated style content.
func (d *StyleDocument) Render(now time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# GitHub Comment Style Guide for %s\n\n", d.Username)
	fmt.Fprintf(&b, "Generated from %d comments on %s\n", d.Processed, now.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&b, "Compactions performed: %d\n\n---\n\n", d.CompactionCount)
	b.WriteString(d.Content)
	return b.String()
}

// SaveTo writes the rendered document atomically so an interrupt never
// leaves a truncated output file.
func (d *StyleDocument) SaveTo(path string) error {
	rendered := d.Render(time.Now())

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp document: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.WriteString(rendered); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp document: %w", err)
	}
	// The checkpoint commits after the document; an un-fsynced document
	// surviving a crash would leave the cursor ahead of the content.
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("sync temp document: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp document: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename document: %w", err)
	}
	return nil
}
