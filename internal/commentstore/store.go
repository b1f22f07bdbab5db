package commentstore

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
)

// IssueState is the state of the issue a comment belongs to.
type IssueState string

const (
	IssueOpen   IssueState = "OPEN"
	IssueClosed IssueState = "CLOSED"
)

// CommentRecord is one fetched issue comment together with the issue
// context it was written in. Records are immutable once written: the
// fetch step recreates the whole file, never merges.
type CommentRecord struct {
	CommentID   string     `json:"comment_id"`
	CreatedAt   string     `json:"created_at"`
	URL         string     `json:"url"`
	Repository  string     `json:"repository"` // owner/name
	IssueNumber int        `json:"issue_number"`
	IssueTitle  string     `json:"issue_title"`
	IssueBody   string     `json:"issue_body"`
	IssueState  IssueState `json:"issue_state"`
	IssueAuthor string     `json:"issue_author"`
	CommentBody string     `json:"comment_body"`
}

// scanBufSize accommodates long comment bodies; the default bufio limit
// of 64KB is too small for real issue threads.
const scanBufSize = 4 * 1024 * 1024

// Write recreates the store file at path with one JSON record per line.
// A failed encode aborts before anything partial reaches the file for
// that record; diagnostics never go into the data file.
func Write(path string, records []CommentRecord) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create comment store: %w", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	enc := json.NewEncoder(w)
	for i, rec := range records {
		// Encode writes a trailing newline, yielding NDJSON.
		if err := enc.Encode(rec); err != nil {
			return fmt.Errorf("encode record %d (%s): %w", i, rec.CommentID, err)
		}
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("flush comment store: %w", err)
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("sync comment store: %w", err)
	}
	return nil
}

// Load reads every record from an NDJSON store file. A malformed line is
// an error, not a skip: the processing cursor is line-based, so dropping
// lines would silently shift every later batch.
func Load(path string) ([]CommentRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open comment store: %w", err)
	}
	defer f.Close()

	var records []CommentRecord
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), scanBufSize)
	line := 0
	for scanner.Scan() {
		line++
		raw := scanner.Bytes()
		if len(raw) == 0 {
			continue
		}
		var rec CommentRecord
		if err := json.Unmarshal(raw, &rec); err != nil {
			return nil, fmt.Errorf("parse comment store line %d: %w", line, err)
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read comment store: %w", err)
	}
	return records, nil
}

// NextBatch returns up to batchSize records starting at cursor and the
// advanced cursor. An empty batch signals that the store is exhausted.
func NextBatch(records []CommentRecord, cursor, batchSize int) ([]CommentRecord, int) {
	if cursor < 0 {
		cursor = 0
	}
	if cursor >= len(records) || batchSize <= 0 {
		return nil, cursor
	}
	end := cursor + batchSize
	if end > len(records) {
		end = len(records)
	}
	return records[cursor:end], end
}
