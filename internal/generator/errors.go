package generator

import "errors"

var (
	// ErrSummarizerUnavailable indicates the external LLM CLI failed or
	// was unreachable. The checkpoint has not advanced past the failed
	// batch, so rerunning the command retries exactly that batch.
	ErrSummarizerUnavailable = errors.New("summarizer unavailable")

	// ErrBudgetExhausted indicates the cost tracker blocked further
	// calls. Committed work is checkpointed; rerun with a higher budget
	// to continue.
	ErrBudgetExhausted = errors.New("call budget exhausted")

	// ErrCursorBeyondStore indicates the checkpoint cursor exceeds the
	// comment store length, which means checkpoint and store are out of
	// sync (e.g. the store was re-fetched and shrank).
	ErrCursorBeyondStore = errors.New("checkpoint cursor beyond comment store")
)
