package progress

import (
	"sort"
	"sync"
	"time"
)

type RunStatus string

const (
	StatusPending   RunStatus = "pending"
	StatusRunning   RunStatus = "running"
	StatusCompleted RunStatus = "completed"
	StatusFailed    RunStatus = "failed"
)

// Run is one generation run as shown in the status UI and the MCP
// progress tool. The generator owns the counters; readers get detached
// snapshots from Get/List so the HTTP handler goroutines never touch
// the run being mutated.
type Run struct {
	ID            string
	Username      string
	Status        RunStatus
	TotalComments int
	Processed     int
	BatchSize     int
	DocumentLines int
	Compactions   int
	CostUSD       float64
	ErrorMsg      string
	CreatedAt     time.Time
	UpdatedAt     time.Time
	Logs          []LogEntry
}

// Percent reports processing progress as 0-100.
func (r *Run) Percent() float64 {
	if r.TotalComments == 0 {
		return 0
	}
	return float64(r.Processed) / float64(r.TotalComments) * 100
}

type LogEntry struct {
	Timestamp time.Time
	Level     string // info, error, success
	Message   string
}

type Store struct {
	mu   sync.RWMutex
	runs map[string]*Run
}

func NewStore() *Store {
	return &Store{
		runs: make(map[string]*Run),
	}
}

func (s *Store) Create(run *Run) {
	s.mu.Lock()
	defer s.mu.Unlock()
	run.CreatedAt = time.Now()
	run.UpdatedAt = time.Now()
	s.runs[run.ID] = run
}

// Get returns a snapshot of the run. The copy is detached: the
// generator keeps mutating the stored run, never the returned one.
func (s *Store) Get(id string) (*Run, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	run, ok := s.runs[id]
	if !ok {
		return nil, false
	}
	return run.snapshot(), true
}

// List returns snapshots of all runs, newest first.
func (s *Store) List() []*Run {
	s.mu.RLock()
	defer s.mu.RUnlock()
	runs := make([]*Run, 0, len(s.runs))
	for _, run := range s.runs {
		runs = append(runs, run.snapshot())
	}
	// Sort by created time descending
	sort.Slice(runs, func(i, j int) bool {
		return runs[i].CreatedAt.After(runs[j].CreatedAt)
	})
	return runs
}

// snapshot copies the run, including its log slice. Caller must hold
// the store lock.
func (r *Run) snapshot() *Run {
	cp := *r
	cp.Logs = make([]LogEntry, len(r.Logs))
	copy(cp.Logs, r.Logs)
	return &cp
}

func (s *Store) UpdateStatus(id string, status RunStatus, errorMsg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if run, ok := s.runs[id]; ok {
		run.Status = status
		run.ErrorMsg = errorMsg
		run.UpdatedAt = time.Now()
	}
}

// RecordBatch updates the counters after one successfully committed batch.
func (s *Store) RecordBatch(id string, processed, documentLines int, costUSD float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if run, ok := s.runs[id]; ok {
		run.Processed = processed
		run.DocumentLines = documentLines
		run.CostUSD += costUSD
		run.UpdatedAt = time.Now()
	}
}

// RecordCompaction bumps the compaction counter and the new line count.
func (s *Store) RecordCompaction(id string, documentLines int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if run, ok := s.runs[id]; ok {
		run.Compactions++
		run.DocumentLines = documentLines
		run.UpdatedAt = time.Now()
	}
}

func (s *Store) AddLog(id string, level, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if run, ok := s.runs[id]; ok {
		run.Logs = append(run.Logs, LogEntry{
			Timestamp: time.Now(),
			Level:     level,
			Message:   message,
		})
		run.UpdatedAt = time.Now()
	}
}
