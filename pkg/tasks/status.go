package tasks

import (
	"sync"
	"time"
)

const defaultHistorySize = 20

// StatusStore keeps recent outcomes in memory for the status endpoint.
// A nil *StatusStore is valid and records nothing.
type StatusStore struct {
	mu       sync.RWMutex
	running  map[string]*Outcome
	history  []*Outcome
	maxSize  int
	runs     int
	found    int
	failures int
	started  time.Time
}

// Status is a point-in-time copy of the store.
type Status struct {
	Runs     int        `json:"runs"`
	Found    int        `json:"found"`
	Failures int        `json:"failures"`
	Running  int        `json:"running"`
	Since    time.Time  `json:"since"`
	Last     *Outcome   `json:"last,omitempty"`
	History  []*Outcome `json:"history"`
}

func NewStatusStore(maxSize int) *StatusStore {
	if maxSize <= 0 {
		maxSize = defaultHistorySize
	}
	return &StatusStore{
		running: make(map[string]*Outcome),
		maxSize: maxSize,
		started: time.Now(),
	}
}

func (s *StatusStore) begin(o *Outcome) {
	if s == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.running[o.RunID] = o
}

func (s *StatusStore) record(o *Outcome) {
	if s == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.running, o.RunID)
	s.runs++
	switch o.Status {
	case TaskStatusFound:
		s.found++
	case TaskStatusFailed:
		s.failures++
	}

	cp := *o
	s.history = append(s.history, &cp)
	if len(s.history) > s.maxSize {
		s.history = s.history[len(s.history)-s.maxSize:]
	}
}

// Snapshot returns counters and the most recent outcomes, newest last.
func (s *StatusStore) Snapshot() Status {
	if s == nil {
		return Status{}
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	history := make([]*Outcome, len(s.history))
	copy(history, s.history)

	st := Status{
		Runs:     s.runs,
		Found:    s.found,
		Failures: s.failures,
		Running:  len(s.running),
		Since:    s.started,
		History:  history,
	}
	if n := len(history); n > 0 {
		st.Last = history[n-1]
	}
	return st
}
