package exam

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

type memoryStore struct {
	mu       sync.RWMutex
	sessions map[string]Session
	order    []string // session ids by insertion
	attempts map[string]Attempt
	seq      map[string]int // attempt id -> insertion index, for stable listing
}

func NewInMemoryStore() Store {
	return &memoryStore{
		sessions: map[string]Session{},
		attempts: map[string]Attempt{},
		seq:      map[string]int{},
	}
}

func (m *memoryStore) PutSession(_ context.Context, s Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[s.ID]; ok {
		return fmt.Errorf("session %s already exists", s.ID)
	}
	m.sessions[s.ID] = s.clone()
	m.order = append(m.order, s.ID)
	return nil
}

func (m *memoryStore) GetSession(_ context.Context, id string) (Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return Session{}, fmt.Errorf("session %s: %w", id, ErrNotFound)
	}
	return s.clone(), nil
}

func (m *memoryStore) ListSessions(_ context.Context, testID string) ([]Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Session, 0, len(m.order))
	for _, id := range m.order {
		s := m.sessions[id]
		if testID == "" || s.TestID == testID {
			out = append(out, s.clone())
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].StartedAt.Before(out[j].StartedAt) })
	return out, nil
}

func (m *memoryStore) PutAttempt(_ context.Context, a Attempt) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[a.SessionID]; !ok {
		return fmt.Errorf("session %s: %w", a.SessionID, ErrNotFound)
	}
	if _, ok := m.attempts[a.ID]; ok {
		return fmt.Errorf("attempt %s already exists", a.ID)
	}
	if a.Answers == nil {
		a.Answers = Answers{}
	}
	m.attempts[a.ID] = a.clone()
	m.seq[a.ID] = len(m.seq)
	return nil
}

func (m *memoryStore) GetAttempt(_ context.Context, id string) (Attempt, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.attempts[id]
	if !ok {
		return Attempt{}, fmt.Errorf("attempt %s: %w", id, ErrNotFound)
	}
	return a.clone(), nil
}

func (m *memoryStore) SaveAnswers(_ context.Context, attemptID string, answers Answers) (Attempt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.attempts[attemptID]
	if !ok {
		return Attempt{}, fmt.Errorf("attempt %s: %w", attemptID, ErrNotFound)
	}
	if a.Completed() {
		return a.clone(), fmt.Errorf("attempt %s: %w", attemptID, ErrAlreadyCompleted)
	}
	a.Answers = a.Answers.merge(answers)
	m.attempts[attemptID] = a
	return a.clone(), nil
}

func (m *memoryStore) Complete(_ context.Context, attemptID string, answers Answers, score int, at time.Time) (Attempt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.attempts[attemptID]
	if !ok {
		return Attempt{}, fmt.Errorf("attempt %s: %w", attemptID, ErrNotFound)
	}
	if a.Completed() {
		return a.clone(), fmt.Errorf("attempt %s: %w", attemptID, ErrAlreadyCompleted)
	}
	a.Answers = answers.clone()
	a.Score = score
	a.Status = StatusCompleted
	a.CompletedAt = &at
	m.attempts[attemptID] = a
	return a.clone(), nil
}

func (m *memoryStore) ListAttempts(_ context.Context, opts AttemptListOpts) ([]Attempt, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var sessions map[string]bool
	if len(opts.SessionIDs) > 0 {
		sessions = make(map[string]bool, len(opts.SessionIDs))
		for _, id := range opts.SessionIDs {
			sessions[id] = true
		}
	}
	out := make([]Attempt, 0, 8)
	for _, a := range m.attempts {
		if sessions != nil && !sessions[a.SessionID] {
			continue
		}
		if opts.Status != "" && a.Status != opts.Status {
			continue
		}
		out = append(out, a.clone())
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].StartedAt.Equal(out[j].StartedAt) {
			return out[i].StartedAt.Before(out[j].StartedAt)
		}
		return m.seq[out[i].ID] < m.seq[out[j].ID]
	})
	return out, nil
}
