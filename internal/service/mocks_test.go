package service

import (
	"context"
	"sync"

	"fatwabox/internal/errors"
	"fatwabox/internal/models"
)

// In-memory queue store used across service tests. Insertion order
// stands in for the timestamp ordering of the real store.
type memStore struct {
	mu        sync.Mutex
	questions map[string]models.PendingQuestion
	order     []string

	saveErr   error
	listErr   error
	deleteErr error
}

func newMemStore() *memStore {
	return &memStore{questions: make(map[string]models.PendingQuestion)}
}

func (s *memStore) SavePendingQuestion(ctx context.Context, q *models.PendingQuestion) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	if _, exists := s.questions[q.ID]; exists {
		return errors.New(errors.ErrCodeDuplicateID, "duplicate queue ID")
	}
	s.questions[q.ID] = *q
	s.order = append(s.order, q.ID)
	return nil
}

func (s *memStore) GetAllPendingQuestions(ctx context.Context) ([]models.PendingQuestion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listErr != nil {
		return nil, s.listErr
	}
	out := make([]models.PendingQuestion, 0, len(s.questions))
	for _, id := range s.order {
		if q, exists := s.questions[id]; exists {
			out = append(out, q)
		}
	}
	return out, nil
}

func (s *memStore) UpdatePendingQuestion(ctx context.Context, id string, update models.QuestionUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	q, exists := s.questions[id]
	if !exists {
		return errors.New(errors.ErrCodeNotFound, "queued question not found")
	}
	if update.Category != nil {
		q.Category = *update.Category
	}
	if update.QuestionText != nil {
		q.QuestionText = *update.QuestionText
	}
	s.questions[id] = q
	return nil
}

func (s *memStore) DeletePendingQuestion(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.deleteErr != nil {
		return s.deleteErr
	}
	delete(s.questions, id)
	return nil
}

func (s *memStore) DeleteAllPendingQuestions(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.questions = make(map[string]models.PendingQuestion)
	s.order = nil
	return nil
}

func (s *memStore) CountPendingQuestions(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.questions), nil
}

func (s *memStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.questions)
}

// Scriptable remote submitter.
type mockSubmitter struct {
	mu sync.Mutex

	submitErr  error
	pingErr    error
	submitted  []submitted
	submitCall func(category, text string) error
}

type submitted struct {
	category string
	text     string
}

func (m *mockSubmitter) Submit(ctx context.Context, category, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.submitCall != nil {
		if err := m.submitCall(category, text); err != nil {
			return err
		}
	} else if m.submitErr != nil {
		return m.submitErr
	}
	m.submitted = append(m.submitted, submitted{category: category, text: text})
	return nil
}

func (m *mockSubmitter) Ping(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pingErr
}

func (m *mockSubmitter) setPingErr(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pingErr = err
}

func (m *mockSubmitter) deliveries() []submitted {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]submitted, len(m.submitted))
	copy(out, m.submitted)
	return out
}

// Fixed connectivity state for front door tests.
type staticConnectivity struct {
	online bool
}

func (s staticConnectivity) IsOnline() bool { return s.online }

// Recording notification sink.
type recordingSink struct {
	mu           sync.Mutex
	queueEvents  []int
	onlineEvents []bool
}

func (s *recordingSink) QueueChanged(pending int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queueEvents = append(s.queueEvents, pending)
}

func (s *recordingSink) ConnectivityChanged(online bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onlineEvents = append(s.onlineEvents, online)
}

func (s *recordingSink) lastQueueEvent() (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.queueEvents) == 0 {
		return 0, false
	}
	return s.queueEvents[len(s.queueEvents)-1], true
}
