package session

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/lifelinezhang/frequency-smallgame-sub000/internal/domain"
)

// AnswerSubmitter delivers a recorded answer to the backend. A failed submit
// must not roll back the local record; retry policy belongs to the
// implementation, not the manager.
type AnswerSubmitter interface {
	Submit(ctx context.Context, openID, questionID, selectedOption string) error
}

// AnswerStore persists the per-user answer record other players rank against.
type AnswerStore interface {
	Clear(ctx context.Context, openID string) error
	SaveRecord(ctx context.Context, openID string, rec domain.StoredRecord) error
}

// CompletionNotifier receives the single "quiz completed" event per session.
type CompletionNotifier interface {
	QuizCompleted(openID string, rec domain.StoredRecord)
}

// State labels the session lifecycle. Transitions never go backwards;
// restarting requires a new session via Start.
type State int

const (
	StateIdle State = iota
	StateActive
	StateCompletedUnprocessed
	StateCompletedProcessed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateActive:
		return "active"
	case StateCompletedUnprocessed:
		return "completed"
	case StateCompletedProcessed:
		return "processed"
	}
	return "unknown"
}

// Progress reports the session position after a recorded answer.
type Progress struct {
	Index     int                 `json:"index"`
	Total     int                 `json:"total"`
	Completed bool                `json:"completed"`
	Answer    domain.AnswerRecord `json:"answer"`
}

// Manager owns one player's quiz session. The current index is the single
// authoritative position; navigation layers read it and never keep their own.
type Manager struct {
	openID    string
	submitter AnswerSubmitter
	store     AnswerStore
	notifier  CompletionNotifier
	now       func() time.Time

	mu      sync.Mutex
	session *quizSession
}

type quizSession struct {
	questions    []domain.Question
	currentIndex int
	answers      []*domain.AnswerRecord
	completed    bool
	processed    bool
	completedAt  time.Time
}

func NewManager(openID string, submitter AnswerSubmitter, store AnswerStore, notifier CompletionNotifier) *Manager {
	return NewManagerWithClock(openID, submitter, store, notifier, time.Now)
}

// NewManagerWithClock allows deterministic timestamps in tests.
func NewManagerWithClock(openID string, submitter AnswerSubmitter, store AnswerStore, notifier CompletionNotifier, now func() time.Time) *Manager {
	return &Manager{
		openID:    openID,
		submitter: submitter,
		store:     store,
		notifier:  notifier,
		now:       now,
	}
}

// Start replaces any existing session with a fresh one and clears the
// persisted answer record so the new session cannot inherit stale answers.
// In-flight submissions of a superseded session are neither awaited nor
// cancelled; the submitter must tolerate late responses.
func (m *Manager) Start(ctx context.Context, questions []domain.Question) error {
	if len(questions) == 0 {
		return domain.ErrNoQuestions
	}

	m.mu.Lock()
	m.session = &quizSession{
		questions: questions,
		answers:   make([]*domain.AnswerRecord, len(questions)),
	}
	m.mu.Unlock()

	if err := m.store.Clear(ctx, m.openID); err != nil {
		// Stale-answer cleanup is best effort; a storage hiccup must not block the quiz.
		log.Printf("session %s: clear answer record: %v", m.openID, err)
	}
	return nil
}

// RecordAnswer stores the answer for the current question and submits it to
// the backend. The local record is the source of truth: a submission failure
// is reported as a wrapped ErrSubmitFailed while the recorded state stands.
// Answering the last question triggers completion instead of advancing.
func (m *Manager) RecordAnswer(ctx context.Context, selectedIndex int) (Progress, error) {
	m.mu.Lock()
	s := m.session
	if s == nil {
		m.mu.Unlock()
		return Progress{}, domain.ErrNoActiveSession
	}
	if s.completed {
		m.mu.Unlock()
		return Progress{}, domain.ErrSessionCompleted
	}

	idx := s.currentIndex
	q := s.questions[idx]
	if selectedIndex < 0 || selectedIndex >= len(q.Choices) {
		m.mu.Unlock()
		return Progress{}, fmt.Errorf("%w: %d of %d choices", domain.ErrInvalidChoice, selectedIndex, len(q.Choices))
	}
	if s.answers[idx] != nil {
		m.mu.Unlock()
		return Progress{}, domain.ErrAlreadyAnswered
	}

	rec := domain.AnswerRecord{
		QuestionID:     q.ID,
		SelectedOption: q.OptionKeys[selectedIndex],
		SelectedIndex:  selectedIndex,
		Timestamp:      m.now(),
	}
	s.answers[idx] = &rec

	last := idx == len(s.questions)-1
	if last {
		s.completed = true
		s.completedAt = m.now()
	}

	progress := Progress{
		Index:     idx,
		Total:     len(s.questions),
		Completed: s.completed,
		Answer:    rec,
	}
	m.mu.Unlock()

	submitErr := m.submitter.Submit(ctx, m.openID, rec.QuestionID, rec.SelectedOption)

	if last {
		m.CompleteIfReady(ctx)
	}

	if submitErr != nil {
		return progress, fmt.Errorf("%w: %v", domain.ErrSubmitFailed, submitErr)
	}
	return progress, nil
}

// Advance moves to the next question. The current question must already be
// answered; moving past the last question is driven by completion, never here.
func (m *Manager) Advance() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := m.session
	if s == nil {
		return domain.ErrNoActiveSession
	}
	if s.answers[s.currentIndex] == nil {
		return domain.ErrUnanswered
	}
	if s.currentIndex >= len(s.questions)-1 {
		return domain.ErrCannotAdvance
	}
	s.currentIndex++
	return nil
}

// CompleteIfReady fires the completion side effects exactly once. The
// processed guard flips before any follow-up work, so a rapid double trigger
// cannot deliver the notification twice.
func (m *Manager) CompleteIfReady(ctx context.Context) {
	m.mu.Lock()
	s := m.session
	if s == nil || !s.completed || s.processed {
		m.mu.Unlock()
		return
	}
	s.processed = true
	rec := storedRecordLocked(s)
	m.mu.Unlock()

	if err := m.store.SaveRecord(ctx, m.openID, rec); err != nil {
		log.Printf("session %s: save answer record: %v", m.openID, err)
	}
	if m.notifier != nil {
		m.notifier.QuizCompleted(m.openID, rec)
	}
}

func storedRecordLocked(s *quizSession) domain.StoredRecord {
	answers := make([]domain.StoredAnswer, 0, len(s.answers))
	for i, a := range s.answers {
		if a == nil {
			// A gap in a completed session is a data-quality problem, not a hard failure.
			log.Printf("completed session missing answer at position %d", i)
			answers = append(answers, domain.StoredAnswer{})
			continue
		}
		answers = append(answers, domain.StoredAnswer{
			QuestionID:     a.QuestionID,
			SelectedOption: a.SelectedOption,
		})
	}
	return domain.StoredRecord{
		Answers:        answers,
		Timestamp:      s.completedAt.Unix(),
		TotalQuestions: len(s.questions),
	}
}

// CurrentIndex returns the authoritative session position.
func (m *Manager) CurrentIndex() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session == nil {
		return 0
	}
	return m.session.currentIndex
}

// CurrentQuestion returns the question at the current position.
func (m *Manager) CurrentQuestion() (domain.Question, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session == nil {
		return domain.Question{}, domain.ErrNoActiveSession
	}
	return m.session.questions[m.session.currentIndex], nil
}

// State reports where the session is in its lifecycle.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.session
	switch {
	case s == nil:
		return StateIdle
	case !s.completed:
		return StateActive
	case !s.processed:
		return StateCompletedUnprocessed
	default:
		return StateCompletedProcessed
	}
}

// Answers returns a copy of the recorded answers, in question order, skipping
// unanswered positions.
func (m *Manager) Answers() []domain.AnswerRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session == nil {
		return nil
	}
	out := make([]domain.AnswerRecord, 0, len(m.session.answers))
	for _, a := range m.session.answers {
		if a != nil {
			out = append(out, *a)
		}
	}
	return out
}
