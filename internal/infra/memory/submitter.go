package memory

import (
	"context"
	"sync"
)

// Submission is one recorded backend delivery.
type Submission struct {
	OpenID         string
	QuestionID     string
	SelectedOption string
}

// SubmitRecorder is an in-memory session.AnswerSubmitter that records every
// delivery. FailWith forces failures to exercise the no-rollback contract.
type SubmitRecorder struct {
	mu          sync.Mutex
	submissions []Submission
	failWith    error
}

func NewSubmitRecorder() *SubmitRecorder {
	return &SubmitRecorder{}
}

func (r *SubmitRecorder) Submit(_ context.Context, openID, questionID, selectedOption string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWith != nil {
		return r.failWith
	}
	r.submissions = append(r.submissions, Submission{
		OpenID:         openID,
		QuestionID:     questionID,
		SelectedOption: selectedOption,
	})
	return nil
}

// FailWith makes subsequent submits return err; nil restores success.
func (r *SubmitRecorder) FailWith(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failWith = err
}

// Submissions returns a copy of everything delivered so far.
func (r *SubmitRecorder) Submissions() []Submission {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Submission(nil), r.submissions...)
}
