package domain

import "errors"

var (
	// ErrNoActiveSession is returned when an operation needs a started session.
	ErrNoActiveSession = errors.New("no active quiz session")
	// ErrNoQuestions rejects starting a session with an empty question list.
	ErrNoQuestions = errors.New("question list is empty")
	// ErrAlreadyAnswered rejects a second answer for the same position.
	ErrAlreadyAnswered = errors.New("question already answered")
	// ErrInvalidChoice indicates the selected index is out of range for the current question.
	ErrInvalidChoice = errors.New("invalid choice index")
	// ErrUnanswered indicates the current question has no recorded answer yet.
	ErrUnanswered = errors.New("current question not answered")
	// ErrCannotAdvance rejects advancing past the last question.
	ErrCannotAdvance = errors.New("cannot advance past last question")
	// ErrSessionCompleted rejects answers after the session has completed.
	ErrSessionCompleted = errors.New("quiz session already completed")
	// ErrSubmitFailed wraps a backend submission failure; the local answer is kept.
	ErrSubmitFailed = errors.New("answer submission failed")
	// ErrQuestionSetNotFound indicates the question set could not be loaded.
	ErrQuestionSetNotFound = errors.New("question set not found")
	// ErrReportNotFound indicates no report exists for the user yet.
	ErrReportNotFound = errors.New("report not found")
	// ErrInsufficientKeys rejects spending more keys than the balance holds.
	ErrInsufficientKeys = errors.New("insufficient keys")
)
