package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// SubmitQueue is a session.AnswerSubmitter that enqueues answers for the
// backend as an outbox list (LPUSH quiz:submissions). A separate consumer
// drains the list; late entries for superseded sessions are its problem to
// drop, not ours.
type SubmitQueue struct {
	client *redis.Client
	now    func() time.Time
}

type queuedSubmission struct {
	OpenID         string `json:"openId"`
	QuestionID     string `json:"questionId"`
	SelectedOption string `json:"selectedOption"`
	QueuedAt       int64  `json:"queuedAt"`
}

func NewSubmitQueue(client *redis.Client) *SubmitQueue {
	return &SubmitQueue{client: client, now: time.Now}
}

func (q *SubmitQueue) Submit(ctx context.Context, openID, questionID, selectedOption string) error {
	payload, err := json.Marshal(queuedSubmission{
		OpenID:         openID,
		QuestionID:     questionID,
		SelectedOption: selectedOption,
		QueuedAt:       q.now().Unix(),
	})
	if err != nil {
		return fmt.Errorf("marshal submission: %w", err)
	}
	if err := q.client.LPush(ctx, q.queueKey(), payload).Err(); err != nil {
		return fmt.Errorf("enqueue submission: %w", err)
	}
	return nil
}

func (q *SubmitQueue) queueKey() string {
	return "quiz:submissions"
}
