package redis

import (
	"context"
	"encoding/json"
	"testing"
)

func TestSubmitQueueEnqueues(t *testing.T) {
	client := newTestClient(t)
	queue := NewSubmitQueue(client)
	ctx := context.Background()

	if err := queue.Submit(ctx, "u1", "q1", "B"); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if err := queue.Submit(ctx, "u1", "q2", "A"); err != nil {
		t.Fatalf("submit: %v", err)
	}

	if length, _ := client.LLen(ctx, "quiz:submissions").Result(); length != 2 {
		t.Fatalf("expected 2 queued, got %d", length)
	}

	// RPOP drains oldest first.
	raw, err := client.RPop(ctx, "quiz:submissions").Result()
	if err != nil {
		t.Fatalf("rpop: %v", err)
	}
	var entry struct {
		OpenID         string `json:"openId"`
		QuestionID     string `json:"questionId"`
		SelectedOption string `json:"selectedOption"`
	}
	if err := json.Unmarshal([]byte(raw), &entry); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if entry.QuestionID != "q1" || entry.SelectedOption != "B" {
		t.Fatalf("unexpected entry: %+v", entry)
	}
}
