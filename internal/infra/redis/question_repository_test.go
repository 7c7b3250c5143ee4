package redis

import (
	"context"
	"testing"
	"time"

	"github.com/lifelinezhang/frequency-smallgame-sub000/internal/domain"
	"github.com/lifelinezhang/frequency-smallgame-sub000/internal/infra/memory"
)

func TestQuestionRepositoryCachesInRedis(t *testing.T) {
	client := newTestClient(t)

	loader := &countingLoader{
		QuestionLoader: memory.NewStaticQuestionLoader(map[string]domain.QuestionSet{
			"daily": sampleSet(),
		}),
	}
	repo := NewQuestionRepository(client, loader, time.Minute)

	set, err := repo.GetQuestionSet(context.Background(), "daily")
	if err != nil {
		t.Fatalf("get set: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected loader called once, got %d", loader.calls)
	}
	if len(set.Questions) != 1 || set.Questions[0].OptionKeys[0] != "A" {
		t.Fatalf("unexpected set: %+v", set)
	}

	// Second call should hit the redis cache, loader not incremented.
	set, err = repo.GetQuestionSet(context.Background(), "daily")
	if err != nil {
		t.Fatalf("get set 2: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected cache hit, loader calls=%d", loader.calls)
	}
	if set.Questions[0].Choices[1] != "right" {
		t.Fatalf("cached set lost option order: %+v", set.Questions[0])
	}
}

type countingLoader struct {
	QuestionLoader
	calls int
}

func (l *countingLoader) LoadQuestionSet(ctx context.Context, setID string) (domain.QuestionSet, error) {
	l.calls++
	return l.QuestionLoader.LoadQuestionSet(ctx, setID)
}

func sampleSet() domain.QuestionSet {
	return domain.QuestionSet{
		ID: "daily",
		Questions: []domain.Question{
			{
				ID:         "q1",
				Title:      "Pick a side",
				Choices:    []string{"left", "right"},
				OptionKeys: []string{"A", "B"},
				SortOrder:  1,
			},
		},
	}
}
