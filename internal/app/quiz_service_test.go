package app_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/lifelinezhang/frequency-smallgame-sub000/internal/app"
	"github.com/lifelinezhang/frequency-smallgame-sub000/internal/domain"
	"github.com/lifelinezhang/frequency-smallgame-sub000/internal/infra/memory"
)

type fixture struct {
	service *app.QuizService
	cloud   *memory.CloudStorage
	reports *memory.ReportStore
	keys    *memory.KeyStore
}

func newFixture() *fixture {
	storageKeys := app.DefaultStorageKeys()
	cloud := memory.NewCloudStorage(storageKeys)
	keys := memory.NewKeyStore()
	reports := memory.NewReportStore()
	questions := memory.NewQuestionRepository(memory.NewStaticQuestionLoader(map[string]domain.QuestionSet{
		"daily": {
			ID: "daily",
			Questions: []domain.Question{
				{ID: "q2", Title: "second", Choices: []string{"a", "b"}, OptionKeys: []string{"A", "B"}, SortOrder: 2},
				{ID: "q1", Title: "first", Choices: []string{"a", "b"}, OptionKeys: []string{"A", "B"}, SortOrder: 1},
				{ID: "q3", Title: "third", Choices: []string{"a", "b", "c"}, OptionKeys: []string{"A", "B", "C"}, SortOrder: 3},
			},
		},
	}), 5*time.Minute)
	service := app.NewQuizService(questions, cloud, keys, reports, memory.NewSubmitRecorder(), cloud, storageKeys)
	return &fixture{service: service, cloud: cloud, reports: reports, keys: keys}
}

func completeQuiz(t *testing.T, f *fixture, openID string, picks []int) {
	t.Helper()
	ctx := context.Background()
	if err := f.service.Register(ctx, domain.PlayerProfile{OpenID: openID, Nickname: openID}); err != nil {
		t.Fatalf("register %s: %v", openID, err)
	}
	set, err := f.service.StartQuiz(ctx, openID, "daily")
	if err != nil {
		t.Fatalf("start quiz %s: %v", openID, err)
	}
	if len(picks) != len(set.Questions) {
		t.Fatalf("fixture mismatch: %d picks for %d questions", len(picks), len(set.Questions))
	}
	for i, pick := range picks {
		progress, err := f.service.RecordAnswer(ctx, openID, pick)
		if err != nil {
			t.Fatalf("answer %d for %s: %v", i, openID, err)
		}
		if !progress.Completed {
			if err := f.service.Advance(openID); err != nil {
				t.Fatalf("advance %s: %v", openID, err)
			}
		}
	}
}

func TestStartQuizSortsQuestions(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	_ = f.service.Register(ctx, domain.PlayerProfile{OpenID: "u1", Nickname: "Ann"})

	set, err := f.service.StartQuiz(ctx, "u1", "daily")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if set.Questions[0].ID != "q1" || set.Questions[1].ID != "q2" || set.Questions[2].ID != "q3" {
		t.Fatalf("questions not in sort order: %+v", set.Questions)
	}
	if set.TotalCount != 3 {
		t.Fatalf("expected total count 3, got %d", set.TotalCount)
	}
}

func TestStartQuizUnknownSet(t *testing.T) {
	f := newFixture()
	_, err := f.service.StartQuiz(context.Background(), "u1", "nope")
	if !errors.Is(err, domain.ErrQuestionSetNotFound) {
		t.Fatalf("expected ErrQuestionSetNotFound, got %v", err)
	}
}

func TestFriendRankingEndToEnd(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	completeQuiz(t, f, "me", []int{0, 1, 2})
	completeQuiz(t, f, "twin", []int{0, 1, 2})
	completeQuiz(t, f, "other", []int{1, 0, 0})

	results, err := f.service.FriendRanking(ctx, "me")
	if err != nil {
		t.Fatalf("ranking: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("self must not appear among peers: %d results", len(results))
	}
	if results[0].Friend.OpenID != "twin" || results[0].SimilarityPercentage != 100 {
		t.Fatalf("expected twin at 100%%, got %+v", results[0])
	}
	if results[1].Friend.OpenID != "other" || results[1].SimilarityPercentage != 0 {
		t.Fatalf("expected other at 0%%, got %+v", results[1])
	}
}

func TestFriendRankingWithoutSelfRecord(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	completeQuiz(t, f, "peer", []int{0, 0, 0})
	_ = f.service.Register(ctx, domain.PlayerProfile{OpenID: "newcomer", Nickname: "New"})

	results, err := f.service.FriendRanking(ctx, "newcomer")
	if err != nil {
		t.Fatalf("ranking must run without a self record: %v", err)
	}
	if len(results) != 1 || results[0].Similarity != 0 {
		t.Fatalf("expected zero-scored peers, got %+v", results)
	}
}

func TestFriendRankingReadsLegacyRecords(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	completeQuiz(t, f, "me", []int{0, 1, 0})
	_ = f.service.Register(ctx, domain.PlayerProfile{OpenID: "old-client", Nickname: "Old"})
	f.cloud.SetValue("old-client", app.DefaultStorageKeys().Legacy, `["A","B","A"]`)

	results, err := f.service.FriendRanking(ctx, "me")
	if err != nil {
		t.Fatalf("ranking: %v", err)
	}
	if len(results) != 1 || results[0].SimilarityPercentage != 100 {
		t.Fatalf("legacy record not ranked: %+v", results)
	}
}

func TestMyReportParsesContent(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.reports.SetReport("u1", []byte(`{"overview":"fine","detail":"long text"}`))

	rep, err := f.service.MyReport(ctx, "u1")
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	if len(rep.Sections) != 2 || rep.Sections[0].Name != "overview" {
		t.Fatalf("unexpected report: %+v", rep.Sections)
	}

	if _, err := f.service.MyReport(ctx, "nobody"); !errors.Is(err, domain.ErrReportNotFound) {
		t.Fatalf("expected ErrReportNotFound, got %v", err)
	}
}

func TestPeerReportUnlockSpendsOneKey(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.reports.SetReport("peer", []byte(`{"overview":"hi"}`))

	// No keys yet: unlock must be refused.
	if _, err := f.service.PeerReport(ctx, "me", "peer"); !errors.Is(err, domain.ErrInsufficientKeys) {
		t.Fatalf("expected ErrInsufficientKeys, got %v", err)
	}

	balance, awarded, err := f.service.InviteAccepted(ctx, "me", "guest")
	if err != nil || !awarded || balance != 1 {
		t.Fatalf("invite award failed: balance=%d awarded=%v err=%v", balance, awarded, err)
	}

	if _, err := f.service.PeerReport(ctx, "me", "peer"); err != nil {
		t.Fatalf("unlock with key: %v", err)
	}
	if balance, _ := f.service.KeyBalance(ctx, "me"); balance != 0 {
		t.Fatalf("expected key spent, balance %d", balance)
	}

	// Second visit is free.
	if _, err := f.service.PeerReport(ctx, "me", "peer"); err != nil {
		t.Fatalf("revisit must not spend: %v", err)
	}
}

func TestInviteAwardOncePerInvitee(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	if _, awarded, _ := f.service.InviteAccepted(ctx, "me", "guest"); !awarded {
		t.Fatalf("first accept must award")
	}
	balance, awarded, err := f.service.InviteAccepted(ctx, "me", "guest")
	if err != nil || awarded || balance != 1 {
		t.Fatalf("repeat accept must not award: balance=%d awarded=%v err=%v", balance, awarded, err)
	}
}

func TestCompletionMarksTabsStaleOnce(t *testing.T) {
	f := newFixture()

	completeQuiz(t, f, "me", []int{0, 0, 0})

	if !f.service.ConsumeTabFlag("me", app.TabRank) {
		t.Fatalf("rank tab must be stale after completion")
	}
	if f.service.ConsumeTabFlag("me", app.TabRank) {
		t.Fatalf("rank tab flag must clear on consume")
	}
	if !f.service.ConsumeTabFlag("me", app.TabReport) {
		t.Fatalf("report tab must still be stale")
	}
	if f.service.ConsumeTabFlag("other", app.TabRank) {
		t.Fatalf("flags must be per player")
	}
}
