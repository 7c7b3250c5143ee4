package app

import (
	"context"
	"log"
	"sort"
	"sync"

	"github.com/lifelinezhang/frequency-smallgame-sub000/internal/domain"
	"github.com/lifelinezhang/frequency-smallgame-sub000/internal/ranking"
	"github.com/lifelinezhang/frequency-smallgame-sub000/internal/report"
	"github.com/lifelinezhang/frequency-smallgame-sub000/internal/session"
)

// QuestionRepository loads question sets (from cache/backing store).
type QuestionRepository interface {
	GetQuestionSet(ctx context.Context, setID string) (domain.QuestionSet, error)
}

// FriendStorage is the peer cloud-storage service: aggregated key/value
// records for the player's social graph. The player's own record comes back
// through the same listing; there is no separate self endpoint.
type FriendStorage interface {
	RegisterProfile(ctx context.Context, profile domain.PlayerProfile) error
	GetFriendCloudStorage(ctx context.Context, keys []string) ([]domain.CloudRecord, error)
}

// KeyStore tracks the key balance plus the unlock and invitation sets.
type KeyStore interface {
	Balance(ctx context.Context, openID string) (int, error)
	Earn(ctx context.Context, openID string, amount int) (int, error)
	Spend(ctx context.Context, openID string, amount int) (int, error)
	RecordInvite(ctx context.Context, inviterID, inviteeID string) (bool, error)
	MarkUnlocked(ctx context.Context, openID, peerID string) error
	IsUnlocked(ctx context.Context, openID, peerID string) (bool, error)
}

// ReportRepository fetches raw server-produced report content.
type ReportRepository interface {
	GetReport(ctx context.Context, openID string) ([]byte, error)
}

// StorageKeys names the cloud-storage keys answer records live under.
type StorageKeys struct {
	Complete string
	Legacy   string
}

// DefaultStorageKeys matches what shipped clients write and read.
func DefaultStorageKeys() StorageKeys {
	return StorageKeys{Complete: "quizAnswersComplete", Legacy: "quizAnswers"}
}

func (k StorageKeys) list() []string {
	return []string{k.Complete, k.Legacy}
}

// QuizService wires the session manager, the ranking engine, and the social
// features onto their storage collaborators.
type QuizService struct {
	questions QuestionRepository
	friends   FriendStorage
	keys      KeyStore
	reports   ReportRepository
	submitter session.AnswerSubmitter
	answers   session.AnswerStore
	storage   StorageKeys
	flags     *TabFlags

	mu       sync.Mutex
	managers map[string]*session.Manager
}

func NewQuizService(
	questions QuestionRepository,
	friends FriendStorage,
	keys KeyStore,
	reports ReportRepository,
	submitter session.AnswerSubmitter,
	answers session.AnswerStore,
	storage StorageKeys,
) *QuizService {
	return &QuizService{
		questions: questions,
		friends:   friends,
		keys:      keys,
		reports:   reports,
		submitter: submitter,
		answers:   answers,
		storage:   storage,
		flags:     NewTabFlags(),
		managers:  make(map[string]*session.Manager),
	}
}

// QuizCompleted implements session.CompletionNotifier: flag the rank and
// report tabs so they refresh on next visit.
func (s *QuizService) QuizCompleted(openID string, rec domain.StoredRecord) {
	s.flags.MarkStale(openID)
	log.Printf("quiz completed for %s: %d/%d answers", openID, len(rec.Answers), rec.TotalQuestions)
}

func (s *QuizService) manager(openID string) *session.Manager {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.managers[openID]
	if !ok {
		m = session.NewManager(openID, s.submitter, s.answers, s)
		s.managers[openID] = m
	}
	return m
}

// Register records the player's profile in the social graph.
func (s *QuizService) Register(ctx context.Context, profile domain.PlayerProfile) error {
	return s.friends.RegisterProfile(ctx, profile)
}

// StartQuiz loads a question set and starts a fresh session for the player.
func (s *QuizService) StartQuiz(ctx context.Context, openID, setID string) (domain.QuestionSet, error) {
	set, err := s.questions.GetQuestionSet(ctx, setID)
	if err != nil {
		return domain.QuestionSet{}, err
	}

	questions := append([]domain.Question(nil), set.Questions...)
	sort.SliceStable(questions, func(i, j int) bool {
		return questions[i].SortOrder < questions[j].SortOrder
	})
	set.Questions = questions
	if set.TotalCount == 0 {
		set.TotalCount = len(questions)
	}

	if err := s.manager(openID).Start(ctx, questions); err != nil {
		return domain.QuestionSet{}, err
	}
	return set, nil
}

// RecordAnswer records the player's answer for their current question.
func (s *QuizService) RecordAnswer(ctx context.Context, openID string, selectedIndex int) (session.Progress, error) {
	return s.manager(openID).RecordAnswer(ctx, selectedIndex)
}

// Advance moves the player's session to the next question.
func (s *QuizService) Advance(openID string) error {
	return s.manager(openID).Advance()
}

// SessionState exposes the lifecycle state of the player's session.
func (s *QuizService) SessionState(openID string) session.State {
	return s.manager(openID).State()
}

// FriendRanking reads the social graph's answer records, resolves the
// player's own sheet from the same listing, and returns peers ordered by
// answer similarity. A missing self record yields an all-zero ranking rather
// than a failure.
func (s *QuizService) FriendRanking(ctx context.Context, openID string) ([]domain.SimilarityResult, error) {
	records, err := s.friends.GetFriendCloudStorage(ctx, s.storage.list())
	if err != nil {
		return nil, err
	}

	normalized := make([]domain.FriendAnswerRecord, 0, len(records))
	for _, rec := range records {
		normalized = append(normalized, ranking.ParseCloudRecord(rec, s.storage.Complete, s.storage.Legacy))
	}

	self, found := ranking.ResolveSelf(normalized, openID)
	if !found {
		log.Printf("ranking: no stored answers for %s, scoring peers against empty sheet", openID)
	}

	peers := make([]domain.FriendAnswerRecord, 0, len(normalized))
	for _, rec := range normalized {
		if rec.OpenID == openID {
			continue
		}
		peers = append(peers, rec)
	}
	return ranking.ComputeRanking(self.Answers, peers), nil
}

// MyReport fetches and parses the player's own report.
func (s *QuizService) MyReport(ctx context.Context, openID string) (domain.QuizReport, error) {
	raw, err := s.reports.GetReport(ctx, openID)
	if err != nil {
		return domain.QuizReport{}, err
	}
	return report.Parse(raw), nil
}

// PeerReport returns a peer's report, spending one key on first unlock.
// Already-unlocked peers are free to revisit.
func (s *QuizService) PeerReport(ctx context.Context, openID, peerID string) (domain.QuizReport, error) {
	unlocked, err := s.keys.IsUnlocked(ctx, openID, peerID)
	if err != nil {
		return domain.QuizReport{}, err
	}
	if !unlocked {
		if _, err := s.keys.Spend(ctx, openID, 1); err != nil {
			return domain.QuizReport{}, err
		}
		if err := s.keys.MarkUnlocked(ctx, openID, peerID); err != nil {
			return domain.QuizReport{}, err
		}
	}

	raw, err := s.reports.GetReport(ctx, peerID)
	if err != nil {
		return domain.QuizReport{}, err
	}
	return report.Parse(raw), nil
}

// InviteAccepted awards the inviter one key the first time each invitee
// accepts. Repeat accepts by the same invitee award nothing.
func (s *QuizService) InviteAccepted(ctx context.Context, inviterID, inviteeID string) (int, bool, error) {
	first, err := s.keys.RecordInvite(ctx, inviterID, inviteeID)
	if err != nil {
		return 0, false, err
	}
	if !first {
		balance, err := s.keys.Balance(ctx, inviterID)
		return balance, false, err
	}
	balance, err := s.keys.Earn(ctx, inviterID, 1)
	return balance, true, err
}

// KeyBalance returns the player's current key count.
func (s *QuizService) KeyBalance(ctx context.Context, openID string) (int, error) {
	return s.keys.Balance(ctx, openID)
}

// ConsumeTabFlag reports whether the tab needs a refresh, clearing the flag.
func (s *QuizService) ConsumeTabFlag(openID string, tab Tab) bool {
	return s.flags.Consume(openID, tab)
}
