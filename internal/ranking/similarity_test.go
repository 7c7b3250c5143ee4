package ranking

import (
	"testing"

	"github.com/lifelinezhang/frequency-smallgame-sub000/internal/domain"
)

func answers(options ...string) []domain.FriendAnswer {
	out := make([]domain.FriendAnswer, 0, len(options))
	for _, opt := range options {
		out = append(out, domain.FriendAnswer{SelectedOption: opt})
	}
	return out
}

func TestSimilarityIdenticalAndDisjoint(t *testing.T) {
	a := answers("A", "B", "C")
	if sim := Similarity(a, answers("A", "B", "C")); sim != 1 {
		t.Fatalf("identical sheets: expected 1, got %v", sim)
	}
	if sim := Similarity(a, answers("B", "C", "A")); sim != 0 {
		t.Fatalf("disjoint positions: expected 0, got %v", sim)
	}
}

func TestSimilarityBounds(t *testing.T) {
	cases := [][2][]domain.FriendAnswer{
		{answers(), answers()},
		{answers("A"), answers()},
		{answers("A", "B"), answers("A", "C", "D", "E")},
		{answers("A", "A", "A"), answers("A", "A", "A")},
	}
	for i, c := range cases {
		sim := Similarity(c[0], c[1])
		if sim < 0 || sim > 1 {
			t.Fatalf("case %d: similarity %v out of [0,1]", i, sim)
		}
		pct := Percentage(sim)
		if pct < 0 || pct > 100 {
			t.Fatalf("case %d: percentage %d out of [0,100]", i, pct)
		}
	}
}

func TestSimilarityEmptyInputs(t *testing.T) {
	if sim := Similarity(nil, nil); sim != 0 {
		t.Fatalf("both empty: expected 0, got %v", sim)
	}
}

func TestSimilarityLengthPenalty(t *testing.T) {
	// Peer answered 3 of 5, all matching: 3/5, not 3/3.
	self := answers("A", "B", "C", "D", "E")
	peer := answers("A", "B", "C")
	if sim := Similarity(self, peer); sim != 0.6 {
		t.Fatalf("expected 0.6, got %v", sim)
	}
}

func TestSimilarityEmptyTokensNeverMatch(t *testing.T) {
	self := answers("A", "", "C")
	peer := answers("A", "", "C")
	if sim := Similarity(self, peer); sim != 2.0/3.0 {
		t.Fatalf("empty positions must not match: got %v", sim)
	}
}

func TestPercentageRounds(t *testing.T) {
	// 2/3 rounds to 67, not truncates to 66.
	if pct := Percentage(2.0 / 3.0); pct != 67 {
		t.Fatalf("expected 67, got %d", pct)
	}
}

func TestComputeRankingOrder(t *testing.T) {
	self := answers("A", "B")
	peers := []domain.FriendAnswerRecord{
		{OpenID: "p1", Nickname: "Cara", Answers: answers("A", "C"), Timestamp: 100},
		{OpenID: "p2", Nickname: "Dan", Answers: answers("A", "B"), Timestamp: 200},
		{OpenID: "p3", Nickname: "Eve", Answers: answers("A", "B"), Timestamp: 150},
	}

	results := ComputeRanking(self, peers)
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	// Equal similarity ranks the earlier completion first.
	if results[0].Friend.OpenID != "p3" || results[1].Friend.OpenID != "p2" || results[2].Friend.OpenID != "p1" {
		t.Fatalf("unexpected order: %s %s %s",
			results[0].Friend.OpenID, results[1].Friend.OpenID, results[2].Friend.OpenID)
	}
	if results[0].SimilarityPercentage != 100 || results[2].SimilarityPercentage != 50 {
		t.Fatalf("unexpected percentages: %+v", results)
	}
}

func TestComputeRankingEmptySelfScoresZero(t *testing.T) {
	peers := []domain.FriendAnswerRecord{
		{OpenID: "p1", Answers: answers("A", "B")},
		{OpenID: "p2", Answers: answers("C")},
	}
	for _, r := range ComputeRanking(nil, peers) {
		if r.Similarity != 0 || r.SimilarityPercentage != 0 {
			t.Fatalf("missing self sheet must score everyone zero: %+v", r)
		}
	}
}

func TestComputeRankingMalformedPeerTolerated(t *testing.T) {
	self := answers("A", "B")
	peers := []domain.FriendAnswerRecord{
		{OpenID: "bad"}, // no answers parsed
		{OpenID: "good", Answers: answers("A", "B"), Timestamp: 10},
	}
	results := ComputeRanking(self, peers)
	if len(results) != 2 {
		t.Fatalf("bad peer must not abort ranking, got %d results", len(results))
	}
	if results[0].Friend.OpenID != "good" || results[1].Similarity != 0 {
		t.Fatalf("unexpected ranking: %+v", results)
	}
}
