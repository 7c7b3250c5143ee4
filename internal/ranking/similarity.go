package ranking

import (
	"math"
	"sort"

	"github.com/lifelinezhang/frequency-smallgame-sub000/internal/domain"
)

// Similarity scores peer answers b against self answers a by same-position
// option match. The divisor is the longer of the two sequences, so an
// incomplete sheet is penalized for its missing positions. That asymmetry is
// deliberate scoring policy.
func Similarity(a, b []domain.FriendAnswer) float64 {
	n := len(a)
	if len(b) > n {
		n = len(b)
	}
	if n == 0 {
		return 0
	}

	shorter := len(a)
	if len(b) < shorter {
		shorter = len(b)
	}

	matches := 0
	for i := 0; i < shorter; i++ {
		// Empty tokens never match, not even each other.
		if a[i].SelectedOption == "" || b[i].SelectedOption == "" {
			continue
		}
		if a[i].SelectedOption == b[i].SelectedOption {
			matches++
		}
	}
	return float64(matches) / float64(n)
}

// Percentage converts a similarity fraction to a 0-100 integer.
func Percentage(similarity float64) int {
	return int(math.Round(similarity * 100))
}

// ComputeRanking scores every peer against the self answer sheet and returns
// them ordered by similarity descending; ties go to the earlier completion
// timestamp, then nickname for a stable total order. Pure: no I/O, nothing
// cached between calls.
func ComputeRanking(self []domain.FriendAnswer, peers []domain.FriendAnswerRecord) []domain.SimilarityResult {
	results := make([]domain.SimilarityResult, 0, len(peers))
	for _, peer := range peers {
		sim := Similarity(self, peer.Answers)
		results = append(results, domain.SimilarityResult{
			Friend:               peer,
			Similarity:           sim,
			SimilarityPercentage: Percentage(sim),
		})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Similarity != results[j].Similarity {
			return results[i].Similarity > results[j].Similarity
		}
		if results[i].Friend.Timestamp != results[j].Friend.Timestamp {
			return results[i].Friend.Timestamp < results[j].Friend.Timestamp
		}
		return results[i].Friend.Nickname < results[j].Friend.Nickname
	})
	return results
}
