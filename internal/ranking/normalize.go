package ranking

import (
	"bytes"
	"encoding/json"
	"log"

	"github.com/lifelinezhang/frequency-smallgame-sub000/internal/domain"
)

// Cloud storage values arrive in several historical shapes: the complete
// record key holds {"answers":[...],"timestamp":...,"totalQuestions":...} or a
// bare answer array, the legacy key holds a bare array of option strings, and
// individual answer entries may be strings or objects. Everything is
// normalized here, at the ingestion boundary; the scoring code never branches
// on payload shape.

// ParseCloudRecord turns one raw peer record into a normalized answer sheet.
// Malformed or absent answer data yields an empty sheet (similarity 0), never
// an error: one peer's bad data must not abort ranking for the rest.
func ParseCloudRecord(rec domain.CloudRecord, completeKey, legacyKey string) domain.FriendAnswerRecord {
	out := domain.FriendAnswerRecord{
		OpenID:    rec.OpenID,
		Nickname:  rec.Nickname,
		AvatarURL: rec.AvatarURL,
	}

	var legacy string
	for _, kv := range rec.KVDataList {
		switch kv.Key {
		case completeKey:
			if parseCompleteValue(kv.Value, &out) {
				return out
			}
			log.Printf("ranking: peer %s has malformed %q value", rec.OpenID, completeKey)
		case legacyKey:
			legacy = kv.Value
		}
	}

	if legacy != "" {
		if answers, ok := parseAnswerList([]byte(legacy)); ok {
			out.Answers = answers
			return out
		}
		log.Printf("ranking: peer %s has malformed %q value", rec.OpenID, legacyKey)
	}
	return out
}

// parseCompleteValue reads the preferred record shape: a wrapping object or a
// bare answer array.
func parseCompleteValue(value string, out *domain.FriendAnswerRecord) bool {
	trimmed := bytes.TrimSpace([]byte(value))
	if len(trimmed) == 0 {
		return false
	}

	if trimmed[0] == '{' {
		var wrapped struct {
			Answers        json.RawMessage `json:"answers"`
			Timestamp      int64           `json:"timestamp"`
			TotalQuestions int             `json:"totalQuestions"`
		}
		if err := json.Unmarshal(trimmed, &wrapped); err != nil {
			return false
		}
		answers, ok := parseAnswerList(wrapped.Answers)
		if !ok {
			return false
		}
		out.Answers = answers
		out.Timestamp = wrapped.Timestamp
		out.TotalQuestions = wrapped.TotalQuestions
		return true
	}

	answers, ok := parseAnswerList(trimmed)
	if !ok {
		return false
	}
	out.Answers = answers
	return true
}

// NormalizeSelfAnswers accepts the two shapes a self answer sheet is supplied
// in, a bare ordered list or an object wrapping one under "answers", and
// returns the bare list. Unparsable input yields an empty list so ranking
// still runs, scoring every peer at zero.
func NormalizeSelfAnswers(raw []byte) []domain.FriendAnswer {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil
	}

	if trimmed[0] == '{' {
		var wrapped struct {
			Answers json.RawMessage `json:"answers"`
		}
		if err := json.Unmarshal(trimmed, &wrapped); err != nil {
			log.Printf("ranking: malformed self answer object: %v", err)
			return nil
		}
		trimmed = bytes.TrimSpace(wrapped.Answers)
	}

	answers, ok := parseAnswerList(trimmed)
	if !ok {
		log.Printf("ranking: malformed self answer list")
		return nil
	}
	return answers
}

// parseAnswerList reads an answer array whose entries are either bare option
// strings or objects carrying selectedOption.
func parseAnswerList(raw []byte) ([]domain.FriendAnswer, bool) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || string(trimmed) == "null" {
		return nil, false
	}

	var entries []json.RawMessage
	if err := json.Unmarshal(trimmed, &entries); err != nil {
		return nil, false
	}

	answers := make([]domain.FriendAnswer, 0, len(entries))
	for _, entry := range entries {
		answers = append(answers, parseAnswerEntry(entry))
	}
	return answers, true
}

func parseAnswerEntry(entry json.RawMessage) domain.FriendAnswer {
	trimmed := bytes.TrimSpace(entry)
	if len(trimmed) == 0 {
		return domain.FriendAnswer{}
	}

	if trimmed[0] == '"' {
		var opt string
		if err := json.Unmarshal(trimmed, &opt); err != nil {
			return domain.FriendAnswer{}
		}
		return domain.FriendAnswer{SelectedOption: opt}
	}

	var obj domain.FriendAnswer
	if err := json.Unmarshal(trimmed, &obj); err != nil {
		// Wrong-shaped entry: keep the position with no comparable token.
		return domain.FriendAnswer{}
	}
	return obj
}

// ResolveSelf locates the current player's own record inside the peer list by
// openId match. The sandboxed ranking side cannot read live session memory,
// so this is the only way to obtain the self sheet; a miss returns an empty
// sheet rather than an error.
func ResolveSelf(records []domain.FriendAnswerRecord, selfOpenID string) (domain.FriendAnswerRecord, bool) {
	for _, rec := range records {
		if rec.OpenID == selfOpenID {
			return rec, true
		}
	}
	return domain.FriendAnswerRecord{OpenID: selfOpenID}, false
}
