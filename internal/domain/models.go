package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// Question is a single multiple-choice quiz question. Choices and OptionKeys
// are parallel: Choices[i] is the display text for the short code OptionKeys[i].
type Question struct {
	ID         string   `json:"id"`
	Title      string   `json:"title"`
	Choices    []string `json:"choices"`
	OptionKeys []string `json:"optionKeys"`
	Category   string   `json:"category"`
	SortOrder  int      `json:"sortOrder"`
}

// questionWire mirrors the backend payload. Options may arrive either as an
// object keyed by short codes or as already-split parallel arrays.
type questionWire struct {
	ID         string          `json:"id"`
	Title      string          `json:"title"`
	Content    string          `json:"content"`
	Options    json.RawMessage `json:"options"`
	Choices    []string        `json:"choices"`
	OptionKeys []string        `json:"optionKeys"`
	Category   string          `json:"category"`
	SortOrder  int             `json:"sortOrder"`
}

// UnmarshalJSON accepts both backend shapes for options. Object key order is
// the display order, so the object form is read with a token scanner rather
// than a map.
func (q *Question) UnmarshalJSON(data []byte) error {
	var wire questionWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	q.ID = wire.ID
	q.Title = wire.Title
	if q.Title == "" {
		q.Title = wire.Content
	}
	q.Category = wire.Category
	q.SortOrder = wire.SortOrder
	q.Choices = wire.Choices
	q.OptionKeys = wire.OptionKeys

	if len(wire.Options) > 0 {
		keys, texts, err := decodeOptions(wire.Options)
		if err != nil {
			return fmt.Errorf("question %s: %w", q.ID, err)
		}
		q.OptionKeys = keys
		q.Choices = texts
	}
	if len(q.Choices) != len(q.OptionKeys) {
		return fmt.Errorf("question %s: %d choices vs %d option keys", q.ID, len(q.Choices), len(q.OptionKeys))
	}
	return nil
}

// decodeOptions reads either {"A":"text",...} preserving key order, or
// [{"key":"A","text":"..."}, ...].
func decodeOptions(raw json.RawMessage) ([]string, []string, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || string(trimmed) == "null" {
		return nil, nil, nil
	}

	if trimmed[0] == '[' {
		var pairs []struct {
			Key  string `json:"key"`
			Text string `json:"text"`
		}
		if err := json.Unmarshal(trimmed, &pairs); err != nil {
			return nil, nil, fmt.Errorf("decode options array: %w", err)
		}
		keys := make([]string, 0, len(pairs))
		texts := make([]string, 0, len(pairs))
		for _, p := range pairs {
			keys = append(keys, p.Key)
			texts = append(texts, p.Text)
		}
		return keys, texts, nil
	}

	dec := json.NewDecoder(bytes.NewReader(trimmed))
	tok, err := dec.Token()
	if err != nil {
		return nil, nil, fmt.Errorf("decode options: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, nil, fmt.Errorf("decode options: unexpected token %v", tok)
	}

	var keys, texts []string
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, nil, fmt.Errorf("decode options key: %w", err)
		}
		key, ok := keyTok.(string)
		if !ok {
			return nil, nil, fmt.Errorf("decode options key: unexpected token %v", keyTok)
		}
		var text string
		if err := dec.Decode(&text); err != nil {
			return nil, nil, fmt.Errorf("decode options value for %q: %w", key, err)
		}
		keys = append(keys, key)
		texts = append(texts, text)
	}
	return keys, texts, nil
}

// QuestionSet is the payload returned by the session-start service.
type QuestionSet struct {
	ID         string     `json:"id"`
	Category   string     `json:"category"`
	TotalCount int        `json:"totalCount"`
	Questions  []Question `json:"questions"`
}

// AnswerRecord is one recorded answer in the live session. Immutable once
// stored for a position.
type AnswerRecord struct {
	QuestionID     string    `json:"questionId"`
	SelectedOption string    `json:"selectedOption"`
	SelectedIndex  int       `json:"selectedIndex"`
	Timestamp      time.Time `json:"timestamp"`
}

// StoredAnswer is the persisted form of one answer inside a cloud record.
type StoredAnswer struct {
	QuestionID     string `json:"questionId,omitempty"`
	SelectedOption string `json:"selectedOption"`
}

// StoredRecord is the complete per-user answer record written to cloud
// storage on completion and read back by the ranking engine.
type StoredRecord struct {
	Answers        []StoredAnswer `json:"answers"`
	Timestamp      int64          `json:"timestamp"`
	TotalQuestions int            `json:"totalQuestions"`
}

// PlayerProfile identifies a player in the social graph.
type PlayerProfile struct {
	OpenID    string `json:"openId"`
	Nickname  string `json:"nickname"`
	AvatarURL string `json:"avatarUrl,omitempty"`
}

// KVData is one key/value entry of a player's cloud storage. Values are
// JSON-encoded strings.
type KVData struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// CloudRecord is the raw per-player record returned by the peer storage
// service, before any answer normalization.
type CloudRecord struct {
	OpenID     string   `json:"openId"`
	Nickname   string   `json:"nickname"`
	AvatarURL  string   `json:"avatarUrl,omitempty"`
	KVDataList []KVData `json:"KVDataList"`
}

// FriendAnswer is one normalized answer of a peer. SelectedOption empty means
// the position carried no comparable token.
type FriendAnswer struct {
	SelectedOption string `json:"selectedOption"`
	QuestionID     string `json:"questionId,omitempty"`
	QuestionIndex  int    `json:"questionIndex,omitempty"`
}

// FriendAnswerRecord is a peer's normalized answer sheet. Rebuilt from cloud
// storage on every ranking pass, never cached.
type FriendAnswerRecord struct {
	OpenID         string         `json:"openId"`
	Nickname       string         `json:"nickname"`
	AvatarURL      string         `json:"avatarUrl,omitempty"`
	Answers        []FriendAnswer `json:"answers"`
	Timestamp      int64          `json:"timestamp"`
	TotalQuestions int            `json:"totalQuestions"`
}

// SimilarityResult pairs a peer with their same-position match score.
type SimilarityResult struct {
	Friend               FriendAnswerRecord `json:"friend"`
	Similarity           float64            `json:"similarity"`
	SimilarityPercentage int                `json:"similarityPercentage"`
}

// ReportSection is one named section of a quiz report.
type ReportSection struct {
	Name string `json:"name"`
	Body string `json:"body"`
}

// QuizReport is the server-produced report for a completed session. The
// client only reads it.
type QuizReport struct {
	Sections []ReportSection `json:"sections"`
}

// ClampTab maps any tab index onto a valid section index (0 when empty).
func (r QuizReport) ClampTab(tab int) int {
	if len(r.Sections) == 0 || tab < 0 {
		return 0
	}
	if tab >= len(r.Sections) {
		return len(r.Sections) - 1
	}
	return tab
}
