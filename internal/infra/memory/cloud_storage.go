package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/lifelinezhang/frequency-smallgame-sub000/internal/app"
	"github.com/lifelinezhang/frequency-smallgame-sub000/internal/domain"
)

// CloudStorage is an in-memory stand-in for the host's per-user key/value
// store plus the social-graph listing over it. It implements both
// session.AnswerStore (writer side) and app.FriendStorage (reader side).
type CloudStorage struct {
	keys app.StorageKeys

	mu       sync.RWMutex
	profiles map[string]domain.PlayerProfile
	order    []string
	kv       map[string]map[string]string
}

func NewCloudStorage(keys app.StorageKeys) *CloudStorage {
	return &CloudStorage{
		keys:     keys,
		profiles: make(map[string]domain.PlayerProfile),
		kv:       make(map[string]map[string]string),
	}
}

func (s *CloudStorage) RegisterProfile(_ context.Context, profile domain.PlayerProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.profiles[profile.OpenID]; !ok {
		s.order = append(s.order, profile.OpenID)
	}
	s.profiles[profile.OpenID] = profile
	return nil
}

func (s *CloudStorage) Clear(_ context.Context, openID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.kv, openID)
	return nil
}

// SaveRecord writes the complete record and the legacy bare-array key so old
// readers keep working.
func (s *CloudStorage) SaveRecord(_ context.Context, openID string, rec domain.StoredRecord) error {
	complete, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal answer record: %w", err)
	}
	options := make([]string, 0, len(rec.Answers))
	for _, a := range rec.Answers {
		options = append(options, a.SelectedOption)
	}
	legacy, err := json.Marshal(options)
	if err != nil {
		return fmt.Errorf("marshal legacy answers: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.kv[openID]
	if !ok {
		entry = make(map[string]string)
		s.kv[openID] = entry
	}
	entry[s.keys.Complete] = string(complete)
	entry[s.keys.Legacy] = string(legacy)
	return nil
}

// SetValue seeds an arbitrary raw value, mimicking records written by other
// client versions. Test and demo helper.
func (s *CloudStorage) SetValue(openID, key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.kv[openID]
	if !ok {
		entry = make(map[string]string)
		s.kv[openID] = entry
	}
	entry[key] = value
}

func (s *CloudStorage) GetFriendCloudStorage(_ context.Context, keys []string) ([]domain.CloudRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := make([]domain.CloudRecord, 0, len(s.order))
	for _, openID := range s.order {
		profile := s.profiles[openID]
		rec := domain.CloudRecord{
			OpenID:    profile.OpenID,
			Nickname:  profile.Nickname,
			AvatarURL: profile.AvatarURL,
		}
		for _, key := range keys {
			if value, ok := s.kv[openID][key]; ok {
				rec.KVDataList = append(rec.KVDataList, domain.KVData{Key: key, Value: value})
			}
		}
		records = append(records, rec)
	}
	return records, nil
}
