package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/lifelinezhang/frequency-smallgame-sub000/internal/app"
	"github.com/lifelinezhang/frequency-smallgame-sub000/internal/domain"
)

// CloudStorage keeps per-player answer records and profiles in Redis:
//
//	SADD quiz:players {openID}
//	HSET quiz:profile:{openID} nickname ... avatar ...
//	HSET quiz:cloud:{openID} {storageKey} {json}
//
// It implements session.AnswerStore (writer side) and app.FriendStorage
// (reader side, one record per registered player).
type CloudStorage struct {
	client *redis.Client
	keys   app.StorageKeys
}

func NewCloudStorage(client *redis.Client, keys app.StorageKeys) *CloudStorage {
	return &CloudStorage{client: client, keys: keys}
}

func (s *CloudStorage) RegisterProfile(ctx context.Context, profile domain.PlayerProfile) error {
	pipe := s.client.Pipeline()
	pipe.SAdd(ctx, s.playersKey(), profile.OpenID)
	pipe.HSet(ctx, s.profileKey(profile.OpenID),
		"nickname", profile.Nickname,
		"avatar", profile.AvatarURL,
	)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("register profile %s: %w", profile.OpenID, err)
	}
	return nil
}

func (s *CloudStorage) Clear(ctx context.Context, openID string) error {
	if err := s.client.Del(ctx, s.cloudKey(openID)).Err(); err != nil {
		return fmt.Errorf("clear cloud record %s: %w", openID, err)
	}
	return nil
}

// SaveRecord writes the complete record and the legacy bare-array key so old
// readers keep working.
func (s *CloudStorage) SaveRecord(ctx context.Context, openID string, rec domain.StoredRecord) error {
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

	if err := s.client.HSet(ctx, s.cloudKey(openID),
		s.keys.Complete, string(complete),
		s.keys.Legacy, string(legacy),
	).Err(); err != nil {
		return fmt.Errorf("save cloud record %s: %w", openID, err)
	}
	return nil
}

func (s *CloudStorage) GetFriendCloudStorage(ctx context.Context, keys []string) ([]domain.CloudRecord, error) {
	players, err := s.client.SMembers(ctx, s.playersKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("list players: %w", err)
	}

	records := make([]domain.CloudRecord, 0, len(players))
	for _, openID := range players {
		profile, err := s.client.HGetAll(ctx, s.profileKey(openID)).Result()
		if err != nil {
			return nil, fmt.Errorf("load profile %s: %w", openID, err)
		}
		rec := domain.CloudRecord{
			OpenID:    openID,
			Nickname:  profile["nickname"],
			AvatarURL: profile["avatar"],
		}

		values, err := s.client.HMGet(ctx, s.cloudKey(openID), keys...).Result()
		if err != nil {
			return nil, fmt.Errorf("load cloud record %s: %w", openID, err)
		}
		for i, v := range values {
			str, ok := v.(string)
			if !ok {
				continue
			}
			rec.KVDataList = append(rec.KVDataList, domain.KVData{Key: keys[i], Value: str})
		}
		records = append(records, rec)
	}
	return records, nil
}

func (s *CloudStorage) playersKey() string {
	return "quiz:players"
}

func (s *CloudStorage) profileKey(openID string) string {
	return "quiz:profile:" + openID
}

func (s *CloudStorage) cloudKey(openID string) string {
	return "quiz:cloud:" + openID
}
