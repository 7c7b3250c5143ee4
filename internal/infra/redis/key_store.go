package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/lifelinezhang/frequency-smallgame-sub000/internal/domain"
)

// KeyStore keeps key balances and the unlock/invite sets in Redis.
type KeyStore struct {
	client *redis.Client
}

func NewKeyStore(client *redis.Client) *KeyStore {
	return &KeyStore{client: client}
}

func (s *KeyStore) Balance(ctx context.Context, openID string) (int, error) {
	balance, err := s.client.Get(ctx, s.balanceKey(openID)).Int()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("key balance %s: %w", openID, err)
	}
	return balance, nil
}

func (s *KeyStore) Earn(ctx context.Context, openID string, amount int) (int, error) {
	balance, err := s.client.IncrBy(ctx, s.balanceKey(openID), int64(amount)).Result()
	if err != nil {
		return 0, fmt.Errorf("earn keys %s: %w", openID, err)
	}
	return int(balance), nil
}

// Spend decrements the balance and restores it when the result would go
// negative. The balance key has a single writer per user (the player's own
// connection), so the decrement-then-check is not racing another spender.
func (s *KeyStore) Spend(ctx context.Context, openID string, amount int) (int, error) {
	balance, err := s.client.DecrBy(ctx, s.balanceKey(openID), int64(amount)).Result()
	if err != nil {
		return 0, fmt.Errorf("spend keys %s: %w", openID, err)
	}
	if balance < 0 {
		restored, err := s.client.IncrBy(ctx, s.balanceKey(openID), int64(amount)).Result()
		if err != nil {
			return 0, fmt.Errorf("restore keys %s: %w", openID, err)
		}
		return int(restored), domain.ErrInsufficientKeys
	}
	return int(balance), nil
}

func (s *KeyStore) RecordInvite(ctx context.Context, inviterID, inviteeID string) (bool, error) {
	added, err := s.client.SAdd(ctx, s.invitesKey(inviterID), inviteeID).Result()
	if err != nil {
		return false, fmt.Errorf("record invite %s: %w", inviterID, err)
	}
	return added == 1, nil
}

func (s *KeyStore) MarkUnlocked(ctx context.Context, openID, peerID string) error {
	if err := s.client.SAdd(ctx, s.unlockedKey(openID), peerID).Err(); err != nil {
		return fmt.Errorf("mark unlocked %s: %w", openID, err)
	}
	return nil
}

func (s *KeyStore) IsUnlocked(ctx context.Context, openID, peerID string) (bool, error) {
	unlocked, err := s.client.SIsMember(ctx, s.unlockedKey(openID), peerID).Result()
	if err != nil {
		return false, fmt.Errorf("check unlocked %s: %w", openID, err)
	}
	return unlocked, nil
}

func (s *KeyStore) balanceKey(openID string) string {
	return "quiz:keys:" + openID
}

func (s *KeyStore) unlockedKey(openID string) string {
	return "quiz:unlocked:" + openID
}

func (s *KeyStore) invitesKey(openID string) string {
	return "quiz:invites:" + openID
}
