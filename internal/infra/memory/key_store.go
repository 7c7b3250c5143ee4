package memory

import (
	"context"
	"sync"

	"github.com/lifelinezhang/frequency-smallgame-sub000/internal/domain"
)

// KeyStore is an in-memory implementation of app.KeyStore.
type KeyStore struct {
	mu       sync.Mutex
	balances map[string]int
	unlocked map[string]map[string]bool
	invites  map[string]map[string]bool
}

func NewKeyStore() *KeyStore {
	return &KeyStore{
		balances: make(map[string]int),
		unlocked: make(map[string]map[string]bool),
		invites:  make(map[string]map[string]bool),
	}
}

func (s *KeyStore) Balance(_ context.Context, openID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.balances[openID], nil
}

func (s *KeyStore) Earn(_ context.Context, openID string, amount int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.balances[openID] += amount
	return s.balances[openID], nil
}

func (s *KeyStore) Spend(_ context.Context, openID string, amount int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.balances[openID] < amount {
		return s.balances[openID], domain.ErrInsufficientKeys
	}
	s.balances[openID] -= amount
	return s.balances[openID], nil
}

func (s *KeyStore) RecordInvite(_ context.Context, inviterID, inviteeID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	set, ok := s.invites[inviterID]
	if !ok {
		set = make(map[string]bool)
		s.invites[inviterID] = set
	}
	if set[inviteeID] {
		return false, nil
	}
	set[inviteeID] = true
	return true, nil
}

func (s *KeyStore) MarkUnlocked(_ context.Context, openID, peerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	set, ok := s.unlocked[openID]
	if !ok {
		set = make(map[string]bool)
		s.unlocked[openID] = set
	}
	set[peerID] = true
	return nil
}

func (s *KeyStore) IsUnlocked(_ context.Context, openID, peerID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.unlocked[openID][peerID], nil
}
