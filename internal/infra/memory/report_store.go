package memory

import (
	"context"
	"sync"

	"github.com/lifelinezhang/frequency-smallgame-sub000/internal/domain"
)

// ReportStore is an in-memory app.ReportRepository (useful for tests/demos).
type ReportStore struct {
	mu      sync.RWMutex
	reports map[string][]byte
}

func NewReportStore() *ReportStore {
	return &ReportStore{reports: make(map[string][]byte)}
}

// SetReport seeds raw report content for a player.
func (s *ReportStore) SetReport(openID string, content []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reports[openID] = append([]byte(nil), content...)
}

func (s *ReportStore) GetReport(_ context.Context, openID string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	content, ok := s.reports[openID]
	if !ok {
		return nil, domain.ErrReportNotFound
	}
	return append([]byte(nil), content...), nil
}
