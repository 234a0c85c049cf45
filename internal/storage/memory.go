package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/oralabs/ora-memory/internal/models"
)

// MemoryStorage keeps everything in process memory. Used for tests and
// single-node deployments where durability is not required.
type MemoryStorage struct {
	mu        sync.RWMutex
	dimension int
	users     map[string]*models.User
	records   map[string][]*models.InteractionRecord
	insights  map[string][]*models.InsightRecord
}

func NewMemoryStorage(dimension int) *MemoryStorage {
	return &MemoryStorage{
		dimension: dimension,
		users:     make(map[string]*models.User),
		records:   make(map[string][]*models.InteractionRecord),
		insights:  make(map[string][]*models.InsightRecord),
	}
}

func (s *MemoryStorage) GetUser(ctx context.Context, userID string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, exists := s.users[userID]
	if !exists {
		return nil, nil
	}
	copied := *user
	return &copied, nil
}

func (s *MemoryStorage) TouchUser(ctx context.Context, userID string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	user, exists := s.users[userID]
	if !exists {
		user = &models.User{
			ID:           userID,
			CreatedAt:    now,
			LastActiveAt: now,
		}
		s.users[userID] = user
	} else if now.After(user.LastActiveAt) {
		user.LastActiveAt = now
	}

	copied := *user
	return &copied, nil
}

func (s *MemoryStorage) UpdateUserProfile(ctx context.Context, userID, name string, preferences map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	user, exists := s.users[userID]
	if !exists {
		user = &models.User{
			ID:           userID,
			CreatedAt:    now,
			LastActiveAt: now,
		}
		s.users[userID] = user
	}

	if name != "" {
		user.Name = name
	}
	if preferences != nil {
		user.Preferences = preferences
	}
	if now.After(user.LastActiveAt) {
		user.LastActiveAt = now
	}
	return nil
}

func (s *MemoryStorage) AppendRecord(ctx context.Context, record *models.InteractionRecord) error {
	if len(record.Embedding) != s.dimension {
		return fmt.Errorf("record %s has dimension %d, store expects %d: %w",
			record.ID, len(record.Embedding), s.dimension, ErrDimensionMismatch)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	copied := *record
	s.records[record.UserID] = append(s.records[record.UserID], &copied)
	return nil
}

func (s *MemoryStorage) ListRecent(ctx context.Context, userID string, limit int) ([]*models.InteractionRecord, error) {
	all, err := s.ListAll(ctx, userID)
	if err != nil {
		return nil, err
	}
	if limit >= 0 && len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

func (s *MemoryStorage) ListAll(ctx context.Context, userID string) ([]*models.InteractionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := make([]*models.InteractionRecord, len(s.records[userID]))
	copy(records, s.records[userID])

	sort.Slice(records, func(i, j int) bool {
		if !records[i].CreatedAt.Equal(records[j].CreatedAt) {
			return records[i].CreatedAt.After(records[j].CreatedAt)
		}
		return records[i].ID > records[j].ID
	})
	return records, nil
}

func (s *MemoryStorage) CountRecords(ctx context.Context, userID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.records[userID]), nil
}

func (s *MemoryStorage) AddInsight(ctx context.Context, insight *models.InsightRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := *insight
	s.insights[insight.UserID] = append(s.insights[insight.UserID], &copied)
	return nil
}

func (s *MemoryStorage) ListInsights(ctx context.Context, userID string, limit int) ([]*models.InsightRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	insights := make([]*models.InsightRecord, len(s.insights[userID]))
	copy(insights, s.insights[userID])

	sort.Slice(insights, func(i, j int) bool {
		if !insights[i].CreatedAt.Equal(insights[j].CreatedAt) {
			return insights[i].CreatedAt.After(insights[j].CreatedAt)
		}
		return insights[i].ID > insights[j].ID
	})
	if limit >= 0 && len(insights) > limit {
		insights = insights[:limit]
	}
	return insights, nil
}

func (s *MemoryStorage) DeleteUserData(ctx context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.users, userID)
	delete(s.records, userID)
	delete(s.insights, userID)
	return nil
}

func (s *MemoryStorage) Close() error {
	// Nothing to close for in-memory storage
	return nil
}
