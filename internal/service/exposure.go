package service

import (
	"context"
	"sync"
	"time"
)

// ExposureRepo tracks per-account staked volume for the current day. The
// registry uses it to shave an account's usable cap when a daily exposure
// limit is configured.
type ExposureRepo interface {
	GetDailyStake(ctx context.Context, accountID string) (float64, error)
	AddDailyStake(ctx context.Context, accountID string, amount float64) error
	ResetDaily(ctx context.Context) error
}

// ExposureMemoryStore is the in-process fallback when Redis is not
// configured.
type ExposureMemoryStore struct {
	mu     sync.RWMutex
	staked map[string]float64 // Key: AccountID:YYYY-MM-DD
}

func NewExposureMemoryStore() *ExposureMemoryStore {
	return &ExposureMemoryStore{
		staked: make(map[string]float64),
	}
}

func (s *ExposureMemoryStore) GetDailyStake(ctx context.Context, accountID string) (float64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.staked[s.makeKey(accountID)], nil
}

func (s *ExposureMemoryStore) AddDailyStake(ctx context.Context, accountID string, amount float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.staked[s.makeKey(accountID)] += amount
	return nil
}

// ResetDaily drops stale day buckets. Today's bucket survives so a reset
// mid-day is harmless.
func (s *ExposureMemoryStore) ResetDaily(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	today := ":" + time.Now().UTC().Format("2006-01-02")
	for key := range s.staked {
		if len(key) < len(today) || key[len(key)-len(today):] != today {
			delete(s.staked, key)
		}
	}
	return nil
}

func (s *ExposureMemoryStore) makeKey(accountID string) string {
	return accountID + ":" + time.Now().UTC().Format("2006-01-02")
}
