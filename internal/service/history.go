package service

import (
	"context"
	"sync"
	"time"

	"github.com/betmesh/stakegate/internal/model"
	"github.com/google/uuid"
)

// HistoryFilter narrows a history listing. Zero values match everything.
type HistoryFilter struct {
	Platform string
	Status   model.BetStatus
	BatchID  string
	Limit    int
}

// HistoryRepo is the persisted bet log. AddRecord assigns the id and
// creation timestamp; UpdateRecord merges non-nil patch fields. Records in
// a terminal status are never modified again.
type HistoryRepo interface {
	AddRecord(ctx context.Context, rec *model.BetRecord) (string, error)
	UpdateRecord(ctx context.Context, id string, patch model.BetPatch) error
	List(ctx context.Context, filter HistoryFilter) ([]*model.BetRecord, error)
	Cleanup(ctx context.Context, olderThan time.Duration) error
}

// HistoryMemoryStore keeps the bet log in process memory. Used when no
// database DSN is configured.
type HistoryMemoryStore struct {
	mu      sync.RWMutex
	byID    map[string]*model.BetRecord
	ordered []*model.BetRecord // newest first
}

func NewHistoryMemoryStore() *HistoryMemoryStore {
	return &HistoryMemoryStore{
		byID: make(map[string]*model.BetRecord),
	}
}

func (s *HistoryMemoryStore) AddRecord(ctx context.Context, rec *model.BetRecord) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *rec
	cp.ID = uuid.NewString()
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = time.Now().UTC()
	}
	s.byID[cp.ID] = &cp
	s.ordered = append([]*model.BetRecord{&cp}, s.ordered...)
	return cp.ID, nil
}

func (s *HistoryMemoryStore) UpdateRecord(ctx context.Context, id string, patch model.BetPatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.byID[id]
	if !ok {
		return nil
	}
	if rec.Status.Terminal() {
		// Terminal records are immutable; a late update is a stale
		// timer fire and is dropped.
		return nil
	}
	applyPatch(rec, patch)
	return nil
}

func (s *HistoryMemoryStore) List(ctx context.Context, filter HistoryFilter) ([]*model.BetRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	limit := filter.Limit
	if limit <= 0 || limit > 1000 {
		limit = 100
	}
	out := make([]*model.BetRecord, 0, limit)
	for _, rec := range s.ordered {
		if filter.Platform != "" && rec.Platform != filter.Platform {
			continue
		}
		if filter.Status != "" && rec.Status != filter.Status {
			continue
		}
		if filter.BatchID != "" && rec.BatchID != filter.BatchID {
			continue
		}
		cp := *rec
		out = append(out, &cp)
		if len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (s *HistoryMemoryStore) Cleanup(ctx context.Context, olderThan time.Duration) error {
	if olderThan <= 0 {
		return nil
	}
	cutoff := time.Now().UTC().Add(-olderThan)

	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.ordered[:0]
	for _, rec := range s.ordered {
		if rec.CreatedAt.Before(cutoff) {
			delete(s.byID, rec.ID)
			continue
		}
		kept = append(kept, rec)
	}
	s.ordered = kept
	return nil
}

func applyPatch(rec *model.BetRecord, patch model.BetPatch) {
	if patch.Status != nil {
		rec.Status = *patch.Status
	}
	if patch.Payout != nil {
		rec.Payout = patch.Payout
	}
	if patch.Error != nil {
		rec.Error = *patch.Error
	}
	if patch.ErrorScreenshot != nil {
		rec.ErrorScreenshot = *patch.ErrorScreenshot
	}
	if patch.ElapsedMs != nil {
		rec.ElapsedMs = patch.ElapsedMs
	}
	if patch.CompletedAt != nil {
		rec.CompletedAt = patch.CompletedAt
	}
}
