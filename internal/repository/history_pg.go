package repository

import (
	"context"
	"time"

	"github.com/betmesh/stakegate/internal/model"
	"github.com/betmesh/stakegate/internal/service"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PostgresHistoryRepo persists bet records with gorm. Terminal records are
// never touched again; a stale update silently matches zero rows.
type PostgresHistoryRepo struct {
	db *gorm.DB
}

func NewPostgresHistoryRepo(db *gorm.DB) (*PostgresHistoryRepo, error) {
	if err := db.AutoMigrate(&model.BetRecord{}); err != nil {
		return nil, err
	}
	return &PostgresHistoryRepo{db: db}, nil
}

func (r *PostgresHistoryRepo) AddRecord(ctx context.Context, rec *model.BetRecord) (string, error) {
	cp := *rec
	cp.ID = uuid.NewString()
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = time.Now().UTC()
	}
	if err := r.db.WithContext(ctx).Create(&cp).Error; err != nil {
		return "", err
	}
	return cp.ID, nil
}

func (r *PostgresHistoryRepo) UpdateRecord(ctx context.Context, id string, patch model.BetPatch) error {
	updates := map[string]interface{}{}
	if patch.Status != nil {
		updates["status"] = *patch.Status
	}
	if patch.Payout != nil {
		updates["payout"] = *patch.Payout
	}
	if patch.Error != nil {
		updates["error"] = *patch.Error
	}
	if patch.ErrorScreenshot != nil {
		updates["error_screenshot"] = *patch.ErrorScreenshot
	}
	if patch.ElapsedMs != nil {
		updates["elapsed_ms"] = *patch.ElapsedMs
	}
	if patch.CompletedAt != nil {
		updates["completed_at"] = *patch.CompletedAt
	}
	if len(updates) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Model(&model.BetRecord{}).
		Where("id = ? AND status NOT IN ?", id, []model.BetStatus{model.BetWon, model.BetLost}).
		Updates(updates).Error
}

func (r *PostgresHistoryRepo) List(ctx context.Context, filter service.HistoryFilter) ([]*model.BetRecord, error) {
	limit := filter.Limit
	if limit <= 0 || limit > 1000 {
		limit = 100
	}
	q := r.db.WithContext(ctx).Model(&model.BetRecord{})
	if filter.Platform != "" {
		q = q.Where("platform = ?", filter.Platform)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.BatchID != "" {
		q = q.Where("batch_id = ?", filter.BatchID)
	}
	var records []*model.BetRecord
	err := q.Order("created_at DESC").Limit(limit).Find(&records).Error
	return records, err
}

func (r *PostgresHistoryRepo) Cleanup(ctx context.Context, olderThan time.Duration) error {
	if olderThan <= 0 {
		return nil
	}
	cutoff := time.Now().UTC().Add(-olderThan)
	return r.db.WithContext(ctx).
		Where("created_at < ?", cutoff).
		Delete(&model.BetRecord{}).Error
}
