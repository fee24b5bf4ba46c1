package service

import (
	"context"
	"time"

	"github.com/betmesh/stakegate/internal/config"
	"github.com/betmesh/stakegate/internal/pkg/logger"
	"github.com/robfig/cron/v3"
)

// Janitor runs the periodic housekeeping: trims history past its
// retention window, rolls daily exposure buckets over, and drops finished
// batch handles from engine memory.
type Janitor struct {
	cron     *cron.Cron
	history  HistoryRepo
	exposure ExposureRepo
	engine   *Engine

	retention time.Duration
}

func NewJanitor(cfg *config.Config, history HistoryRepo, exposure ExposureRepo, engine *Engine) *Janitor {
	return &Janitor{
		cron:      cron.New(cron.WithSeconds()),
		history:   history,
		exposure:  exposure,
		engine:    engine,
		retention: time.Duration(cfg.Database.HistoryRetentionDays) * 24 * time.Hour,
	}
}

func (j *Janitor) Register(cleanupCron, exposureCron string) error {
	if _, err := j.cron.AddFunc(cleanupCron, j.cleanup); err != nil {
		return err
	}
	if _, err := j.cron.AddFunc(exposureCron, j.rollover); err != nil {
		return err
	}
	return nil
}

func (j *Janitor) Start() {
	j.cron.Start()
	logger.Info("janitor started")
}

func (j *Janitor) Stop() {
	j.cron.Stop()
	logger.Info("janitor stopped")
}

func (j *Janitor) cleanup() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := j.history.Cleanup(ctx, j.retention); err != nil {
		logger.Error("history cleanup failed", "error", err)
	}
	if j.engine != nil {
		pruned := j.engine.Prune(time.Hour)
		if pruned > 0 {
			logger.Info("pruned finished batches", "count", pruned)
		}
	}
}

func (j *Janitor) rollover() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := j.exposure.ResetDaily(ctx); err != nil {
		logger.Error("exposure rollover failed", "error", err)
	}
}
