package service

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/betmesh/stakegate/internal/config"
	"github.com/betmesh/stakegate/internal/model"
	"github.com/betmesh/stakegate/internal/pkg/apperrors"
	"github.com/betmesh/stakegate/internal/pkg/logger"
	"github.com/betmesh/stakegate/internal/pkg/metrics"
	"github.com/google/uuid"
)

// BetState is the engine-internal lifecycle state of one tracked bet.
type BetState string

const (
	StateSent      BetState = "sent"
	StateAcked     BetState = "acked"
	StateSucceeded BetState = "succeeded"
	StateFailed    BetState = "failed"
)

func (s BetState) Terminal() bool {
	return s == StateSucceeded || s == StateFailed
}

func (s BetState) toStatus() model.BetStatus {
	switch s {
	case StateAcked:
		return model.BetAcked
	case StateSucceeded:
		return model.BetWon
	case StateFailed:
		return model.BetLost
	default:
		return model.BetPending
	}
}

var failureReasons = []string{
	"Insufficient funds",
	"Bet limit exceeded",
	"Connection timeout",
	"Invalid bet amount",
	"Account temporarily unavailable",
	"Network error",
}

// Publisher receives record mutations and batch events as they happen so
// connected dashboards can re-render. Implementations must not block.
type Publisher interface {
	PublishBet(rec model.BetRecord)
	PublishBatchEvent(event, batchID string)
}

// BetSelection is one (account, amount) pair handed to Submit together
// with the match context it bets on.
type BetSelection struct {
	Account model.Account
	Match   model.Match
	Market  string
	Odds    string
	Amount  float64
}

// Engine drives submitted bet batches through the simulated lifecycle
// sent → acked → succeeded|failed using staggered, cancellable timers.
// All scheduling goes through the injected clock so tests can run the
// whole lifecycle on a mock clock.
type Engine struct {
	cfg      config.EngineConfig
	history  HistoryRepo
	exposure ExposureRepo
	pub      Publisher
	clock    clock.Clock

	mu      sync.RWMutex
	rng     *rand.Rand
	batches map[string]*Batch
}

func NewEngine(cfg config.EngineConfig, history HistoryRepo, exposure ExposureRepo, pub Publisher, clk clock.Clock) *Engine {
	if clk == nil {
		clk = clock.New()
	}
	if cfg.SuccessRate <= 0 || cfg.SuccessRate > 1 {
		cfg.SuccessRate = 0.8
	}
	if cfg.AckBaseMs <= 0 {
		cfg.AckBaseMs = 500
	}
	if cfg.AckStepMs <= 0 {
		cfg.AckStepMs = 200
	}
	if cfg.AckSettleMs <= 0 {
		cfg.AckSettleMs = 1000
	}
	if cfg.ResolveMinMs <= 0 {
		cfg.ResolveMinMs = 1000
	}
	if cfg.ResolveMaxMs <= cfg.ResolveMinMs {
		cfg.ResolveMaxMs = cfg.ResolveMinMs + 2000
	}
	if cfg.AutoDismissMs <= 0 {
		cfg.AutoDismissMs = 3000
	}
	if cfg.TickMs <= 0 {
		cfg.TickMs = 100
	}
	return &Engine{
		cfg:      cfg,
		history:  history,
		exposure: exposure,
		pub:      pub,
		clock:    clk,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
		batches:  make(map[string]*Batch),
	}
}

// Submit creates pending history records for every selection with a
// positive amount and starts the staggered lifecycle. The returned batch
// is the caller-owned handle; Cancel stops every pending transition.
func (e *Engine) Submit(ctx context.Context, selections []BetSelection) (*Batch, error) {
	live := make([]BetSelection, 0, len(selections))
	for _, sel := range selections {
		if sel.Amount > 0 {
			live = append(live, sel)
		}
	}
	if len(live) == 0 {
		return nil, apperrors.NewInvalidRequest("no selections with a positive amount")
	}

	e.mu.Lock()
	seed := e.rng.Int63()
	e.mu.Unlock()

	b := &Batch{
		ID:        uuid.NewString(),
		engine:    e,
		rng:       rand.New(rand.NewSource(seed)),
		createdAt: e.clock.Now(),
		stopTick:  make(chan struct{}),
		done:      make(chan struct{}),
	}

	t0 := e.clock.Now()
	for _, sel := range live {
		rec := &model.BetRecord{
			BatchID:     b.ID,
			AccountID:   sel.Account.ID,
			AccountName: sel.Account.Name,
			Platform:    sel.Account.Platform,
			League:      sel.Match.League,
			HomeTeam:    sel.Match.HomeTeam,
			AwayTeam:    sel.Match.AwayTeam,
			Market:      sel.Market,
			Odds:        sel.Odds,
			Amount:      sel.Amount,
			Status:      model.BetPending,
		}
		id, err := e.history.AddRecord(ctx, rec)
		if err != nil {
			// Records already written for this batch must not stay
			// pending with no timers behind them.
			e.voidRecords(ctx, b.bets)
			return nil, apperrors.Wrap(err)
		}
		b.bets = append(b.bets, &trackedBet{
			historyID: id,
			sel:       sel,
			state:     StateSent,
			startAt:   t0,
		})
	}
	if e.exposure != nil {
		for _, tb := range b.bets {
			if err := e.exposure.AddDailyStake(ctx, tb.sel.Account.ID, tb.sel.Amount); err != nil {
				logger.Warn("failed to record exposure", "account", tb.sel.Account.ID, "error", err)
			}
		}
	}

	// Phase 1: staggered acknowledgement, strictly in submission order.
	for i, tb := range b.bets {
		tb := tb
		delay := time.Duration(e.cfg.AckBaseMs+i*e.cfg.AckStepMs) * time.Millisecond
		b.timers = append(b.timers, e.clock.AfterFunc(delay, func() { b.ack(tb) }))
	}

	// Phase 2 is armed once, after the whole ack window has passed.
	window := time.Duration(e.cfg.AckBaseMs+len(b.bets)*e.cfg.AckStepMs+e.cfg.AckSettleMs) * time.Millisecond
	b.timers = append(b.timers, e.clock.AfterFunc(window, b.beginResolution))

	go b.runTicker(time.Duration(e.cfg.TickMs) * time.Millisecond)

	e.mu.Lock()
	e.batches[b.ID] = b
	e.mu.Unlock()

	logger.Info("bet batch submitted", "batch_id", b.ID, "bets", len(b.bets))
	return b, nil
}

// voidRecords closes out the records of an aborted submission. The bets
// were never placed, so each record goes straight to lost.
func (e *Engine) voidRecords(ctx context.Context, bets []*trackedBet) {
	status := model.BetLost
	reason := "Submission aborted"
	now := e.clock.Now()
	var elapsed int64
	for _, tb := range bets {
		err := e.history.UpdateRecord(ctx, tb.historyID, model.BetPatch{
			Status:      &status,
			Error:       &reason,
			ElapsedMs:   &elapsed,
			CompletedAt: &now,
		})
		if err != nil {
			logger.Error("failed to void record", "record_id", tb.historyID, "error", err)
		}
	}
}

// Batch returns a previously submitted batch handle, if still known.
func (e *Engine) Batch(id string) (*Batch, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	b, ok := e.batches[id]
	return b, ok
}

// Prune drops finished batch handles older than maxAge. History records
// are unaffected; only the in-memory handles go away.
func (e *Engine) Prune(maxAge time.Duration) int {
	cutoff := e.clock.Now().Add(-maxAge)
	e.mu.Lock()
	defer e.mu.Unlock()
	pruned := 0
	for id, b := range e.batches {
		b.mu.Lock()
		finished := b.cancelled || b.settled == len(b.bets)
		created := b.createdAt
		b.mu.Unlock()
		if finished && created.Before(cutoff) {
			delete(e.batches, id)
			pruned++
		}
	}
	return pruned
}

// trackedBet is the engine's mutable view of one bet. History records only
// see the reconciled snapshots.
type trackedBet struct {
	historyID string
	sel       BetSelection
	state     BetState
	startAt   time.Time
	elapsedMs int64
	payout    float64
	errText   string
	artifact  string
	doneAt    time.Time
}

// Batch is the disposable handle for one submission. All timers belonging
// to it are tracked together and die together on Cancel.
type Batch struct {
	ID        string
	engine    *Engine
	createdAt time.Time

	mu        sync.Mutex
	rng       *rand.Rand
	bets      []*trackedBet
	timers    []*clock.Timer
	settled   int
	failures  int
	cancelled bool
	dismissed bool

	stopTick chan struct{}
	tickOnce sync.Once
	doneOnce sync.Once
	done     chan struct{}
}

// Done is closed once every bet in the batch reached a terminal state.
// It never closes for a cancelled batch.
func (b *Batch) Done() <-chan struct{} {
	return b.done
}

// Cancel stops every pending transition of the batch. Idempotent; any
// timer that already fired but has not taken the batch lock yet will see
// the flag and leave all records untouched.
func (b *Batch) Cancel() {
	b.mu.Lock()
	if b.cancelled {
		b.mu.Unlock()
		return
	}
	b.cancelled = true
	timers := b.timers
	b.timers = nil
	b.mu.Unlock()

	for _, t := range timers {
		t.Stop()
	}
	b.stopTicker()
	logger.Info("bet batch cancelled", "batch_id", b.ID)
	b.engine.publishBatchEvent("batch_cancelled", b.ID)
}

// Snapshot materializes the current state of every bet in the batch.
func (b *Batch) Snapshot() model.BatchSnapshot {
	b.mu.Lock()
	defer b.mu.Unlock()

	snap := model.BatchSnapshot{
		BatchID: b.ID,
		Records: make([]model.BetRecord, 0, len(b.bets)),
	}
	allWon := true
	for _, tb := range b.bets {
		snap.Records = append(snap.Records, b.recordLocked(tb))
		if tb.state != StateSucceeded {
			allWon = false
		}
	}
	snap.AllSettled = b.settled == len(b.bets)
	snap.AllWon = snap.AllSettled && allWon
	switch {
	case b.cancelled:
		snap.State = "cancelled"
	case b.dismissed:
		snap.State = "closed"
	case snap.AllSettled:
		snap.State = "settled"
	default:
		snap.State = "running"
	}
	return snap
}

func (b *Batch) ack(tb *trackedBet) {
	b.mu.Lock()
	if b.cancelled || tb.state != StateSent {
		b.mu.Unlock()
		return
	}
	tb.state = StateAcked
	rec := b.recordLocked(tb)
	b.mu.Unlock()

	status := model.BetAcked
	if err := b.engine.history.UpdateRecord(context.Background(), tb.historyID, model.BetPatch{Status: &status}); err != nil {
		logger.Warn("failed to update history record", "record_id", tb.historyID, "status", status, "error", err)
	}
	b.engine.publishBet(rec)
}

// beginResolution fires once at the end of the ack window and arms an
// independent random resolution timer for every acked bet. Resolution
// order across the batch is not deterministic.
func (b *Batch) beginResolution() {
	b.mu.Lock()
	if b.cancelled {
		b.mu.Unlock()
		return
	}
	spread := b.engine.cfg.ResolveMaxMs - b.engine.cfg.ResolveMinMs
	for _, tb := range b.bets {
		if tb.state != StateAcked {
			continue
		}
		tb := tb
		delay := time.Duration(b.engine.cfg.ResolveMinMs+b.rng.Intn(spread)) * time.Millisecond
		b.timers = append(b.timers, b.engine.clock.AfterFunc(delay, func() { b.resolve(tb) }))
	}
	b.mu.Unlock()
}

func (b *Batch) resolve(tb *trackedBet) {
	b.mu.Lock()
	if b.cancelled || tb.state != StateAcked {
		b.mu.Unlock()
		return
	}

	now := b.engine.clock.Now()
	tb.doneAt = now
	tb.elapsedMs = now.Sub(tb.startAt).Milliseconds()

	if b.rng.Float64() < b.engine.cfg.SuccessRate {
		tb.state = StateSucceeded
		payout, err := Payout(tb.sel.Odds, tb.sel.Amount)
		if err != nil {
			// Malformed odds still settle; the stake just comes back.
			logger.Warn("unparseable odds on winning bet", "odds", tb.sel.Odds, "error", err)
			payout = tb.sel.Amount
		}
		tb.payout = payout
	} else {
		tb.state = StateFailed
		tb.errText = failureReasons[b.rng.Intn(len(failureReasons))]
		tb.artifact = renderErrorArtifact(tb.sel, tb.errText, now)
		b.failures++
	}
	b.settled++
	allSettled := b.settled == len(b.bets)
	failures := b.failures
	rec := b.recordLocked(tb)
	b.mu.Unlock()

	b.finishRecord(tb, rec)

	if allSettled {
		b.stopTicker()
		b.engine.publishBatchEvent("batch_settled", b.ID)
		outcome := "clean"
		if failures > 0 {
			outcome = "with_failures"
		}
		metrics.BatchesTotal.WithLabelValues(outcome).Inc()
		if failures == 0 {
			// Only a fully successful batch dismisses itself; any
			// failure keeps the result visible until the user closes it.
			dismiss := time.Duration(b.engine.cfg.AutoDismissMs) * time.Millisecond
			b.mu.Lock()
			if !b.cancelled {
				b.timers = append(b.timers, b.engine.clock.AfterFunc(dismiss, b.autoDismiss))
			}
			b.mu.Unlock()
		}
		b.doneOnce.Do(func() { close(b.done) })
	}
}

func (b *Batch) finishRecord(tb *trackedBet, rec model.BetRecord) {
	status := tb.state.toStatus()
	patch := model.BetPatch{
		Status:      &status,
		ElapsedMs:   &tb.elapsedMs,
		CompletedAt: &tb.doneAt,
	}
	if tb.state == StateSucceeded {
		patch.Payout = &tb.payout
	} else {
		patch.Error = &tb.errText
		patch.ErrorScreenshot = &tb.artifact
	}
	if err := b.engine.history.UpdateRecord(context.Background(), tb.historyID, patch); err != nil {
		logger.Warn("failed to update history record", "record_id", tb.historyID, "status", status, "error", err)
	}

	logger.Debug("bet resolved",
		"batch_id", b.ID,
		"record_id", tb.historyID,
		"account", tb.sel.Account.ID,
		"status", status,
		"elapsed_ms", tb.elapsedMs,
	)
	metrics.BetsTotal.WithLabelValues(string(status), tb.sel.Account.Platform).Inc()
	metrics.ResolutionSeconds.Observe(float64(tb.elapsedMs) / 1000.0)
	b.engine.publishBet(rec)
}

func (b *Batch) autoDismiss() {
	b.mu.Lock()
	if b.cancelled || b.dismissed {
		b.mu.Unlock()
		return
	}
	b.dismissed = true
	b.mu.Unlock()
	b.engine.publishBatchEvent("batch_closed", b.ID)
}

// runTicker refreshes the display-only elapsed counters while any bet is
// still in flight. It never changes a state.
func (b *Batch) runTicker(interval time.Duration) {
	t := b.engine.clock.Ticker(interval)
	defer t.Stop()
	for {
		select {
		case <-b.stopTick:
			return
		case now := <-t.C:
			b.mu.Lock()
			for _, tb := range b.bets {
				if !tb.state.Terminal() {
					tb.elapsedMs = now.Sub(tb.startAt).Milliseconds()
				}
			}
			b.mu.Unlock()
		}
	}
}

func (b *Batch) stopTicker() {
	b.tickOnce.Do(func() { close(b.stopTick) })
}

// recordLocked builds the externally visible record for a tracked bet.
// Caller holds b.mu.
func (b *Batch) recordLocked(tb *trackedBet) model.BetRecord {
	rec := model.BetRecord{
		ID:          tb.historyID,
		BatchID:     b.ID,
		AccountID:   tb.sel.Account.ID,
		AccountName: tb.sel.Account.Name,
		Platform:    tb.sel.Account.Platform,
		League:      tb.sel.Match.League,
		HomeTeam:    tb.sel.Match.HomeTeam,
		AwayTeam:    tb.sel.Match.AwayTeam,
		Market:      tb.sel.Market,
		Odds:        tb.sel.Odds,
		Amount:      tb.sel.Amount,
		Status:      tb.state.toStatus(),
		CreatedAt:   tb.startAt,
	}
	if tb.state.Terminal() {
		elapsed := tb.elapsedMs
		done := tb.doneAt
		rec.ElapsedMs = &elapsed
		rec.CompletedAt = &done
		if tb.state == StateSucceeded {
			payout := tb.payout
			rec.Payout = &payout
		} else {
			rec.Error = tb.errText
			rec.ErrorScreenshot = tb.artifact
		}
	} else if tb.elapsedMs > 0 {
		elapsed := tb.elapsedMs
		rec.ElapsedMs = &elapsed
	}
	return rec
}

func (e *Engine) publishBet(rec model.BetRecord) {
	if e.pub != nil {
		e.pub.PublishBet(rec)
	}
}

func (e *Engine) publishBatchEvent(event, batchID string) {
	if e.pub != nil {
		e.pub.PublishBatchEvent(event, batchID)
	}
}
