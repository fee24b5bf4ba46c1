package handler

import (
	"net/http"

	"github.com/betmesh/stakegate/internal/model"
	"github.com/betmesh/stakegate/internal/pkg/apperrors"
	"github.com/betmesh/stakegate/internal/service"
	"github.com/gin-gonic/gin"
)

type BetHandler struct {
	registry     *service.Registry
	distributor  *service.Distributor
	engine       *service.Engine
	quickAmounts []float64
}

func NewBetHandler(registry *service.Registry, distributor *service.Distributor, engine *service.Engine, quickAmounts []float64) *BetHandler {
	return &BetHandler{
		registry:     registry,
		distributor:  distributor,
		engine:       engine,
		quickAmounts: quickAmounts,
	}
}

func (h *BetHandler) QuickAmounts(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"quick_amounts": h.quickAmounts})
}

// Distribute splits a total stake across the requested accounts. Validation
// failures produce no side effects; a total above the aggregate caps is a
// normal partial result, not an error.
func (h *BetHandler) Distribute(c *gin.Context) {
	var req model.DistributeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	total := req.Total
	mode := req.Mode
	if req.Preset != nil {
		if *req.Preset < 0 || *req.Preset >= len(h.quickAmounts) {
			c.Error(apperrors.NewInvalidRequest("preset index out of range"))
			c.Abort()
			return
		}
		total = h.quickAmounts[*req.Preset]
		// Quick-distribute always uses the noisy mode so the spread
		// does not look machine-placed.
		mode = service.ModeNoisy
	}

	caps, err := h.registry.CapsFor(c.Request.Context(), req.Platform, req.AccountIDs)
	if err != nil {
		c.Error(err)
		c.Abort()
		return
	}

	result, err := h.distributor.Distribute(total, caps, mode)
	if err != nil {
		c.Error(err)
		c.Abort()
		return
	}

	c.JSON(http.StatusOK, result)
}

// Submit places a bet batch: pending history records are written before
// this returns, then the simulated lifecycle runs on its own timers.
func (h *BetHandler) Submit(c *gin.Context) {
	var req model.SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	match, ok := h.registry.Match(req.MatchID)
	if !ok || match.Platform != req.Platform {
		c.Error(apperrors.NewNotFound("unknown match " + req.MatchID))
		c.Abort()
		return
	}
	odds := req.Odds
	if odds == "" {
		odds = match.OddsFor(req.Market)
	}
	if odds == "" {
		c.Error(apperrors.NewInvalidRequest("no odds for market " + req.Market))
		c.Abort()
		return
	}

	selections := make([]service.BetSelection, 0, len(req.Selections))
	for _, sel := range req.Selections {
		account, ok := h.registry.Account(req.Platform, sel.AccountID)
		if !ok {
			c.Error(apperrors.NewNotFound("unknown account " + sel.AccountID))
			c.Abort()
			return
		}
		if !account.Eligible() {
			c.Error(apperrors.NewInvalidRequest("account " + sel.AccountID + " is not eligible"))
			c.Abort()
			return
		}
		if sel.Amount > account.MaxBet()+service.Tolerance {
			c.Error(apperrors.NewInvalidRequest("amount exceeds max bet for account " + sel.AccountID))
			c.Abort()
			return
		}
		selections = append(selections, service.BetSelection{
			Account: account,
			Match:   match,
			Market:  req.Market,
			Odds:    odds,
			Amount:  sel.Amount,
		})
	}

	batch, err := h.engine.Submit(c.Request.Context(), selections)
	if err != nil {
		c.Error(err)
		c.Abort()
		return
	}

	snap := batch.Snapshot()
	c.JSON(http.StatusCreated, gin.H{
		"batch_id": batch.ID,
		"records":  snap.Records,
	})
}

func (h *BetHandler) GetBatch(c *gin.Context) {
	batch, ok := h.engine.Batch(c.Param("id"))
	if !ok {
		c.Error(apperrors.NewNotFound("unknown batch"))
		c.Abort()
		return
	}
	c.JSON(http.StatusOK, batch.Snapshot())
}

// CancelBatch tears the batch down: every pending transition is dropped
// and no record mutates afterwards. Safe to call twice.
func (h *BetHandler) CancelBatch(c *gin.Context) {
	batch, ok := h.engine.Batch(c.Param("id"))
	if !ok {
		c.Error(apperrors.NewNotFound("unknown batch"))
		c.Abort()
		return
	}
	batch.Cancel()
	c.JSON(http.StatusOK, batch.Snapshot())
}
