package handler

import (
	"net/http"
	"strconv"

	"github.com/betmesh/stakegate/internal/model"
	"github.com/betmesh/stakegate/internal/service"
	"github.com/gin-gonic/gin"
)

type HistoryHandler struct {
	history service.HistoryRepo
}

func NewHistoryHandler(history service.HistoryRepo) *HistoryHandler {
	return &HistoryHandler{history: history}
}

func (h *HistoryHandler) List(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	filter := service.HistoryFilter{
		Platform: c.Query("platform"),
		Status:   model.BetStatus(c.Query("status")),
		BatchID:  c.Query("batch_id"),
		Limit:    limit,
	}

	records, err := h.history.List(c.Request.Context(), filter)
	if err != nil {
		c.Error(err)
		c.Abort()
		return
	}
	c.JSON(http.StatusOK, gin.H{"records": records})
}
