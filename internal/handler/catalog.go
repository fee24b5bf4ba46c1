package handler

import (
	"net/http"

	"github.com/betmesh/stakegate/internal/service"
	"github.com/gin-gonic/gin"
)

type CatalogHandler struct {
	registry *service.Registry
}

func NewCatalogHandler(registry *service.Registry) *CatalogHandler {
	return &CatalogHandler{registry: registry}
}

func (h *CatalogHandler) Platforms(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"platforms": h.registry.Platforms()})
}

func (h *CatalogHandler) Accounts(c *gin.Context) {
	platform := c.Param("key")
	if c.Query("eligible") == "true" {
		c.JSON(http.StatusOK, gin.H{
			"accounts": h.registry.EligibleAccounts(c.Request.Context(), platform, c.Query("tag")),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"accounts": h.registry.Accounts(platform)})
}

func (h *CatalogHandler) Matches(c *gin.Context) {
	platform := c.Query("platform")
	if platform != "" {
		c.JSON(http.StatusOK, gin.H{"matches": h.registry.Matches(platform)})
		return
	}
	all := make([]interface{}, 0)
	for _, p := range h.registry.Platforms() {
		for _, m := range h.registry.Matches(p) {
			all = append(all, m)
		}
	}
	c.JSON(http.StatusOK, gin.H{"matches": all})
}
