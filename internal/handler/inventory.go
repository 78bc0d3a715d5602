package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/flicky/furniture-store/internal/dto"
	"github.com/flicky/furniture-store/internal/service"
)

// InventoryHandler serves the admin-only stock endpoints.
type InventoryHandler struct {
	catalogService *service.CatalogService
}

func NewInventoryHandler(catalogService *service.CatalogService) *InventoryHandler {
	return &InventoryHandler{catalogService: catalogService}
}

func (h *InventoryHandler) List(c *gin.Context) {
	c.JSON(http.StatusOK, h.catalogService.Stock())
}

func (h *InventoryHandler) AddStock(c *gin.Context) {
	id, ok := itemIDParam(c)
	if !ok {
		return
	}
	var req dto.StockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.catalogService.AddStock(id, *req.Quantity); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, h.catalogService.Stock())
}

func (h *InventoryHandler) SetQuantity(c *gin.Context) {
	id, ok := itemIDParam(c)
	if !ok {
		return
	}
	var req dto.StockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.catalogService.SetQuantity(id, *req.Quantity); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, h.catalogService.Stock())
}

func (h *InventoryHandler) Remove(c *gin.Context) {
	id, ok := itemIDParam(c)
	if !ok {
		return
	}

	if err := h.catalogService.RemoveItem(id); err != nil {
		writeError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
