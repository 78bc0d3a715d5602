package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/flicky/furniture-store/internal/dto"
	"github.com/flicky/furniture-store/internal/service"
)

type ItemHandler struct {
	catalogService *service.CatalogService
}

func NewItemHandler(catalogService *service.CatalogService) *ItemHandler {
	return &ItemHandler{catalogService: catalogService}
}

func (h *ItemHandler) List(c *gin.Context) {
	var req dto.SearchItemsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resp, err := h.catalogService.Search(req)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *ItemHandler) GetByID(c *gin.Context) {
	id, ok := itemIDParam(c)
	if !ok {
		return
	}

	resp, err := h.catalogService.GetItem(id)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
