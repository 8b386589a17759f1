package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"miniapp-shop-api/models"
	"miniapp-shop-api/repository"
	"miniapp-shop-api/statemachine"
)

// Health reports liveness
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "message": "Backend is running", "devMode": h.DevMode})
}

// ListShops returns every shop (public)
func (h *Handler) ListShops(c *gin.Context) {
	shops, err := h.Catalog.ListShops(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, shops)
}

// ListCategories supports ?shopId= and ?parentId= filters
func (h *Handler) ListCategories(c *gin.Context) {
	var (
		filter repository.CategoryFilter
		err    error
	)
	if filter.ShopID, err = queryID(c, "shopId"); err != nil {
		h.respondError(c, err)
		return
	}
	if filter.ParentID, err = queryID(c, "parentId"); err != nil {
		h.respondError(c, err)
		return
	}
	categories, err := h.Catalog.ListCategories(c.Request.Context(), filter)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, categories)
}

// ListProducts hides sold-out products unless ?all=true
func (h *Handler) ListProducts(c *gin.Context) {
	filter := repository.ProductFilter{InStockOnly: c.Query("all") != "true"}
	var err error
	if filter.ShopID, err = queryID(c, "shopId"); err != nil {
		h.respondError(c, err)
		return
	}
	if filter.CategoryID, err = queryID(c, "categoryId"); err != nil {
		h.respondError(c, err)
		return
	}
	products, err := h.Catalog.ListProducts(c.Request.Context(), filter)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, products)
}

func (h *Handler) GetProduct(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		h.respondError(c, err)
		return
	}
	product, err := h.Catalog.GetProduct(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

// GetStateMachineInfo returns the full state machine for informational purposes
func (h *Handler) GetStateMachineInfo(c *gin.Context) {
	var terminal []models.OrderStatus
	for _, s := range models.AllOrderStatuses() {
		if statemachine.IsTerminal(s) {
			terminal = append(terminal, s)
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"stateMachine":   statemachine.GetAllTransitions(),
		"terminalStates": terminal,
		"description":    "Order lifecycle: admins may override any step, overrides are recorded in history",
	})
}
