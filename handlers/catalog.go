package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Catalog mutations are mounted behind RequireAdmin; shop scoping for ADMIN
// callers happens in the catalog service.

func (h *Handler) CreateShop(c *gin.Context) {
	var req shopRequest
	if err := bindJSON(c, &req); err != nil {
		h.respondError(c, err)
		return
	}
	shop, err := h.Catalog.CreateShop(c.Request.Context(), principal(c), req.input())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, shop)
}

// UpdateShop changes only the fields present in the body
func (h *Handler) UpdateShop(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		h.respondError(c, err)
		return
	}
	var req shopRequest
	if err := bindJSON(c, &req); err != nil {
		h.respondError(c, err)
		return
	}
	shop, err := h.Catalog.UpdateShop(c.Request.Context(), principal(c), id, req.input())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, shop)
}

// DeleteShop refuses shops that still hold products or categories
func (h *Handler) DeleteShop(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		h.respondError(c, err)
		return
	}
	if err := h.Catalog.DeleteShop(c.Request.Context(), principal(c), id); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *Handler) CreateCategory(c *gin.Context) {
	var req categoryRequest
	if err := bindJSON(c, &req); err != nil {
		h.respondError(c, err)
		return
	}
	category, err := h.Catalog.CreateCategory(c.Request.Context(), principal(c), req.input())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, category)
}

func (h *Handler) UpdateCategory(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		h.respondError(c, err)
		return
	}
	var req categoryRequest
	if err := bindJSON(c, &req); err != nil {
		h.respondError(c, err)
		return
	}
	category, err := h.Catalog.UpdateCategory(c.Request.Context(), principal(c), id, req.input())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, category)
}

func (h *Handler) DeleteCategory(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		h.respondError(c, err)
		return
	}
	if err := h.Catalog.DeleteCategory(c.Request.Context(), principal(c), id); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *Handler) CreateProduct(c *gin.Context) {
	var req productRequest
	if err := bindJSON(c, &req); err != nil {
		h.respondError(c, err)
		return
	}
	product, err := h.Catalog.CreateProduct(c.Request.Context(), principal(c), req.input())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, product)
}

// UpdateProduct replaces the product; stock is kept when omitted
func (h *Handler) UpdateProduct(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		h.respondError(c, err)
		return
	}
	var req productRequest
	if err := bindJSON(c, &req); err != nil {
		h.respondError(c, err)
		return
	}
	product, err := h.Catalog.UpdateProduct(c.Request.Context(), principal(c), id, req.input())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

func (h *Handler) DeleteProduct(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		h.respondError(c, err)
		return
	}
	if err := h.Catalog.DeleteProduct(c.Request.Context(), principal(c), id); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
