package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// PlaceOrder creates a new order for the caller
func (h *Handler) PlaceOrder(c *gin.Context) {
	var req orderRequest
	if err := bindJSON(c, &req); err != nil {
		h.respondError(c, err)
		return
	}
	order, err := h.Orders.PlaceOrder(c.Request.Context(), principal(c), req.input())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, order)
}

// GetMyOrders returns the caller's orders, newest first
func (h *Handler) GetMyOrders(c *gin.Context) {
	orders, err := h.Orders.ListMine(c.Request.Context(), principal(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, orders)
}

// GetOrderDetail returns one order to its buyer or to staff
func (h *Handler) GetOrderDetail(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		h.respondError(c, err)
		return
	}
	order, err := h.Orders.Get(c.Request.Context(), principal(c), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

// CreateInvoice returns a Telegram Stars payment link for a pending order
func (h *Handler) CreateInvoice(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		h.respondError(c, err)
		return
	}
	link, err := h.Orders.CreateInvoice(c.Request.Context(), principal(c), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"invoiceLink": link})
}

// ConfirmPayment records a client-reported payment. It is not verified
// against Telegram.
func (h *Handler) ConfirmPayment(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		h.respondError(c, err)
		return
	}
	order, err := h.Orders.ConfirmUnverifiedPayment(c.Request.Context(), principal(c), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}
