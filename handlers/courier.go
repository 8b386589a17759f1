package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"miniapp-shop-api/models"
)

// GetCourierOrders lists open orders: a courier's own, or all for staff
func (h *Handler) GetCourierOrders(c *gin.Context) {
	orders, err := h.Orders.CourierOrders(c.Request.Context(), principal(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, orders)
}

// CourierUpdateStatus moves an order forward along the courier path
func (h *Handler) CourierUpdateStatus(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		h.respondError(c, err)
		return
	}
	var req struct {
		Status models.OrderStatus `json:"status"`
	}
	if err := bindJSON(c, &req); err != nil {
		h.respondError(c, err)
		return
	}
	order, err := h.Orders.CourierUpdateStatus(c.Request.Context(), principal(c), id, req.Status)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}
