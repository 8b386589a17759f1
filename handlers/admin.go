package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"miniapp-shop-api/services"
)

// ListUsers returns all users to the president, couriers to admins
func (h *Handler) ListUsers(c *gin.Context) {
	users, err := h.Users.List(c.Request.Context(), principal(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

// UpdateUserRole sets a role and, for admins, the shops they manage
func (h *Handler) UpdateUserRole(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		h.respondError(c, err)
		return
	}
	var req roleRequest
	if err := bindJSON(c, &req); err != nil {
		h.respondError(c, err)
		return
	}
	user, err := h.Users.UpdateRole(c.Request.Context(), principal(c), id, req.input())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// AdminGetAllOrders returns all orders with full detail
func (h *Handler) AdminGetAllOrders(c *gin.Context) {
	orders, err := h.Orders.ListAll(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, orders)
}

// AdminUpdateOrder sets status and/or courier. Any status may be forced;
// moves outside the lifecycle are flagged in the order history.
func (h *Handler) AdminUpdateOrder(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		h.respondError(c, err)
		return
	}
	var req adminOrderRequest
	if err := bindJSON(c, &req); err != nil {
		h.respondError(c, err)
		return
	}
	order, err := h.Orders.AdminUpdate(c.Request.Context(), principal(c), id, services.AdminUpdateInput{
		Status:  req.Status,
		Courier: optID(req.CourierID),
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

// GetOrderHistory returns the status audit trail of one order
func (h *Handler) GetOrderHistory(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		h.respondError(c, err)
		return
	}
	rows, err := h.Orders.History(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orderId": id, "history": rows})
}
