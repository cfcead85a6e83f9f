package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"eshop-service/internal/models"
)

// createOrder handles order placement from the caller's cart
func (h *Handler) createOrder(c *gin.Context) {
	var address models.Address
	if err := c.ShouldBindJSON(&address); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	paymentMethod := c.Query("paymentMethod")
	resp, err := h.orderService.CreateOrder(c.Request.Context(), principalEmail(c), &address, paymentMethod)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// listUserOrders handles the caller's order history
func (h *Handler) listUserOrders(c *gin.Context) {
	orders, err := h.orderService.ListUserOrders(c.Request.Context(), principalEmail(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, orders)
}

// getOrder handles single order reads
func (h *Handler) getOrder(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	order, err := h.orderService.GetOrder(c.Request.Context(), principalEmail(c), principalRole(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

// cancelOrder handles shopper-initiated cancellation
func (h *Handler) cancelOrder(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	order, err := h.orderService.CancelOrder(c.Request.Context(), principalEmail(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

// listOrders handles administrative order listing, optionally by status
func (h *Handler) listOrders(c *gin.Context) {
	orders, err := h.orderService.ListOrders(c.Request.Context(), c.Query("status"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, orders)
}

// updateOrderStatus handles administrative status transitions
func (h *Handler) updateOrderStatus(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	order, err := h.orderService.UpdateOrderStatus(c.Request.Context(), id, req.Status)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

// proceedPayment handles the provider callback verification
func (h *Handler) proceedPayment(c *gin.Context) {
	paymentID := c.Param("paymentId")
	linkID := c.Query("paymentLinkId")
	if paymentID == "" || linkID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "paymentId and paymentLinkId are required"})
		return
	}

	captured, err := h.paymentService.ProceedPayment(c.Request.Context(), paymentID, linkID)
	if err != nil {
		respondError(c, err)
		return
	}
	if !captured {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Payment not captured", "captured": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Payment successful", "captured": true})
}

// listUserTransactions handles the caller's transaction history
func (h *Handler) listUserTransactions(c *gin.Context) {
	txs, err := h.paymentService.ListUserTransactions(c.Request.Context(), principalEmail(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, txs)
}

// listTransactions handles administrative transaction listing
func (h *Handler) listTransactions(c *gin.Context) {
	txs, err := h.paymentService.ListTransactions(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, txs)
}
