package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"eshop-service/internal/service"
)

// getProfile handles profile reads
func (h *Handler) getProfile(c *gin.Context) {
	user, err := h.userService.GetProfile(c.Request.Context(), principalEmail(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// updateProfile handles profile updates
func (h *Handler) updateProfile(c *gin.Context) {
	var req service.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	user, err := h.userService.UpdateProfile(c.Request.Context(), principalEmail(c), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// changePassword handles self-service password changes
func (h *Handler) changePassword(c *gin.Context) {
	var req service.ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	if err := h.userService.ChangePassword(c.Request.Context(), principalEmail(c), &req); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Password changed successfully"})
}

// getCart handles cart reads
func (h *Handler) getCart(c *gin.Context) {
	cart, err := h.cartService.GetCart(c.Request.Context(), principalEmail(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, cart)
}

// addCartItem handles add-to-cart
func (h *Handler) addCartItem(c *gin.Context) {
	var req service.AddItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	cart, err := h.cartService.AddItem(c.Request.Context(), principalEmail(c), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, cart)
}

// updateCartItem handles cart item quantity changes
func (h *Handler) updateCartItem(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req service.UpdateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	cart, err := h.cartService.UpdateItem(c.Request.Context(), principalEmail(c), id, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, cart)
}

// removeCartItem handles cart item removal
func (h *Handler) removeCartItem(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	cart, err := h.cartService.RemoveItem(c.Request.Context(), principalEmail(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, cart)
}

// clearCart handles emptying the cart
func (h *Handler) clearCart(c *gin.Context) {
	cart, err := h.cartService.ClearCart(c.Request.Context(), principalEmail(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, cart)
}

// getWishlist handles wishlist reads
func (h *Handler) getWishlist(c *gin.Context) {
	wishlist, err := h.wishlistService.GetWishlist(c.Request.Context(), principalEmail(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, wishlist)
}

// toggleWishlistProduct handles wishlist add-or-remove toggling
func (h *Handler) toggleWishlistProduct(c *gin.Context) {
	id, ok := paramID(c, "productId")
	if !ok {
		return
	}
	wishlist, err := h.wishlistService.ToggleProduct(c.Request.Context(), principalEmail(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, wishlist)
}

// removeWishlistProduct handles explicit wishlist removal
func (h *Handler) removeWishlistProduct(c *gin.Context) {
	id, ok := paramID(c, "productId")
	if !ok {
		return
	}
	if err := h.wishlistService.RemoveProduct(c.Request.Context(), principalEmail(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Removed from wishlist"})
}
