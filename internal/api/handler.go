package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"eshop-service/internal/auth"
	"eshop-service/internal/errs"
	"eshop-service/internal/models"
	"eshop-service/internal/service"
)

// Handler contains HTTP handlers
type Handler struct {
	authService      *service.AuthService
	userService      *service.UserService
	catalogService   *service.CatalogService
	cartService      *service.CartService
	orderService     *service.OrderService
	paymentService   *service.PaymentService
	wishlistService  *service.WishlistService
	adminService     *service.AdminService
	dashboardService *service.DashboardService

	tokens         *auth.TokenCodec
	allowedOrigins []string
	imageDir       string
}

// HandlerConfig wires the handler's collaborators
type HandlerConfig struct {
	AuthService      *service.AuthService
	UserService      *service.UserService
	CatalogService   *service.CatalogService
	CartService      *service.CartService
	OrderService     *service.OrderService
	PaymentService   *service.PaymentService
	WishlistService  *service.WishlistService
	AdminService     *service.AdminService
	DashboardService *service.DashboardService

	Tokens         *auth.TokenCodec
	AllowedOrigins []string
	ImageDir       string
}

// NewHandler creates a new HTTP handler
func NewHandler(cfg HandlerConfig) *Handler {
	return &Handler{
		authService:      cfg.AuthService,
		userService:      cfg.UserService,
		catalogService:   cfg.CatalogService,
		cartService:      cfg.CartService,
		orderService:     cfg.OrderService,
		paymentService:   cfg.PaymentService,
		wishlistService:  cfg.WishlistService,
		adminService:     cfg.AdminService,
		dashboardService: cfg.DashboardService,
		tokens:           cfg.Tokens,
		allowedOrigins:   cfg.AllowedOrigins,
		imageDir:         cfg.ImageDir,
	}
}

// SetupRoutes sets up HTTP routes
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.Use(gin.Recovery())
	router.Use(gin.Logger())
	router.Use(prometheusMiddleware())
	router.Use(corsMiddleware(h.allowedOrigins))
	router.Use(authMiddleware(h.tokens))

	router.GET("/health", h.healthCheck)
	router.GET("/ready", h.readinessCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	router.Static("/images", h.imageDir)

	authGroup := router.Group("/api/auth")
	{
		authGroup.POST("/register/send-otp", h.sendRegisterOtp)
		authGroup.POST("/register", h.register)
		authGroup.POST("/login", h.login)
		authGroup.POST("/forgot-password/send-otp", h.sendForgotPasswordOtp)
		authGroup.POST("/forgot-password/reset", h.resetPassword)
	}

	products := router.Group("/api/products")
	{
		products.GET("", h.listProducts)
		products.GET("/categories", h.listCategories)
		products.GET("/search", h.searchProducts)
		products.GET("/:id", h.getProduct)
	}

	user := router.Group("/api/user")
	{
		user.GET("/profile", h.getProfile)
		user.PUT("/profile", h.updateProfile)
		user.PUT("/change-password", h.changePassword)

		user.GET("/cart", h.getCart)
		user.POST("/cart/add", h.addCartItem)
		user.PUT("/cart/item/:id", h.updateCartItem)
		user.DELETE("/cart/item/:id", h.removeCartItem)
		user.DELETE("/cart/clear", h.clearCart)

		user.GET("/wishlist", h.getWishlist)
		user.POST("/wishlist/add/:productId", h.toggleWishlistProduct)
		user.DELETE("/wishlist/:productId", h.removeWishlistProduct)
	}

	orders := router.Group("/api/orders")
	{
		orders.POST("", h.createOrder)
		orders.GET("/user", h.listUserOrders)
		orders.GET("/:id", h.getOrder)
		orders.PUT("/:id/cancel", h.cancelOrder)
	}

	router.GET("/api/payment/:paymentId", h.proceedPayment)
	router.GET("/api/transactions", requireRole(models.RoleShopper), h.listUserTransactions)

	admin := router.Group("/api/admin", requireRole(models.RoleAdmin, models.RoleSuperAdmin))
	{
		admin.GET("/dashboard/stats", h.dashboardStats)
		admin.GET("/dashboard/order-status", h.orderStatusSummary)

		admin.POST("/products", h.createProduct)
		admin.PUT("/products/:id", h.updateProduct)
		admin.PATCH("/products/:id/stock", h.updateProductStock)
		admin.DELETE("/products/:id", h.deleteProduct)

		admin.POST("/categories", h.createCategory)
		admin.PUT("/categories/:id", h.updateCategory)
		admin.DELETE("/categories/:id", h.deleteCategory)

		admin.GET("/orders", h.listOrders)
		admin.PUT("/orders/:id/status", h.updateOrderStatus)

		admin.GET("/users", h.listUsers)
		admin.DELETE("/users/:id", h.deleteUser)

		admin.GET("/transactions", h.listTransactions)
	}

	superAdmin := router.Group("/api/super-admin", requireRole(models.RoleSuperAdmin))
	{
		superAdmin.GET("/admins", h.listAdmins)
		superAdmin.POST("/admins", h.createAdmin)
		superAdmin.PUT("/admins/:id", h.updateAdmin)
		superAdmin.DELETE("/admins/:id", h.deleteAdmin)
	}
}

// healthCheck handles health check requests
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

// readinessCheck handles readiness check requests
func (h *Handler) readinessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"time":   time.Now().Unix(),
	})
}

// respondError maps an error kind to its HTTP status.
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	message := "Internal server error"

	switch errs.KindOf(err) {
	case errs.KindValidation:
		status = http.StatusBadRequest
		message = errs.MessageOf(err)
	case errs.KindUnauthorized:
		status = http.StatusUnauthorized
		message = "Invalid credentials"
	case errs.KindForbidden:
		status = http.StatusForbidden
		message = "Access denied"
	case errs.KindNotFound:
		status = http.StatusNotFound
		message = errs.MessageOf(err)
	case errs.KindConflict:
		status = http.StatusConflict
		message = errs.MessageOf(err)
	case errs.KindProviderUnavailable:
		status = http.StatusBadGateway
		message = "Payment provider unavailable"
	}

	body := gin.H{"error": message}
	if code := errs.CodeOf(err); code != "" {
		body["code"] = code
	}
	c.JSON(status, body)
}
