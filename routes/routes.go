package routes

import (
	"github.com/gin-gonic/gin"

	"miniapp-shop-api/handlers"
	"miniapp-shop-api/middleware"
)

// Options carries the middleware the route table needs besides handlers.
type Options struct {
	Auth *middleware.Authenticator
	// AuthLimiter throttles POST /api/auth; nil disables it.
	AuthLimiter *middleware.IPRateLimiter
	// UploadDir is served under /uploads when uploads are stored locally.
	UploadDir string
}

func SetupRoutes(r *gin.Engine, h *handlers.Handler, opts Options) {
	if opts.UploadDir != "" {
		r.Static("/uploads", opts.UploadDir)
	}

	// ── Public routes ──────────────────────────────────────────────
	public := r.Group("/api")
	{
		authChain := []gin.HandlerFunc{}
		if opts.AuthLimiter != nil {
			authChain = append(authChain, opts.AuthLimiter.Middleware())
		}
		public.POST("/auth", append(authChain, h.Authenticate)...)

		public.GET("/health", h.Health)
		public.GET("/state-machine", h.GetStateMachineInfo)

		public.GET("/shops", h.ListShops)
		public.GET("/categories", h.ListCategories)
		public.GET("/products", h.ListProducts)
		public.GET("/products/:id", h.GetProduct)
	}

	// ── Authenticated routes ───────────────────────────────────────
	auth := r.Group("/api")
	auth.Use(opts.Auth.Required())
	{
		auth.GET("/me", h.GetProfile)

		auth.POST("/orders", h.PlaceOrder)
		auth.GET("/orders", h.GetMyOrders)
		auth.GET("/orders/:id", h.GetOrderDetail)
		auth.POST("/orders/:id/invoice", h.CreateInvoice)
		auth.POST("/orders/:id/pay", h.ConfirmPayment)
	}

	// ── Admin routes ───────────────────────────────────────────────
	admin := r.Group("/api")
	admin.Use(opts.Auth.Required(), middleware.RequireAdmin())
	{
		admin.GET("/users", h.ListUsers)
		admin.PUT("/users/:id/role", h.UpdateUserRole)
		admin.POST("/upload", h.UploadImage)

		admin.POST("/shops", h.CreateShop)
		admin.PUT("/shops/:id", h.UpdateShop)
		admin.DELETE("/shops/:id", h.DeleteShop)

		admin.POST("/categories", h.CreateCategory)
		admin.PUT("/categories/:id", h.UpdateCategory)
		admin.DELETE("/categories/:id", h.DeleteCategory)

		admin.POST("/products", h.CreateProduct)
		admin.PUT("/products/:id", h.UpdateProduct)
		admin.DELETE("/products/:id", h.DeleteProduct)

		admin.GET("/orders/all", h.AdminGetAllOrders)
		admin.PUT("/orders/:id/admin", h.AdminUpdateOrder)
		admin.GET("/orders/:id/history", h.GetOrderHistory)
	}

	// ── Courier routes ─────────────────────────────────────────────
	courier := r.Group("/api/courier")
	courier.Use(opts.Auth.Required(), middleware.RequireCourier())
	{
		courier.GET("/orders", h.GetCourierOrders)
		courier.PUT("/orders/:id/status", h.CourierUpdateStatus)
	}
}
