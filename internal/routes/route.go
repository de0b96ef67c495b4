package routes

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/malakmiqdad/storefront/internal/container"
	"github.com/malakmiqdad/storefront/internal/handlers"
	"github.com/malakmiqdad/storefront/internal/middleware"
	"github.com/malakmiqdad/storefront/internal/telemetry"
)

const serviceName = "storefront-api"

// SetupRoutes configures all routes with the dependency container.
// metrics may be nil when the exporter is disabled.
func SetupRoutes(container *container.Container, metrics http.Handler) *gin.Engine {
	cfg := container.Config
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	secure := cfg.IsProduction()

	r := gin.New()
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: true,
	}))

	r.Use(middleware.RequestID())
	r.Use(telemetry.RouteAttribute())
	r.Use(middleware.StructuredLogger(container.Logger))
	r.Use(middleware.ErrorHandler(container.Logger))
	r.Use(gin.Recovery())
	r.Use(middleware.Timeout(2 * cfg.UpstreamTimeout))

	if metrics != nil {
		r.GET("/metrics", gin.WrapH(metrics))
	}

	v1 := r.Group("/api/v1")
	{
		v1.GET("/health", handlers.Health(serviceName))

		// public routes
		v1.POST("/signup", handlers.CreateUser(container.UserService))
		v1.POST("/login", handlers.AuthenticateUser(container.UserService, secure))
		v1.POST("/logout", handlers.Logout(secure))

		v1.GET("/products", handlers.ListProducts(container.CatalogService))
		v1.GET("/products/:id", handlers.GetProduct(container.CatalogService))
		v1.GET("/packages", handlers.ListPackages(container.CatalogService))
		v1.POST("/contact", handlers.SubmitContact(container.ContactService))
		v1.POST("/analytics", handlers.TrackPageView(container.AnalyticsService))

		v1.POST("/webhooks/stripe", handlers.StripeWebhook(container.WebhookService, container.Logger))
	}

	protected := v1.Group("/")
	protected.Use(middleware.AuthMiddleware(container.Verifier, container.UserService, secure, container.Logger))
	{
		protected.GET("/profile", handlers.Profile())

		userRoutes := protected.Group("/users")
		userRoutes.GET("/:id", handlers.GetUser(container.UserService))
		userRoutes.PATCH("/:id", handlers.UpdateUser(container.UserService))
		userRoutes.DELETE("/:id", handlers.DeleteUser(container.UserService))

		protected.POST("/checkout/session", handlers.CreateCheckoutSession(container.CheckoutService))

		bookingRoutes := protected.Group("/bookings")
		bookingRoutes.POST("", handlers.CreateBooking(container.BookingService))
		bookingRoutes.GET("", handlers.ListMyBookings(container.BookingService))
		bookingRoutes.GET("/:id", handlers.GetBooking(container.BookingService))
		bookingRoutes.POST("/:id/pay", handlers.PayBooking(container.CheckoutService))
		bookingRoutes.GET("/:id/messages", handlers.ListBookingMessages(container.BookingService))
		bookingRoutes.POST("/:id/messages", handlers.PostBookingMessage(container.BookingService))

		protected.GET("/orders", handlers.ListMyOrders(container.OrderService))
		protected.GET("/downloads/:orderId", handlers.Download(container.OrderService))
	}

	admin := protected.Group("/admin")
	admin.Use(middleware.RequireAdmin())
	{
		admin.GET("/stats", handlers.AdminStats(container.AdminService))
		admin.GET("/orders", handlers.ListAllOrders(container.OrderService))

		admin.GET("/bookings", handlers.ListAllBookings(container.BookingService))
		admin.GET("/bookings/:id", handlers.GetBooking(container.BookingService))
		admin.PATCH("/bookings/:id", handlers.UpdateBookingStatus(container.BookingService))
		admin.PUT("/bookings/:id/deliverable", handlers.SetBookingDeliverable(container.BookingService))

		admin.GET("/products", handlers.ListAllProducts(container.CatalogService))
		admin.POST("/products", handlers.CreateProduct(container.CatalogService))
		admin.PATCH("/products/:id", handlers.UpdateProduct(container.CatalogService))

		admin.GET("/contacts", handlers.ListContacts(container.ContactService))
		admin.PATCH("/contacts/:id", handlers.MarkContact(container.ContactService))

		admin.GET("/analytics", handlers.TopPages(container.AnalyticsService))
	}

	return r
}
