package routes

import (
	"github.com/ximepaparella/gifty-api/api/handlers"
	"github.com/ximepaparella/gifty-api/api/middleware"
	"github.com/ximepaparella/gifty-api/internal/models"
	"github.com/ximepaparella/gifty-api/internal/repository"

	"github.com/gin-gonic/gin"
)

// Handlers bundles every handler the router mounts
type Handlers struct {
	Health   *handlers.HealthHandler
	Orders   *handlers.OrderHandler
	Stores   *handlers.StoreHandler
	Products *handlers.ProductHandler
	Customer *handlers.CustomerHandler
	Users    *handlers.UserHandler
}

// SetupRoutes sets up all the routes for the server
func SetupRoutes(r *gin.Engine, h Handlers, users repository.UserRepository) {
	// Health check
	r.GET("/health", h.Health.HealthCheck)

	api := r.Group("/api/v1")

	viewer := middleware.APIKeyAuth(users, models.ViewerAuthLevel)
	writer := middleware.APIKeyAuth(users, models.WriterAuthLevel)
	sudo := middleware.APIKeyAuth(users, models.SudoAuthLevel)

	// Order and voucher routes
	orders := api.Group("/orders")
	orders.POST("", writer, h.Orders.CreateOrder)
	orders.GET("", viewer, h.Orders.ListOrders)
	orders.GET("/search", viewer, h.Orders.SearchOrders)
	orders.GET("/:id", viewer, h.Orders.GetOrder)
	orders.DELETE("/:id", sudo, h.Orders.DeleteOrder)
	orders.GET("/:id/download-pdf", viewer, h.Orders.DownloadPDF)
	orders.POST("/:id/resend-emails", writer, h.Orders.ResendEmails)
	orders.POST("/:id/resend-customer-email", writer, h.Orders.ResendCustomerEmail)
	orders.POST("/:id/resend-receiver-email", writer, h.Orders.ResendReceiverEmail)
	orders.POST("/:id/resend-store-email", writer, h.Orders.ResendStoreEmail)
	orders.GET("/voucher/:code", viewer, h.Orders.GetOrderByVoucherCode)
	orders.PUT("/voucher/:code/redeem", writer, h.Orders.RedeemVoucher)

	// Store routes
	stores := api.Group("/stores")
	stores.POST("", writer, h.Stores.CreateStore)
	stores.GET("", viewer, h.Stores.ListStores)
	stores.GET("/:id", viewer, h.Stores.GetStore)
	stores.PUT("/:id", writer, h.Stores.UpdateStore)
	stores.DELETE("/:id", sudo, h.Stores.DeleteStore)
	stores.POST("/:id/logo", writer, h.Stores.UploadLogo)

	// Product routes
	products := api.Group("/products")
	products.POST("", writer, h.Products.CreateProduct)
	products.GET("", viewer, h.Products.ListProductsByStore)
	products.GET("/:id", viewer, h.Products.GetProduct)
	products.PUT("/:id", writer, h.Products.UpdateProduct)
	products.DELETE("/:id", sudo, h.Products.DeleteProduct)

	// Customer routes
	customers := api.Group("/customers")
	customers.POST("", writer, h.Customer.CreateCustomer)
	customers.GET("", viewer, h.Customer.ListCustomers)
	customers.GET("/:id", viewer, h.Customer.GetCustomer)
	customers.PUT("/:id", writer, h.Customer.UpdateCustomer)
	customers.DELETE("/:id", sudo, h.Customer.DeleteCustomer)

	// User and API key routes
	usersGroup := api.Group("/users")
	usersGroup.POST("/login", h.Users.Login)
	usersGroup.POST("", sudo, h.Users.RegisterUser)
	usersGroup.GET("", sudo, h.Users.ListUsers)
	usersGroup.GET("/:id", sudo, h.Users.GetUser)
	usersGroup.DELETE("/:id", sudo, h.Users.DeleteUser)
	usersGroup.POST("/:id/api-keys", sudo, h.Users.IssueAPIKey)
}
