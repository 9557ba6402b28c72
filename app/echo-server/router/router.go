package router

import (
	"modaMarket/internal/rest"

	"github.com/labstack/echo/v4"
)

func SetupUserRoutes(api *echo.Group, handler *rest.UserHandler, authRequired echo.MiddlewareFunc) {
	users := api.Group("/users")

	users.POST("/register", handler.Register)
	users.POST("/login", handler.Login)

	users.POST("/logout", handler.Logout, authRequired)
	users.GET("/me", handler.Me, authRequired)
	users.PUT("/me", handler.UpdateProfile, authRequired)
}

func SetupProductRoutes(api *echo.Group, handler *rest.ProductHandler) {
	products := api.Group("/products")

	products.GET("", handler.GetAllProducts)
	products.GET("/:id", handler.GetProductByID)
}

func SetupCartRoutes(api *echo.Group, handler *rest.CartHandler, authRequired echo.MiddlewareFunc) {
	cart := api.Group("/cart", authRequired)
	cart.POST("", handler.AddToCart)
	cart.GET("", handler.GetCart)
	cart.DELETE("/:article_id", handler.RemoveFromCart)

	wishlist := api.Group("/wishlist", authRequired)
	wishlist.POST("", handler.AddToWishlist)
	wishlist.GET("", handler.GetWishlist)
	wishlist.DELETE("/:article_id", handler.RemoveFromWishlist)
}

func SetOrdersRoutes(api *echo.Group, handler *rest.OrdersHandler, authRequired echo.MiddlewareFunc) {
	orders := api.Group("/orders", authRequired)
	orders.POST("", handler.Checkout)
	orders.GET("", handler.GetUserOrders)
	orders.GET("/:id", handler.GetOrder)
}

func SetInteractionRoutes(api *echo.Group, handler *rest.InteractionHandler, authRequired echo.MiddlewareFunc) {
	events := api.Group("/events", authRequired)
	events.POST("", handler.Record)
}

func SetRecommendRoutes(api *echo.Group, handler *rest.RecommendHandler, authRequired, adminOnly echo.MiddlewareFunc) {
	reco := api.Group("/recommendations", authRequired)
	reco.GET("", handler.Recommendations)
	reco.GET("/health", handler.Health)

	api.GET("/foryou", handler.ForYou, authRequired)

	admin := api.Group("/admin/recommendations", authRequired, adminOnly)
	admin.POST("/reload", handler.Reload)
}
