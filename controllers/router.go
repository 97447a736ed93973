package controllers

import (
	"github.com/gin-gonic/gin"

	"parampara-foods/middlewares"
	"parampara-foods/models"
	"parampara-foods/services"
	"parampara-foods/storage"
	"parampara-foods/utils"
)

// Services bundles everything the HTTP layer calls into.
type Services struct {
	Auth       *services.AuthService
	Users      *services.UserService
	Roles      *services.RoleService
	Foods      *services.FoodService
	Categories *services.CategoryService
	FoodImages *services.FoodImageService
	Orders     *services.OrderService
	Feedback   *services.FeedbackService
	Blogs      *services.BlogService
	Images     *storage.ImageStore
	Tokens     *utils.TokenManager
}

// RegisterRoutes mounts the API on api (normally the /api group).
func RegisterRoutes(api *gin.RouterGroup, svc Services) {
	authRequired := middlewares.AuthMiddleware(svc.Tokens)
	adminOnly := middlewares.RequireRole(models.RoleAdmin)

	auth := NewAuthController(svc.Auth)
	authGroup := api.Group("/auth")
	{
		authGroup.POST("/register", auth.Register)
		authGroup.POST("/login", auth.Login)
		authGroup.POST("/google", auth.GoogleAuth)
		authGroup.POST("/phone/send-code", auth.SendCode)
		authGroup.POST("/phone/verify", auth.VerifyCode)
	}

	foods := NewFoodController(svc.Foods)
	api.GET("/foods", foods.ListFoods)
	api.GET("/foods/search", foods.SearchFoods)
	api.GET("/foods/suggestions", foods.Suggestions)
	api.GET("/foods/:id", foods.GetFood)
	api.POST("/foods", authRequired, adminOnly, foods.CreateFood)
	api.PUT("/foods/:id", authRequired, adminOnly, foods.UpdateFood)
	api.DELETE("/foods/:id", authRequired, adminOnly, foods.DeleteFood)

	categories := NewCategoryController(svc.Categories)
	api.GET("/categories", categories.ListCategories)
	api.GET("/categories/:id", categories.GetCategory)
	api.POST("/categories", authRequired, adminOnly, categories.CreateCategory)
	api.PUT("/categories/:id", authRequired, adminOnly, categories.UpdateCategory)
	api.DELETE("/categories/:id", authRequired, adminOnly, categories.DeleteCategory)

	images := NewFoodImageController(svc.FoodImages)
	api.GET("/foodimages/:foodId", images.ListImages)
	api.POST("/foodimages", authRequired, images.AddImage)
	api.PUT("/foodimages/:id", authRequired, images.UpdateImage)
	api.DELETE("/foodimages/:id", authRequired, images.DeleteImage)

	orders := NewOrderController(svc.Orders)
	orderGroup := api.Group("/orders", authRequired)
	{
		orderGroup.POST("", orders.CreateOrder)
		orderGroup.GET("", orders.ListOrders)
		orderGroup.GET("/:id", orders.GetOrder)
		orderGroup.GET("/:id/history", orders.GetOrderHistory)
		orderGroup.PUT("/:id/status", adminOnly, orders.UpdateOrderStatus)
	}

	feedback := NewFeedbackController(svc.Feedback)
	api.GET("/feedback", feedback.ListFeedback)
	api.GET("/feedback/average-rating", feedback.AverageRating)
	api.POST("/feedback", authRequired, feedback.CreateFeedback)

	users := NewUserController(svc.Users)
	userGroup := api.Group("/users", authRequired, adminOnly)
	{
		userGroup.POST("", users.CreateUser)
		userGroup.GET("", users.ListUsers)
		userGroup.GET("/search", users.SearchUsers)
		userGroup.GET("/email-suggestions", users.EmailSuggestions)
		userGroup.GET("/:id", users.GetUser)
		userGroup.PUT("/:id/role", users.UpdateUserRole)
		userGroup.DELETE("/:id", users.DeleteUser)
	}

	roles := NewRoleController(svc.Roles)
	roleGroup := api.Group("/roles", authRequired, adminOnly)
	{
		roleGroup.GET("", roles.ListRoles)
		roleGroup.GET("/active", roles.ListActiveRoles)
		roleGroup.GET("/:id", roles.GetRole)
		roleGroup.POST("", roles.CreateRole)
		roleGroup.PUT("/:id", roles.UpdateRole)
		roleGroup.DELETE("/:id", roles.DeleteRole)
	}

	upload := NewUploadController(svc.Images)
	imageGroup := api.Group("/images", authRequired, adminOnly)
	{
		imageGroup.POST("/upload", upload.Upload)
		imageGroup.GET("/list/:type", upload.List)
		imageGroup.DELETE("/:type/:file", upload.Delete)
	}

	blogs := NewBlogController(svc.Blogs)
	api.GET("/blogs", blogs.ListBlogs)
	api.GET("/blogs/:id", blogs.GetBlog)
	api.POST("/blogs", authRequired, adminOnly, blogs.CreateBlog)
	api.PUT("/blogs/:id", authRequired, adminOnly, blogs.UpdateBlog)
	api.DELETE("/blogs/:id", authRequired, adminOnly, blogs.DeleteBlog)
}
