package api

import (
	"net/http"

	"fulfillment-service/internal/api/handlers"
	"fulfillment-service/internal/auth"
	"fulfillment-service/internal/logger"
	"fulfillment-service/internal/middleware"
	"fulfillment-service/internal/services"

	"github.com/gin-gonic/gin"
)

// Services 路由依赖的业务服务
type Services struct {
	Products   *services.ProductService
	Tasks      *services.TaskService
	History    *services.HistoryService
	Activities *services.ActivityService
	Users      *services.UserService
}

// NewRouter 创建API路由
func NewRouter(svc Services, jwtService *auth.JWTService, log logger.Logger) *gin.Engine {
	router := gin.New()

	// 添加中间件
	router.Use(gin.Recovery())
	router.Use(middleware.CORS())
	router.Use(middleware.Trace())
	router.Use(middleware.RequestLogger(log))

	// 健康检查路由
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
		})
	})

	// 初始化handlers
	authHandler := handlers.NewAuthHandler(jwtService, svc.Users, log)
	usersHandler := handlers.NewUsersHandler(svc.Users, log)
	productsHandler := handlers.NewProductsHandler(svc.Products, log)
	tasksHandler := handlers.NewTasksHandler(svc.Tasks, log)
	historyHandler := handlers.NewHistoryHandler(svc.History, log)
	activitiesHandler := handlers.NewActivitiesHandler(svc.Activities, log)

	requireAuth := middleware.AuthMiddleware(jwtService)
	can := middleware.PermissionMiddleware

	api := router.Group("/api")
	{
		// 认证路由
		authGroup := api.Group("/auth")
		{
			authGroup.POST("/login", authHandler.Login)

			authProtected := authGroup.Group("")
			authProtected.Use(requireAuth)
			{
				authProtected.GET("/me", authHandler.GetCurrentUser)
				authProtected.PUT("/me", authHandler.UpdateCurrentUser)
			}
		}

		// 用户路由 - 仅管理员
		users := api.Group("/users")
		users.Use(requireAuth)
		{
			users.GET("", can(middleware.ResourceUsers, middleware.ActionList), usersHandler.FindAll)
			users.POST("", can(middleware.ResourceUsers, middleware.ActionCreate), usersHandler.Create)
		}

		// 商品路由
		products := api.Group("/products")
		products.Use(requireAuth)
		{
			products.GET("", can(middleware.ResourceProducts, middleware.ActionList), productsHandler.FindAll)
			products.POST("", can(middleware.ResourceProducts, middleware.ActionCreate), productsHandler.Create)
			products.PUT("/:id", can(middleware.ResourceProducts, middleware.ActionUpdate), productsHandler.Update)
			products.DELETE("/:id", can(middleware.ResourceProducts, middleware.ActionDelete), productsHandler.Remove)
		}

		// 发货任务路由
		tasks := api.Group("/tasks")
		tasks.Use(requireAuth)
		{
			tasks.GET("", can(middleware.ResourceTasks, middleware.ActionList), tasksHandler.FindAll)
			tasks.GET("/:id", can(middleware.ResourceTasks, middleware.ActionList), tasksHandler.FindOne)
			tasks.POST("", can(middleware.ResourceTasks, middleware.ActionCreate), tasksHandler.Create)
			tasks.PUT("/:id", can(middleware.ResourceTasks, middleware.ActionUpdate), tasksHandler.Update)
			tasks.POST("/:id/ship", can(middleware.ResourceTasks, middleware.ActionShip), tasksHandler.Ship)

			// 删除即归档到历史记录
			tasks.DELETE("/:id", can(middleware.ResourceTasks, middleware.ActionArchive), tasksHandler.Archive)
		}

		// 历史记录路由
		history := api.Group("/history")
		history.Use(requireAuth)
		{
			history.GET("", can(middleware.ResourceHistory, middleware.ActionList), historyHandler.FindAll)
			history.POST("", can(middleware.ResourceHistory, middleware.ActionCreate), historyHandler.Create)
			history.GET("/export", can(middleware.ResourceHistory, middleware.ActionExport), historyHandler.Export)
		}

		// 操作日志路由
		activities := api.Group("/activities")
		activities.Use(requireAuth)
		{
			activities.GET("", can(middleware.ResourceActivities, middleware.ActionList), activitiesHandler.FindAll)
			activities.POST("", can(middleware.ResourceActivities, middleware.ActionCreate), activitiesHandler.Create)
		}
	}

	return router
}
