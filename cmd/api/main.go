package main

import (
	"fmt"
	"net/http"
	"os"

	"moneybook/internal/config"
	"moneybook/internal/database"
	"moneybook/internal/handlers"
	"moneybook/internal/logger"
	"moneybook/internal/middleware"
	"moneybook/internal/services"
	"moneybook/internal/session"
	"moneybook/internal/validator"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "moneybook/internal/docs" // Import swagger docs
)

// @title           Moneybook API
// @version         1.0
// @description     Moneybook is a personal and group bookkeeping service for tracking accounts, balance flows, categories, tags and payees across shared books.
// @termsOfService  http://swagger.io/terms/

// @host      localhost:8080
// @BasePath  /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	// Initialize logger (use ENV var if available, default to development)
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	if err := run(); err != nil {
		logger.Get().Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	log := logger.Get()

	// Load configuration
	appConfig, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Register custom request validators
	validator.Register()

	// Initialize database configuration
	dbConfig, err := database.NewConfig()
	if err != nil {
		return fmt.Errorf("failed to load database configuration: %w", err)
	}

	// Create database manager
	dbManager, err := database.NewManager(dbConfig)
	if err != nil {
		return fmt.Errorf("failed to create database manager: %w", err)
	}

	// Run migrations
	if err := dbManager.RunMigrations(); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}

	// Initialize services
	db := dbManager.DB()
	resolver := session.NewResolver(db)
	bookService := services.NewBookService(db)
	userService := services.NewUserService(db, bookService)
	groupService := services.NewGroupService(db, bookService, resolver)
	accountService := services.NewAccountService(db)
	categoryService := services.NewCategoryService(db)
	tagService := services.NewTagService(db)
	payeeService := services.NewPayeeService(db)
	flowService := services.NewFlowService(db)
	noteDayService := services.NewNoteDayService(db)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(userService)
	groupHandler := handlers.NewGroupHandler(groupService)
	bookHandler := handlers.NewBookHandler(bookService)
	accountHandler := handlers.NewAccountHandler(accountService)
	categoryHandler := handlers.NewCategoryHandler(categoryService)
	tagHandler := handlers.NewTagHandler(tagService)
	payeeHandler := handlers.NewPayeeHandler(payeeService)
	flowHandler := handlers.NewFlowHandler(flowService)
	noteDayHandler := handlers.NewNoteDayHandler(noteDayService)

	// Initialize Gin router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogging())
	router.Use(middleware.ErrorHandler())

	// CORS middleware
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check endpoint
	router.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// API v1 group
	v1 := router.Group("/api/v1")

	// Public routes
	auth := v1.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)

	// Protected routes
	protected := v1.Group("/")
	protected.Use(middleware.AuthMiddleware(resolver))

	// User profile
	protected.GET("/profile", authHandler.GetProfile)
	protected.PUT("/password", authHandler.ChangePassword)

	// Group routes
	groups := protected.Group("/groups")
	groups.GET("", groupHandler.GetGroups)
	groups.POST("", groupHandler.CreateGroup)
	groups.PUT("/:id", groupHandler.UpdateGroup)
	groups.DELETE("/:id", groupHandler.DeleteGroup)
	groups.POST("/:id/invite", groupHandler.InviteUser)
	groups.POST("/:id/agree", groupHandler.AgreeInvite)
	groups.POST("/:id/reject", groupHandler.RejectInvite)
	groups.GET("/:id/users", groupHandler.GetGroupUsers)
	groups.DELETE("/:id/users/:user_id", groupHandler.RemoveUser)

	// Book routes
	books := protected.Group("/books")
	books.GET("", bookHandler.GetBooks)
	books.POST("", bookHandler.CreateBook)
	books.GET("/:id", bookHandler.GetBookByID)
	books.PUT("/:id", bookHandler.UpdateBook)
	books.DELETE("/:id", bookHandler.DeleteBook)

	// Account routes
	accounts := protected.Group("/accounts")
	accounts.GET("", accountHandler.GetAccounts)
	accounts.POST("", accountHandler.CreateAccount)
	accounts.GET("/:id", accountHandler.GetAccountByID)
	accounts.PUT("/:id", accountHandler.UpdateAccount)
	accounts.DELETE("/:id", accountHandler.DeleteAccount)
	accounts.POST("/:id/adjust", accountHandler.AdjustBalance)

	// Category routes
	categories := protected.Group("/categories")
	categories.GET("", categoryHandler.GetCategories)
	categories.POST("", categoryHandler.CreateCategory)
	categories.PUT("/:id", categoryHandler.UpdateCategory)
	categories.DELETE("/:id", categoryHandler.DeleteCategory)

	// Tag routes
	tags := protected.Group("/tags")
	tags.GET("", tagHandler.GetTags)
	tags.POST("", tagHandler.CreateTag)
	tags.PUT("/:id", tagHandler.UpdateTag)
	tags.DELETE("/:id", tagHandler.DeleteTag)

	// Payee routes
	payees := protected.Group("/payees")
	payees.GET("", payeeHandler.GetPayees)
	payees.POST("", payeeHandler.CreatePayee)
	payees.PUT("/:id", payeeHandler.UpdatePayee)
	payees.DELETE("/:id", payeeHandler.DeletePayee)

	// Balance flow routes
	flows := protected.Group("/balance-flows")
	flows.GET("", flowHandler.GetFlows)
	flows.POST("", flowHandler.CreateFlow)
	flows.GET("/:id", flowHandler.GetFlowByID)
	flows.PUT("/:id", flowHandler.UpdateFlow)
	flows.DELETE("/:id", flowHandler.DeleteFlow)
	flows.POST("/:id/confirm", flowHandler.ConfirmFlow)

	// Note day routes
	noteDays := protected.Group("/note-days")
	noteDays.GET("", noteDayHandler.GetNoteDays)
	noteDays.POST("", noteDayHandler.CreateNoteDay)
	noteDays.GET("/:id", noteDayHandler.GetNoteDayByID)
	noteDays.PUT("/:id", noteDayHandler.UpdateNoteDay)
	noteDays.DELETE("/:id", noteDayHandler.DeleteNoteDay)
	noteDays.POST("/:id/run", noteDayHandler.RunNoteDay)

	log.Infof("Starting Moneybook backend server on port %s", appConfig.Port)
	log.Infof("Swagger documentation available at http://localhost:%s/swagger/index.html", appConfig.Port)
	return router.Run(":" + appConfig.Port)
}
