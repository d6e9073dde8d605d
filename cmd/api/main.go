package main

import (
	"backend/internal/database"
	"backend/internal/handler"
	"backend/internal/middleware"
	"backend/internal/repository"
	"backend/internal/service"
	"backend/internal/websocket"
	"log"
	"os"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// @title           Procurement Workflow API
// @version         1.0
// @description     Change-request and purchase-order fulfillment workflow for construction projects.
// @host            localhost:8080
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	if err := godotenv.Load("configs/.env"); err != nil {
		log.Println("No configs/.env file found or error loading it")
	}

	dbHost := os.Getenv("DB_HOST")
	dbPort := os.Getenv("DB_PORT")
	dbUser := os.Getenv("DB_USER")
	dbPassword := os.Getenv("DB_PASSWORD")
	dbName := os.Getenv("DB_NAME")
	dbSslMode := os.Getenv("DB_SSLMODE")

	if dbHost == "" {
		dbHost = "localhost"
	}
	if dbPort == "" {
		dbPort = "5432"
	}
	if dbUser == "" {
		dbUser = "postgres"
	}
	if dbPassword == "" {
		dbPassword = "postgres"
	}
	if dbName == "" {
		dbName = "postgres"
	}
	if dbSslMode == "" {
		dbSslMode = "disable"
	}

	dsn := "postgres://" + dbUser + ":" + dbPassword + "@" + dbHost + ":" + dbPort + "/" + dbName + "?sslmode=" + dbSslMode

	db, err := database.NewConnection(dsn)
	if err != nil {
		log.Fatalf("Database connection failed: %v", err)
	}
	log.Println("Connected to PostgreSQL successfully.")

	// Set up WebSocket Hub
	wsHub := websocket.NewHub()
	go wsHub.Run()

	// Set up dependencies (Repository -> Service -> Handler)
	txManager := repository.NewTransactionManager(db)
	userRepo := repository.NewUserRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	crRepo := repository.NewChangeRequestRepository(db)
	routedRepo := repository.NewRoutedMaterialRepository(db)
	poChildRepo := repository.NewPOChildRepository(db)
	inspRepo := repository.NewInspectionRepository(db)
	returnRepo := repository.NewReturnRepository(db)
	iterRepo := repository.NewIterationRepository(db)
	stockRepo := repository.NewStockRepository(db)
	vendorRepo := repository.NewVendorRepository(db)
	catalogRepo := repository.NewCatalogRepository(db)

	userService := service.NewUserService(userRepo)
	auditService := service.NewAuditService(db)
	lifecycleService := service.NewLifecycleService(crRepo, poChildRepo, catalogRepo, auditRepo, txManager)
	routingService := service.NewRoutingService(crRepo, routedRepo, poChildRepo, stockRepo, vendorRepo, auditRepo, txManager, wsHub)
	inspectionService := service.NewInspectionService(inspRepo, crRepo, poChildRepo, auditRepo, txManager, wsHub)
	returnService := service.NewReturnService(returnRepo, inspRepo, iterRepo, crRepo, poChildRepo, vendorRepo, auditRepo, txManager, wsHub)
	iterationService := service.NewIterationService(iterRepo, crRepo)
	vendorService := service.NewVendorService(vendorRepo)
	stockService := service.NewStockService(stockRepo, catalogRepo, txManager)

	// Initialize Handlers
	userHandler := handler.NewUserHandler(userService)
	auditHandler := handler.NewAuditHandler(auditService)
	crHandler := handler.NewChangeRequestHandler(lifecycleService, iterationService)
	routingHandler := handler.NewRoutingHandler(routingService)
	inspectionHandler := handler.NewInspectionHandler(inspectionService)
	returnHandler := handler.NewReturnHandler(returnService)
	vendorHandler := handler.NewVendorHandler(vendorService)
	stockHandler := handler.NewStockHandler(stockService)

	// Set up Gin Router
	router := gin.Default()

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{"http://localhost:5173", "http://127.0.0.1:5173", "http://localhost:5174"} // Frontend URL
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept", "X-Request-Id", "X-Request-At"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	router.Use(cors.New(corsConfig))

	// Swagger route
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "OK"})
	})

	// WebSocket endpoint
	router.GET("/ws", func(c *gin.Context) {
		websocket.ServeWs(wsHub, c, middleware.GetJWTSecret())
	})

	// Auth and audit endpoints skip the idempotency layer
	userHandler.RegisterRoutes(router.Group(""))
	auditHandler.RegisterRoutes(router.Group(""))

	// Workflow endpoints dedupe mutating requests through redis when
	// REDIS_ADDR is configured
	api := router.Group("")
	if redisAddr := os.Getenv("REDIS_ADDR"); redisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     redisAddr,
			Password: os.Getenv("REDIS_PASSWORD"),
		})
		api.Use(middleware.Idempotency(rdb, 24*time.Hour))
		log.Println("Idempotency middleware enabled")
	} else {
		log.Println("REDIS_ADDR not set, idempotency middleware disabled")
	}
	crHandler.RegisterRoutes(api)
	routingHandler.RegisterRoutes(api)
	inspectionHandler.RegisterRoutes(api)
	returnHandler.RegisterRoutes(api)
	vendorHandler.RegisterRoutes(api)
	stockHandler.RegisterRoutes(api)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Printf("Server listening on :%s", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
