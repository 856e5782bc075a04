package main

import (
	"os"

	"inventory-portal/internal/database"
	"inventory-portal/internal/handler"
	"inventory-portal/internal/middleware"
	"inventory-portal/internal/repository"
	"inventory-portal/internal/service"
	"inventory-portal/internal/websocket"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// @title           Inventory Management Portal API
// @version         1.0
// @description     Immutable stock movement ledger with batch/serial tracking and an approval workflow.
// @host            localhost:8080
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	logger, err := newLogger()
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()

	if err := godotenv.Load("configs/.env"); err != nil {
		logger.Info("no configs/.env file found")
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

	db, err := database.NewConnection(dsn, logger)
	if err != nil {
		logger.Fatal("database connection failed", zap.Error(err))
	}
	logger.Info("connected to PostgreSQL")

	// Set up WebSocket Hub
	wsHub := websocket.NewHub(logger)
	go wsHub.Run()
	notifier := websocket.NewStockMetricsNotifier(wsHub)

	// Set up dependencies (Repository -> Service -> Handler)
	txManager := repository.NewTransactionManager(db)
	productRepo := repository.NewProductRepository(db)
	warehouseRepo := repository.NewWarehouseRepository(db)
	movementRepo := repository.NewMovementRepository(db)
	balanceRepo := repository.NewBalanceRepository(db)
	batchRepo := repository.NewBatchRepository(db)
	serialRepo := repository.NewSerialRepository(db)
	rulesRepo := repository.NewRulesRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	approvalRepo := repository.NewApprovalRepository(db)
	purchaseRepo := repository.NewPurchaseReceiveRepository(db)
	saleRepo := repository.NewSaleRepository(db)
	adjustmentRepo := repository.NewAdjustmentRepository(db)
	transferRepo := repository.NewTransferRepository(db)

	stockService := service.NewStockService(
		productRepo, warehouseRepo, movementRepo, balanceRepo,
		batchRepo, serialRepo, rulesRepo, auditRepo, txManager, logger,
	)
	approvalService := service.NewApprovalService(
		approvalRepo, purchaseRepo, saleRepo, adjustmentRepo, transferRepo,
		rulesRepo, auditRepo, stockService, txManager, notifier, logger,
	)
	auditService := service.NewAuditService(auditRepo)

	// Initialize Handlers
	stockHandler := handler.NewStockHandler(stockService, notifier)
	approvalHandler := handler.NewApprovalHandler(approvalService)
	auditHandler := handler.NewAuditHandler(auditService)

	// Set up Gin Router
	router := gin.Default()

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{"http://localhost:5173", "http://127.0.0.1:5173", "http://localhost:5174"} // Frontend URL
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	router.Use(cors.New(corsConfig))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "OK"})
	})

	// WebSocket endpoint
	router.GET("/ws", func(c *gin.Context) {
		websocket.ServeWs(wsHub, c, middleware.GetJWTSecret())
	})

	// Register API Routes
	stockHandler.RegisterRoutes(router.Group(""))
	approvalHandler.RegisterRoutes(router.Group(""))
	auditHandler.RegisterRoutes(router.Group(""))

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	logger.Info("server listening", zap.String("port", port))
	if err := router.Run(":" + port); err != nil {
		logger.Fatal("server failed", zap.Error(err))
	}
}

func newLogger() (*zap.Logger, error) {
	if os.Getenv("GIN_MODE") == "release" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}
