package main

import (
	"log"

	_ "github.com/420btc/svcmoto-sub000/api/swagger" // swagger docs
	"github.com/420btc/svcmoto-sub000/internal/config"
	"github.com/420btc/svcmoto-sub000/internal/database"
	"github.com/420btc/svcmoto-sub000/internal/handler"
	"github.com/420btc/svcmoto-sub000/internal/middleware"
	"github.com/420btc/svcmoto-sub000/internal/payment"
	"github.com/420btc/svcmoto-sub000/internal/repository"
	"github.com/420btc/svcmoto-sub000/internal/service"
	"github.com/420btc/svcmoto-sub000/internal/websocket"
	"github.com/420btc/svcmoto-sub000/pkg/logger"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
)

// @title           SvcMoto Rental API
// @version         1.0
// @description     Booking, loyalty points and discount API for the electric vehicle rental service.
// @host            localhost:8080
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	if err := godotenv.Load("configs/.env"); err != nil {
		log.Println("No configs/.env file found or error loading it")
	}

	cfg := config.Load()

	if err := logger.Init(cfg.GinMode); err != nil {
		log.Fatalf("Logger init failed: %v", err)
	}
	defer logger.Sync()

	db, err := database.NewConnection(cfg.DSN)
	if err != nil {
		logger.Log.Fatal("Database connection failed", zap.Error(err))
	}
	logger.Log.Info("Connected to PostgreSQL")

	// Set up WebSocket Hub for the staff consoles
	wsHub := websocket.NewHub()
	go wsHub.Run()

	// Set up dependencies (Repository -> Service -> Handler)
	txManager := repository.NewTransactionManager(db)
	userRepo := repository.NewUserRepository(db)
	bookingRepo := repository.NewBookingRepository(db)
	pointsRepo := repository.NewPointsRepository(db)
	discountRepo := repository.NewDiscountRepository(db)
	serviceReqRepo := repository.NewServiceRequestRepository(db)

	userService := service.NewUserService(userRepo, bookingRepo, pointsRepo, discountRepo, txManager, middleware.GetJWTSecret())
	bookingService := service.NewBookingService(bookingRepo, userRepo, cfg.Rewards)
	verificationService := service.NewVerificationService(bookingRepo, pointsRepo, txManager, cfg.Rewards, wsHub.Notify)
	pointsService := service.NewPointsService(pointsRepo)
	discountService := service.NewDiscountService(discountRepo, pointsRepo, userRepo, txManager, cfg.Rewards, cfg.Tiers, wsHub.Notify)
	serviceReqService := service.NewServiceRequestService(serviceReqRepo, userRepo)
	statisticsService := service.NewStatisticsService(db, bookingRepo, pointsRepo, discountRepo)

	provider := payment.NewHTTPProvider(cfg.PaymentBaseURL, cfg.PaymentAPIKey)
	paymentService := service.NewPaymentService(provider, bookingService)

	// Initialize Handlers
	userHandler := handler.NewUserHandler(userService)
	bookingHandler := handler.NewBookingHandler(bookingService, verificationService)
	rewardsHandler := handler.NewRewardsHandler(verificationService, pointsService, discountService)
	paymentHandler := handler.NewPaymentHandler(paymentService, cfg.PaymentWebhookSecret)
	serviceReqHandler := handler.NewServiceRequestHandler(serviceReqService)
	statisticsHandler := handler.NewStatisticsHandler(statisticsService)

	// Set up Gin Router
	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestLogger())

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{"http://localhost:5173", "http://127.0.0.1:5173"}
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept", "X-Signature"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	router.Use(cors.New(corsConfig))

	// Swagger route
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "OK"})
	})

	// WebSocket endpoint for staff consoles
	router.GET("/ws", func(c *gin.Context) {
		websocket.ServeWs(wsHub, c, middleware.GetJWTSecret())
	})

	// Register API Routes
	userHandler.RegisterRoutes(router.Group(""))
	bookingHandler.RegisterRoutes(router.Group(""))
	rewardsHandler.RegisterRoutes(router.Group(""))
	paymentHandler.RegisterRoutes(router.Group(""))
	serviceReqHandler.RegisterRoutes(router.Group(""))
	statisticsHandler.RegisterRoutes(router.Group(""))

	logger.Log.Info("Server listening", zap.String("port", cfg.Port))
	if err := router.Run(":" + cfg.Port); err != nil {
		logger.Log.Fatal("Server failed", zap.Error(err))
	}
}
