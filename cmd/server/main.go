package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"eshop-service/config"
	"eshop-service/internal/api"
	"eshop-service/internal/auth"
	"eshop-service/internal/broker"
	"eshop-service/internal/imagestore"
	"eshop-service/internal/mailer"
	"eshop-service/internal/payment"
	"eshop-service/internal/redisclient"
	"eshop-service/internal/service"
	"eshop-service/internal/store"
	"eshop-service/internal/util"
	"eshop-service/internal/worker"

	"github.com/gin-gonic/gin"
)

func main() {

	cfg := config.Load()

	if err := util.InitLogger(cfg.Server.Env); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer util.SyncLogger()

	logger := util.GetLogger()
	logger.Info("Starting eshop service")

	tp, err := util.InitTracer(cfg.Observ.JaegerEndpoint)
	if err != nil {
		log.Fatalf("Failed to initialize tracer: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(ctx); err != nil {
			log.Printf("Error shutting down tracer: %v", err)
		}
	}()

	db, err := store.NewStore(cfg.Database.URL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	log.Println("Database connected")

	initCtx, initCancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := db.InitSchema(initCtx); err != nil {
		log.Fatalf("Failed to initialize schema: %v", err)
	}
	initCancel()

	redisClient, err := redisclient.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisClient.Close()
	log.Println("Redis connected")

	producer := broker.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.TopicOrder)
	defer producer.Close()
	log.Println("Kafka producer initialized")

	eventPublisher := broker.NewEventPublisher(producer)

	tokens, err := auth.NewTokenCodec(cfg.JWT.Secret, cfg.JWT.Expiration)
	if err != nil {
		log.Fatalf("Failed to initialize token codec: %v", err)
	}

	images, err := imagestore.NewStore(cfg.Upload.BaseDir)
	if err != nil {
		log.Fatalf("Failed to initialize image store: %v", err)
	}

	smtpMailer := mailer.New(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.Username, cfg.SMTP.Password, cfg.SMTP.From)
	providerClient := payment.NewClient(cfg.Razorpay.BaseURL, cfg.Razorpay.Key, cfg.Razorpay.Secret, cfg.Razorpay.Timeout)

	authService := service.NewAuthService(db, redisClient, tokens, smtpMailer)
	userService := service.NewUserService(db)
	catalogService := service.NewCatalogService(db, redisClient, images)
	cartService := service.NewCartService(db)
	paymentService := service.NewPaymentService(db, providerClient, eventPublisher, cfg.Frontend.BaseURL)
	orderService := service.NewOrderService(db, paymentService, eventPublisher)
	wishlistService := service.NewWishlistService(db)
	adminService := service.NewAdminService(db)
	dashboardService := service.NewDashboardService(db)

	seedCtx, seedCancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := adminService.SeedSuperAdmin(seedCtx, cfg.Seed.SuperAdminEmail, cfg.Seed.SuperAdminName, cfg.Seed.SuperAdminPassword); err != nil {
		log.Printf("Failed to seed super admin: %v", err)
	}
	seedCancel()

	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()

	notifyConsumer := broker.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.TopicOrder, cfg.Kafka.ConsumerGroup)
	notificationWorker := worker.NewNotificationWorker(notifyConsumer, smtpMailer)
	go func() {
		if err := notificationWorker.Start(workerCtx); err != nil {
			log.Printf("Notification worker error: %v", err)
		}
	}()

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	handler := api.NewHandler(api.HandlerConfig{
		AuthService:      authService,
		UserService:      userService,
		CatalogService:   catalogService,
		CartService:      cartService,
		OrderService:     orderService,
		PaymentService:   paymentService,
		WishlistService:  wishlistService,
		AdminService:     adminService,
		DashboardService: dashboardService,
		Tokens:           tokens,
		AllowedOrigins:   cfg.CORS.AllowedOrigins,
		ImageDir:         images.BaseDir(),
	})
	handler.SetupRoutes(router)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		log.Printf("Starting HTTP server on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	workerCancel()
	notificationWorker.Stop()

	log.Println("Server exited")
}
