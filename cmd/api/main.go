package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"

	"github.com/flicky/furniture-store/internal/config"
	"github.com/flicky/furniture-store/internal/handler"
	"github.com/flicky/furniture-store/internal/middleware"
	"github.com/flicky/furniture-store/internal/payment"
	"github.com/flicky/furniture-store/internal/repository"
	"github.com/flicky/furniture-store/internal/service"
	"github.com/flicky/furniture-store/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.Log.Level}))
	slog.SetDefault(log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Catalog and stock
	inventory := repository.NewInventory(repository.DefaultCatalog())
	if err := repository.SeedInventory(inventory, cfg.Store.SeedStock); err != nil {
		log.Error("seed inventory", "error", err)
		os.Exit(1)
	}
	userRepo := repository.NewUserRepository()
	orderIndex := repository.NewOrderIndex()

	// PostgreSQL order archive
	var (
		dbPool  *pgxpool.Pool
		archive repository.OrderArchive
	)
	if cfg.DB.Enabled {
		poolCfg, err := pgxpool.ParseConfig(cfg.DB.DSN())
		if err != nil {
			log.Error("parse db config", "error", err)
			os.Exit(1)
		}
		poolCfg.MaxConns = cfg.DB.MaxConns

		dbPool, err = pgxpool.NewWithConfig(ctx, poolCfg)
		if err != nil {
			log.Error("connect to database", "error", err)
			os.Exit(1)
		}
		defer dbPool.Close()

		if err := dbPool.Ping(ctx); err != nil {
			log.Error("ping database", "error", err)
			os.Exit(1)
		}
		archive = repository.NewOrderArchive(dbPool)
		if err := archive.EnsureSchema(ctx); err != nil {
			log.Error("create archive schema", "error", err)
			os.Exit(1)
		}
		log.Info("connected to PostgreSQL")
	}

	// Redis
	var (
		redisClient *redis.Client
		idempotency repository.IdempotencyStore
	)
	if cfg.Redis.Enabled {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()

		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Error("connect to Redis", "error", err)
			os.Exit(1)
		}
		idempotency = repository.NewRedisIdempotency(redisClient, cfg.Redis.IdempotencyTTL)
		log.Info("connected to Redis")
	}

	// RabbitMQ
	var (
		amqpConn    *amqp.Connection
		publisher   service.Publisher
		orderWorker *worker.OrderWorker
	)
	if cfg.RabbitMQ.Enabled {
		amqpConn, err = amqp.Dial(cfg.RabbitMQ.URL)
		if err != nil {
			log.Error("connect to RabbitMQ", "error", err)
			os.Exit(1)
		}
		defer amqpConn.Close()

		pubCh, err := amqpConn.Channel()
		if err != nil {
			log.Error("open RabbitMQ channel", "error", err)
			os.Exit(1)
		}
		defer pubCh.Close()

		if err := worker.SetupRabbitMQ(pubCh); err != nil {
			log.Error("setup RabbitMQ", "error", err)
			os.Exit(1)
		}
		publisher = pubCh

		consumeCh, err := amqpConn.Channel()
		if err != nil {
			log.Error("open RabbitMQ consumer channel", "error", err)
			os.Exit(1)
		}
		defer consumeCh.Close()
		if err := consumeCh.Qos(1, 0, false); err != nil {
			log.Error("set consumer QoS", "error", err)
			os.Exit(1)
		}

		orderWorker = worker.NewOrderWorker(consumeCh, orderIndex, archive, redisClient, log)
		log.Info("connected to RabbitMQ")
	}

	// Services
	authSvc := service.NewAuthService(userRepo, orderIndex, cfg.JWT.Secret, cfg.JWT.Expiration, cfg.Store.BcryptCost)
	catalogSvc := service.NewCatalogService(inventory)
	cartSvc := service.NewCartService(inventory)
	orderSvc := service.NewOrderService(service.OrderServiceDeps{
		Users:          userRepo,
		Carts:          cartSvc,
		Inventory:      inventory,
		Orders:         orderIndex,
		Payments:       payment.NewMockProcessor(),
		Idempotency:    idempotency,
		Publisher:      publisher,
		PaymentTimeout: cfg.Payment.Timeout,
		Log:            log,
	})

	if cfg.Store.AdminEmail != "" && cfg.Store.AdminPassword != "" {
		if err := authSvc.EnsureAdmin(ctx, cfg.Store.AdminUsername, cfg.Store.AdminEmail, cfg.Store.AdminPassword); err != nil {
			log.Error("create admin account", "error", err)
			os.Exit(1)
		}
		log.Info("admin account ready", "username", cfg.Store.AdminUsername)
	}

	// Handlers
	authH := handler.NewAuthHandler(authSvc)
	itemH := handler.NewItemHandler(catalogSvc)
	inventoryH := handler.NewInventoryHandler(catalogSvc)
	cartH := handler.NewCartHandler(cartSvc)
	orderH := handler.NewOrderHandler(orderSvc, authSvc)
	healthH := handler.NewHealthHandler(dbPool, redisClient, amqpConn)

	limit := func(string) gin.HandlerFunc { return func(c *gin.Context) { c.Next() } }
	if cfg.RateLimit.Enabled {
		limiter := middleware.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst)
		go limiter.Cleanup(ctx)
		limit = limiter.Handler
	}

	// Router
	router := gin.Default()
	router.GET("/healthz", healthH.Healthz)
	router.GET("/readyz", healthH.Readyz)

	authRequired := middleware.AuthMiddleware(cfg.JWT.Secret)

	v1 := router.Group("/api/v1")
	{
		auth := v1.Group("/auth")
		auth.POST("/signup", authH.SignUp)
		auth.POST("/login", limit("auth"), authH.Login)
		auth.POST("/logout", authRequired, authH.Logout)

		me := v1.Group("/users/me", authRequired)
		me.GET("", authH.Me)
		me.PUT("", authH.UpdateMe)

		items := v1.Group("/items")
		items.GET("", itemH.List)
		items.GET("/:id", itemH.GetByID)

		inventoryAdmin := v1.Group("/inventory", authRequired, middleware.AdminOnly())
		inventoryAdmin.GET("", inventoryH.List)
		inventoryAdmin.POST("/:id/stock", inventoryH.AddStock)
		inventoryAdmin.PUT("/:id", inventoryH.SetQuantity)
		inventoryAdmin.DELETE("/:id", inventoryH.Remove)

		cart := v1.Group("/cart", authRequired)
		cart.GET("", cartH.GetCart)
		cart.POST("/items", cartH.AddItem)
		cart.PUT("/items/:id", cartH.UpdateItem)
		cart.DELETE("/items/:id", cartH.DeleteItem)
		cart.POST("/discount", cartH.ApplyDiscount)

		orders := v1.Group("/orders", authRequired)
		orders.POST("/checkout", limit("checkout"), orderH.Checkout)
		orders.GET("", orderH.ListOrders)
		orders.DELETE("", orderH.ClearHistory)
		orders.GET("/:id", orderH.GetOrder)
		orders.PUT("/:id/status", middleware.AdminOnly(), orderH.UpdateStatus)
	}

	if orderWorker != nil {
		if err := orderWorker.Start(ctx); err != nil {
			log.Error("start order worker", "error", err)
			os.Exit(1)
		}
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Info("starting HTTP server", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown", "error", err)
	}

	if orderWorker != nil {
		orderWorker.Stop()
		time.Sleep(500 * time.Millisecond)
	}
	cancel()
	log.Info("server stopped")
}
