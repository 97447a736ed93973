package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"
	"github.com/spf13/afero"
	"go.uber.org/zap"

	"parampara-foods/cache"
	"parampara-foods/config"
	"parampara-foods/consumers"
	"parampara-foods/controllers"
	"parampara-foods/database"
	"parampara-foods/middlewares"
	"parampara-foods/rabbitmq"
	"parampara-foods/services"
	"parampara-foods/sms"
	"parampara-foods/storage"
	"parampara-foods/utils"
)

const phoneCodeCooldown = time.Minute

func main() {
	cfg := config.LoadConfig()

	if err := utils.InitLogger(cfg.LogLevel, cfg.Environment); err != nil {
		log.Fatalf("Logger initialization failed: %v", err)
	}
	defer func() { _ = utils.Zlog.Sync() }()

	decimal.MarshalJSONWithoutQuotes = true
	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := database.InitDB(cfg); err != nil {
		utils.Zlog.Fatal("Database initialization failed", zap.Error(err))
	}
	defer database.CloseDB()

	if err := database.Migrate(database.DB); err != nil {
		utils.Zlog.Fatal("Database migration failed", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	redisClient, err := cache.NewRedisClient(ctx, cfg.RedisAddr,
		cache.WithPassword(cfg.RedisPassword),
		cache.WithDB(cfg.RedisDB))
	if err != nil {
		utils.Zlog.Fatal("Redis initialization failed", zap.Error(err))
	}
	defer redisClient.Close()

	var events services.EventPublisher
	rmq, err := rabbitmq.NewRabbitMQ(cfg)
	if err != nil {
		utils.Zlog.Warn("RabbitMQ unavailable, order events disabled", zap.Error(err))
	} else {
		defer rmq.Close()
		if err := rmq.SetupQueues(); err != nil {
			utils.Zlog.Fatal("Failed to setup RabbitMQ queues", zap.Error(err))
		}
		events = rmq
	}

	tokens := utils.NewTokenManager(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTTTL)
	users := services.NewUserService(database.DB)
	orders := services.NewOrderService(database.DB, events, services.OrderOptions{
		RestockOnCancel: cfg.RestockOnCancel,
		PendingTimeout:  cfg.PendingOrderTimeout,
	})
	orders.OnStockRejected = middlewares.RecordStockRejection

	if rmq != nil {
		if err := consumers.NewOrderConsumer(rmq.Channel, cfg, orders).Start(ctx); err != nil {
			utils.Zlog.Fatal("Failed to start order consumer", zap.Error(err))
		}
	}

	codes := cache.NewVerificationStore(redisClient, cfg.VerificationCodeTTL, phoneCodeCooldown)
	smsSender := sms.NewSender(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioFromNumber)
	images := storage.NewImageStore(afero.NewOsFs(), cfg.UploadDir, cfg.UploadMaxBytes)

	r := gin.New()
	r.Use(gin.Recovery(), middlewares.RequestID(), middlewares.RequestLogger(), middlewares.PrometheusMiddleware())

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/health", func(c *gin.Context) {
		hctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		status := gin.H{"status": "ok", "database": "ok", "redis": "ok"}
		code := http.StatusOK
		if err := database.DB.PingContext(hctx); err != nil {
			status["database"], status["status"], code = err.Error(), "degraded", http.StatusServiceUnavailable
		}
		if err := redisClient.Ping(hctx).Err(); err != nil {
			status["redis"], status["status"], code = err.Error(), "degraded", http.StatusServiceUnavailable
		}
		c.JSON(code, status)
	})
	r.Static("/images", images.Dir())

	controllers.RegisterRoutes(r.Group("/api"), controllers.Services{
		Auth:       services.NewAuthService(database.DB, users, tokens, codes, smsSender),
		Users:      users,
		Roles:      services.NewRoleService(database.DB),
		Foods:      services.NewFoodService(database.DB, cache.NewViewDedup(redisClient, cfg.ViewDedupWindow)),
		Categories: services.NewCategoryService(database.DB),
		FoodImages: services.NewFoodImageService(database.DB),
		Orders:     orders,
		Feedback:   services.NewFeedbackService(database.DB),
		Blogs:      services.NewBlogService(database.DB),
		Images:     images,
		Tokens:     tokens,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		utils.Zlog.Info("Parampara Foods API starting", zap.String("port", cfg.Port), zap.String("environment", cfg.Environment))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			utils.Zlog.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	utils.Zlog.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		utils.Zlog.Error("Graceful shutdown failed", zap.Error(err))
	}
}
