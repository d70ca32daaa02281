package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	_ "bintobloom/api/swagger" // swagger docs
	"bintobloom/internal/config"
	"bintobloom/internal/database"
	"bintobloom/internal/events"
	"bintobloom/internal/handler"
	"bintobloom/internal/lock"
	"bintobloom/internal/logging"
	"bintobloom/internal/middleware"
	"bintobloom/internal/payment"
	"bintobloom/internal/repository"
	"bintobloom/internal/reward"
	"bintobloom/internal/scheduler"
	"bintobloom/internal/search"
	"bintobloom/internal/service"
	"bintobloom/internal/websocket"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// @title           BinToBloom API
// @version         1.0
// @description     Waste pickup scheduling, collection, billing and eco rewards.
// @host            localhost:8080
// @BasePath        /api
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	envFile := flag.String("env", "configs/.env", "dotenv file loaded before reading the environment")
	configFile := flag.String("config", "configs/config.yaml", "YAML configuration file")
	flag.Parse()

	cfg, err := config.Load(*envFile, *configFile)
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	log := logging.NewLogger(cfg.Logging.Level)
	slog.SetDefault(log)

	if err := run(cfg, log); err != nil {
		log.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	db, err := database.NewConnection(cfg.Database, log)
	if err != nil {
		return err
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}

	hub := websocket.NewHub(log)
	go hub.Run(ctx)

	publisher := events.NewFanout(log, hub)
	if len(cfg.Kafka.Brokers) > 0 {
		kafkaPub := events.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		defer kafkaPub.Close()
		publisher.Add(kafkaPub)
		log.Info("publishing events to kafka", "brokers", cfg.Kafka.Brokers, "topic", cfg.Kafka.Topic)
	}

	var searcher service.PickupSearcher
	if cfg.Search.MeiliHost != "" {
		index := search.NewPickupIndex(cfg.Search.MeiliHost, cfg.Search.MeiliAPIKey, cfg.Search.Index)
		if err := index.Init(); err != nil {
			log.Warn("meilisearch unavailable, falling back to database search", "error", err)
		} else {
			publisher.Add(index)
			searcher = index
		}
	}

	var locker lock.Locker = lock.NewMemory()
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			return err
		}
		locker = lock.NewRedis(rdb, "bintobloom:")
		log.Info("using redis for payment locks", "addr", cfg.Redis.Addr)
	}

	var gateway payment.Gateway
	switch cfg.Payment.Provider {
	case "stripe":
		gateway = payment.NewStripeGateway(cfg.Payment.StripeAPIKey)
	default:
		gateway = payment.NewHMACGateway(cfg.Payment.KeyID, cfg.Payment.Secret)
	}

	repos := repository.NewRepositories(db)
	svc := service.New(repos, service.Options{
		Calculator:    reward.NewCalculator(cfg.Rewards.Multipliers),
		Gateway:       gateway,
		Locker:        locker,
		Publisher:     publisher,
		Searcher:      searcher,
		Clock:         service.SystemClock(loc),
		JWTSecret:     cfg.Auth.JWTSecret,
		TokenTTL:      cfg.Auth.TokenTTL,
		Currency:      cfg.Payment.Currency,
		VerifyLockTTL: cfg.Payment.VerifyLockTTL,
		Logger:        log,
	})

	if cfg.Scheduler.Enabled {
		jobs := scheduler.New(svc.Leaderboard, cfg.Scheduler.LeaderboardCron, loc, log)
		if err := jobs.Start(); err != nil {
			return err
		}
		defer jobs.Stop()
	}

	gin.SetMode(cfg.Server.Mode)
	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestLogger(log))

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.CORS.AllowOrigins
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	router.Use(cors.New(corsConfig))

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/health", func(c *gin.Context) {
		status := http.StatusOK
		state := "OK"
		if sqlDB, err := db.DB(); err != nil || sqlDB.PingContext(c.Request.Context()) != nil {
			status, state = http.StatusServiceUnavailable, "DB_UNAVAILABLE"
		}
		c.JSON(status, gin.H{"status": state})
	})

	auth := middleware.NewAuth(cfg.Auth.JWTSecret, svc.Roles)
	router.GET("/ws", auth.Authenticate(), func(c *gin.Context) {
		actor, _ := middleware.CurrentActor(c)
		websocket.ServeWs(hub, c, actor)
	})

	handler.RegisterAll(router.Group("/api"), svc, auth, handler.RouterConfig{
		TokenTTL:      cfg.Auth.TokenTTL,
		SecureCookies: cfg.Server.Mode == gin.ReleaseMode,
		Logger:        log,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
