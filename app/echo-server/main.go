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

	"modaMarket/app/echo-server/router"
	"modaMarket/business/cart"
	"modaMarket/business/feature"
	"modaMarket/business/foryou"
	"modaMarket/business/interaction"
	"modaMarket/business/orders"
	"modaMarket/business/product"
	"modaMarket/business/recommend"
	"modaMarket/business/retrieval"
	userService "modaMarket/business/user"
	"modaMarket/internal/middleware"
	psqlRepo "modaMarket/internal/repository/postgres"
	redisRepo "modaMarket/internal/repository/redis"
	"modaMarket/internal/rest"
	"modaMarket/pkg/config"
	"modaMarket/pkg/database"
	redisdb "modaMarket/pkg/database/redis"
	"modaMarket/pkg/logger"
	"modaMarket/pkg/metrics"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const modelReloadInterval = 5 * time.Minute

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger.Init(cfg.App.Environment)
	logger.Info("Starting ModaMarket", "version", cfg.App.Version)

	db, err := database.InitPostgres(cfg)
	if err != nil {
		logger.Fatal("Failed to connect to database", "error", err)
	}
	logger.Info("Database connected successfully")

	if cfg.App.Environment == "development" {
		if err := database.Migrate(db); err != nil {
			logger.Fatal("Failed to migrate schema", "error", err)
		}
	}

	redisClient, err := redisdb.NewRedisClient(cfg)
	if err != nil {
		logger.Fatal("Failed to connect to Redis", "error", err)
	}
	defer func() {
		_ = redisdb.CloseRedisClient(redisClient)
	}()

	metrics.Init()

	// Init repo
	userRepo := psqlRepo.NewUserRepository(db)
	productRepo := psqlRepo.NewProductRepository(db)
	txnRepo := psqlRepo.NewTransactionRepository(db)
	cartRepo := psqlRepo.NewCartRepository(db)
	wishlistRepo := psqlRepo.NewWishlistRepository(db)
	ordersRepo := psqlRepo.NewOrdersRepository(db)
	interactionRepo := psqlRepo.NewInteractionRepository(db)

	tokenRepo := redisRepo.NewTokenRepository(redisClient)
	recommendCache := redisRepo.NewRecommendCacheRepository(redisClient)
	popularityCache := redisRepo.NewPopularityCacheRepository(redisClient)

	// Init service
	retrievalCfg := retrieval.DefaultConfig()
	if cfg.Recsys.TopNCandidates > 0 {
		retrievalCfg.TopN = cfg.Recsys.TopNCandidates
	}
	retrievalService := retrieval.NewService(retrievalCfg, txnRepo, userRepo, popularityCache)
	featureBuilder := feature.NewBuilder(feature.DefaultConfig(), retrievalService, productRepo)

	recommendCfg := recommend.DefaultConfig(cfg.Recsys.ModelPath)
	recommendCfg.TopNCandidates = retrievalCfg.TopN
	recommendService := recommend.NewService(recommendCfg, retrievalService, featureBuilder, productRepo, recommendCache, interactionRepo)

	forYouService := foryou.NewService(foryou.DefaultConfig(), userRepo, cartRepo, wishlistRepo, ordersRepo, productRepo, recommendCache)

	usersService := userService.NewUserService(userRepo, tokenRepo, cfg.JWT.SecretKey)
	productService := product.NewProductService(productRepo)
	cartService := cart.NewCartService(cartRepo, wishlistRepo, productRepo)
	ordersService := orders.NewOrdersService(ordersRepo, cartRepo, productRepo, recommendCache)
	interactionService := interaction.NewInteractionService(interactionRepo)

	// Init handler
	userHandler := rest.NewUserHandler(usersService)
	productHandler := rest.NewProductHandler(productService)
	cartHandler := rest.NewCartHandler(cartService)
	ordersHandler := rest.NewOrdersHandler(ordersService)
	interactionHandler := rest.NewInteractionHandler(interactionService)
	recommendHandler := rest.NewRecommendHandler(recommendService, forYouService, retrievalService)

	// First snapshot before serving; recommendations degrade gracefully if
	// it fails, so the error is not fatal.
	startupCtx, cancelStartup := context.WithTimeout(context.Background(), 2*time.Minute)
	if err := retrievalService.RefreshSnapshot(startupCtx); err != nil {
		logger.Warn("initial snapshot refresh failed", "error", err)
	}
	cancelStartup()

	if err := recommendService.LoadModel(); err != nil {
		logger.Warn("model not loaded, serving retrieval-only fallback", "path", cfg.Recsys.ModelPath, "error", err)
	}

	stopBackground := make(chan struct{})
	go snapshotRefreshLoop(retrievalService, time.Duration(cfg.Recsys.SnapshotMinutes)*time.Minute, stopBackground)
	go modelReloadLoop(recommendService, stopBackground)

	// Init echo
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.HTTPErrorHandler = middleware.ErrorHandler

	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins: []string{"http://localhost:3000", "http://localhost:8080"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodPatch},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))

	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	authRequired := middleware.AuthMiddlewareWithRedis(cfg.JWT.SecretKey, usersService)
	adminOnly := middleware.AdminOnly()

	api := e.Group("/api/v1")
	router.SetupUserRoutes(api, userHandler, authRequired)
	router.SetupProductRoutes(api, productHandler)
	router.SetupCartRoutes(api, cartHandler, authRequired)
	router.SetOrdersRoutes(api, ordersHandler, authRequired)
	router.SetInteractionRoutes(api, interactionHandler, authRequired)
	router.SetRecommendRoutes(api, recommendHandler, authRequired, adminOnly)

	// Goroutine server
	go func() {
		addr := fmt.Sprintf(":%s", cfg.Server.Port)
		logger.Info("Server starting", "address", addr)
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", "error", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")
	close(stopBackground)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		logger.Error("Server shutdown error", "error", err)
	}

	logger.Info("Server stopped")
}

func snapshotRefreshLoop(svc *retrieval.Service, interval time.Duration, stop <-chan struct{}) {
	if interval <= 0 {
		interval = 15 * time.Minute
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
			if err := svc.RefreshSnapshot(ctx); err != nil {
				logger.Error("snapshot refresh failed", "error", err)
			}
			cancel()
		case <-stop:
			return
		}
	}
}

func modelReloadLoop(svc *recommend.Service, stop <-chan struct{}) {
	ticker := time.NewTicker(modelReloadInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			swapped, err := svc.ReloadIfNewer()
			if err != nil {
				logger.Error("model reload check failed", "error", err)
				continue
			}
			if swapped {
				logger.Info("model artifact reloaded")
			}
		case <-stop:
			return
		}
	}
}
