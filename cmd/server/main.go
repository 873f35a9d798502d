package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Esraa-27/flash-sale-api/internal/cache"
	"github.com/Esraa-27/flash-sale-api/internal/config"
	"github.com/Esraa-27/flash-sale-api/internal/database"
	"github.com/Esraa-27/flash-sale-api/internal/handler"
	"github.com/Esraa-27/flash-sale-api/internal/metrics"
	"github.com/Esraa-27/flash-sale-api/internal/queue"
	"github.com/Esraa-27/flash-sale-api/internal/repository"
	"github.com/Esraa-27/flash-sale-api/internal/router"
	"github.com/Esraa-27/flash-sale-api/internal/scheduler"
	"github.com/Esraa-27/flash-sale-api/internal/service"
)

const shutdownGrace = 10 * time.Second

func main() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	if err := godotenv.Load(); err != nil {
		slog.Info(".env not found; using defaults/env")
	}

	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName, database.PoolConfig{
		MaxOpenConns:    cfg.DBMaxOpenConns,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		ConnMaxLifetime: cfg.DBConnMaxLifetime,
	})
	if err != nil {
		slog.Error("database: connect failed", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	store := buildCache(cfg)
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	publisher := queue.NewPublisher(cfg.RabbitMQURL)
	defer publisher.Close()

	products := repository.NewProductRepo(db)
	holds := repository.NewHoldRepo(db)
	orders := repository.NewOrderRepo(db)
	payments := repository.NewPaymentRepo(db)

	stock := service.NewStockView(products, holds, store, m)
	holdManager := service.NewHoldManager(db, products, holds, stock, m, cfg.HoldTTL)
	orderManager := service.NewOrderManager(db, holds, orders, stock, publisher, m)
	webhookProcessor := service.NewWebhookProcessor(db, orders, holds, payments, stock, publisher, m)

	e := echo.New()
	router.Register(e,
		handler.NewProductHandler(products, stock),
		handler.NewHoldHandler(holdManager, m),
		handler.NewOrderHandler(orderManager),
		handler.NewWebhookHandler(webhookProcessor, m),
	)
	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sweeper := scheduler.NewSweeper(holdManager, cfg.SweepInterval)
	go sweeper.Run(ctx)

	addr := ":" + cfg.Port
	slog.Info("listening", "addr", addr, "env", cfg.Env, "cache_backend", cfg.CacheBackend)

	go func() {
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			slog.Error("server: start failed", "err", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown", "err", err)
	}
}

func buildCache(cfg config.Config) cache.Cache {
	switch cfg.CacheBackend {
	case "redis":
		client := cache.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		return cache.NewRedisCache(client)
	default:
		return cache.NewMemoryCache(0, cfg.CacheTTL)
	}
}
