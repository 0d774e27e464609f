package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/fzj270452746/MJSort/internal/config"
	"github.com/fzj270452746/MJSort/internal/game"
	"github.com/fzj270452746/MJSort/internal/handler"
	"github.com/fzj270452746/MJSort/internal/health"
	mjNats "github.com/fzj270452746/MJSort/internal/nats"
	"github.com/fzj270452746/MJSort/internal/repository"
	"github.com/fzj270452746/MJSort/internal/service"
	"github.com/fzj270452746/MJSort/internal/task"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "启动牌局逻辑服务",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configFile)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		return serve(cfg)
	},
}

func serve(cfg *config.Config) error {
	logger := setupLogger(cfg.App.LogLevel)

	// 创建上下文
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 连接 NATS
	natsClient, err := mjNats.NewClient(cfg.NATS, cfg.App.Name)
	if err != nil {
		return fmt.Errorf("connect nats: %w", err)
	}
	defer natsClient.Close()

	// 连接 Redis，失败时不保存快照
	redisClient := connectRedis(ctx, cfg.Redis, logger)
	if redisClient != nil {
		defer redisClient.Close()
	}

	// 连接数据库，失败时不保存对局记录
	db := connectDatabase(ctx, cfg.Database, logger)
	if db != nil {
		defer db.Close()
	}

	// 启动时间轮
	scheduler := task.NewScheduler(cfg.Game.WorkerCount, cfg.Game.TickInterval)
	if err := scheduler.Start(); err != nil {
		return err
	}

	// 初始化服务
	manager := game.NewManager(cfg.Game.MaxSessions, cfg.Game.IdleTimeout)
	gameService := game.NewGameService(manager, scheduler, cfg.Game.TableConfig()).
		WithSeed(cfg.Game.Seed).
		WithPublisher(mjNats.NewEventPublisher(natsClient.Conn()))
	if redisClient != nil {
		gameService.WithSnapshotStore(service.NewSnapshotStore(redisClient, cfg.Redis.SnapshotTTL))
	}
	if db != nil {
		gameService.WithRecordStore(repository.NewGameRecordRepository(db))
	}
	gameService.Start()

	// 启动订阅者
	subscriber := mjNats.NewCommandSubscriber(natsClient.Conn(), handler.NewGameHandler(gameService), mjNats.SubscriberConfig{
		WorkerCount: cfg.NATS.WorkerCount,
		BufferSize:  cfg.NATS.BufferSize,
	})
	if err := subscriber.Start(ctx); err != nil {
		return fmt.Errorf("start subscriber: %w", err)
	}

	// 启动健康检查 HTTP 服务
	healthChecker := health.NewChecker(natsClient.Conn(), redisClient, db).WithStats(func() map[string]any {
		used, capacity := subscriber.GetBufferUsage()
		return map[string]any{
			"sessions":         gameService.SessionCount(),
			"scheduler":        scheduler.GetStats(),
			"commandBuffer":    used,
			"commandBufferCap": capacity,
		}
	})
	healthServer := startHealthServer(cfg.Health.Addr, healthChecker, logger)

	logger.Info("Logic service started", "name", cfg.App.Name)

	// 优雅退出
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	subscriber.Stop()
	if err := manager.Shutdown(shutdownCtx); err != nil {
		logger.Warn("Session manager shutdown incomplete", "error", err)
	}
	if err := gameService.Stop(shutdownCtx); err != nil {
		logger.Warn("Game service shutdown incomplete", "error", err)
	}
	scheduler.Stop()
	if err := healthServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("Health server shutdown failed", "error", err)
	}
	cancel()

	logger.Info("Logic service stopped")
	return nil
}

// startHealthServer 启动健康检查 HTTP 服务
func startHealthServer(addr string, healthChecker *health.Checker, logger *slog.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/health", healthChecker)
	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		if healthChecker.IsHealthy(r.Context()) {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("OK"))
		} else {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte("Not Ready"))
		}
	})

	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("Health check server started", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Health check server failed", "error", err)
		}
	}()
	return server
}

// connectRedis 连接 Redis，不可用时返回 nil
func connectRedis(ctx context.Context, cfg config.RedisConfig, logger *slog.Logger) *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		logger.Warn("Redis unavailable, snapshots disabled", "host", cfg.Host, "error", err)
		client.Close()
		return nil
	}

	logger.Info("Connected to Redis", "host", cfg.Host)
	return client
}

// connectDatabase 连接 PostgreSQL 并建表，不可用时返回 nil
func connectDatabase(ctx context.Context, cfg config.DatabaseConfig, logger *slog.Logger) *pgxpool.Pool {
	dsn := fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		cfg.User,
		cfg.Password,
		cfg.Host,
		cfg.Port,
		cfg.Name,
	)

	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		logger.Warn("Invalid database config, game records disabled", "error", err)
		return nil
	}

	poolConfig.MaxConns = int32(cfg.MaxOpenConns)
	poolConfig.MinConns = int32(cfg.MaxIdleConns)
	poolConfig.MaxConnLifetime = cfg.ConnMaxLifetime
	poolConfig.MaxConnIdleTime = 10 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		logger.Warn("Database unavailable, game records disabled", "host", cfg.Host, "error", err)
		return nil
	}

	initCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(initCtx); err != nil {
		logger.Warn("Database unavailable, game records disabled", "host", cfg.Host, "error", err)
		pool.Close()
		return nil
	}
	if err := repository.NewGameRecordRepository(pool).EnsureSchema(initCtx); err != nil {
		logger.Warn("Failed to create schema, game records disabled", "error", err)
		pool.Close()
		return nil
	}

	logger.Info("Connected to PostgreSQL", "host", cfg.Host)
	return pool
}
