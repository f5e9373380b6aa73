package main

import (
	"context"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	grpclib "google.golang.org/grpc"

	"github.com/cactuswealth/wealth-analytics/internal/adapter/cache"
	grpcadapter "github.com/cactuswealth/wealth-analytics/internal/adapter/grpc"
	"github.com/cactuswealth/wealth-analytics/internal/adapter/marketdata"
	"github.com/cactuswealth/wealth-analytics/internal/adapter/notify"
	"github.com/cactuswealth/wealth-analytics/internal/adapter/repository/postgres"
	"github.com/cactuswealth/wealth-analytics/internal/config"
	cronrunner "github.com/cactuswealth/wealth-analytics/internal/cron"
	"github.com/cactuswealth/wealth-analytics/internal/domain"
	"github.com/cactuswealth/wealth-analytics/internal/logger"
	"github.com/cactuswealth/wealth-analytics/internal/usecase/backtest"
	"github.com/cactuswealth/wealth-analytics/internal/usecase/dashboard"
	"github.com/cactuswealth/wealth-analytics/internal/usecase/growth"
	"github.com/cactuswealth/wealth-analytics/internal/usecase/snapshot"
	"github.com/cactuswealth/wealth-analytics/internal/usecase/valuation"
)

func main() {
	cfgPath := os.Getenv("CW_CONFIG")
	if cfgPath == "" {
		cfgPath = "config/config.yaml"
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		panic(err)
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	// 1. Setup Database
	db, err := postgres.NewDB(ctx, cfg.DB.DSN, postgres.PoolConfig{
		MaxOpenConns:    cfg.DB.MaxOpenConns,
		MaxIdleConns:    cfg.DB.MaxIdleConns,
		ConnMaxLifetime: cfg.DB.ConnMaxLifetime,
	})
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}
	defer func() { _ = db.Close() }()

	if cfg.DB.Migrate {
		if err := db.Migrate(ctx); err != nil {
			log.Fatal("failed to migrate database", zap.Error(err))
		}
	}

	// 2. Cache and outbound queue
	var (
		store    domain.CacheStore = cache.NopStore{}
		notifier domain.Notifier   = notify.LogNotifier{Logger: log}
	)
	if cfg.Redis.Enabled {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer func() { _ = rdb.Close() }()

		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Warn("redis unavailable, caching disabled", zap.String("addr", cfg.Redis.Addr), zap.Error(err))
		} else {
			store = cache.NewRedisStore(rdb)
			notifier = notify.NewRedisStreamNotifier(rdb, cfg.Redis.NotificationStream)
			log.Info("redis connected", zap.String("addr", cfg.Redis.Addr))
		}
	}

	// 3. Initialize Repositories and gateways
	portfolioRepo := postgres.NewPortfolioRepository(db)
	snapshotRepo := postgres.NewSnapshotRepository(db)
	marketData := marketdata.NewEODHDClient(cfg.MarketData.BaseURL, cfg.MarketData.APIKey, cfg.MarketData.Timeout, log)

	// 4. Initialize Services (Use Cases)
	valuationService := valuation.NewValuationService(portfolioRepo, marketData, log)
	snapshotService := snapshot.NewSnapshotService(valuationService, snapshotRepo, portfolioRepo, notifier, log)
	growthService := growth.NewGrowthService(portfolioRepo, snapshotRepo, log)
	dashboardService := dashboard.NewDashboardService(portfolioRepo, snapshotRepo, growthService, store, cfg.Dashboard.CacheTTL, log)
	backtestService := backtest.NewBacktestService(marketData, store, log, backtest.Options{
		FetchTimeout:   cfg.Backtest.FetchTimeout,
		MaxConcurrency: cfg.Backtest.MaxConcurrency,
		CacheTTL:       cfg.Backtest.CacheTTL,
	})

	// 5. Scheduled snapshots
	if cfg.Cron.Enabled {
		runner := cronrunner.New(log, ctx)
		if _, err := runner.Add("portfolio-snapshots", cfg.Cron.SnapshotSpec, cronrunner.SnapshotJob(snapshotService, log)); err != nil {
			log.Fatal("invalid snapshot schedule", zap.String("spec", cfg.Cron.SnapshotSpec), zap.Error(err))
		}
		runner.Start()
		defer runner.Stop()
	}

	// 6. Start gRPC Server
	grpcServer := grpclib.NewServer(
		grpclib.ChainUnaryInterceptor(
			grpcadapter.LoggingInterceptor(log),
			grpcadapter.AuthInterceptor(cfg.Server.APIToken),
		),
	)
	grpcadapter.RegisterAnalyticsServer(grpcServer, grpcadapter.NewServer(
		valuationService,
		snapshotService,
		growthService,
		dashboardService,
		backtestService,
	))

	lis, err := net.Listen("tcp", cfg.Server.GRPCAddr)
	if err != nil {
		log.Fatal("failed to listen", zap.String("addr", cfg.Server.GRPCAddr), zap.Error(err))
	}

	go func() {
		log.Info("gRPC server listening", zap.String("addr", cfg.Server.GRPCAddr))
		if err := grpcServer.Serve(lis); err != nil {
			log.Error("gRPC server stopped", zap.Error(err))
			stop()
		}
	}()

	// Graceful shutdown
	<-ctx.Done()
	log.Info("shutting down gracefully")
	grpcServer.GracefulStop()
	log.Info("gRPC server stopped")
}
