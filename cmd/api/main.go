package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"storefront/internal/config"
	"storefront/internal/domain/model"
	"storefront/internal/handler"
	"storefront/internal/infra/db"
	"storefront/internal/infra/events"
	"storefront/internal/infra/memory"
	infraRepo "storefront/internal/infra/repository"
	"storefront/internal/infra/session"
	"storefront/internal/metrics"
	repo "storefront/internal/repository"
	"storefront/internal/server"
	"storefront/internal/usecase"
	"storefront/internal/validator"
)

// 永続化まわりの実装一式
type stores struct {
	products  repo.ProductRepository
	inventory repo.InventoryRepository
	ledger    repo.OrderLineRepository
	checkouts repo.CheckoutRepository
	carts     repo.CartRepository
	closers   []func() error
}

func main() {
	cfg, err := config.LoadWithDotenv()
	if err != nil {
		slog.Error("config load failed", "error", err)
		os.Exit(1)
	}

	logger := setupLogger(cfg.LogLevel)
	slog.SetDefault(logger)

	//価格はJSONで数値として返す
	decimal.MarshalJSONWithoutQuotes = true

	slog.Info("starting storefront",
		"environment", cfg.GoEnv,
		"port", cfg.Port,
		"store_driver", cfg.StoreDriver,
	)

	st, err := buildStores(cfg)
	if err != nil {
		slog.Error("store setup failed", "error", err)
		os.Exit(1)
	}

	//イベント送信（ブローカー未設定なら送らない）
	var publisher events.Publisher = events.NopPublisher{}
	if len(cfg.KafkaBrokers) > 0 {
		publisher = events.NewKafkaPublisher(events.NewKafkaWriter(cfg.KafkaBrokers, cfg.KafkaTopic), logger)
		slog.Info("kafka publisher enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
	}

	m := metrics.New()

	//Usecase生成
	reconciler := usecase.NewStockReconciler(st.inventory, cfg.CheckoutParallelism)
	checkoutUC := usecase.NewCheckoutUsecase(st.inventory, st.ledger, publisher, m, logger, cfg.CheckoutParallelism)
	productUC := usecase.NewProductUsecase(st.products, logger)
	cartUC := usecase.NewCartUsecase(st.carts, st.inventory, reconciler, logger)
	paymentUC := usecase.NewPaymentUsecase(validator.NewPaymentValidator(), st.carts, st.checkouts, checkoutUC, logger)
	orderUC := usecase.NewOrderUsecase(st.ledger, logger)

	//Handler生成
	srv := server.New(cfg, logger, m, server.Handlers{
		Product: handler.NewProductHandler(productUC),
		Cart:    handler.NewCartHandler(cartUC),
		Order:   handler.NewOrderHandler(paymentUC, orderUC),
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
	case err := <-errCh:
		if err != nil {
			slog.Error("server error", "error", err)
		}
	}

	slog.Info("shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
	}
	if err := publisher.Close(); err != nil {
		slog.Error("publisher close failed", "error", err)
	}
	for _, c := range st.closers {
		if err := c(); err != nil {
			slog.Error("close failed", "error", err)
		}
	}

	slog.Info("server exited")
}

func buildStores(cfg config.Config) (stores, error) {
	var st stores

	switch cfg.StoreDriver {
	case config.StoreDriverPostgres:
		gdb, err := db.Connect(cfg)
		if err != nil {
			return stores{}, err
		}
		if cfg.RunMigrations {
			if err := db.Migrate(gdb); err != nil {
				return stores{}, err
			}
		}
		st.products = infraRepo.NewProductGormRepository(gdb)
		st.inventory = infraRepo.NewInventoryGormRepository(gdb)
		st.ledger = infraRepo.NewOrderLineGormRepository(gdb)
		st.checkouts = infraRepo.NewCheckoutGormRepository(gdb)
		if sqlDB, err := gdb.DB(); err == nil {
			st.closers = append(st.closers, sqlDB.Close)
		}
	default:
		inv := memory.NewInventoryStore(demoProducts()...)
		st.products = inv
		st.inventory = inv
		st.ledger = memory.NewOrderLineStore()
		st.checkouts = memory.NewCheckoutStore()
		slog.Warn("using in-memory stores, data is lost on restart")
	}

	//カートはセッションと同じ寿命
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Ping(ctx).Err(); err != nil {
			return stores{}, err
		}
		st.carts = session.NewRedisCartStore(client, cfg.SessionTTL)
		st.closers = append(st.closers, client.Close)
	} else {
		st.carts = memory.NewCartStore(cfg.SessionTTL)
	}

	return st, nil
}

// memoryドライバ用の初期カタログ
func demoProducts() []model.Product {
	return []model.Product{
		{ID: 1, Name: "Chaise en chêne", Price: decimal.RequireFromString("49.90"), Image: "chaise.jpg", Inventory: 20},
		{ID: 2, Name: "Table basse", Price: decimal.RequireFromString("129.00"), Image: "table.jpg", Inventory: 5},
		{ID: 3, Name: "Lampe de bureau", Price: decimal.RequireFromString("24.50"), Image: "lampe.jpg", Inventory: 12},
	}
}

func setupLogger(level string) *slog.Logger {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: logLevel,
	}

	return slog.New(slog.NewJSONHandler(os.Stdout, opts))
}
