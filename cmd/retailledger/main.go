package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/riandyrn/otelchi"
	"go.uber.org/zap"

	"github.com/neomorfeo/retailledger/internal/adapter/fsm"
	otelAdapter "github.com/neomorfeo/retailledger/internal/adapter/otel"
	redisAdapter "github.com/neomorfeo/retailledger/internal/adapter/redis"
	riverAdapter "github.com/neomorfeo/retailledger/internal/adapter/river"
	"github.com/neomorfeo/retailledger/internal/adapter/sqlite"
	"github.com/neomorfeo/retailledger/internal/adapter/zaplog"
	"github.com/neomorfeo/retailledger/internal/app"
	"github.com/neomorfeo/retailledger/internal/config"
	"github.com/neomorfeo/retailledger/internal/domain"

	handler "github.com/neomorfeo/retailledger/internal/adapter/http"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "retailledger: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger, err := zaplog.NewLogger(cfg.Logging.Level)
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Telemetry ---
	providers, err := otelAdapter.Setup(ctx, cfg.OTel())
	if err != nil {
		return fmt.Errorf("otel: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := providers.Shutdown(shutdownCtx); err != nil {
			logger.Warn("otel shutdown", zap.Error(err))
		}
	}()

	// --- Adapters (out) ---
	db, err := otelAdapter.OpenDB(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}
	store, err := sqlite.NewFromDB(db)
	if err != nil {
		db.Close()
		return fmt.Errorf("database: %w", err)
	}
	defer store.Close()

	riverClient, err := riverAdapter.Setup(ctx, store.DB(), logger, cfg.Events())
	if err != nil {
		return fmt.Errorf("river: %w", err)
	}
	if err := riverClient.Start(context.WithoutCancel(ctx)); err != nil {
		return fmt.Errorf("starting river: %w", err)
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := riverClient.Stop(stopCtx); err != nil {
			logger.Warn("river shutdown", zap.Error(err))
		}
	}()

	ledger, err := otelAdapter.NewTracingLedger(store.Inventory())
	if err != nil {
		return fmt.Errorf("ledger instrumentation: %w", err)
	}

	var (
		sequences domain.SequenceAllocator = store.Sequences()
		locker    domain.Locker
	)
	if cfg.UsesRedis() {
		client, err := redisAdapter.Connect(ctx, cfg.Redis.Address)
		if err != nil {
			return err
		}
		defer client.Close()

		if cfg.Ledger.SequenceBackend == config.SequenceBackendRedis {
			sequences = redisAdapter.NewSequences(client, store.Sequences())
		}
		if cfg.Ledger.OrderLocks {
			locker = redisAdapter.NewLocker(client)
		}
		logger.Info("redis connected",
			zap.String("address", cfg.Redis.Address),
			zap.String("sequence_backend", cfg.Ledger.SequenceBackend),
			zap.Bool("order_locks", cfg.Ledger.OrderLocks),
		)
	}
	sequences = otelAdapter.NewTracingSequences(sequences)

	publisher := otelAdapter.NewTracingPublisher(riverAdapter.NewPublisher(riverClient))

	// --- Application ---
	orders, err := app.NewOrderService(app.OrderServiceDeps{
		UnitOfWork:        store,
		Orders:            otelAdapter.NewTracingOrders(store.Orders()),
		Products:          store.Products(),
		Customers:         store.Customers(),
		Ledger:            ledger,
		Sequences:         sequences,
		Validator:         fsm.New(),
		Publisher:         publisher,
		Locker:            locker,
		LockTTL:           cfg.Ledger.LockTTL,
		LowStockThreshold: cfg.Ledger.LowStockThreshold,
		Logger:            logger,
	})
	if err != nil {
		return fmt.Errorf("order service: %w", err)
	}

	services := handler.Services{
		Orders:    orders,
		Catalog:   app.NewCatalogService(store.Products(), ledger, cfg.Ledger.LowStockThreshold, logger),
		Customers: app.NewCustomerService(store, store.Customers(), sequences),
		Sequences: app.NewSequenceService(sequences),
	}

	// --- Adapters (in) ---
	router := chi.NewMux()
	router.Use(otelchi.Middleware(cfg.Telemetry.ServiceName, otelchi.WithChiRoutes(router)))
	router.Use(middleware.RequestID)
	router.Use(handler.RequestLogger(logger))
	router.Use(middleware.Recoverer)

	api := humachi.New(router, huma.DefaultConfig("retailledger", cfg.Telemetry.ServiceVersion))
	handler.Register(api, services)

	// --- Server ---
	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("retailledger listening",
			zap.String("port", cfg.Server.Port),
			zap.String("docs", "http://localhost:"+cfg.Server.Port+"/docs"),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("server: %w", err)
		}
	case <-ctx.Done():
	}

	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	logger.Info("stopped")
	return nil
}
