package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/tradesphere/tradesphere-crm/internal/app"
	"github.com/tradesphere/tradesphere-crm/internal/auth"
	"github.com/tradesphere/tradesphere-crm/internal/currency"
	"github.com/tradesphere/tradesphere-crm/internal/observability"
	"github.com/tradesphere/tradesphere-crm/internal/platform/cache"
	"github.com/tradesphere/tradesphere-crm/internal/platform/db"
	"github.com/tradesphere/tradesphere-crm/internal/procurement"
	"github.com/tradesphere/tradesphere-crm/internal/sales/deals"
	"github.com/tradesphere/tradesphere-crm/internal/sales/invoices"
	"github.com/tradesphere/tradesphere-crm/internal/sales/quotes"
	"github.com/tradesphere/tradesphere-crm/internal/sequence"
	"github.com/tradesphere/tradesphere-crm/internal/users"
	"github.com/tradesphere/tradesphere-crm/jobs"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	tokens := auth.NewTokenStore(redisClient, cfg.TokenTTL)
	userRepo := users.NewRepository(pool)
	authService := auth.NewService(userRepo, tokens)
	authHandler := auth.NewHandler(logger, authService)
	authMiddleware := auth.NewMiddleware(tokens)

	seqService := sequence.NewService(sequence.NewRepository(pool))

	fx := currency.NewConverter(redisClient, logger, currency.Options{
		APIURL:   cfg.FXAPIURL,
		Base:     cfg.BaseCurrency,
		CacheTTL: cfg.FXCacheTTL,
	})

	jobClient, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Error("init job client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()

	quoteRepo := quotes.NewRepository(pool)
	dealRepo := deals.NewRepository(pool)
	quoteService := quotes.NewService(quoteRepo, dealRepo, seqService, fx, jobClient, logger)
	quotesHandler := quotes.NewHandler(logger, quoteService)

	invoiceService := invoices.NewService(invoices.NewRepository(pool), quoteRepo, seqService)
	invoicesHandler := invoices.NewHandler(logger, invoiceService)

	poService := procurement.NewService(procurement.NewRepository(pool), seqService, jobClient, logger)
	procurementHandler := procurement.NewHandler(logger, poService)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	metrics := observability.NewMetrics()

	router := app.NewRouter(app.RouterParams{
		Logger:             logger,
		Config:             cfg,
		AuthHandler:        authHandler,
		AuthMiddleware:     authMiddleware,
		QuotesHandler:      quotesHandler,
		InvoicesHandler:    invoicesHandler,
		ProcurementHandler: procurementHandler,
		JobHandler:         jobHandler,
		Metrics:            metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
