package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"go.uber.org/zap"

	"github.com/ecoalliance/cotizador/internal/config"
	"github.com/ecoalliance/cotizador/internal/render/pdf"
	"github.com/ecoalliance/cotizador/internal/repository/filestore"
	"github.com/ecoalliance/cotizador/internal/repository/mongodb"
	"github.com/ecoalliance/cotizador/internal/repository/sheets"
	"github.com/ecoalliance/cotizador/internal/scheduler"
	"github.com/ecoalliance/cotizador/internal/server/handlers"
	"github.com/ecoalliance/cotizador/internal/server/router"
	"github.com/ecoalliance/cotizador/internal/service/pricing"
	"github.com/ecoalliance/cotizador/internal/service/quotation"
	reportingsvc "github.com/ecoalliance/cotizador/internal/service/reporting"
	"github.com/ecoalliance/cotizador/pkg/clients/webhook"
	"github.com/ecoalliance/cotizador/pkg/logger"
)

const companyName = "Eco Alliance"

func main() {
	cfg, err := config.Load("")
	if err != nil {
		panic(err)
	}

	baseLogger := logger.Must(logger.New(logger.Options{
		Level:       cfg.Server.LogLevel,
		Development: cfg.Server.Development(),
	}))
	defer func() { _ = baseLogger.Sync() }()

	zap.ReplaceGlobals(baseLogger)

	store, err := filestore.New(cfg.Storage.QuotationsDir, logger.Named(baseLogger, "repo.filestore"))
	if err != nil {
		baseLogger.Fatal("failed to init quotation store", zap.Error(err))
	}

	var mirrors []quotation.NamedSink

	var sheetClient *sheets.Client
	if cfg.Sheets.Enabled() {
		sheetClient, err = sheets.NewClient(context.Background(), cfg.Sheets, logger.Named(baseLogger, "repo.sheets"))
		if err != nil {
			baseLogger.Fatal("failed to init sheets client", zap.Error(err))
		}
		mirrors = append(mirrors, quotation.NamedSink{Name: "sheets", Sink: sheets.NewLedger(sheetClient)})
	} else {
		baseLogger.Warn("google sheets not configured, ledger and daily summary row disabled")
	}

	if cfg.MongoDB.Enabled() {
		mongoRepo, err := mongodb.NewMongoDBRepository(context.Background(), cfg.MongoDB.URI, cfg.MongoDB.DBName)
		if err != nil {
			baseLogger.Fatal("failed to init mongodb repository", zap.Error(err))
		}
		defer func() {
			if err := mongoRepo.Close(context.Background()); err != nil {
				baseLogger.Error("failed to close mongodb connection", zap.Error(err))
			}
		}()
		mirrors = append(mirrors, quotation.NamedSink{Name: "mongodb", Sink: mongoRepo})
	}

	loc, err := cfg.Reporting.Location()
	if err != nil {
		baseLogger.Fatal("invalid timezone", zap.Error(err))
	}

	engine := pricing.NewEngine(cfg.Pricing.Tariff, logger.Named(baseLogger, "svc.pricing"), pricing.WithLocation(loc))
	quoteSvc := quotation.NewService(engine, cfg.Pricing, store, logger.Named(baseLogger, "svc.quotation"), mirrors...)

	webhookClient := webhook.NewClient(cfg.Webhooks)
	baseLogger.Info("webhook proxy configured", zap.Strings("webhooks", webhookClient.Names()))

	httpEngine := router.New(
		handlers.NewQuotationHandler(quoteSvc, pdf.New(companyName), logger.Named(baseLogger, "handlers.quotation")),
		handlers.NewWebhookProxyHandler(webhookClient, logger.Named(baseLogger, "handlers.webhook")),
		logger.Named(baseLogger, "router"),
	)

	var summarySheet sheets.Repository
	if sheetClient != nil {
		summarySheet = sheetClient
	}
	reportingSvc := reportingsvc.NewService(store, summarySheet, logger.Named(baseLogger, "svc.reporting"))

	sched, err := scheduler.NewScheduler(cfg.Reporting, reportingSvc, logger.Named(baseLogger, "scheduler"))
	if err != nil {
		baseLogger.Fatal("failed to init scheduler", zap.Error(err))
	}
	if err := sched.Start(); err != nil {
		baseLogger.Fatal("failed to start scheduler", zap.Error(err))
	}
	defer sched.Stop()

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      httpEngine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.Webhooks.Timeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		baseLogger.Info("server starting", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			baseLogger.Fatal("http server crashed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	baseLogger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		baseLogger.Error("graceful shutdown failed", zap.Error(err))
	}
}
