package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/mjwhite/moneta/internal/config"
	"github.com/mjwhite/moneta/internal/database"
	"github.com/mjwhite/moneta/internal/modules/funds"
	fundshandlers "github.com/mjwhite/moneta/internal/modules/funds/handlers"
	"github.com/mjwhite/moneta/internal/modules/history"
	"github.com/mjwhite/moneta/internal/modules/ledger"
	ledgerhandlers "github.com/mjwhite/moneta/internal/modules/ledger/handlers"
	"github.com/mjwhite/moneta/internal/modules/overview"
	overviewhandlers "github.com/mjwhite/moneta/internal/modules/overview/handlers"
	"github.com/mjwhite/moneta/internal/modules/pricecache"
	"github.com/mjwhite/moneta/internal/scheduler"
	"github.com/mjwhite/moneta/internal/server"
	"github.com/mjwhite/moneta/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		// logger not up yet
		panic(err)
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})

	log.Info().Msg("Starting Moneta")

	ledgerDB, err := database.New(database.Config{
		Path:    filepath.Join(cfg.DataDir, "ledger.db"),
		Profile: database.ProfileLedger,
		Name:    "ledger",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open ledger database")
	}
	defer ledgerDB.Close()

	cacheDB, err := database.New(database.Config{
		Path:    filepath.Join(cfg.DataDir, "cache.db"),
		Profile: database.ProfileCache,
		Name:    "cache",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open cache database")
	}
	defer cacheDB.Close()

	if err := ledgerDB.Migrate(); err != nil {
		log.Fatal().Err(err).Msg("Failed to migrate ledger database")
	}
	if err := cacheDB.Migrate(); err != nil {
		log.Fatal().Err(err).Msg("Failed to migrate cache database")
	}

	// repositories and services
	fundRepo := funds.NewRepository(ledgerDB.Conn(), log)
	priceStore := pricecache.NewStore(cacheDB.Conn(), log)
	fundService := funds.NewService(fundRepo, priceStore, cfg.App.FundSalt, log)
	historyService := history.NewService(priceStore, fundRepo, cfg.App.FundSalt, cfg.App.HistoryDetail, log)
	overviewRepo := overview.NewRepository(ledgerDB.Conn(), cfg.App.Categories, log)
	overviewService := overview.NewService(overviewRepo, fundRepo, priceStore, cfg.App, log)
	ledgerRepo := ledger.NewRepository(ledgerDB.Conn(), log)

	// background scrape job
	sched := scheduler.New(log)
	sched.Start()
	defer sched.Stop()

	if cfg.QuotesFile != "" {
		source := pricecache.NewFileSource(cfg.QuotesFile)
		hash := func(name string) string { return funds.Hash(name, cfg.App.FundSalt) }
		ingestor := pricecache.NewIngestor(priceStore, fundRepo, source, hash, log)
		job := scheduler.NewScrapePricesJob(ingestor)
		if err := sched.AddJob(cfg.ScrapeSchedule, job); err != nil {
			log.Fatal().Err(err).Msg("Failed to register scrape job")
		}
	} else {
		log.Info().Msg("No quotes file configured, price scraping disabled")
	}

	srv := server.New(server.Config{
		Port:     cfg.Port,
		Log:      log,
		LedgerDB: ledgerDB,
		CacheDB:  cacheDB,
		DevMode:  cfg.DevMode,
		Modules: []server.RouteRegistrar{
			fundshandlers.NewHandler(fundService, historyService, log),
			overviewhandlers.NewHandler(overviewService, log),
			ledgerhandlers.NewHandler(ledgerRepo, fundRepo, log),
		},
	})

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	log.Info().Int("port", cfg.Port).Msg("Server started successfully")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}
