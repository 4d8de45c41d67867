package main

import (
	"fmt"
	"net/http"
	"os"
	_ "time/tzdata"

	"parking-service/internal/client"
	"parking-service/internal/clock"
	"parking-service/internal/config"
	"parking-service/internal/db"
	httphandler "parking-service/internal/http"
	"parking-service/internal/logger"
	"parking-service/internal/metrics"
	"parking-service/internal/repository"
	"parking-service/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	appLogger := logger.New(cfg.Environment)

	database, err := db.New(cfg, appLogger)
	if err != nil {
		appLogger.Fatal().Err(err).Msg("failed to connect database")
	}

	collector := metrics.New()

	scanRepo := repository.NewScanEventRepository(database)
	rateRepo := repository.NewRateRepository(database)

	rateService := service.NewRateService(rateRepo, cfg.Billing.DefaultRates, collector, appLogger)
	parkingService := service.NewParkingService(scanRepo, rateService, collector, appLogger, service.ParkingOptions{
		Clock:      clock.Real{},
		Location:   cfg.Billing.Location,
		Comparison: cfg.Analytics.Comparison,
		Source:     client.NewSourceClient(cfg),
	})

	var metricsHandler http.Handler
	if cfg.Metrics.Enabled {
		metricsHandler = collector.Handler()
	}

	handler := httphandler.NewHandler(parkingService, rateService, appLogger)
	router := httphandler.NewRouter(handler, metricsHandler, cfg.Environment)

	addr := fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port)
	appLogger.Info().
		Str("addr", addr).
		Str("timezone", cfg.Billing.Location.String()).
		Str("comparison", string(cfg.Analytics.Comparison)).
		Bool("source_sync", cfg.Source.URL != "").
		Msg("starting parking service")

	if err := router.Run(addr); err != nil {
		appLogger.Error().Err(err).Msg("failed to start server")
		os.Exit(1)
	}
}
