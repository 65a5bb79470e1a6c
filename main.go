// Command chargemaster-api serves a hospital standard-charge file over HTTP:
// item search, per-unit drug prices, description parsing and estimates.
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

	"github.com/giygas/chargemaster-api/chargeparser"
	"github.com/giygas/chargemaster-api/config"
	"github.com/giygas/chargemaster-api/data"
	"github.com/giygas/chargemaster-api/logging"
	"github.com/giygas/chargemaster-api/scheduler"
	"github.com/giygas/chargemaster-api/server"
	"github.com/giygas/chargemaster-api/validation"
	"github.com/joho/godotenv"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func run() error {
	// A missing .env is fine, the environment may be set by the service manager
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("configuration: %w", err)
	}

	logging.InitLoggerWithConfig(cfg)
	defer func() {
		if err := logging.DefaultLoggingService.Close(); err != nil {
			fmt.Fprintln(os.Stderr, "Error closing log file:", err)
		}
	}()

	logging.Info("Configuration loaded",
		"env", cfg.Env.String(),
		"address", cfg.Address,
		"port", cfg.Port,
		"data_source", cfg.DataSource,
		"update_times", cfg.UpdateTimes,
		"default_price_type", cfg.DefaultPriceType)

	dataContainer := data.NewDataContainer()
	dataContainer.SetServerStartTime(time.Now())

	parser := chargeparser.NewChargesParser(cfg.DataSource, cfg.DownloadTimeout)
	sched := scheduler.NewScheduler(dataContainer, parser, validation.NewDataValidator(), cfg.UpdateTimes)

	if err := sched.Start(); err != nil {
		return fmt.Errorf("scheduler: %w", err)
	}
	defer sched.Stop()

	srv := server.NewServer(cfg, dataContainer)

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- srv.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		logging.Info("Received shutdown signal", "signal", sig.String())
	case err := <-serverErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server: %w", err)
		}
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	return nil
}
