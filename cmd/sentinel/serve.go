package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/newthinker/sentinel/internal/api"
	handlerapi "github.com/newthinker/sentinel/internal/api/handler/api"
	"github.com/newthinker/sentinel/internal/app"
	"github.com/newthinker/sentinel/internal/logger"
	"github.com/newthinker/sentinel/internal/metrics"
	"github.com/newthinker/sentinel/internal/notifier/webhook"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the SENTINEL server",
	Long:  "Serve the backtest API and, when research.schedule is set, run scheduled research",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	// Initialize logger
	log := logger.Must(debug)
	defer log.Sync()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfgFile == "" {
		log.Warn("no config file specified, using defaults")
	}

	var reg *metrics.Registry
	if cfg.Metrics.Enabled {
		reg = metrics.NewRegistry()
	}

	p, err := newPipeline(cfg, cfg.Data.Source, log, reg)
	if err != nil {
		return err
	}

	log.Info("starting SENTINEL server",
		zap.String("host", cfg.Server.Host),
		zap.Int("port", cfg.Server.Port),
		zap.String("source", cfg.Data.Source),
	)

	server, err := api.NewServer(api.Config{
		Host:    cfg.Server.Host,
		Port:    cfg.Server.Port,
		APIKey:      cfg.Server.APIKey,
		MaxJobs:     cfg.Server.MaxJobs,
		JobTTL:      time.Duration(cfg.Server.JobTTLHours) * time.Hour,
		MetricsPath: cfg.Metrics.Path,
	}, api.Dependencies{
		Runner: p.runner,
		Defaults: handlerapi.Defaults{
			Window:  cfg.Backtest.Window,
			Windows: cfg.Research.Windows,
			CostBps: cfg.Backtest.CostBps,
		},
		Metrics: reg,
	}, log)
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Start server in goroutine
	go func() {
		if err := server.Start(); err != nil {
			log.Error("server error", zap.Error(err))
			stop()
		}
	}()

	if cfg.Research.Schedule != "" {
		scheduler := app.New(cfg, p.runner, log)
		if hook := cfg.Research.Webhook; hook.URL != "" {
			n, err := webhook.New(hook.URL, hook.Headers)
			if err != nil {
				return err
			}
			scheduler.AddNotifier(n)
		}
		go func() {
			if err := scheduler.Start(ctx); err != nil && ctx.Err() == nil {
				log.Error("scheduler stopped", zap.Error(err))
			}
		}()
	}

	<-ctx.Done()
	log.Info("shutting down SENTINEL server")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	return server.Shutdown(shutdownCtx)
}
