package commands

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/marmos91/nvmemid/internal/config"
	"github.com/marmos91/nvmemid/internal/logger"
	"github.com/marmos91/nvmemid/internal/metrics"
	"github.com/marmos91/nvmemid/internal/mi"
	"github.com/marmos91/nvmemid/internal/subsystem"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the NVMe-MI responder",
	Long: `Run the NVMe-MI responder, listening for framed management
requests on the configured transport.

Use --config to specify a custom configuration file, or it will use the
default location at $XDG_CONFIG_HOME/nvmemid/config.yaml.`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(GetConfigFile())
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	if err := initLogger(cfg); err != nil {
		return err
	}

	info, err := config.LoadSubsystemInfo()
	if err != nil {
		return fmt.Errorf("failed to load subsystem identity: %w", err)
	}

	metrics.Init(cfg.Metrics.Enabled)
	mi.SetMetrics(metrics.NewDispatchMetrics())
	if cfg.Metrics.Enabled {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(metrics.Registry(), promhttp.HandlerOpts{}))
		go func() {
			if err := http.ListenAndServe(cfg.Metrics.Addr, mux); err != nil {
				logger.Error("metrics listener stopped", "error", err)
			}
		}()
		logger.Info("metrics listener enabled", "addr", cfg.Metrics.Addr)
	}

	sub := subsystem.New(info)
	if err := subsystem.Bootstrap(sub, cfg.Subsystem.NamespaceSize); err != nil {
		return fmt.Errorf("failed to bootstrap subsystem: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ln, err := net.Listen(cfg.Transport.Network, cfg.Transport.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s %s: %w", cfg.Transport.Network, cfg.Transport.Addr, err)
	}
	defer ln.Close()

	logger.Info("nvmemid responder listening",
		"network", cfg.Transport.Network, "addr", cfg.Transport.Addr)

	serveDone := make(chan error, 1)
	go func() {
		serveDone <- mi.Serve(ctx, ln, sub)
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigCh:
		signal.Stop(sigCh)
		logger.Info("shutdown signal received")
		cancel()
		if err := ln.Close(); err != nil {
			logger.Warn("error closing listener", "error", err)
		}
		<-serveDone
		logger.Info("responder stopped")
	case err := <-serveDone:
		if err != nil {
			return fmt.Errorf("responder stopped with error: %w", err)
		}
	}

	return nil
}

func initLogger(cfg *config.Config) error {
	loggerCfg := logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	}
	if err := logger.Init(loggerCfg); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	return nil
}
