package main

import (
	"fmt"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"mt5bridge/config"
	"mt5bridge/contract"
	"mt5bridge/middleware"
	"mt5bridge/registry"
	"mt5bridge/server"
	"mt5bridge/sim"
)

const shutdownGrace = 15 * time.Second

var (
	flagHost    string
	flagPort    int
	flagWorkers int
)

func init() {
	serveCmd.Flags().StringVar(&flagHost, "host", "", "listen host, overrides the config file")
	serveCmd.Flags().IntVar(&flagPort, "port", 0, "listen port, overrides the config file")
	serveCmd.Flags().IntVar(&flagWorkers, "workers", 0, "max concurrent requests, overrides the config file")
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the bridge with the built-in simulated terminal",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if err := applyFlagOverrides(cfg, cmd); err != nil {
			return err
		}
		logger, err := newLogger(cfg.Debug)
		if err != nil {
			return err
		}
		defer logger.Sync()

		var reg registry.Registry
		if len(cfg.EtcdEndpoints) > 0 {
			etcdReg, err := registry.NewEtcdRegistry(cfg.EtcdEndpoints)
			if err != nil {
				return fmt.Errorf("connect registry: %w", err)
			}
			defer etcdReg.Close()
			reg = etcdReg
		}

		svr := server.New(sim.New(),
			server.WithLogger(logger),
			server.WithWorkers(cfg.Workers),
		)
		svr.Use(middleware.Recovery(logger))
		svr.Use(middleware.Logging(logger))
		if cfg.RateLimit > 0 {
			svr.Use(middleware.RateLimit(cfg.RateLimit, cfg.RateBurst))
		}
		svr.Use(middleware.Timeout(cfg.RequestTimeout.Std()))

		errCh := make(chan error, 1)
		go func() {
			errCh <- svr.Serve("tcp", cfg.Listen, cfg.Advertise, reg)
		}()
		logger.Info("bridge serving",
			zap.String("listen", cfg.Listen),
			zap.String("advertise", cfg.Advertise),
			zap.String("contract", contract.Version),
		)

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		select {
		case err := <-errCh:
			return err
		case sig := <-sigCh:
			logger.Info("shutting down", zap.String("signal", sig.String()))
			return svr.Shutdown(shutdownGrace)
		}
	},
}

// applyFlagOverrides lets serve flags win over the config file. The advertise
// address follows the listen address unless the config set it apart.
func applyFlagOverrides(cfg *config.Config, cmd *cobra.Command) error {
	if cmd.Flags().Changed("workers") {
		if flagWorkers < 1 {
			return fmt.Errorf("workers must be positive, got %d", flagWorkers)
		}
		cfg.Workers = flagWorkers
	}
	if !cmd.Flags().Changed("host") && !cmd.Flags().Changed("port") {
		return nil
	}
	host, port, err := net.SplitHostPort(cfg.Listen)
	if err != nil {
		return fmt.Errorf("listen address %q: %w", cfg.Listen, err)
	}
	if cmd.Flags().Changed("host") {
		host = flagHost
	}
	if cmd.Flags().Changed("port") {
		if flagPort < 0 || flagPort > 65535 {
			return fmt.Errorf("port out of range: %d", flagPort)
		}
		port = strconv.Itoa(flagPort)
	}
	listen := net.JoinHostPort(host, port)
	if cfg.Advertise == cfg.Listen {
		cfg.Advertise = listen
	}
	cfg.Listen = listen
	return nil
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the bridge contract version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("mt5bridged contract v%s\n", contract.Version)
	},
}
