package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"mt5bridge/config"
)

var (
	cfgFile string
	debug   bool
)

var rootCmd = &cobra.Command{
	Use:           "mt5bridged",
	Short:         "Trading terminal bridge daemon",
	Long:          "mt5bridged exposes a trading terminal's API to remote clients over a framed TCP protocol.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "path to YAML config file")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
}

func loadConfig() (*config.Config, error) {
	if cfgFile == "" {
		cfg := config.Default()
		cfg.Advertise = cfg.Listen
		cfg.Debug = cfg.Debug || debug
		return cfg, nil
	}
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	cfg.Debug = cfg.Debug || debug
	return cfg, nil
}

func newLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
