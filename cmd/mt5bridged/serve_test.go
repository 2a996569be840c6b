package main

import (
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mt5bridge/config"
)

// newServeFlags builds a fresh flag set bound to the serve flag variables so
// each case starts from an unchanged state.
func newServeFlags() *cobra.Command {
	cmd := &cobra.Command{Use: "serve"}
	cmd.Flags().StringVar(&flagHost, "host", "", "")
	cmd.Flags().IntVar(&flagPort, "port", 0, "")
	cmd.Flags().IntVar(&flagWorkers, "workers", 0, "")
	return cmd
}

func TestApplyFlagOverridesNoFlags(t *testing.T) {
	cmd := newServeFlags()
	cfg := config.Default()
	cfg.Advertise = cfg.Listen
	want := *cfg
	require.NoError(t, applyFlagOverrides(cfg, cmd))
	assert.Equal(t, want, *cfg)
}

func TestApplyFlagOverridesHostPort(t *testing.T) {
	cmd := newServeFlags()
	require.NoError(t, cmd.Flags().Set("host", "10.0.0.5"))
	require.NoError(t, cmd.Flags().Set("port", "19000"))

	cfg := config.Default()
	cfg.Advertise = cfg.Listen
	require.NoError(t, applyFlagOverrides(cfg, cmd))
	assert.Equal(t, "10.0.0.5:19000", cfg.Listen)
	assert.Equal(t, "10.0.0.5:19000", cfg.Advertise, "advertise follows listen when not set apart")
}

func TestApplyFlagOverridesKeepsDistinctAdvertise(t *testing.T) {
	cmd := newServeFlags()
	require.NoError(t, cmd.Flags().Set("port", "19000"))

	cfg := config.Default()
	cfg.Advertise = "bridge.example.net:18812"
	require.NoError(t, applyFlagOverrides(cfg, cmd))
	assert.Equal(t, "0.0.0.0:19000", cfg.Listen)
	assert.Equal(t, "bridge.example.net:18812", cfg.Advertise)
}

func TestApplyFlagOverridesWorkers(t *testing.T) {
	cmd := newServeFlags()
	require.NoError(t, cmd.Flags().Set("workers", "32"))

	cfg := config.Default()
	cfg.Advertise = cfg.Listen
	require.NoError(t, applyFlagOverrides(cfg, cmd))
	assert.Equal(t, 32, cfg.Workers)

	cmd = newServeFlags()
	require.NoError(t, cmd.Flags().Set("workers", "0"))
	assert.Error(t, applyFlagOverrides(config.Default(), cmd))
}

func TestApplyFlagOverridesBadPort(t *testing.T) {
	cmd := newServeFlags()
	require.NoError(t, cmd.Flags().Set("port", "70000"))
	assert.Error(t, applyFlagOverrides(config.Default(), cmd))
}
