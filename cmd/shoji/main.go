// Package main implements shoji, a manual tiling window manager built on
// binary space partitioning. The daemon owns one BSP tree per desktop and
// is driven entirely through a unix control socket; shojictl is the
// matching client.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/fang"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/shoji-wm/shoji/internal/config"
	"github.com/shoji-wm/shoji/internal/server"
	"github.com/shoji-wm/shoji/internal/winsys"
	"github.com/shoji-wm/shoji/internal/wm"
)

// Version information (set by goreleaser)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
	builtBy = "unknown"
)

// Global flags
var (
	debugMode  bool
	configPath string
	socketPath string
	screenW    int
	screenH    int
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "shoji",
		Short: "Manual BSP tiling window manager",
		Long: `shoji - manual tiling window manager

A daemon that tiles windows with binary space partitioning: every window
is a leaf of a full binary tree, every internal node a split. All control
flows through a unix socket; use shojictl to send commands.`,
		Example: `  # Run the daemon
  shoji

  # Run with an explicit socket and screen size
  shoji --socket /tmp/shoji.sock --width 2560 --height 1440

  # Print the configuration path
  shoji config path`,
		Version: version,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDaemon()
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Configuration file (defaults to the XDG path)")
	rootCmd.Flags().StringVar(&socketPath, "socket", "", "Control socket path (overrides configuration)")
	rootCmd.Flags().IntVar(&screenW, "width", 1920, "Screen width in pixels")
	rootCmd.Flags().IntVar(&screenH, "height", 1080, "Screen height in pixels")

	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage shoji configuration",
	}

	configPathCmd := &cobra.Command{
		Use:   "path",
		Short: "Print configuration file path",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := resolveConfigPath()
			if err != nil {
				return err
			}
			fmt.Println(path)
			return nil
		},
	}

	configResetCmd := &cobra.Command{
		Use:   "reset",
		Short: "Reset configuration to defaults",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := resolveConfigPath()
			if err != nil {
				return err
			}
			if err := config.Write(path, config.Default()); err != nil {
				return err
			}
			fmt.Println("Configuration reset:", path)
			return nil
		},
	}

	configCmd.AddCommand(configPathCmd, configResetCmd)
	rootCmd.AddCommand(configCmd)

	if err := fang.Execute(
		context.Background(),
		rootCmd,
		fang.WithVersion(fmt.Sprintf("%s\nCommit: %s\nBuilt: %s\nBy: %s", version, commit, date, builtBy)),
	); err != nil {
		os.Exit(1)
	}
}

func resolveConfigPath() (string, error) {
	if configPath != "" {
		return configPath, nil
	}
	return config.Path()
}

func runDaemon() error {
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Prefix:          "shoji",
	})
	if debugMode {
		logger.SetLevel(log.DebugLevel)
		log.SetLevel(log.DebugLevel)
	}

	path, err := resolveConfigPath()
	if err != nil {
		return err
	}
	cfg, err := config.LoadFrom(path)
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	if socketPath != "" {
		cfg.SocketPath = socketPath
	}
	if cfg.SocketPath == "" {
		cfg.SocketPath = config.DefaultSocketPath()
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	screen := winsys.Rect{Width: screenW, Height: screenH}
	ws := winsys.NewHeadless()
	pub := winsys.NewRecordingPublisher()
	manager := wm.New(ws, pub, cfg, screen)

	srv := server.New(manager, cfg.SocketPath)
	if err := srv.Start(ctx); err != nil {
		return err
	}
	defer srv.Close()

	if err := config.Watch(ctx, path, manager.Reload); err != nil {
		logger.Warn("configuration watch disabled", "err", err)
	}

	logger.Info("started", "socket", cfg.SocketPath, "screen", fmt.Sprintf("%dx%d", screenW, screenH))
	manager.Run(ctx)
	logger.Info("stopped")
	return nil
}
