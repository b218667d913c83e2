package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/itembuilder/backend/config"
	httpDelivery "github.com/itembuilder/backend/internal/delivery/http"
	"github.com/itembuilder/backend/internal/logger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	cfgFile string
	version = "dev"

	// Populated by initConfig before any subcommand runs
	cfg *config.Config
	log *zap.Logger

	rootCmd = &cobra.Command{
		Use:   "itembuilder",
		Short: "Build catalog-ready item tables from UPC lists",
		Long: `itembuilder enriches a list of UPCs into a catalog item table.

Each UPC is resolved through the barcode lookup service, falling back to a
supplier table, then placed in the store taxonomy from a category mapping
table. An optional text classifier may override the top-level category.`,
		SilenceUsage:       true,
		PersistentPreRunE:  initConfig,
		PersistentPostRunE: syncLogger,
	}
)

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./config.yaml, ./config/config.yaml or /etc/itembuilder/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "json", "log format (json, console)")

	// Add commands
	rootCmd.AddCommand(enrichCmd())
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(versionCmd())
}

func main() {
	// Cancel runs on interrupt
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err := rootCmd.ExecuteContext(ctx)
	stop()

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func initConfig(cmd *cobra.Command, _ []string) error {
	if cmd.Name() == "version" {
		return nil
	}

	opts := []config.Option{
		config.WithConfigFile(cfgFile),
		config.WithFlag("logging.level", cmd.Flags().Lookup("log-level")),
		config.WithFlag("logging.format", cmd.Flags().Lookup("log-format")),
		config.WithFlag("enrichment.workers", cmd.Flags().Lookup("workers")),
		config.WithFlag("server.port", cmd.Flags().Lookup("port")),
	}

	var err error
	cfg, err = config.Load(opts...)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	log, err = logger.New(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}

	httpDelivery.Version = version
	return nil
}

func syncLogger(_ *cobra.Command, _ []string) error {
	if log != nil {
		// Sync on stderr reports EINVAL on some platforms
		_ = log.Sync()
	}
	return nil
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "itembuilder %s\n", version)
		},
	}
}
