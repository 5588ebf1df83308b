package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"storefront/internal/app"
	"storefront/internal/config"

	"github.com/spf13/cobra"
)

var envFile string

func main() {
	rootCmd := &cobra.Command{
		Use:          "orderctl",
		Short:        "Operator tasks for storefront orders",
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "Optional .env file to load before the environment")

	rootCmd.AddCommand(expireCmd())
	rootCmd.AddCommand(statusCmd())
	rootCmd.AddCommand(listCmd())
	rootCmd.AddCommand(stockCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// withApp builds the application for one command and closes it afterwards.
func withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app.App) error) error {
	var cfg config.Config
	if envFile != "" {
		cfg = config.Load(envFile)
	} else {
		cfg = config.Load()
	}
	if cfg.Storage != config.StoragePostgres {
		return fmt.Errorf("orderctl needs STORAGE=%s, got %q", config.StoragePostgres, cfg.Storage)
	}
	logger := log.New(cmd.ErrOrStderr(), "[orderctl] ", log.LstdFlags|log.LUTC)

	ctx := cmd.Context()
	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close(ctx)
	return fn(ctx, a)
}
