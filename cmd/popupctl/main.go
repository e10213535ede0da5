package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"popupforge/internal/app"
	"popupforge/internal/config"
	"popupforge/pkg/logger"
)

var (
	jsonOutput bool
	logLevel   string

	cfg       *config.Config
	zapLogger *zap.Logger
	popupApp  *app.App
)

var rootCmd = &cobra.Command{
	Use:           "popupctl",
	Short:         "Administer PopupForge messages and caches",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load()
		if err != nil {
			return err
		}
		zapLogger, err = logger.New(logger.Config{
			Level:       logLevel,
			Encoding:    "console",
			Service:     cfg.AppName + "-ctl",
			Environment: cfg.Environment,
			Output:      os.Stderr,
		})
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if popupApp != nil {
			popupApp.Lifecycle.Shutdown(context.Background())
			popupApp = nil
		}
		if zapLogger != nil {
			zapLogger.Sync()
		}
	},
}

// connect builds the service for commands that need it. Migrations are
// left to the migrate command.
func connect(ctx context.Context) (*app.App, error) {
	if popupApp != nil {
		return popupApp, nil
	}
	a, err := app.Build(ctx, cfg, zapLogger, app.Options{SkipMigration: true})
	if err != nil {
		return nil, err
	}
	popupApp = a
	return a, nil
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level (debug, info, warn, error)")

	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(createCmd)
	rootCmd.AddCommand(publishCmd)
	rootCmd.AddCommand(pauseCmd)
	rootCmd.AddCommand(resumeCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(summaryCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
