package cmd

import (
	"context"
	"fmt"

	"todolist/config"
	"todolist/pkg/logger"

	"github.com/spf13/cobra"
)

var (
	// Loaded by the root command before any subcommand runs.
	cfg config.Config

	// Global flags
	envFile  string
	dbURL    string
	logLevel string
)

var rootCmd = &cobra.Command{
	Use:   "todolist",
	Short: "Server-rendered to-do lists backed by Postgres",
	Long: `todolist serves named to-do lists as HTML pages.

Configuration comes from the environment (DB_USERNAME, DB_PASSWORD, DB_HOST,
DB_PORT, DB_NAME, DB_SSLMODE, DATABASE_URL, PORT, LOG_LEVEL), optionally loaded
from a .env file. Flags override the environment.

Run without a subcommand to start the server.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, loaded, err := config.Load(envFile)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if dbURL != "" {
			c.DatabaseURL = dbURL
		}
		if logLevel != "" {
			c.LogLevel = logLevel
		}
		cfg = c

		logger.Init(cfg.LogLevel)
		if !loaded {
			logger.Sugar.Info("No .env file found, using environment variables from OS")
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logger.Sync()
	},
	RunE: runServe,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file to load before reading the environment")
	rootCmd.PersistentFlags().StringVar(&dbURL, "database-url", "", "Postgres URL (overrides DATABASE_URL and DB_* variables)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")

	addServeFlags(rootCmd)
	addServeFlags(serveCmd)

	rootCmd.AddCommand(serveCmd, migrateCmd)
}

// Execute runs the command tree.
func Execute() error {
	return rootCmd.ExecuteContext(context.Background())
}
