package cmd

import (
	"fmt"

	"todolist/config/database"
	"todolist/internal/todo/repository"
	"todolist/pkg/logger"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the lists table and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate(true); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}

		db, err := database.Connect(cmd.Context(), cfg.DSN())
		if err != nil {
			return err
		}
		defer database.Close(db)

		if err := repository.NewListRepository(db).EnsureSchema(cmd.Context()); err != nil {
			return err
		}
		logger.Sugar.Info("Database schema ready")
		return nil
	},
}
