package main

import (
	"fmt"

	"github.com/KlimSani4/hydrocalc/internal/storage"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := storage.Open(cfg.DatabaseURL, log)
		if err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
		if sqlDB, err := db.DB(); err == nil {
			defer sqlDB.Close()
		}
		log.Info("schema is up to date", "database", db.Dialector.Name())
		return nil
	},
}
