package main

import (
	"errors"
	"fmt"

	"github.com/KlimSani4/hydrocalc/internal/storage"

	"github.com/spf13/cobra"
)

var deleteEmail string

var deleteAccountCmd = &cobra.Command{
	Use:   "delete-account",
	Short: "Delete an account and all of its saved calculations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := storage.Open(cfg.DatabaseURL, log)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		if sqlDB, err := db.DB(); err == nil {
			defer sqlDB.Close()
		}
		store := storage.New(db)

		ctx := cmd.Context()
		acc, err := store.FindAccountByEmail(ctx, deleteEmail)
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("no account with email %q", deleteEmail)
		}
		if err != nil {
			return err
		}
		if err := store.DeleteAccount(ctx, acc.ID); err != nil {
			return err
		}
		log.Info("account deleted", "account_id", acc.ID)
		fmt.Fprintf(cmd.OutOrStdout(), "deleted account %d\n", acc.ID)
		return nil
	},
}

func init() {
	deleteAccountCmd.Flags().StringVar(&deleteEmail, "email", "", "account email (exact match)")
	deleteAccountCmd.MarkFlagRequired("email")
}
