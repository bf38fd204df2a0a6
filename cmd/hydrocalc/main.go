package main

import (
	"fmt"
	"os"

	"github.com/KlimSani4/hydrocalc/internal/config"
	"github.com/KlimSani4/hydrocalc/internal/logger"

	"github.com/spf13/cobra"
)

var (
	envFile string
	logMode string

	cfg *config.Config
	log *logger.Logger
)

var rootCmd = &cobra.Command{
	Use:   "hydrocalc",
	Short: "Drinking water calculator for school groups",
	Long: `HydroCalc computes the daily drinking water requirement for a group of
children and staff, adjusted for season and activity.

It runs as an HTTP API (serve) or as a Telegram bot (bot) that talks to the API
and falls back to a local computation when the API is down.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(envFile)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		mode := logMode
		if mode == "" {
			mode = cfg.Env
		}
		log, err = logger.New(mode)
		if err != nil {
			return fmt.Errorf("init logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if log != nil {
			log.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file to load before reading the environment")
	rootCmd.PersistentFlags().StringVar(&logMode, "log-mode", "", "logger mode: development or production (default: APP_ENV)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(botCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(calcCmd)
	rootCmd.AddCommand(deleteAccountCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
