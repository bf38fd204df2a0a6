package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/KlimSani4/hydrocalc/internal/bot"

	"github.com/spf13/cobra"
)

var botCmd = &cobra.Command{
	Use:   "bot",
	Short: "Run the Telegram bot",
	Long: `Runs the guided calculation dialogue over Telegram long polling.

Results come from the HTTP API at API_URL; when it is unreachable the bot
computes locally and marks the answer as such. Dialogue state and history
live in memory and are lost on restart.`,
	RunE: runBot,
}

func runBot(cmd *cobra.Command, args []string) error {
	if err := cfg.Validate(true); err != nil {
		return err
	}

	tg, err := bot.NewTelegram(cfg.BotToken, log)
	if err != nil {
		return err
	}
	ctrl := bot.NewController(
		log,
		tg,
		bot.NewRemoteCalculator(cfg.APIURL, cfg.APITimeout),
		bot.NewMemorySessionStore(),
		bot.NewMemoryHistoryStore(cfg.BotHistorySize),
		bot.WithRemoteLimit(int64(cfg.BotRemoteCalls)),
	)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("bot started", "api_url", cfg.APIURL, "remote_calls", cfg.BotRemoteCalls)
	err = bot.Dispatch(ctx, log, tg.Updates(ctx), ctrl)
	if errors.Is(err, context.Canceled) {
		log.Info("bot stopped")
		return nil
	}
	return err
}
