package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/KlimSani4/hydrocalc/internal/api"
	"github.com/KlimSani4/hydrocalc/internal/auth"
	"github.com/KlimSani4/hydrocalc/internal/storage"

	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	if err := cfg.Validate(false); err != nil {
		return err
	}
	if cfg.UsesDevSecret() {
		if cfg.IsProduction() {
			log.Warn("SECRET_KEY is the built-in development key; set a real secret")
		} else {
			log.Info("using the development SECRET_KEY")
		}
	}

	db, err := storage.Open(cfg.DatabaseURL, log)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	store := storage.New(db)
	authService := auth.NewService(store, log, auth.Options{
		Secret:     []byte(cfg.SecretKey),
		TokenTTL:   cfg.AccessTTL,
		BcryptCost: cfg.BcryptCost,
	})

	srv := &http.Server{
		Addr: cfg.HTTPAddr,
		Handler: api.NewHandler(api.Deps{
			Log:         log,
			Store:       store,
			Auth:        authService,
			TokenHeader: cfg.TokenHeader,
			CORSOrigins: cfg.CORSOrigins,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info("http api listening", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	log.Info("shutting down http api")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}
	return nil
}
