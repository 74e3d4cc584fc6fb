package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"morphire/internal/auth"
	"morphire/internal/blobstore"
	"morphire/internal/config"
	"morphire/internal/contentaddr"
	"morphire/internal/ledger"
	"morphire/internal/notify"
	"morphire/internal/server"
	"morphire/internal/store"
)

const (
	blobDirName          = "blobs"
	notifierDrainTimeout = 5 * time.Second
)

func newSrvCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "srv",
		Short: "Run the morphire API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfg == nil {
				return fmt.Errorf("config not initialized")
			}
			if cfg.DataDir == "" {
				return fmt.Errorf("data dir is required")
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServer(ctx, cfg, slog.Default().With("component", "server"))
		},
	}
}

func runServer(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	addr, err := server.ListenAddr(cfg.APIURL)
	if err != nil {
		return err
	}

	logger.Info("opening document store", "backend", cfg.Storage.Backend, "data_dir", cfg.DataDir)
	st, err := store.Open(cfg.Storage.Backend, cfg.DataDir, store.WithLogger(logger))
	if err != nil {
		return err
	}
	defer st.Close()

	blobs, err := blobstore.NewLocalCAS(filepath.Join(cfg.DataDir, blobDirName))
	if err != nil {
		return err
	}
	content, mode := contentaddr.New(contentaddr.Options{
		APIKey:  cfg.Pinning.APIKey,
		Secret:  cfg.Pinning.Secret,
		Timeout: cfg.PinningTimeout(),
	}, contentaddr.NewSimulated(blobs, logger), logger)

	webhook := notify.NewWebhook(cfg.Webhook.URL, logger)
	dispatcher := notify.NewDispatcher(webhook, notify.DispatcherOptions{
		QueueSize:     cfg.Webhook.QueueSize,
		RatePerSecond: cfg.Webhook.RatePerSecond,
	}, logger)
	defer func() {
		drainCtx, cancel := context.WithTimeout(context.Background(), notifierDrainTimeout)
		defer cancel()
		if err := dispatcher.Close(drainCtx); err != nil {
			logger.Warn("notification queue not drained", "error", err)
		}
	}()

	gate, err := auth.NewGate(cfg.Access.PassphraseHash)
	if err != nil {
		return fmt.Errorf("access gate: %w", err)
	}

	srv := server.New(addr, server.Options{
		Store:              st,
		Ledger:             ledger.New(content, nil, ledger.WithLogger(logger)),
		Notifier:           dispatcher,
		Gate:               gate,
		ContentMode:        mode,
		WebhookEnabled:     webhook.Enabled(),
		MaxUploadBytes:     cfg.Deliveries.MaxUploadBytes,
		MultipartMaxMemory: cfg.Deliveries.MultipartMaxMemory,
		Logger:             logger,
	})
	return srv.Serve(ctx)
}
