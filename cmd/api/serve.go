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

	"github.com/prometheus/client_golang/prometheus"
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/ovaphlow/pitchfork/service-credential-go/internal/router"
	"github.com/ovaphlow/pitchfork/service-credential-go/internal/user"
	"github.com/ovaphlow/pitchfork/service-credential-go/pkg/mailer"
	"github.com/ovaphlow/pitchfork/service-credential-go/pkg/utilities"
)

const (
	defaultAddr   = "0.0.0.0:8431"
	shutdownGrace = 5 * time.Second
)

var addrFlag string

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE:  runServe,
	}
	cmd.Flags().StringVar(&addrFlag, "addr", "", "listen address (overrides HTTP_ADDR)")
	return cmd
}

func listenAddr() string {
	if addrFlag != "" {
		return addrFlag
	}
	if a := os.Getenv("HTTP_ADDR"); a != "" {
		return a
	}
	return defaultAddr
}

func runServe(cmd *cobra.Command, _ []string) error {
	lg, err := utilities.Init(utilities.ConfigFromEnv())
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer lg.Sync()
	sugar := lg.Sugar()

	cfg, err := user.ConfigFromEnv()
	if err != nil {
		return oops.Code("config_invalid").Wrap(err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := openStore(ctx, os.Getenv("USER_STORE"), sugar)
	if err != nil {
		utilities.LogError(sugar, "open user store", err)
		return err
	}
	defer closeStore()

	sender, err := mailer.New(mailer.ConfigFromEnv(), sugar)
	if err != nil {
		return oops.Code("config_invalid").With("operation", "build mailer").Wrap(err)
	}

	svc := user.NewUserService(store, sender, cfg, sugar)
	handler := router.RegisterRoutes(sugar, user.NewHandler(svc, sugar), svc, prometheus.NewRegistry(), router.ConfigFromEnv())

	srv := &http.Server{
		Addr:              listenAddr(),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()
	sugar.Infow("credential service listening", "addr", srv.Addr)

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			return oops.Code("http_failed").With("addr", srv.Addr).Wrap(err)
		}
	}

	sugar.Info("shutting down")
	doneCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := srv.Shutdown(doneCtx); err != nil {
		sugar.Warnf("http server shutdown failed: %v", err)
	}
	sugar.Info("goodbye")
	return nil
}
