package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/desertthunder/faves/internal/server"
	"github.com/desertthunder/faves/internal/shared"
	"github.com/urfave/cli/v3"
)

// DevServer serves the in-memory favorites API until interrupted.
func (r *Runner) DevServer(ctx context.Context, cmd *cli.Command) error {
	conf := r.config.Server
	if host := cmd.String("host"); host != "" {
		conf.Host = host
	}
	if port := cmd.Int("port"); port != 0 {
		conf.Port = int(port)
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := shared.WithLogger(r.logger, "component", "devserver")
	store := server.NewStore(conf.Products)
	logger.Info("seeded products", "count", len(store.Products()))
	r.writePlain("→ Serving favorites API on http://%s (ctrl+c to stop)\n", conf.Addr())

	if err := server.ListenAndServe(ctx, conf.Addr(), server.New(store, logger), logger); err != nil {
		return fmt.Errorf("dev server failed: %w", err)
	}
	return nil
}
