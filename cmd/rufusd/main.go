// rufusd is the Rufus companion control daemon. It owns the command
// link, the servo bus, the storage volume and the audio codec, and
// serves the local control API next to the serial protocol.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rufuslabs/go-rufus/internal/config"
	"github.com/rufuslabs/go-rufus/internal/log"
	"github.com/rufuslabs/go-rufus/pkg/rufus"
	"github.com/rufuslabs/go-rufus/pkg/web"
)

func main() {
	log.InitFromEnv()

	if err := run(); err != nil {
		log.Error("rufusd failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	app, err := rufus.New(cfg, log.L())
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := app.Init(ctx); err != nil {
		return err
	}
	defer app.Shutdown()

	srv := web.NewServer(app, cfg.HTTPAddr, log.L())
	go func() {
		// A dead API leaves the serial link usable, so the daemon
		// stays up.
		if err := srv.Start(); err != nil {
			log.Error("web server stopped", "error", err)
		}
	}()
	defer srv.Shutdown()

	return app.Run(ctx)
}
