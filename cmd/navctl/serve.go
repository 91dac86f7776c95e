package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/spf13/cobra"

	cmsnav "github.com/goliatone/go-cms-nav"
)

func newServeCommand(flags *rootFlags) *cobra.Command {
	var (
		addr  string
		admin bool
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve rendered pages over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			module, err := flags.build(cmd.Context())
			if err != nil {
				return err
			}
			defer module.Close()

			app, err := newServer(module.Module, admin)
			if err != nil {
				return err
			}

			errCh := make(chan error, 1)
			go func() {
				module.Logger.Info("navctl.serve.listening", "addr", addr)
				errCh <- app.Listen(addr)
			}()

			quit := make(chan os.Signal, 1)
			signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
			select {
			case err := <-errCh:
				return err
			case <-quit:
			}

			module.Logger.Info("navctl.serve.shutdown")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return app.ShutdownWithContext(shutdownCtx)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", ":3000", "Listen address")
	cmd.Flags().BoolVar(&admin, "admin", true, "Mount the admin API under /admin/api")
	return cmd
}

// newServer builds the fiber app: the admin API when enabled, then the
// catch all page handler.
func newServer(module *cmsnav.Module, admin bool) (*fiber.App, error) {
	app := fiber.New(fiber.Config{
		AppName:               "navctl",
		DisableStartupMessage: true,
	})
	if admin {
		result, err := module.RegisterCommands(cmsnav.Registration{})
		if err != nil {
			return nil, err
		}
		mux := http.NewServeMux()
		if err := module.AdminAPI(result).Register(mux); err != nil {
			return nil, err
		}
		app.All("/admin/api/*", adaptor.HTTPHandler(mux))
	}
	module.SiteHandler().Register(app)
	return app, nil
}
