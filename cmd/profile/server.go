package main

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	profilerouter "github.com/goliatone/go-profile/adapters/router"
	"github.com/goliatone/go-router"
)

const shutdownTimeout = 10 * time.Second

func buildServer(app *App) router.Server[*fiber.App] {
	srv := router.NewFiberAdapter(fiberAppInitializer(app.Config.Features.EnableCORS))
	handler := profilerouter.NewHandler(profilerouter.Config{
		Service: app.Service,
		Page:    app.Page,
		Preview: app.Preview,
		APIPath: app.Config.Server.APIPath,
		Logger:  app.Logger,
	})
	handler.RegisterRoutes(srv.Router())
	return srv
}

func fiberAppInitializer(enableCORS bool) func(*fiber.App) *fiber.App {
	return func(*fiber.App) *fiber.App {
		fiberApp := fiber.New(fiber.Config{
			AppName: "go-profile",
		})

		fiberApp.Use(logger.New(logger.Config{
			Format: "[${time}] ${status} ${method} ${path} ${latency}\n",
		}))
		if enableCORS {
			fiberApp.Use(cors.New(cors.Config{
				AllowOrigins:  "*",
				AllowMethods:  "GET,POST,OPTIONS",
				AllowHeaders:  "Content-Type," + profilerouter.SessionHeader,
				ExposeHeaders: "Content-Disposition,X-Export-ID",
			}))
		}

		return fiberApp
	}
}

// serve runs the HTTP server until ctx is done.
func serve(ctx context.Context, app *App) error {
	srv := buildServer(app)
	addr := app.Config.Server.Addr()

	// Start the fetch before the first request.
	go func() {
		if res, err := app.Service.Load(ctx); err != nil {
			app.Logger.Errorf("load profile: %v", err)
		} else if res.HasError {
			app.Logger.Errorf("profile loaded with defaults for %v", res.Failed)
		}
	}()

	errCh := make(chan error, 1)
	go func() {
		app.Logger.Infof("starting server on http://%s", addr)
		errCh <- srv.Serve(addr)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	app.Logger.Infof("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
