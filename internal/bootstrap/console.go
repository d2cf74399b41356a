package bootstrap

import (
	"context"

	"job-applier/internal/console"
	"job-applier/internal/ports"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

func manageBrowser(lc fx.Lifecycle, browser ports.Browser, logger *zap.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			logger.Info("Launching browser...")

			if err := browser.Launch(ctx); err != nil {
				logger.Error("Failed to launch browser", zap.Error(err))

				return err
			}

			logger.Info("Browser launched successfully")

			return nil
		},
		OnStop: func(ctx context.Context) error {
			if err := browser.Close(ctx); err != nil {
				logger.Error("Failed to close browser", zap.Error(err))
			}

			return nil
		},
	})
}

func runConsole(lc fx.Lifecycle, shutdowner fx.Shutdowner, consoleInterface *console.Interface, logger *zap.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			logger.Info("Starting job applier console...")

			go func() {
				if err := consoleInterface.Start(); err != nil {
					logger.Error("Console interface error", zap.Error(err))
				}

				if err := shutdowner.Shutdown(); err != nil {
					logger.Error("Failed to request shutdown", zap.Error(err))
				}
			}()

			return nil
		},
		OnStop: func(context.Context) error {
			logger.Info("Shutting down job applier...")

			if err := consoleInterface.Stop(); err != nil {
				logger.Error("Failed to stop console", zap.Error(err))
			}

			return nil
		},
	})
}
