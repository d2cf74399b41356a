package bootstrap

import (
	"context"
	"time"

	"job-applier/internal/browser"
	"job-applier/internal/captcha"
	"job-applier/internal/config"
	"job-applier/internal/console"
	"job-applier/internal/entity"
	"job-applier/internal/ports"
	"job-applier/internal/profile"
	"job-applier/internal/resolver"
	"job-applier/internal/stage"
	"job-applier/internal/store"
	"job-applier/internal/usecase"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

func providers() fx.Option {
	return fx.Options(
		fx.Provide(
			config.GetConfig,
			newLogger,
			newTraceProvider,

			fx.Annotate(browser.NewManager, fx.As(new(ports.Browser))),
			newApplicationLog,
			fx.Annotate(store.NewArtifactStore, fx.As(new(ports.ArtifactStore))),

			resolver.NewResolver,
			stage.NewClassifier,
			fx.Annotate(captcha.NewSolver, fx.As(new(ports.CaptchaSolver))),

			usecase.NewUsecase,

			loadProfile,
			console.NewInterface,
		),
		fx.Invoke(func(*sdktrace.TracerProvider) {}),
		fx.WithLogger(func(logger *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: logger.Named("fx")}
		}),
		fx.StartTimeout(60*time.Second),
	)
}

// NewApp builds the interactive console application.
func NewApp() *fx.App {
	return fx.New(
		providers(),
		fx.Invoke(
			manageBrowser,
			runConsole,
		),
	)
}

// Execute starts a short-lived application, populates targets, runs fn and
// stops the application again. The browser is launched only when withBrowser
// is set.
func Execute(ctx context.Context, withBrowser bool, fn func(ctx context.Context) error, targets ...any) error {
	opts := []fx.Option{providers(), fx.Populate(targets...)}
	if withBrowser {
		opts = append(opts, fx.Invoke(manageBrowser))
	}

	app := fx.New(opts...)
	if err := app.Err(); err != nil {
		return err
	}

	if err := app.Start(ctx); err != nil {
		return err
	}

	runErr := fn(ctx)

	stopCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
	defer cancel()

	if err := app.Stop(stopCtx); err != nil && runErr == nil {
		return err
	}

	return runErr
}

func newApplicationLog(lc fx.Lifecycle, params store.Params) (ports.ApplicationLog, error) {
	log, err := store.NewApplicationLog(params)
	if err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return log.Close()
		},
	})

	return log, nil
}

func loadProfile(conf *config.Config) (*entity.ApplicantProfile, error) {
	return profile.Load(conf.AppConfig.ProfilePath)
}
