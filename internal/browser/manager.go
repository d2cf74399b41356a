package browser

import (
	"context"
	"fmt"
	"sync"

	"job-applier/internal/config"
	"job-applier/internal/ports"
	"job-applier/pkg/apperr"
	"job-applier/pkg/logg"
	"job-applier/pkg/tracing"

	"github.com/playwright-community/playwright-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	browserManagerName = "BrowserManager"
	browserTracer      = "browser.manager"
)

// Manager owns the playwright driver and one browser process. Each
// application attempt gets its own BrowserContext through NewSession.
type Manager struct {
	config     *config.Config
	logger     *zap.Logger
	tracer     trace.Tracer
	mu         sync.Mutex
	playwright *playwright.Playwright
	browser    playwright.Browser
	ready      bool
}

type Params struct {
	fx.In

	Config *config.Config
	Logger *zap.Logger
}

func NewManager(params Params) *Manager {
	return &Manager{
		config: params.Config,
		logger: params.Logger.With(zap.String(logg.Layer, browserManagerName)),
		tracer: otel.Tracer(browserTracer),
	}
}

func (m *Manager) Launch(ctx context.Context) (err error) {
	const op = "Launch"
	logger := m.logger.With(zap.String(logg.Operation, op))

	_, step := tracing.StartSpan(ctx, m.tracer, logger, op)
	defer func() {
		step.End(err)
	}()

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.ready {
		return nil
	}

	bc := m.config.BrowserConfig

	if bc.InstallDriver {
		step.AddEvent("installing playwright")

		if err = playwright.Install(&playwright.RunOptions{Browsers: []string{"chromium"}}); err != nil {
			return apperr.Wrap(op, apperr.CodeInternal, err, map[string]any{
				apperr.MetaReason: "playwright_install_failed",
				apperr.MetaStage:  apperr.StageBrowser,
			})
		}
	}

	step.AddEvent("starting playwright")

	pw, err := playwright.Run()
	if err != nil {
		return apperr.Wrap(op, apperr.CodeInternal, err, map[string]any{
			apperr.MetaReason: "playwright_start_failed",
			apperr.MetaStage:  apperr.StageBrowser,
		})
	}

	options := playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(bc.Headless),
		SlowMo:   playwright.Float(float64(bc.SlowMo)),
		Args: []string{
			"--disable-blink-features=AutomationControlled",
			"--disable-dev-shm-usage",
			"--no-sandbox",
		},
	}

	if bc.ExecutablePath != "" {
		options.ExecutablePath = playwright.String(bc.ExecutablePath)
	}

	browser, err := pw.Chromium.Launch(options)
	if err != nil {
		_ = pw.Stop()

		return apperr.Wrap(op, apperr.CodeInternal, err, map[string]any{
			apperr.MetaReason: "browser_launch_failed",
			apperr.MetaStage:  apperr.StageBrowser,
		})
	}

	m.playwright = pw
	m.browser = browser
	m.ready = true
	logger.Info("Browser launched", zap.Bool("headless", bc.Headless))

	return nil
}

func (m *Manager) Close(ctx context.Context) (err error) {
	const op = "Close"
	logger := m.logger.With(zap.String(logg.Operation, op))

	_, step := tracing.StartSpan(ctx, m.tracer, logger, op)
	defer func() {
		step.End(err)
	}()

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.browser != nil {
		if err := m.browser.Close(); err != nil {
			logger.Warn("Failed to close browser", zap.Error(err))
		}
	}

	if m.playwright != nil {
		if err := m.playwright.Stop(); err != nil {
			return apperr.Wrap(op, apperr.CodeInternal, err, map[string]any{
				apperr.MetaReason: "playwright_stop_failed",
			})
		}
	}

	m.ready = false
	logger.Info("Browser closed")

	return nil
}

func (m *Manager) IsReady() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.ready
}

// NewSession opens a fresh BrowserContext so concurrent attempts never share
// cookies or storage.
func (m *Manager) NewSession(ctx context.Context) (sess ports.Session, err error) {
	const op = "NewSession"
	logger := m.logger.With(zap.String(logg.Operation, op))

	_, step := tracing.StartSpan(ctx, m.tracer, logger, op)
	defer func() {
		step.End(err)
	}()

	m.mu.Lock()
	browser, ready := m.browser, m.ready
	m.mu.Unlock()

	if !ready {
		return nil, apperr.WrapErrorWithReason(op, apperr.CodeBrowserNotReady, "browser_not_ready")
	}

	bc := m.config.BrowserConfig

	contextOptions := playwright.BrowserNewContextOptions{
		Viewport: &playwright.Size{
			Width:  bc.ViewportWidth,
			Height: bc.ViewportHeight,
		},
		AcceptDownloads:   playwright.Bool(false),
		JavaScriptEnabled: playwright.Bool(true),
		IgnoreHttpsErrors: playwright.Bool(true),
		Locale:            playwright.String(bc.Locale),
	}

	if bc.UserAgent != "" {
		contextOptions.UserAgent = playwright.String(bc.UserAgent)
	}

	browserContext, err := browser.NewContext(contextOptions)
	if err != nil {
		return nil, apperr.Wrap(op, apperr.CodeInternal, err, map[string]any{
			apperr.MetaReason: "context_create_failed",
			apperr.MetaStage:  apperr.StageBrowser,
		})
	}

	page, err := browserContext.NewPage()
	if err != nil {
		_ = browserContext.Close()

		return nil, apperr.Wrap(op, apperr.CodeInternal, err, map[string]any{
			apperr.MetaReason: "page_create_failed",
			apperr.MetaStage:  apperr.StageBrowser,
		})
	}

	page.SetDefaultTimeout(float64(bc.ActionTimeout.Milliseconds()))
	page.SetDefaultNavigationTimeout(float64(bc.NavTimeout.Milliseconds()))

	return &Session{
		context: browserContext,
		page:    newPage(page, m.config, m.logger, m.tracer),
	}, nil
}

type Session struct {
	context playwright.BrowserContext
	page    *Page
}

func (s *Session) Page() ports.Page {
	return s.page
}

func (s *Session) Close(_ context.Context) error {
	if err := s.context.Close(); err != nil {
		return fmt.Errorf("close browser context: %w", err)
	}

	return nil
}
