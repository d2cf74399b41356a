package browser

import (
	"context"
	"sync"
	"time"

	"job-applier/internal/config"
	"job-applier/internal/ports"
	"job-applier/pkg/apperr"
	"job-applier/pkg/logg"
	"job-applier/pkg/tracing"

	"github.com/playwright-community/playwright-go"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Page adapts a playwright page to ports.Page.
type Page struct {
	page     playwright.Page
	config   *config.Config
	logger   *zap.Logger
	tracer   trace.Tracer
	mu       sync.Mutex
	handlers []func(ports.Response)
}

func newPage(page playwright.Page, cfg *config.Config, logger *zap.Logger, tracer trace.Tracer) *Page {
	p := &Page{
		page:   page,
		config: cfg,
		logger: logger.With(zap.String(logg.Layer, "BrowserPage")),
		tracer: tracer,
	}

	page.OnResponse(func(resp playwright.Response) {
		p.mu.Lock()
		handlers := append([]func(ports.Response){}, p.handlers...)
		p.mu.Unlock()

		if len(handlers) == 0 {
			return
		}

		r := ports.Response{Status: resp.Status(), URL: resp.URL()}
		if req := resp.Request(); req != nil {
			r.Method = req.Method()
		}

		for _, h := range handlers {
			h(r)
		}
	})

	return p
}

func (p *Page) URL() string {
	return p.page.URL()
}

func (p *Page) Navigate(ctx context.Context, url string, wait ports.WaitPolicy) (err error) {
	const op = "Navigate"
	logger := p.logger.With(zap.String(logg.Operation, op), zap.String(logg.URL, url))

	_, step := tracing.StartSpan(ctx, p.tracer, logger, op, attribute.String("url", url))
	defer func() {
		step.End(err)
	}()

	if err := ctx.Err(); err != nil {
		return err
	}

	_, err = p.page.Goto(url, playwright.PageGotoOptions{
		Timeout:   playwright.Float(timeoutMs(ctx, p.config.BrowserConfig.NavTimeout)),
		WaitUntil: waitUntil(wait),
	})
	if err != nil {
		return apperr.Wrap(op, apperr.CodeNavigationTimeout, err, map[string]any{
			apperr.MetaReason: "goto_failed",
			apperr.MetaStage:  apperr.StageNavigation,
			apperr.MetaURL:    url,
		})
	}

	return nil
}

func (p *Page) Query(ctx context.Context, selector string) ([]ports.Element, error) {
	return queryAll(ctx, p.page.QuerySelectorAll, selector, p.config)
}

func (p *Page) Evaluate(ctx context.Context, script string, arg any) (any, error) {
	return evaluate(ctx, p.page.Evaluate, script, arg)
}

func (p *Page) Content(ctx context.Context) (string, error) {
	const op = "Content"

	if err := ctx.Err(); err != nil {
		return "", err
	}

	html, err := p.page.Content()
	if err != nil {
		return "", apperr.Wrap(op, apperr.CodeActionFailed, err, map[string]any{
			apperr.MetaReason: "content_failed",
		})
	}

	return html, nil
}

func (p *Page) Screenshot(ctx context.Context) ([]byte, error) {
	const op = "Screenshot"

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := p.page.Screenshot(playwright.PageScreenshotOptions{
		FullPage: playwright.Bool(true),
		Type:     playwright.ScreenshotTypePng,
		Timeout:  playwright.Float(timeoutMs(ctx, p.config.BrowserConfig.NavTimeout)),
	})
	if err != nil {
		return nil, apperr.Wrap(op, apperr.CodeInternal, err, map[string]any{
			apperr.MetaReason: "screenshot_failed",
			apperr.MetaStage:  apperr.StageScreenshot,
		})
	}

	return data, nil
}

func (p *Page) Frames() []ports.Frame {
	frames := p.page.Frames()
	out := make([]ports.Frame, 0, len(frames))

	for _, f := range frames {
		out = append(out, &Frame{frame: f, config: p.config})
	}

	return out
}

func (p *Page) MouseMove(ctx context.Context, x, y float64) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := p.page.Mouse().Move(x, y, playwright.MouseMoveOptions{Steps: playwright.Int(5)}); err != nil {
		return apperr.Wrap("MouseMove", apperr.CodeActionFailed, err, map[string]any{
			apperr.MetaStage: apperr.StageInteraction,
		})
	}

	return nil
}

func (p *Page) MouseClick(ctx context.Context, x, y float64) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := p.page.Mouse().Click(x, y); err != nil {
		return apperr.Wrap("MouseClick", apperr.CodeActionFailed, err, map[string]any{
			apperr.MetaReason: "click_coordinates_failed",
			apperr.MetaStage:  apperr.StageInteraction,
		})
	}

	return nil
}

func (p *Page) OnResponse(handler func(ports.Response)) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.handlers = append(p.handlers, handler)
}

// Frame adapts a playwright frame; challenge widgets live in nested frames.
type Frame struct {
	frame  playwright.Frame
	config *config.Config
}

func (f *Frame) URL() string {
	return f.frame.URL()
}

func (f *Frame) Query(ctx context.Context, selector string) ([]ports.Element, error) {
	return queryAll(ctx, f.frame.QuerySelectorAll, selector, f.config)
}

func (f *Frame) Evaluate(ctx context.Context, script string, arg any) (any, error) {
	return evaluate(ctx, f.frame.Evaluate, script, arg)
}

func queryAll(
	ctx context.Context,
	query func(string) ([]playwright.ElementHandle, error),
	selector string,
	cfg *config.Config,
) ([]ports.Element, error) {
	const op = "Query"

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	handles, err := query(selector)
	if err != nil {
		return nil, apperr.Wrap(op, apperr.CodeActionFailed, err, map[string]any{
			apperr.MetaReason:   "query_failed",
			apperr.MetaSelector: selector,
		})
	}

	out := make([]ports.Element, 0, len(handles))
	for _, h := range handles {
		out = append(out, &Element{handle: h, config: cfg})
	}

	return out, nil
}

func evaluate(
	ctx context.Context,
	eval func(string, ...interface{}) (interface{}, error),
	script string,
	arg any,
) (any, error) {
	const op = "Evaluate"

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var (
		result any
		err    error
	)

	if arg == nil {
		result, err = eval(script)
	} else {
		result, err = eval(script, arg)
	}

	if err != nil {
		return nil, apperr.Wrap(op, apperr.CodeActionFailed, err, map[string]any{
			apperr.MetaReason: "evaluate_failed",
		})
	}

	return result, nil
}

func waitUntil(w ports.WaitPolicy) *playwright.WaitUntilState {
	switch w {
	case ports.WaitLoad:
		return playwright.WaitUntilStateLoad
	case ports.WaitNetworkIdle:
		return playwright.WaitUntilStateNetworkidle
	default:
		return playwright.WaitUntilStateDomcontentloaded
	}
}

// timeoutMs caps def by whatever remains of the context deadline.
func timeoutMs(ctx context.Context, def time.Duration) float64 {
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < def {
			def = remaining
		}
	}

	if def < time.Millisecond {
		def = time.Millisecond
	}

	return float64(def.Milliseconds())
}
