// Package captcha solves canvas icon challenges ("click the icons that are
// different") by treating component size as the outlier signal.
package captcha

import (
	"context"
	"strings"
	"time"

	"job-applier/internal/config"
	"job-applier/internal/entity"
	"job-applier/internal/ports"
	"job-applier/pkg/logg"
	"job-applier/pkg/tracing"
	"job-applier/pkg/waitfor"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	solverName   = "CaptchaSolver"
	solverTracer = "engine.captcha"

	hoverOffset = 5
	maxHover    = 150 * time.Millisecond
)

const (
	canvasInfoScript = `() => {
		const canvas = document.querySelector('canvas');
		if (!canvas) return null;
		const rect = canvas.getBoundingClientRect();
		return { width: canvas.width, height: canvas.height, x: rect.x, y: rect.y, w: rect.width, h: rect.height };
	}`
	canvasDataScript = `() => {
		const canvas = document.querySelector('canvas');
		if (!canvas) return null;
		try { return canvas.toDataURL('image/png'); } catch (e) { return null; }
	}`
	promptScript = `() => {
		const el = document.querySelector('.prompt-text, h2, [class*="prompt"]');
		return el ? el.textContent.trim() : '';
	}`
	buttonLabelScript = `() => {
		const btn = document.querySelector('.button-submit');
		return btn ? btn.textContent.trim() : 'not found';
	}`

	submitSelector  = ".button-submit"
	refreshSelector = ".refresh.button"
)

type Solver struct {
	cfg    *config.CaptchaConfig
	ladder Ladder
	logger *zap.Logger
	tracer trace.Tracer
}

type Params struct {
	fx.In

	Config *config.Config
	Logger *zap.Logger
}

func NewSolver(params Params) *Solver {
	cfg := params.Config.CaptchaConfig

	return &Solver{
		cfg: cfg,
		ladder: Ladder{
			Thresholds: cfg.Thresholds,
			MinIcons:   cfg.MinIcons,
			MinArea:    cfg.MinArea,
			MaxArea:    cfg.MaxArea,
		},
		logger: params.Logger.With(zap.String(logg.Layer, solverName)),
		tracer: otel.Tracer(solverTracer),
	}
}

// Present reports whether a challenge frame is attached to the page.
func (s *Solver) Present(page ports.Page) bool {
	return s.frame(page) != nil
}

func (s *Solver) frame(page ports.Page) ports.Frame {
	for _, f := range page.Frames() {
		u := strings.ToLower(f.URL())
		matched := true

		for _, p := range s.cfg.FramePattern {
			if !strings.Contains(u, strings.ToLower(p)) {
				matched = false
				break
			}
		}

		if matched {
			return f
		}
	}

	return nil
}

// Solve runs the analyze, click, verify loop until the action control
// leaves its idle label or the attempt budget is spent.
func (s *Solver) Solve(ctx context.Context, page ports.Page) (solved bool, attempts int, err error) {
	const op = "Solve"
	logger := s.logger.With(zap.String(logg.Operation, op))

	ctx, step := tracing.StartSpan(ctx, s.tracer, logger, op)
	defer func() {
		step.SetAttributes(attribute.Int("attempts", attempts), attribute.Bool("solved", solved))
		step.End(err)
	}()

	for attempts = 1; attempts <= s.cfg.MaxAttempts; attempts++ {
		if err = ctx.Err(); err != nil {
			return false, attempts - 1, err
		}

		frame := s.frame(page)
		if frame == nil {
			logger.Info("Challenge frame gone", zap.Int("attempt", attempts))
			return true, attempts - 1, nil
		}

		challenge, ok := s.read(ctx, frame, logger)
		if !ok || len(challenge.Candidates) < 2 {
			logger.Info("Not enough icon candidates, refreshing", zap.Int("attempt", attempts))
			s.refresh(ctx, frame)

			continue
		}

		step.AddEvent("targets selected",
			attribute.Int("attempt", attempts),
			attribute.Int("threshold", challenge.Threshold),
			attribute.Int("candidates", len(challenge.Candidates)),
		)

		if err = s.clickTargets(ctx, page, challenge); err != nil {
			logger.Warn("Target click failed", zap.Error(err))
			err = nil
		}

		label := s.label(ctx, frame)
		if s.idle(label) {
			logger.Info("Challenge not accepted, refreshing",
				zap.Int("attempt", attempts),
				zap.String("label", label),
			)
			s.refresh(ctx, frame)

			continue
		}

		logger.Info("Challenge accepted", zap.Int("attempt", attempts), zap.String("label", label))
		s.activate(ctx, frame, submitSelector)

		return true, attempts, nil
	}

	return false, s.cfg.MaxAttempts, nil
}

func (s *Solver) read(ctx context.Context, frame ports.Frame, logger *zap.Logger) (*entity.CaptchaChallenge, bool) {
	raw, err := frame.Evaluate(ctx, canvasInfoScript, nil)
	info, ok := raw.(map[string]any)
	if err != nil || !ok {
		return nil, false
	}

	data, err := frame.Evaluate(ctx, canvasDataScript, nil)
	dataURL, ok := data.(string)
	if err != nil || !ok {
		return nil, false
	}

	img, err := DecodeDataURL(dataURL)
	if err != nil {
		logger.Debug("Canvas decode failed", zap.Error(err))
		return nil, false
	}

	challenge := &entity.CaptchaChallenge{
		PixelWidth:  int(number(info["width"])),
		PixelHeight: int(number(info["height"])),
		Display: entity.Rect{
			X:      number(info["x"]),
			Y:      number(info["y"]),
			Width:  number(info["w"]),
			Height: number(info["h"]),
		},
	}

	if challenge.PixelWidth == 0 {
		challenge.PixelWidth = img.Bounds().Dx()
		challenge.PixelHeight = img.Bounds().Dy()
	}

	challenge.Scale = 1
	if challenge.Display.Width > 0 {
		challenge.Scale = float64(challenge.PixelWidth) / challenge.Display.Width
	}

	prompt, _ := frame.Evaluate(ctx, promptScript, nil)
	text, _ := prompt.(string)
	challenge.Requested = RequestedCount(text, s.cfg.DefaultTarget)

	challenge.Candidates, challenge.Threshold = Analyze(img, s.ladder)
	challenge.Targets = Select(challenge.Candidates, challenge.Requested)

	return challenge, true
}

func (s *Solver) clickTargets(ctx context.Context, page ports.Page, c *entity.CaptchaChallenge) error {
	hover := min(maxHover, s.cfg.ClickSettle)

	for _, icon := range c.Targets {
		p := ToPage(icon.Centroid, c.Display, c.Scale)

		if err := page.MouseMove(ctx, p.X-hoverOffset, p.Y-hoverOffset); err != nil {
			return err
		}

		if err := waitfor.Sleep(ctx, hover); err != nil {
			return err
		}

		if err := page.MouseClick(ctx, p.X, p.Y); err != nil {
			return err
		}

		if err := waitfor.Sleep(ctx, s.cfg.ClickSettle); err != nil {
			return err
		}
	}

	return nil
}

func (s *Solver) label(ctx context.Context, frame ports.Frame) string {
	raw, err := frame.Evaluate(ctx, buttonLabelScript, nil)
	if err != nil {
		return ""
	}

	label, _ := raw.(string)

	return strings.TrimSpace(label)
}

func (s *Solver) idle(label string) bool {
	switch strings.ToLower(label) {
	case "", "not found", strings.ToLower(s.cfg.IdleLabel):
		return true
	}

	return false
}

func (s *Solver) refresh(ctx context.Context, frame ports.Frame) {
	s.activate(ctx, frame, refreshSelector)
	_ = waitfor.Sleep(ctx, s.cfg.ClickSettle)
}

func (s *Solver) activate(ctx context.Context, frame ports.Frame, selector string) {
	els, err := frame.Query(ctx, selector)
	if err != nil || len(els) == 0 {
		return
	}

	if err := els[0].Click(ctx); err != nil {
		s.logger.Debug("Control click failed", zap.String(logg.Selector, selector), zap.Error(err))
	}
}

func number(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int64:
		return float64(n)
	}

	return 0
}
