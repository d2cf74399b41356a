package resolver

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"job-applier/internal/config"
	"job-applier/internal/entity"
	"job-applier/internal/ports"
	"job-applier/pkg/apperr"
	"job-applier/pkg/logg"
	"job-applier/pkg/tracing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	resolverName   = "FieldResolver"
	resolverTracer = "engine.resolver"
)

// Fill is the result of one successful field fill.
type Fill struct {
	Target   entity.FieldTarget
	Strategy entity.FieldStrategy
	Refilled bool
}

type Resolver struct {
	table         Table
	logger        *zap.Logger
	tracer        trace.Tracer
	actionTimeout time.Duration
}

type Params struct {
	fx.In

	Config *config.Config
	Logger *zap.Logger
	Table  Table `optional:"true"`
}

func NewResolver(params Params) *Resolver {
	table := params.Table
	if table == nil {
		table = DefaultStrategies()
	}

	return &Resolver{
		table:         table,
		logger:        params.Logger.With(zap.String(logg.Layer, resolverName)),
		tracer:        otel.Tracer(resolverTracer),
		actionTimeout: params.Config.BrowserConfig.ActionTimeout,
	}
}

func (r *Resolver) firstUsable(ctx context.Context, page ports.Frame, strategy entity.FieldStrategy) (ports.Element, error) {
	actionCtx, cancel := r.actionContext(ctx)
	defer cancel()

	elements, err := page.Query(actionCtx, strategy.Selector)
	if err != nil {
		return nil, err
	}

	for _, el := range elements {
		if programmatic(strategy.Method) {
			return el, nil
		}

		ok, err := el.Usable(actionCtx)
		if err == nil && ok {
			return el, nil
		}
	}

	return nil, nil
}

// Fill resolves target and writes value through the winning strategy. When a
// matched element rejects the write the next strategy is tried; when the write
// lands but the read-back disagrees, exactly one re-fill is attempted.
func (r *Resolver) Fill(ctx context.Context, page ports.Frame, target entity.FieldTarget, value string) (fill *Fill, err error) {
	const op = "Fill"
	logger := r.logger.With(zap.String(logg.Operation, op), zap.String(logg.Role, target.String()))

	ctx, step := tracing.StartSpan(ctx, r.tracer, logger, op, attribute.String("role", target.String()))
	defer func() {
		step.End(err)
	}()

	var lastErr error

	for _, strategy := range r.table.Expand(target, value) {
		el, qErr := r.firstUsable(ctx, page, strategy)
		if qErr != nil || el == nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}

			continue
		}

		step.AddEvent("strategy matched", attribute.String("selector", strategy.Selector))

		if wErr := r.apply(ctx, el, strategy.Method, value); wErr != nil {
			logger.Debug("Strategy write failed", zap.String(logg.Selector, strategy.Selector), zap.Error(wErr))
			lastErr = wErr

			continue
		}

		if r.verify(ctx, el, strategy.Method, value) {
			return &Fill{Target: target, Strategy: strategy}, nil
		}

		logger.Info("Value did not stick, refilling once", zap.String(logg.Selector, strategy.Selector))

		if wErr := r.refill(ctx, el, strategy.Method, value); wErr == nil && r.verify(ctx, el, strategy.Method, value) {
			return &Fill{Target: target, Strategy: strategy, Refilled: true}, nil
		}

		return nil, apperr.Wrap(op, apperr.CodeFieldMismatch, fmt.Errorf("value for %s was reset after refill", target), map[string]any{
			apperr.MetaRole:     target.String(),
			apperr.MetaSelector: strategy.Selector,
			apperr.MetaReason:   "value_reset",
		})
	}

	if lastErr != nil {
		return nil, apperr.Wrap(op, apperr.CodeFieldNotFound, lastErr, map[string]any{
			apperr.MetaRole:   target.String(),
			apperr.MetaReason: "all_matches_rejected_write",
		})
	}

	return nil, apperr.FieldNotFound(op, target.String())
}

func (r *Resolver) apply(ctx context.Context, el ports.Element, method entity.FillMethod, value string) error {
	actionCtx, cancel := r.actionContext(ctx)
	defer cancel()

	switch method {
	case entity.FillNative:
		return el.Fill(actionCtx, value)
	case entity.FillSetterWithEvent:
		return el.SetNativeValue(actionCtx, value)
	case entity.FillFileInjection:
		return el.SetFiles(actionCtx, []string{value})
	case entity.FillOptionSelect:
		var err error
		for _, candidate := range optionCandidates(value) {
			if err = el.SelectOption(actionCtx, candidate); err == nil {
				return nil
			}
		}

		return err
	case entity.FillCheck:
		return el.Check(actionCtx)
	default:
		return fmt.Errorf("unknown fill method %q", method)
	}
}

// refill is the single retry. A native fill that was ignored is most often a
// framework-controlled input, so the retry goes through the setter primitive.
func (r *Resolver) refill(ctx context.Context, el ports.Element, method entity.FillMethod, value string) error {
	if method == entity.FillNative {
		actionCtx, cancel := r.actionContext(ctx)
		defer cancel()

		return el.SetNativeValue(actionCtx, value)
	}

	return r.apply(ctx, el, method, value)
}

func (r *Resolver) verify(ctx context.Context, el ports.Element, method entity.FillMethod, value string) bool {
	actionCtx, cancel := r.actionContext(ctx)
	defer cancel()

	got, err := el.Value(actionCtx)
	if err != nil {
		return false
	}

	return matches(method, got, value)
}

func matches(method entity.FillMethod, got, want string) bool {
	switch method {
	case entity.FillFileInjection:
		n, err := strconv.Atoi(got)
		return err == nil && n > 0
	case entity.FillCheck:
		return got == "true"
	case entity.FillOptionSelect:
		if got == "" {
			return false
		}

		return strings.EqualFold(normalize(got), normalize(want)) || (yesNo(want) && yesNo(got) && isYes(got) == isYes(want))
	default:
		return normalize(got) == normalize(want)
	}
}

// optionCandidates lists the spellings a yes/no answer may take in a select.
func optionCandidates(value string) []string {
	if !yesNo(value) {
		return []string{value}
	}

	if isYes(value) {
		return []string{value, "yes", "Yes", "true", "Ja"}
	}

	return []string{value, "no", "No", "false", "Nee"}
}

func yesNo(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "yes", "no", "true", "false", "y", "n", "ja", "nee", "1", "0":
		return true
	}

	return false
}

func normalize(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func programmatic(method entity.FillMethod) bool {
	return method == entity.FillFileInjection || method == entity.FillCheck
}

func (r *Resolver) actionContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.actionTimeout <= 0 {
		return context.WithCancel(ctx)
	}

	return context.WithTimeout(ctx, r.actionTimeout)
}

// Request pairs a field with the value to write.
type Request struct {
	Target entity.FieldTarget
	Value  string
}

// Report summarises FillAll.
type Report struct {
	Filled     []Fill
	Unresolved []entity.FieldTarget
	Mismatched []entity.FieldTarget
}

// UnresolvedRequired counts required targets that were not filled.
func (rep *Report) UnresolvedRequired() int {
	n := 0

	for _, t := range append(append([]entity.FieldTarget(nil), rep.Unresolved...), rep.Mismatched...) {
		if t.Required {
			n++
		}
	}

	return n
}

func (rep *Report) Has(role entity.FieldRole) bool {
	for _, f := range rep.Filled {
		if f.Target.Role == role {
			return true
		}
	}

	return false
}

// FillAll fills every request with a non-empty value. Errors never stop the
// walk; they are tallied in the report.
func (r *Resolver) FillAll(ctx context.Context, page ports.Frame, requests []Request) *Report {
	rep := &Report{}

	for _, req := range requests {
		if req.Value == "" {
			continue
		}

		if ctx.Err() != nil {
			rep.Unresolved = append(rep.Unresolved, req.Target)
			continue
		}

		fill, err := r.Fill(ctx, page, req.Target, req.Value)

		switch {
		case err == nil:
			rep.Filled = append(rep.Filled, *fill)
		case apperr.Is(err, apperr.CodeFieldMismatch):
			rep.Mismatched = append(rep.Mismatched, req.Target)
		default:
			rep.Unresolved = append(rep.Unresolved, req.Target)
		}
	}

	return rep
}
