package usecase

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"strings"

	"job-applier/internal/config"
	"job-applier/internal/entity"
	"job-applier/internal/outcome"
	"job-applier/internal/ports"
	"job-applier/internal/resolver"
	"job-applier/internal/stage"
	"job-applier/pkg/apperr"
	"job-applier/pkg/logg"
	"job-applier/pkg/tracing"
	"job-applier/pkg/waitfor"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const (
	applicationServiceName = "ApplicationService"
	applicationTracer      = "usecase.application"
)

type fieldFiller interface {
	FillAll(ctx context.Context, page ports.Frame, requests []resolver.Request) *resolver.Report
}

type stageReader interface {
	Classify(ctx context.Context, page ports.Page) (entity.PageStage, error)
}

type ApplicationService struct {
	config    *config.Config
	logger    *zap.Logger
	tracer    trace.Tracer
	browser   ports.Browser
	log       ports.ApplicationLog
	artifacts ports.ArtifactStore
	fields    fieldFiller
	stages    stageReader
	captcha   ports.CaptchaSolver
}

type ApplicationServiceParams struct {
	Config    *config.Config
	Logger    *zap.Logger
	Browser   ports.Browser
	Log       ports.ApplicationLog
	Artifacts ports.ArtifactStore
	Fields    fieldFiller
	Stages    stageReader
	Captcha   ports.CaptchaSolver
}

func NewApplicationService(params ApplicationServiceParams) *ApplicationService {
	return &ApplicationService{
		config:    params.Config,
		logger:    params.Logger.With(zap.String(logg.Layer, applicationServiceName)),
		tracer:    otel.Tracer(applicationTracer),
		browser:   params.Browser,
		log:       params.Log,
		artifacts: params.Artifacts,
		fields:    params.Fields,
		stages:    params.Stages,
		captcha:   params.Captcha,
	}
}

// Apply runs one application attempt end to end. It never returns an
// error: every failure ends up in the attempt's outcome and notes.
func (s *ApplicationService) Apply(ctx context.Context, job entity.Job, profile *entity.ApplicantProfile) (attempt *entity.ApplicationAttempt) {
	const op = "Apply"

	attempt = entity.NewAttempt(job.URL, profile.Key())
	logger := s.logger.With(
		zap.String(logg.Operation, op),
		zap.String(logg.AttemptID, attempt.ID.String()),
		zap.String(logg.URL, job.URL),
	)

	ctx, step := tracing.StartSpan(ctx, s.tracer, logger, op, attribute.String("job_url", job.URL))
	defer func() {
		step.SetAttributes(attribute.String("outcome", string(attempt.Outcome)))
		step.End(attemptError(attempt))
	}()

	applied, err := s.log.HasApplied(ctx, job.URL, profile.Key())
	if err != nil {
		attempt.Error = err.Error()
		attempt.Note("application log unavailable, not starting")
		attempt.Finalize(entity.OutcomeFailed)

		return attempt
	}

	if applied {
		logger.Info("Already applied, skipping")
		attempt.Note("already applied to this job")
		attempt.Finalize(entity.OutcomeAlreadyApplied)

		return attempt
	}

	logger.Info("Starting application")

	verdict := s.run(ctx, attempt, job, profile, logger)
	attempt.Note("outcome: " + verdict.Reason)
	attempt.Finalize(verdict.Outcome)

	s.record(ctx, attempt, logger)

	logger.Info("Application finished",
		zap.String(logg.Outcome, string(attempt.Outcome)),
		zap.Int("stages", len(attempt.Stages)),
	)

	return attempt
}

// run owns the browser session. Panics from handlers stop here.
func (s *ApplicationService) run(
	ctx context.Context,
	attempt *entity.ApplicationAttempt,
	job entity.Job,
	profile *entity.ApplicantProfile,
	logger *zap.Logger,
) (verdict outcome.Verdict) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Attempt panicked", zap.Any("panic", r), zap.ByteString("stack", debug.Stack()))
			attempt.Error = fmt.Sprint(r)
			verdict = outcome.Verdict{Outcome: entity.OutcomeFailed, Reason: fmt.Sprintf("internal error: %v", r)}
		}
	}()

	session, err := s.browser.NewSession(ctx)
	if err != nil {
		attempt.Error = err.Error()
		return outcome.Verdict{Outcome: entity.OutcomeFailed, Reason: "browser session unavailable"}
	}

	defer func() {
		if err := session.Close(context.WithoutCancel(ctx)); err != nil {
			logger.Warn("Session close failed", zap.Error(err))
		}
	}()

	page := session.Page()
	w := &wizard{
		svc:     s,
		page:    page,
		attempt: attempt,
		profile: profile,
		watcher: outcome.Watch(page),
		formURL: job.URL,
		logger:  logger,
	}

	if err := page.Navigate(ctx, job.URL, ports.WaitDOMContentLoaded); err != nil {
		attempt.Error = err.Error()
		return outcome.Verdict{Outcome: entity.OutcomeFailed, Reason: "navigation failed"}
	}

	w.dismissCookies(ctx)

	return w.run(ctx)
}

func (s *ApplicationService) record(ctx context.Context, attempt *entity.ApplicationAttempt, logger *zap.Logger) {
	err := s.log.Append(context.WithoutCancel(ctx), entity.RecordFromAttempt(attempt))

	switch {
	case err == nil:
	case errors.Is(err, ports.ErrAlreadyApplied):
		logger.Warn("Concurrent attempt already recorded this application")
		attempt.Note("another attempt recorded this application first")
		attempt.Outcome = entity.OutcomeAlreadyApplied
	default:
		logger.Error("Failed to record attempt", zap.Error(err))
		attempt.Note("attempt not recorded: " + err.Error())
	}
}

func attemptError(a *entity.ApplicationAttempt) error {
	if a.Error == "" {
		return nil
	}

	return errors.New(a.Error)
}

// wizard is the per-attempt state of the stage loop.
type wizard struct {
	svc     *ApplicationService
	page    ports.Page
	attempt *entity.ApplicationAttempt
	profile *entity.ApplicantProfile
	watcher *outcome.Watcher
	formURL string
	logger  *zap.Logger

	submitted         bool
	submitMissing     bool
	challengeUnsolved bool
	resumeMissing     bool

	// advanced is set once a continue control moved the wizard forward.
	advanced bool
	// filled holds the targets already written during this attempt.
	filled map[string]bool
}

func (w *wizard) run(ctx context.Context) outcome.Verdict {
	const op = "wizard"

	maxVisits := w.svc.config.EngineConfig.MaxStageVisits

	for visit := 0; visit < maxVisits; visit++ {
		if err := ctx.Err(); err != nil {
			w.attempt.Error = err.Error()
			return outcome.Verdict{Outcome: entity.OutcomeFailed, Reason: "cancelled"}
		}

		stage, err := w.svc.stages.Classify(ctx, w.page)
		if err != nil {
			w.logger.Warn("Classification failed", zap.Error(err))
			stage = entity.StageUnknown
		}

		if stage != entity.StageCaptchaChallenge && w.submitted && w.svc.captcha.Present(w.page) {
			stage = entity.StageCaptchaChallenge
		}

		w.attempt.Stages = append(w.attempt.Stages, stage)
		logger := w.logger.With(zap.String(logg.Stage, string(stage)), zap.Int("visit", visit+1))
		logger.Info("Stage reached")

		done, err := w.handle(ctx, stage, logger)
		if err != nil {
			w.attempt.Error = err.Error()
			w.attempt.Note(fmt.Sprintf("%s: %v", stage, err))
		}

		if done {
			return w.finish(ctx)
		}
	}

	w.attempt.Note(fmt.Sprintf("stopped after %d stage visits", maxVisits))
	w.logger.Warn("Stage visit cap reached", zap.String(logg.Operation, op))

	return w.finish(ctx)
}

// handle runs the stage handler. done means the loop should stop and
// classify the outcome.
func (w *wizard) handle(ctx context.Context, current entity.PageStage, logger *zap.Logger) (done bool, err error) {
	switch current {
	case entity.StageConfirmation:
		// Some wizards send the form from their last "Next" control. Only a
		// confirmation URL reached that way counts as a submission.
		if !w.submitted && w.advanced && stage.ConfirmationURL(w.page.URL()) {
			w.submitted = true
			w.attempt.Note("confirmation page reached through a continue control")
		}

		return true, nil
	case entity.StageCaptchaChallenge:
		return w.solveChallenge(ctx, logger)
	case entity.StageLanding:
		clicked, err := w.click(ctx, applyControls)
		if err != nil || !clicked {
			// some landing pages embed the form below the description
			return w.fillAndAdvance(ctx, current, logger)
		}

		return false, w.settle(ctx)
	default:
		return w.fillAndAdvance(ctx, current, logger)
	}
}

func (w *wizard) fillAndAdvance(ctx context.Context, stage entity.PageStage, logger *zap.Logger) (bool, error) {
	w.checkpoint(ctx, "pre-fill-"+string(stage))

	reqs := requests(stage, w.profile)
	if stage == entity.StageEmailGate {
		reqs = emailOnly(w.profile)
	}

	reqs = pending(reqs, w.filled)

	report := w.svc.fields.FillAll(ctx, w.page, reqs)
	w.summarize(stage, report)

	if w.filled == nil {
		w.filled = make(map[string]bool)
	}

	for _, f := range report.Filled {
		w.filled[f.Target.String()] = true
	}

	logger.Info("Stage filled",
		zap.Int("filled", len(report.Filled)),
		zap.Int("unresolved_required", report.UnresolvedRequired()),
	)

	if stage == entity.StageFileUpload && !report.Has(entity.RoleResumeFile) {
		w.resumeMissing = true
		w.attempt.Note("resume not uploaded: no usable file input")
		w.checkpoint(ctx, "post-stage-"+string(stage))

		return true, apperr.Wrap("fillAndAdvance", apperr.CodeFieldNotFound, errors.New("resume upload failed"), map[string]any{
			apperr.MetaStage: apperr.StageWizard,
			apperr.MetaRole:  string(entity.RoleResumeFile),
		})
	}

	w.checkpoint(ctx, "post-stage-"+string(stage))

	return w.advance(ctx, stage)
}

// advance prefers continue controls; review stages and pages without one
// are submitted.
func (w *wizard) advance(ctx context.Context, stage entity.PageStage) (bool, error) {
	if stage != entity.StageReview {
		clicked, err := w.click(ctx, continueControls)
		if err != nil {
			return false, err
		}

		if clicked {
			w.advanced = true
			return false, w.settle(ctx)
		}
	}

	return w.submit(ctx)
}

func (w *wizard) submit(ctx context.Context) (bool, error) {
	w.checkpoint(ctx, "pre-submit")

	w.formURL = w.page.URL()
	w.watcher.Arm()

	clicked, err := w.click(ctx, submitControls)
	if err != nil {
		return true, err
	}

	if !clicked {
		w.submitMissing = true
		w.attempt.Note("no continue or submit control found")

		return true, nil
	}

	w.submitted = true
	_ = w.settle(ctx)
	w.checkpoint(ctx, "post-submit")

	// a challenge shown after submit is handled by the loop
	return !w.svc.captcha.Present(w.page), nil
}

func (w *wizard) solveChallenge(ctx context.Context, logger *zap.Logger) (bool, error) {
	w.checkpoint(ctx, "pre-captcha")

	solved, attempts, err := w.svc.captcha.Solve(ctx, w.page)
	w.attempt.Note(fmt.Sprintf("captcha: %d attempt(s), solved=%t", attempts, solved))
	logger.Info("Challenge handled", zap.Bool("solved", solved), zap.Int("attempts", attempts))

	if err != nil {
		return true, apperr.Wrap("solveChallenge", apperr.CodeCaptchaUnsolved, err, map[string]any{
			apperr.MetaStage: apperr.StageCaptcha,
		})
	}

	if !solved && w.svc.captcha.Present(w.page) {
		w.challengeUnsolved = true
		return true, nil
	}

	_ = w.settle(ctx)
	w.checkpoint(ctx, "post-captcha")

	// the challenge only ever appears once the form was sent
	if w.submitted {
		return true, nil
	}

	return false, nil
}

func (w *wizard) finish(ctx context.Context) outcome.Verdict {
	e := outcome.Evidence{
		FormURL:           w.formURL,
		FinalURL:          w.page.URL(),
		Submitted:         w.submitted,
		SubmitMissing:     w.submitMissing,
		ChallengeUnsolved: w.challengeUnsolved,
		Accepted:          w.watcher.Accepted(),
	}

	if collected, err := outcome.Collect(ctx, w.page, e); err == nil {
		e = collected
	} else {
		w.logger.Warn("Evidence collection failed", zap.Error(err))
	}

	w.checkpoint(ctx, "final")

	if w.resumeMissing {
		return outcome.Verdict{Outcome: entity.OutcomeFailed, Reason: "resume not uploaded"}
	}

	return outcome.Classify(e)
}

// click activates the first usable element across selectors.
func (w *wizard) click(ctx context.Context, selectors []string) (bool, error) {
	var lastErr error

	for _, sel := range selectors {
		els, err := w.page.Query(ctx, sel)
		if err != nil {
			continue
		}

		for _, el := range els {
			if ok, err := el.Usable(ctx); err != nil || !ok {
				continue
			}

			if label, err := el.Text(ctx); err == nil && avoided(label) {
				w.logger.Debug("Control skipped", zap.String(logg.Selector, sel), zap.String("label", label))
				continue
			}

			if err := el.Click(ctx); err != nil {
				lastErr = apperr.Wrap("click", apperr.CodeActionFailed, err, map[string]any{
					apperr.MetaSelector: sel,
					apperr.MetaStage:    apperr.StageInteraction,
				})

				continue
			}

			w.logger.Debug("Control clicked", zap.String(logg.Selector, sel))

			return true, nil
		}
	}

	return false, lastErr
}

// settle waits until the page moved on from its current snapshot.
func (w *wizard) settle(ctx context.Context) error {
	before := w.page.URL()
	html, _ := w.page.Content(ctx)
	cfg := w.svc.config.EngineConfig

	err := waitfor.Until(ctx, waitfor.Backoff{
		Initial:    cfg.BackoffInitial,
		Max:        cfg.BackoffMax,
		Multiplier: 2,
		Timeout:    cfg.SettleTimeout,
	}, func(ctx context.Context) (bool, error) {
		if w.page.URL() != before {
			return true, nil
		}

		now, err := w.page.Content(ctx)

		return err == nil && now != html, nil
	})
	if errors.Is(err, waitfor.ErrTimeout) {
		return nil
	}

	return err
}

func (w *wizard) dismissCookies(ctx context.Context) {
	if clicked, _ := w.click(ctx, cookieControls); clicked {
		w.attempt.Note("cookie banner dismissed")
		_ = w.settle(ctx)
	}
}

func (w *wizard) checkpoint(ctx context.Context, name string) {
	data, err := w.page.Screenshot(ctx)
	if err != nil {
		w.logger.Debug("Screenshot failed", zap.String("checkpoint", name), zap.Error(err))
		return
	}

	ref, err := w.svc.artifacts.Save(ctx, w.attempt.ID.String(), name, data)
	if err != nil {
		w.logger.Debug("Artifact save failed", zap.String("checkpoint", name), zap.Error(err))
		return
	}

	w.attempt.Artifacts = append(w.attempt.Artifacts, ref)
}

func (w *wizard) summarize(stage entity.PageStage, report *resolver.Report) {
	filled := make([]string, 0, len(report.Filled))
	for _, f := range report.Filled {
		filled = append(filled, f.Target.String())
	}

	if len(filled) > 0 {
		w.attempt.Note(fmt.Sprintf("%s: filled %s", stage, strings.Join(filled, ", ")))
	}

	for _, t := range append(report.Unresolved, report.Mismatched...) {
		if !t.Required {
			continue
		}

		w.attempt.Unresolved = append(w.attempt.Unresolved, t.String())
		w.attempt.Note(fmt.Sprintf("%s: required field %s unresolved", stage, t))
	}
}
