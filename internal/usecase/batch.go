package usecase

import (
	"context"
	"fmt"
	"time"

	"job-applier/internal/config"
	"job-applier/internal/entity"
	"job-applier/internal/usecase/adapters"
	"job-applier/pkg/logg"
	"job-applier/pkg/tracing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

const (
	batchServiceName = "BatchService"
	batchTracer      = "usecase.batch"
)

type BatchService struct {
	app         adapters.ApplicationService
	logger      *zap.Logger
	tracer      trace.Tracer
	concurrency int64
	minDelay    time.Duration
}

type BatchServiceParams struct {
	Config      *config.Config
	Logger      *zap.Logger
	Application adapters.ApplicationService
}

func NewBatchService(params BatchServiceParams) *BatchService {
	concurrency := int64(params.Config.BatchConfig.Concurrency)
	if concurrency < 1 {
		concurrency = 1
	}

	return &BatchService{
		app:         params.Application,
		logger:      params.Logger.With(zap.String(logg.Layer, batchServiceName)),
		tracer:      otel.Tracer(batchTracer),
		concurrency: concurrency,
		minDelay:    params.Config.BatchConfig.MinDelay,
	}
}

// Run applies to every job. Attempts run in parallel up to the configured
// concurrency and start no closer together than the minimum delay. The
// result slice is index-aligned with jobs.
func (s *BatchService) Run(ctx context.Context, jobs []entity.Job, profile *entity.ApplicantProfile) []*entity.ApplicationAttempt {
	const op = "Run"
	logger := s.logger.With(zap.String(logg.Operation, op), zap.Int("jobs", len(jobs)))

	ctx, step := tracing.StartSpan(ctx, s.tracer, logger, op, attribute.Int("jobs", len(jobs)))
	defer step.End(nil)

	limit := rate.Inf
	if s.minDelay > 0 {
		limit = rate.Every(s.minDelay)
	}

	limiter := rate.NewLimiter(limit, 1)
	sem := semaphore.NewWeighted(s.concurrency)
	results := make([]*entity.ApplicationAttempt, len(jobs))

	var (
		g       errgroup.Group
		stopErr error
	)

	for i, job := range jobs {
		if stopErr = sem.Acquire(ctx, 1); stopErr != nil {
			break
		}

		if stopErr = limiter.Wait(ctx); stopErr != nil {
			sem.Release(1)
			break
		}

		g.Go(func() error {
			defer sem.Release(1)

			results[i] = s.app.Apply(ctx, job, profile)

			return nil
		})
	}

	_ = g.Wait()

	for i, r := range results {
		if r != nil {
			continue
		}

		a := entity.NewAttempt(jobs[i].URL, profile.Key())
		a.Note(fmt.Sprintf("not started: %v", stopErr))
		a.Finalize(entity.OutcomeFailed)
		results[i] = a
	}

	counts := make(map[entity.SubmissionOutcome]int)
	for _, r := range results {
		counts[r.Outcome]++
	}

	logger.Info("Batch finished", zap.Any("outcomes", counts))

	return results
}
