package adapters

import (
	"context"

	"job-applier/internal/entity"
)

type BrowserService interface {
	Launch(ctx context.Context) error
	Close(ctx context.Context) error
	IsReady() bool
}

type ApplicationService interface {
	Apply(ctx context.Context, job entity.Job, profile *entity.ApplicantProfile) *entity.ApplicationAttempt
}

type BatchService interface {
	Run(ctx context.Context, jobs []entity.Job, profile *entity.ApplicantProfile) []*entity.ApplicationAttempt
}

type HistoryService interface {
	List(ctx context.Context) ([]*entity.LogRecord, error)
	HasApplied(ctx context.Context, jobURL, applicantKey string) (bool, error)
}
