package usecase

import (
	"job-applier/internal/config"
	"job-applier/internal/ports"
	"job-applier/internal/resolver"
	"job-applier/internal/stage"
	"job-applier/internal/usecase/adapters"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Service struct {
	Application adapters.ApplicationService
	Batch       adapters.BatchService
	Browser     adapters.BrowserService
	History     adapters.HistoryService
}

type Params struct {
	fx.In

	Logger    *zap.Logger
	Config    *config.Config
	Browser   ports.Browser
	Log       ports.ApplicationLog
	Artifacts ports.ArtifactStore
	Resolver  *resolver.Resolver
	Stages    *stage.Classifier
	Captcha   ports.CaptchaSolver
}

func NewUsecase(params Params) *Service {
	factory := newServiceFactory(params)
	application := factory.CreateApplicationService()

	return &Service{
		Application: application,
		Batch:       factory.CreateBatchService(application),
		Browser:     factory.CreateBrowserService(),
		History:     factory.CreateHistoryService(),
	}
}
