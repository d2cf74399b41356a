package usecase

import (
	"job-applier/internal/usecase/adapters"
)

type serviceFactory struct {
	deps Params
}

func newServiceFactory(deps Params) *serviceFactory {
	return &serviceFactory{
		deps: deps,
	}
}

func (f *serviceFactory) CreateApplicationService() adapters.ApplicationService {
	return NewApplicationService(ApplicationServiceParams{
		Config:    f.deps.Config,
		Logger:    f.deps.Logger,
		Browser:   f.deps.Browser,
		Log:       f.deps.Log,
		Artifacts: f.deps.Artifacts,
		Fields:    f.deps.Resolver,
		Stages:    f.deps.Stages,
		Captcha:   f.deps.Captcha,
	})
}

func (f *serviceFactory) CreateBatchService(app adapters.ApplicationService) adapters.BatchService {
	return NewBatchService(BatchServiceParams{
		Config:      f.deps.Config,
		Logger:      f.deps.Logger,
		Application: app,
	})
}

func (f *serviceFactory) CreateBrowserService() adapters.BrowserService {
	return f.deps.Browser
}

func (f *serviceFactory) CreateHistoryService() adapters.HistoryService {
	return f.deps.Log
}
