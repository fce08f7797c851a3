package router

import (
	"github.com/testskool/backend/internal/application"
	"github.com/testskool/backend/internal/container"
	"github.com/testskool/backend/internal/domain/repository"
	gcsinfra "github.com/testskool/backend/internal/infrastructure/gcs"
	pginfra "github.com/testskool/backend/internal/infrastructure/postgres"
	handlers "github.com/testskool/backend/internal/interface/http"
	"github.com/testskool/backend/internal/router/modules"
)

func buildService() *application.Service {
	cfg := container.GetConfig()

	accounts := pginfra.NewAccountRepository(container.GetPGPool())
	subjects := pginfra.NewSubjectRepository(container.GetPGPool())

	var media repository.MediaStorage
	if client := container.GetGCS(); client != nil && cfg.GCSBucket != "" {
		media = gcsinfra.NewMediaStorage(client, cfg.GCSBucket)
	}

	var pub application.Publisher
	if p := container.GetRabbitPub(); p != nil {
		pub = p
	}

	return application.NewService(
		accounts,
		subjects,
		container.GetJWT(),
		media,
		container.GetRedis(),
		container.GetLogger(),
		pub,
		cfg.MailSendEnabled,
	)
}

// InitModules initializes all application modules and registers them
// with the router registry. Called once during startup.
func InitModules(r *Registry) {
	cfg := container.GetConfig()
	svc := buildService()

	accountHandler := handlers.NewAccountHandler(svc, container.GetLogger(), cfg.CookieDomain, cfg.CookieSecure)
	subjectHandler := handlers.NewSubjectHandler(svc, container.GetLogger())

	r.Add(modules.NewAccountModule(accountHandler, container.GetJWT()))
	r.Add(modules.NewSubjectModule(subjectHandler))
}
