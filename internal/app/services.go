package app

import (
	"gorm.io/gorm"

	"github.com/formloom/formloom-backend/internal/data/db"
	"github.com/formloom/formloom-backend/internal/data/repos"
	"github.com/formloom/formloom-backend/internal/pkg/logger"
	"github.com/formloom/formloom-backend/internal/services"
	"github.com/formloom/formloom-backend/internal/visibility"
)

type Services struct {
	ResponseSets services.ResponseSetService
	Answers      services.AnswerService
	Screens      services.ScreenService
}

func wireServices(theDB *gorm.DB, log *logger.Logger, reposet repos.Set) Services {
	vis := visibility.NewEngine(reposet.Screens, reposet.Questions, reposet.Rules, log)

	emitter, err := services.NewRedisEmitter(log)
	if err != nil {
		log.Warn("redis emitter unavailable, events go to the log", "error", err)
		emitter = services.NewLogEmitter(log)
	}

	return Services{
		ResponseSets: services.NewResponseSetService(db.NewTxRunner(theDB), log, reposet.ResponseSets, reposet.Responses, emitter),
		Answers:      services.NewAnswerService(theDB, log, reposet.ResponseSets, reposet.Responses, reposet.Screens, reposet.Questions, vis, emitter),
		Screens:      services.NewScreenService(theDB, log, reposet.ResponseSets, reposet.Responses, reposet.Screens, reposet.Questions, vis),
	}
}
