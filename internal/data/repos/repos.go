package repos

import (
	"gorm.io/gorm"

	"github.com/formloom/formloom-backend/internal/data/repos/answers"
	"github.com/formloom/formloom-backend/internal/data/repos/catalog"
	"github.com/formloom/formloom-backend/internal/pkg/logger"
)

type ResponseSetRepo = answers.ResponseSetRepo
type ResponseRepo = answers.ResponseRepo

type ScreenRepo = catalog.ScreenRepo
type QuestionRepo = catalog.QuestionRepo
type RuleRepo = catalog.RuleRepo

// Set bundles every repo for wiring.
type Set struct {
	ResponseSets ResponseSetRepo
	Responses    ResponseRepo

	Screens   ScreenRepo
	Questions QuestionRepo
	Rules     RuleRepo
}

func New(db *gorm.DB, log *logger.Logger) Set {
	return Set{
		ResponseSets: answers.NewResponseSetRepo(db, log),
		Responses:    answers.NewResponseRepo(db, log),
		Screens:      catalog.NewScreenRepo(db, log),
		Questions:    catalog.NewQuestionRepo(db, log),
		Rules:        catalog.NewRuleRepo(db, log),
	}
}
