package db

import (
	types "github.com/formloom/formloom-backend/internal/domain"
	"gorm.io/gorm"
)

func AutoMigrateAll(db *gorm.DB) error {
	return db.AutoMigrate(
		// Questionnaire catalog (read-only here, authored elsewhere)
		&types.Screen{},
		&types.Question{},
		&types.AnswerOption{},
		&types.VisibilityRule{},

		// Answer capture
		&types.ResponseSet{},
		&types.Response{},
	)
}
