package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Questionnaire structure is authored elsewhere; this service only reads it.

type QuestionKind string

const (
	KindShortString QuestionKind = "short_string"
	KindLongText    QuestionKind = "long_text"
	KindNumber      QuestionKind = "number"
	KindBoolean     QuestionKind = "boolean"
	KindEnumSingle  QuestionKind = "enum_single"
)

func (k QuestionKind) Valid() bool {
	switch k {
	case KindShortString, KindLongText, KindNumber, KindBoolean, KindEnumSingle:
		return true
	default:
		return false
	}
}

type Screen struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;column:id" json:"id"`
	ScreenKey string    `gorm:"uniqueIndex;not null;column:screen_key" json:"screen_key"`
	Name      string    `gorm:"not null;column:name" json:"name"`
	Position  int       `gorm:"not null;default:0;column:position" json:"position"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime;column:created_at" json:"created_at"`
}

func (Screen) TableName() string { return "screen" }

type Question struct {
	ID        uuid.UUID    `gorm:"type:uuid;primaryKey;column:id" json:"id"`
	ScreenID  uuid.UUID    `gorm:"type:uuid;not null;index;column:screen_id" json:"screen_id"`
	Kind      QuestionKind `gorm:"not null;column:kind" json:"kind"`
	Prompt    string       `gorm:"not null;column:prompt" json:"prompt"`
	Mandatory bool         `gorm:"not null;default:false;column:mandatory" json:"mandatory"`
	Position  int          `gorm:"not null;default:0;column:position" json:"position"`
	CreatedAt time.Time    `gorm:"not null;autoCreateTime;column:created_at" json:"created_at"`
}

func (Question) TableName() string { return "question" }

// AnswerOption carries the canonical value token respondents may submit in
// place of the option id. Tokens are unique within a question.
type AnswerOption struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey;column:id" json:"id"`
	QuestionID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uniq_question_option_value,priority:1;column:question_id" json:"question_id"`
	Value      string    `gorm:"not null;uniqueIndex:uniq_question_option_value,priority:2;column:value" json:"value"`
	Label      string    `gorm:"column:label" json:"label,omitempty"`
	Position   int       `gorm:"not null;default:0;column:position" json:"position"`
}

func (AnswerOption) TableName() string { return "answer_option" }

// VisibilityRule gates TargetQuestionID on the answer to ControllingQuestionID.
// Predicate is a JSON document understood by the visibility engine; a question
// with no rules is always visible, one with several is visible only when all
// of them hold.
type VisibilityRule struct {
	ID                    uuid.UUID      `gorm:"type:uuid;primaryKey;column:id" json:"id"`
	ScreenID              uuid.UUID      `gorm:"type:uuid;not null;index;column:screen_id" json:"screen_id"`
	TargetQuestionID      uuid.UUID      `gorm:"type:uuid;not null;index;column:target_question_id" json:"target_question_id"`
	ControllingQuestionID uuid.UUID      `gorm:"type:uuid;not null;column:controlling_question_id" json:"controlling_question_id"`
	Predicate             datatypes.JSON `gorm:"column:predicate" json:"predicate"`
}

func (VisibilityRule) TableName() string { return "visibility_rule" }
