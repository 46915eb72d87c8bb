package domain

import (
	"time"

	"github.com/google/uuid"
)

// ResponseSet is the root a respondent writes answers against. Its ETag is
// derived from StateVersion, which only changes on operations that mutate
// the set itself (creation today; answer writes version the Response rows).
type ResponseSet struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey;column:id" json:"id"`
	Name         string    `gorm:"not null;column:name" json:"name"`
	StateVersion int64     `gorm:"not null;default:1;column:state_version" json:"state_version"`
	CreatedAt    time.Time `gorm:"not null;autoCreateTime;column:created_at" json:"created_at"`
	UpdatedAt    time.Time `gorm:"not null;autoUpdateTime;column:updated_at" json:"updated_at"`
}

func (ResponseSet) TableName() string { return "response_set" }

// Response is the stored answer row, unique per (response_set_id, question_id).
// At most one of the value columns is non-null at a time; a cleared row keeps
// its identity and version history with every value column null.
type Response struct {
	ID            uuid.UUID  `gorm:"type:uuid;primaryKey;column:id" json:"id"`
	ResponseSetID uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:uniq_response_set_question,priority:1;column:response_set_id" json:"response_set_id"`
	QuestionID    uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:uniq_response_set_question,priority:2;column:question_id" json:"question_id"`
	OptionID      *uuid.UUID `gorm:"type:uuid;column:option_id" json:"option_id,omitempty"`
	ValueText     *string    `gorm:"column:value_text" json:"value_text,omitempty"`
	ValueNumber   *float64   `gorm:"column:value_number" json:"value_number,omitempty"`
	ValueBool     *bool      `gorm:"column:value_bool" json:"value_bool,omitempty"`
	StateVersion  int64      `gorm:"not null;default:0;column:state_version" json:"state_version"`
	CreatedAt     time.Time  `gorm:"not null;autoCreateTime;column:created_at" json:"created_at"`
	UpdatedAt     time.Time  `gorm:"not null;autoUpdateTime;column:updated_at" json:"updated_at"`
}

func (Response) TableName() string { return "response" }

// HasValue reports whether the row currently stores an answer (a cleared row
// exists but holds no value).
func (r *Response) HasValue() bool {
	if r == nil {
		return false
	}
	return r.OptionID != nil || r.ValueText != nil || r.ValueNumber != nil || r.ValueBool != nil
}

// AnswerValue is the canonical one-of value written into a Response row.
// The zero value means "cleared".
type AnswerValue struct {
	OptionID *uuid.UUID
	Text     *string
	Number   *float64
	Bool     *bool
}

func (v AnswerValue) IsZero() bool {
	return v.OptionID == nil && v.Text == nil && v.Number == nil && v.Bool == nil
}
