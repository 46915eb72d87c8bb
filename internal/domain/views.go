package domain

import "github.com/google/uuid"

// Read-model shapes returned by the screen read and post-write paths. They
// are assembled per request and never persisted.

type OptionView struct {
	ID    uuid.UUID `json:"id"`
	Value string    `json:"value"`
	Label string    `json:"label,omitempty"`
}

type QuestionView struct {
	ID        uuid.UUID    `json:"id"`
	Kind      QuestionKind `json:"kind"`
	Prompt    string       `json:"prompt"`
	Mandatory bool         `json:"mandatory"`
	Options   []OptionView `json:"options,omitempty"`
}

type AnswerView struct {
	QuestionID   uuid.UUID  `json:"question_id"`
	OptionID     *uuid.UUID `json:"option_id,omitempty"`
	ValueText    *string    `json:"value_text,omitempty"`
	ValueNumber  *float64   `json:"value_number,omitempty"`
	ValueBool    *bool      `json:"value_bool,omitempty"`
	StateVersion int64      `json:"state_version"`
	ETag         string     `json:"etag"`
}

type ScreenViewQuestion struct {
	Question QuestionView `json:"question"`
	Answer   *AnswerView  `json:"answer,omitempty"`
}

type ScreenView struct {
	ScreenKey string               `json:"screen_key"`
	Name      string               `json:"name"`
	ETag      string               `json:"etag"`
	Questions []ScreenViewQuestion `json:"questions"`
}

// VisibilityDelta describes what a single write changed about the screen.
// SuppressedAnswers is always a subset of NowHidden: ids whose rows still
// hold a value that must be ignored while hidden.
type VisibilityDelta struct {
	NowVisible        []ScreenViewQuestion `json:"now_visible"`
	NowHidden         []uuid.UUID          `json:"now_hidden"`
	SuppressedAnswers []uuid.UUID          `json:"suppressed_answers"`
}

func (d *VisibilityDelta) IsEmpty() bool {
	return d == nil || (len(d.NowVisible) == 0 && len(d.NowHidden) == 0)
}
