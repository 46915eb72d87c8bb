package domain

import (
	"time"

	"github.com/google/uuid"
)

const (
	EventResponseSaved      = "response.saved"
	EventResponseSetDeleted = "response_set.deleted"
)

// Event is published after successful single-answer saves and response-set
// deletions. Publishing is best-effort relative to the committed write but a
// publish failure still fails the request so callers re-sync.
type Event struct {
	Type          string     `json:"type"`
	ResponseSetID uuid.UUID  `json:"response_set_id"`
	QuestionID    *uuid.UUID `json:"question_id,omitempty"`
	StateVersion  *int64     `json:"state_version,omitempty"`
	OccurredAt    time.Time  `json:"occurred_at"`
}

func NewResponseSavedEvent(setID, questionID uuid.UUID, stateVersion int64) Event {
	return Event{
		Type:          EventResponseSaved,
		ResponseSetID: setID,
		QuestionID:    &questionID,
		StateVersion:  &stateVersion,
		OccurredAt:    time.Now().UTC(),
	}
}

func NewResponseSetDeletedEvent(setID uuid.UUID) Event {
	return Event{
		Type:          EventResponseSetDeleted,
		ResponseSetID: setID,
		OccurredAt:    time.Now().UTC(),
	}
}
