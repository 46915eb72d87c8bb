package services

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/formloom/formloom-backend/internal/pkg/apierr"
)

const (
	BatchModeMerge   = "merge"
	BatchModeReplace = "replace"
)

type BatchItem struct {
	QuestionID string `json:"question_id"`
	ETag       string `json:"etag"`
	RawAnswer
}

type BatchRequest struct {
	Mode  string      `json:"mode,omitempty"`
	Items []BatchItem `json:"items"`
}

type BatchItemError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type BatchItemResult struct {
	QuestionID   string          `json:"question_id"`
	Outcome      string          `json:"outcome"`
	StateVersion *int64          `json:"state_version,omitempty"`
	ETag         string          `json:"etag,omitempty"`
	Error        *BatchItemError `json:"error,omitempty"`
}

type BatchResult struct {
	Items []BatchItemResult `json:"items"`
}

// SaveBatch applies items strictly sequentially in request order, each one
// through the same pipeline as a single save minus the screen view. One
// failing item never aborts the batch: its result carries the error and the
// loop moves on, so results mirror the request one-to-one.
func (s *answerService) SaveBatch(ctx context.Context, setID uuid.UUID, req BatchRequest) (*BatchResult, error) {
	set, err := s.responseSets.GetByID(ctx, nil, setID)
	if err != nil {
		return nil, apierr.New(http.StatusInternalServerError, CodePersistenceFailure, err)
	}
	if set == nil {
		return nil, apierr.Newf(http.StatusNotFound, CodeResponseSetIDUnknown, "response set %s does not exist", setID)
	}

	mode := req.Mode
	if mode == "" {
		mode = BatchModeMerge
	}
	if mode != BatchModeMerge && mode != BatchModeReplace {
		return nil, apierr.Newf(http.StatusBadRequest, CodeBatchModeInvalid, "mode must be %q or %q", BatchModeMerge, BatchModeReplace)
	}
	if len(req.Items) == 0 {
		return nil, apierr.Newf(http.StatusBadRequest, CodeBatchEmpty, "items must contain at least one entry")
	}

	// Both modes write only what the items name; absent values are no-ops
	// and clears happen only through an explicit clear flag. The mode is
	// validated for forward compatibility but does not change per-item
	// behavior.
	result := &BatchResult{Items: make([]BatchItemResult, 0, len(req.Items))}
	for _, item := range req.Items {
		result.Items = append(result.Items, s.applyBatchItem(ctx, setID, item))
	}
	return result, nil
}

func (s *answerService) applyBatchItem(ctx context.Context, setID uuid.UUID, item BatchItem) BatchItemResult {
	questionID, err := uuid.Parse(item.QuestionID)
	if err != nil {
		return batchItemFailure(item.QuestionID, apierr.Newf(http.StatusBadRequest, CodeQuestionIDMalformed,
			"question_id %q is not a valid identifier", item.QuestionID))
	}

	saved, err := s.saveOne(ctx, setID, questionID, item.ETag, item.RawAnswer, false)
	if err != nil {
		var ae *apierr.Error
		if !errors.As(err, &ae) {
			ae = apierr.New(http.StatusInternalServerError, CodePersistenceFailure, err)
		}
		s.log.Warn("batch item failed", "response_set_id", setID, "question_id", item.QuestionID, "code", ae.Code)
		return batchItemFailure(item.QuestionID, ae)
	}

	version := saved.Saved.StateVersion
	return BatchItemResult{
		QuestionID:   item.QuestionID,
		Outcome:      "success",
		StateVersion: &version,
		ETag:         saved.ETag,
	}
}

func batchItemFailure(questionID string, ae *apierr.Error) BatchItemResult {
	return BatchItemResult{
		QuestionID: questionID,
		Outcome:    "error",
		Error:      &BatchItemError{Code: ae.Code, Message: ae.Error()},
	}
}
