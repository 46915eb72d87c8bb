package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/formloom/formloom-backend/internal/http/response"
	"github.com/formloom/formloom-backend/internal/services"
)

type AnswerHandler struct {
	answers services.AnswerService
}

func NewAnswerHandler(answers services.AnswerService) *AnswerHandler {
	return &AnswerHandler{answers: answers}
}

// PATCH /api/v1/response-sets/:id/answers/:question_id
// body: { "value": ..., "option_id": "...", "label": "...", "clear": bool }
// requires If-Match against the answer's current token
func (h *AnswerHandler) Save(c *gin.Context) {
	setID, ok := parseSetID(c)
	if !ok {
		return
	}
	questionID, ok := parseQuestionID(c)
	if !ok {
		return
	}

	var raw services.RawAnswer
	if err := c.ShouldBindJSON(&raw); err != nil {
		response.RespondError(c, http.StatusBadRequest, services.CodeAnswerBodyMalformed, err)
		return
	}

	result, err := h.answers.Save(c.Request.Context(), setID, questionID, c.GetHeader("If-Match"), raw)
	if err != nil {
		response.RespondProblem(c, err)
		return
	}
	c.Header("ETag", result.ETag)
	if result.ScreenView != nil {
		c.Header("Screen-ETag", result.ScreenView.ETag)
	}
	response.RespondOK(c, result)
}

// DELETE /api/v1/response-sets/:id/answers/:question_id
// requires If-Match; responds 204 with the new answer token in ETag
func (h *AnswerHandler) Clear(c *gin.Context) {
	setID, ok := parseSetID(c)
	if !ok {
		return
	}
	questionID, ok := parseQuestionID(c)
	if !ok {
		return
	}

	result, err := h.answers.Clear(c.Request.Context(), setID, questionID, c.GetHeader("If-Match"))
	if err != nil {
		response.RespondProblem(c, err)
		return
	}
	c.Header("ETag", result.ETag)
	c.Status(http.StatusNoContent)
}

// POST /api/v1/response-sets/:id/answers/batch
// body: { "mode": "merge"|"replace", "items": [ ... ] }
func (h *AnswerHandler) SaveBatch(c *gin.Context) {
	setID, ok := parseSetID(c)
	if !ok {
		return
	}

	var req services.BatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, services.CodeBatchBodyMalformed, err)
		return
	}

	result, err := h.answers.SaveBatch(c.Request.Context(), setID, req)
	if err != nil {
		response.RespondProblem(c, err)
		return
	}
	response.RespondOK(c, result)
}

func parseQuestionID(c *gin.Context) (uuid.UUID, bool) {
	raw := strings.TrimSpace(c.Param("question_id"))
	questionID, err := uuid.Parse(raw)
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, services.CodeQuestionIDMalformed, err)
		return uuid.Nil, false
	}
	return questionID, true
}
