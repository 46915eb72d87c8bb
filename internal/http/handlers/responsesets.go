package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/formloom/formloom-backend/internal/http/response"
	"github.com/formloom/formloom-backend/internal/services"
)

type ResponseSetHandler struct {
	sets services.ResponseSetService
}

func NewResponseSetHandler(sets services.ResponseSetService) *ResponseSetHandler {
	return &ResponseSetHandler{sets: sets}
}

// POST /api/v1/response-sets
// body: { "name": "..." }
func (h *ResponseSetHandler) Create(c *gin.Context) {
	var req struct {
		Name string `json:"name"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, services.CodeNameMissing, err)
		return
	}

	view, err := h.sets.Create(c.Request.Context(), req.Name)
	if err != nil {
		response.RespondProblem(c, err)
		return
	}
	c.Header("ETag", view.ETag)
	c.JSON(http.StatusCreated, view)
}

// GET /api/v1/response-sets/:id
func (h *ResponseSetHandler) Get(c *gin.Context) {
	setID, ok := parseSetID(c)
	if !ok {
		return
	}
	view, err := h.sets.Get(c.Request.Context(), setID)
	if err != nil {
		response.RespondProblem(c, err)
		return
	}
	c.Header("ETag", view.ETag)
	response.RespondOK(c, view)
}

// DELETE /api/v1/response-sets/:id
// requires If-Match against the set's current token
func (h *ResponseSetHandler) Delete(c *gin.Context) {
	setID, ok := parseSetID(c)
	if !ok {
		return
	}
	if err := h.sets.Delete(c.Request.Context(), setID, c.GetHeader("If-Match")); err != nil {
		response.RespondProblem(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func parseSetID(c *gin.Context) (uuid.UUID, bool) {
	raw := strings.TrimSpace(c.Param("id"))
	setID, err := uuid.Parse(raw)
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, services.CodeResponseSetIDMalformed, err)
		return uuid.Nil, false
	}
	return setID, true
}
