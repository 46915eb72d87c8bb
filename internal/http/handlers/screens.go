package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/formloom/formloom-backend/internal/http/response"
	"github.com/formloom/formloom-backend/internal/services"
)

type ScreenHandler struct {
	screens services.ScreenService
}

func NewScreenHandler(screens services.ScreenService) *ScreenHandler {
	return &ScreenHandler{screens: screens}
}

// GET /api/v1/response-sets/:id/screens/:screen_key
// honors If-None-Match with a 304 when the view is unchanged
func (h *ScreenHandler) GetScreenView(c *gin.Context) {
	setID, ok := parseSetID(c)
	if !ok {
		return
	}
	screenKey := strings.TrimSpace(c.Param("screen_key"))
	if screenKey == "" {
		response.RespondError(c, http.StatusBadRequest, services.CodeScreenKeyMalformed, nil)
		return
	}

	view, err := h.screens.GetScreenView(c.Request.Context(), setID, screenKey)
	if err != nil {
		response.RespondProblem(c, err)
		return
	}

	c.Header("ETag", view.ETag)
	c.Header("Screen-ETag", view.ETag)
	if c.GetHeader("If-None-Match") == view.ETag {
		c.Status(http.StatusNotModified)
		return
	}
	response.RespondOK(c, view)
}
