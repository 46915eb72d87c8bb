package app

import (
	httpH "github.com/formloom/formloom-backend/internal/http/handlers"
)

type Handlers struct {
	ResponseSets *httpH.ResponseSetHandler
	Answers      *httpH.AnswerHandler
	Screens      *httpH.ScreenHandler
	Health       *httpH.HealthHandler
}

func wireHandlers(serviceset Services) Handlers {
	return Handlers{
		ResponseSets: httpH.NewResponseSetHandler(serviceset.ResponseSets),
		Answers:      httpH.NewAnswerHandler(serviceset.Answers),
		Screens:      httpH.NewScreenHandler(serviceset.Screens),
		Health:       httpH.NewHealthHandler(),
	}
}
