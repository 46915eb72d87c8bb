package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/formloom/formloom-backend/internal/http/handlers"
	httpMW "github.com/formloom/formloom-backend/internal/http/middleware"
	"github.com/formloom/formloom-backend/internal/pkg/logger"
)

type RouterConfig struct {
	Log *logger.Logger

	ResponseSetHandler *httpH.ResponseSetHandler
	AnswerHandler      *httpH.AnswerHandler
	ScreenHandler      *httpH.ScreenHandler
	HealthHandler      *httpH.HealthHandler

	ServiceName   string
	EnableTracing bool
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.EnableTracing {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.CORS())

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}

	api := r.Group("/api/v1")
	{
		// Response sets
		if cfg.ResponseSetHandler != nil {
			api.POST("/response-sets", cfg.ResponseSetHandler.Create)
			api.GET("/response-sets/:id", cfg.ResponseSetHandler.Get)
			api.DELETE("/response-sets/:id", cfg.ResponseSetHandler.Delete)
		}

		// Answers
		if cfg.AnswerHandler != nil {
			api.PATCH("/response-sets/:id/answers/:question_id", cfg.AnswerHandler.Save)
			api.DELETE("/response-sets/:id/answers/:question_id", cfg.AnswerHandler.Clear)
			api.POST("/response-sets/:id/answers/batch", cfg.AnswerHandler.SaveBatch)
		}

		// Screen views
		if cfg.ScreenHandler != nil {
			api.GET("/response-sets/:id/screens/:screen_key", cfg.ScreenHandler.GetScreenView)
		}
	}

	return r
}
