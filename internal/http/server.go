package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Server owns the listener settings for the configured engine. Routing lives
// in NewRouter; anything about how the process binds and reads belongs here.
type Server struct {
	Engine *gin.Engine
}

func NewServer(cfg RouterConfig) *Server {
	return &Server{Engine: NewRouter(cfg)}
}

func (s *Server) Run(address string) error {
	if s == nil || s.Engine == nil {
		return errors.New("server not initialized")
	}
	srv := &http.Server{
		Addr:              address,
		Handler:           s.Engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return srv.ListenAndServe()
}
