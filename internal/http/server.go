package http

import (
	"github.com/gin-gonic/gin"
)

// Server carries the assembled engine. Route wiring lives in NewRouter;
// this type only owns the listener lifecycle.
type Server struct {
	Engine *gin.Engine
}

func NewServer(cfg RouterConfig) *Server {
	return &Server{Engine: NewRouter(cfg)}
}

// Run blocks serving HTTP until the listener fails.
func (s *Server) Run(address string) error {
	return s.Engine.Run(address)
}
