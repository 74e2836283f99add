package server

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/rs/zerolog/log"

	"pdf-rag/internal/config"
)

type Server struct {
	listenAddr string
	app        *fiber.App
}

func NewServer(cfg config.ServerConfig, pipeline Pipeline) *Server {
	app := fiber.New(fiber.Config{
		ErrorHandler:          ErrorHandler,
		BodyLimit:             cfg.BodyLimitMB * 1024 * 1024,
		DisableStartupMessage: true,
	})

	app.Use(recover.New())

	var (
		checkHandler = CheckHandler{}
		ragHandler   = NewRAGHandler(pipeline)
		check        = app.Group("/check")
		apiv1        = app.Group("/api/v1")
	)

	check.Get("/healthy", checkHandler.HandleHealthy)
	apiv1.Post("/documents", ragHandler.HandleDocuments)
	apiv1.Post("/ask", ragHandler.HandleAsk)
	apiv1.Get("/index", ragHandler.HandleIndex)

	return &Server{listenAddr: cfg.Addr, app: app}
}

func (s *Server) App() *fiber.App {
	return s.app
}

// Run serves until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", s.listenAddr).Msg("Server listening")
		errCh <- s.app.Listen(s.listenAddr)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		log.Info().Msg("Server stopping")
		return s.app.Shutdown()
	}
}
