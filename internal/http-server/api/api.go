package api

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"TripBot/internal/config"
	"TripBot/internal/http-server/handlers/errors"
	"TripBot/internal/http-server/handlers/health"
	"TripBot/internal/http-server/handlers/session"
	"TripBot/internal/http-server/handlers/trip"
	"TripBot/internal/http-server/middleware/authenticate"
	"TripBot/internal/http-server/middleware/requestid"
	"TripBot/internal/lib/sl"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
)

type Server struct {
	conf       *config.Config
	httpServer *http.Server
	log        *slog.Logger
}

type Handler interface {
	session.Core
	trip.Core
}

// NewRouter builds the admin API. Health is open; everything else needs the
// bearer key.
func NewRouter(key string, log *slog.Logger, handler Handler) http.Handler {
	router := chi.NewRouter()
	router.Use(middleware.Timeout(5 * time.Second))
	router.Use(requestid.New)
	router.Use(middleware.Recoverer)
	router.Use(render.SetContentType(render.ContentTypeJSON))

	router.NotFound(errors.NotFound(log))
	router.MethodNotAllowed(errors.NotAllowed(log))

	router.Route("/api/v1", func(v1 chi.Router) {
		v1.Get("/health", health.Check(time.Now()))
		v1.Group(func(r chi.Router) {
			r.Use(authenticate.New(log, key))
			r.Post("/session/reset", session.Reset(log, handler))
			r.Get("/trip/{id}", trip.Get(log, handler))
		})
	})
	return router
}

func New(conf *config.Config, log *slog.Logger, handler Handler) *Server {
	httpLog := slog.NewLogLogger(log.Handler(), slog.LevelError)
	return &Server{
		conf: conf,
		log:  log.With(sl.Module("api.server")),
		httpServer: &http.Server{
			Handler:  NewRouter(conf.Listen.ApiKey, log, handler),
			ErrorLog: httpLog,
		},
	}
}

// Start blocks serving requests until Shutdown is called.
func (s *Server) Start() error {
	serverAddress := fmt.Sprintf("%s:%s", s.conf.Listen.BindIP, s.conf.Listen.Port)
	listener, err := net.Listen("tcp", serverAddress)
	if err != nil {
		return err
	}

	s.log.Info("starting api server", slog.String("address", serverAddress))

	if err = s.httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
