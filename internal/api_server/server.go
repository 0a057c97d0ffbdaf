package apiserver

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	oapimiddleware "github.com/oapi-codegen/nethttp-middleware"
	"go.uber.org/zap"

	api "github.com/studio-labs/assessor/api/v1alpha1"
	"github.com/studio-labs/assessor/internal/auth"
	"github.com/studio-labs/assessor/internal/config"
	handlers "github.com/studio-labs/assessor/internal/handlers/v1alpha1"
	"github.com/studio-labs/assessor/internal/service"
	"github.com/studio-labs/assessor/pkg/metrics"
	"github.com/studio-labs/assessor/pkg/middleware"
)

const (
	gracefulShutdownTimeout = 5 * time.Second
)

type Server struct {
	cfg               *config.Config
	listener          net.Listener
	assessmentService *service.AssessmentService
}

// New returns a new instance of the assessor api server.
func New(
	cfg *config.Config,
	listener net.Listener,
	assessmentService *service.AssessmentService,
) *Server {
	return &Server{
		cfg:               cfg,
		listener:          listener,
		assessmentService: assessmentService,
	}
}

func oapiErrorHandler(w http.ResponseWriter, message string, statusCode int) {
	http.Error(w, fmt.Sprintf("API Error: %s", message), statusCode)
}

// Router builds the http handler. It is exported so tests can drive it without a listener.
func (s *Server) Router() (http.Handler, error) {
	swagger, err := api.GetSwagger()
	if err != nil {
		return nil, fmt.Errorf("failed to load swagger spec: %w", err)
	}
	// Skip server name validation
	swagger.Servers = nil

	oapiOpts := oapimiddleware.Options{
		ErrorHandler: oapiErrorHandler,
	}

	authenticator, err := auth.NewAuthenticator(s.cfg.Service.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to create authenticator: %w", err)
	}

	if s.cfg.Service.Auth.EngineToken == "" {
		zap.S().Named("api_server").Warn("engine token is empty: result write-backs are not authenticated")
	}
	engineAuthenticator := auth.NewEngineAuthenticator(s.cfg.Service.Auth.EngineToken)

	metricMiddleware := metrics.NewMiddleware("api_server")
	metricMiddleware.MustRegisterDefault()

	router := chi.NewRouter()
	router.Use(
		metricMiddleware.Handler,
		cors.Handler(cors.Options{
			AllowedOrigins:   s.cfg.Service.AllowedOrigins,
			AllowedMethods:   []string{"GET", "PUT", "POST", "DELETE", "HEAD", "OPTIONS"},
			AllowedHeaders:   []string{"*"},
			AllowCredentials: true,
			MaxAge:           300,
		}),
		middleware.RequestID,
		middleware.Logger(),
		chiMiddleware.Recoverer,
	)

	h := handlers.NewServiceHandler(s.assessmentService)
	router.Get("/health", h.Health)

	router.Route("/api/v1", func(r chi.Router) {
		r.Use(oapimiddleware.OapiRequestValidatorWithOptions(swagger, &oapiOpts))

		r.Group(func(r chi.Router) {
			r.Use(authenticator.Authenticator)
			h.RegisterUserRoutes(r)
		})
		r.Group(func(r chi.Router) {
			r.Use(engineAuthenticator.Authenticator)
			h.RegisterEngineRoutes(r)
		})
	})

	return router, nil
}

func (s *Server) Run(ctx context.Context) error {
	zap.S().Named("api_server").Info("Initializing API server")

	router, err := s.Router()
	if err != nil {
		return err
	}

	srv := http.Server{Addr: s.cfg.Service.Address, Handler: router}

	go func() {
		<-ctx.Done()
		zap.S().Named("api_server").Infof("Shutdown signal received: %s", ctx.Err())
		ctxTimeout, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
		defer cancel()

		srv.SetKeepAlivesEnabled(false)
		_ = srv.Shutdown(ctxTimeout)
		zap.S().Named("api_server").Info("api server terminated")
	}()

	zap.S().Named("api_server").Infof("Listening on %s...", s.listener.Addr().String())
	if err := srv.Serve(s.listener); err != nil && !errors.Is(err, net.ErrClosed) && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}
