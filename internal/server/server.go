package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"parking-system/internal/config"
	"parking-system/internal/logging"
	"parking-system/internal/parking"
)

type Server struct {
	httpServer *http.Server
}

// NewRouter wires middleware and routes over session.
func NewRouter(session *parking.Session, serviceName string) http.Handler {
	handler := NewHandler(session, serviceName)
	httpMetrics := NewHTTPMetrics()
	registry := NewRegistry(session, httpMetrics)

	r := chi.NewRouter()

	// Tracing wraps recovery and logging so both see the request span.
	r.Use(RequestIDMiddleware)
	r.Use(TracingMiddleware(session.Telemetry().Tracer()))
	r.Use(RecoveryMiddleware)
	r.Use(LoggingMiddleware)
	r.Use(MetricsMiddleware(httpMetrics))
	r.Use(CORSMiddleware)

	r.Get("/health", handler.HealthCheck)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	r.Route("/api/parking-lot", func(r chi.Router) {
		r.Post("/", handler.CreateParkingLot)
		r.Post("/park", handler.ParkVehicle)
		r.Post("/leave", handler.LeaveSlot)
		r.Get("/status", handler.GetStatus)
		r.Get("/vehicles/count", handler.CountByType)
		r.Get("/registrations", handler.Registrations)
		r.Get("/slots", handler.SlotsByColor)
		r.Get("/find/{registration}", handler.FindByRegistration)
	})

	return r
}

func NewServer(cfg config.ServerConfig, session *parking.Session, serviceName string) *Server {
	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      NewRouter(session, serviceName),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return &Server{httpServer: httpServer}
}

func (s *Server) Start() error {
	logging.Infof(context.Background(), "Starting HTTP server on %s", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	logging.Info(ctx, "Shutting down HTTP server...")
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) GetAddress() string {
	return fmt.Sprintf("http://localhost%s", s.httpServer.Addr)
}
