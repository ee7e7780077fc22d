package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"officebook/internal/config"
	"officebook/internal/metrics"
	"officebook/internal/service"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// HTTPServer exposes the booking engine over a small JSON API.
type HTTPServer struct {
	cfg         config.APIConfig
	offices     *service.OfficeService
	bookings    *service.BookingService
	memberships *service.MembershipService
	payments    *service.PaymentService
	server      *http.Server
	auth        *HTTPAuth
	logger      *zerolog.Logger
}

func NewHTTPServer(
	cfg config.APIConfig,
	offices *service.OfficeService,
	bookings *service.BookingService,
	memberships *service.MembershipService,
	payments *service.PaymentService,
	logger *zerolog.Logger,
) *HTTPServer {
	srv := &HTTPServer{
		cfg:         cfg,
		offices:     offices,
		bookings:    bookings,
		memberships: memberships,
		payments:    payments,
		auth:        NewHTTPAuth(cfg),
		logger:      logger,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/health", srv.handleHealth)
	mux.HandleFunc("/api/v1/offices", srv.handleOffices)
	mux.HandleFunc("/api/v1/offices/", srv.handleOfficeSubresource)
	mux.HandleFunc("/api/v1/bookings", srv.handleCreateBooking)
	mux.HandleFunc("/api/v1/bookings/membership", srv.handleCreateMembershipBooking)
	mux.HandleFunc("/api/v1/bookings/", srv.handleGetBooking)
	mux.HandleFunc("/api/v1/memberships", srv.handleCreateMembership)
	mux.HandleFunc("/api/v1/payments/webhook", srv.handlePaymentWebhook)

	handler := srv.loggingMiddleware(srv.auth.Wrap(mux))

	srv.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      15 * time.Second,
	}

	return srv
}

func (s *HTTPServer) Start() error {
	if s.server == nil {
		return fmt.Errorf("http server is not initialized")
	}
	s.logger.Info().Str("addr", s.server.Addr).Msg("HTTP API listening")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *HTTPServer) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Handler returns the full middleware chain, for tests.
func (s *HTTPServer) Handler() http.Handler {
	return s.server.Handler
}

func (s *HTTPServer) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := r.Header.Get("x-request-id")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set("x-request-id", requestID)

		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(recorder, r)

		metrics.IncHTTP(r.URL.Path)
		s.logger.Info().
			Str("request_id", requestID).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", recorder.status).
			Dur("duration", time.Since(start)).
			Msg("http request")
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]string{"error": message})
}
