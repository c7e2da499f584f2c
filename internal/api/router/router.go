package router

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/thrivewell/wellness-platform/internal/analytics"
	"github.com/thrivewell/wellness-platform/internal/appointments"
	"github.com/thrivewell/wellness-platform/internal/auth"
	"github.com/thrivewell/wellness-platform/internal/employees"
	"github.com/thrivewell/wellness-platform/internal/http/envelope"
	httpmiddleware "github.com/thrivewell/wellness-platform/internal/http/middleware"
	"github.com/thrivewell/wellness-platform/internal/notify"
	"github.com/thrivewell/wellness-platform/internal/observability/metrics"
	"github.com/thrivewell/wellness-platform/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger             *logging.Logger
	AuthHandler        *auth.Handler
	TokenIssuer        *auth.TokenIssuer
	Sessions           auth.SessionStore
	AppointmentHandler *appointments.Handler
	EmployeeHandler    *employees.Handler
	AnalyticsHandler   *analytics.Handler
	NotifyHandler      *notify.Handler
	MetricsHandler     http.Handler
	HTTPMetrics        *metrics.HTTPMetrics
	CORSAllowedOrigins []string

	// LoginRatePerSecond throttles credential endpoints per client IP.
	// Zero disables the limiter.
	LoginRatePerSecond float64
	LoginBurst         int
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}
	if cfg.HTTPMetrics != nil {
		r.Use(requestMetrics(cfg.HTTPMetrics))
	}

	// Public endpoints
	r.Group(func(public chi.Router) {
		public.Get("/health", healthCheck)
		if cfg.MetricsHandler != nil {
			public.Handle("/metrics", cfg.MetricsHandler)
		}
	})

	r.Route("/api/org", func(api chi.Router) {
		api.Route("/auth", func(a chi.Router) {
			if cfg.LoginRatePerSecond > 0 {
				a.Use(httpmiddleware.RateLimit(cfg.LoginRatePerSecond, cfg.LoginBurst))
			}
			a.Post("/login", cfg.AuthHandler.Login)
			a.Post("/logout", cfg.AuthHandler.Logout)
			a.Post("/refresh", cfg.AuthHandler.Refresh)
		})

		// Admin surface
		api.Group(func(admin chi.Router) {
			admin.Use(auth.RequireAuth(cfg.TokenIssuer, cfg.Sessions, auth.RoleAdmin))

			admin.Route("/employees", func(e chi.Router) {
				e.Get("/", cfg.EmployeeHandler.List)
				e.Post("/", cfg.EmployeeHandler.Create)
				e.Post("/{id}/programs", cfg.EmployeeHandler.AssignPrograms)
			})

			admin.Route("/appointments", func(a chi.Router) {
				a.Get("/", cfg.AppointmentHandler.ListOrganization)
				a.Get("/my-appointments", cfg.AppointmentHandler.ListMine)
				a.Get("/statistics", cfg.AppointmentHandler.Statistics)
				a.Get("/available-partners", cfg.AppointmentHandler.Partners)
				a.Get("/{id}", cfg.AppointmentHandler.Get)
				a.Put("/{id}/status", cfg.AppointmentHandler.UpdateStatus)
			})

			admin.Get("/dashboard/overview", cfg.AnalyticsHandler.Overview)
			admin.Get("/dashboard/reports", cfg.AnalyticsHandler.Report)
			if cfg.NotifyHandler != nil {
				admin.Post("/notifications", cfg.NotifyHandler.Send)
			}
		})

		// Employee self-service surface
		api.Group(func(emp chi.Router) {
			emp.Use(auth.RequireAuth(cfg.TokenIssuer, cfg.Sessions, auth.RoleEmployee))

			emp.Route("/employee/appointments", func(a chi.Router) {
				a.Get("/", cfg.AppointmentHandler.ListEmployee)
				a.Post("/", cfg.AppointmentHandler.Book)
				a.Get("/available-providers", cfg.AppointmentHandler.Providers)
			})
		})
	})

	return r
}

func healthCheck(w http.ResponseWriter, r *http.Request) {
	envelope.OK(w, map[string]string{"status": "healthy"})
}

// requestMetrics records per-route counts and latency using the chi route
// pattern so path params don't explode the label space.
func requestMetrics(m *metrics.HTTPMetrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			route := chi.RouteContext(r.Context()).RoutePattern()
			if route == "" {
				route = "unmatched"
			}
			m.ObserveRequest(r.Method, route, strconv.Itoa(ww.Status()), time.Since(start).Seconds())
		})
	}
}
