package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/rasmith-dev/propadmin/internal/api/handler"
	"github.com/rasmith-dev/propadmin/internal/api/middleware"
	"github.com/rasmith-dev/propadmin/internal/core/domain"
	"github.com/rasmith-dev/propadmin/internal/core/ports"
	"github.com/rasmith-dev/propadmin/internal/records"
)

// LoginPath is the console's login view.
const LoginPath = "/login"

// Deps are the collaborators of the console router.
type Deps struct {
	Session ports.SessionService
	Records *records.Records
	// Checks back GET /health/ready, keyed by dependency name.
	Checks map[string]handler.Check
	Log    zerolog.Logger
	// LandingPath is where a login without a redirect target lands.
	LandingPath string
	// Registry receives the HTTP metrics; the default registry when nil.
	Registry *prometheus.Registry
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Log, LoginPath)

	if d.LandingPath == "" {
		d.LandingPath = "/flats"
	}

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(d.Log))
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:  "propadmin_console",
		Registerer: registerer(d.Registry),
	}))

	// --- Session routes (no guard) ---
	authHandler := handler.NewAuthHandler(d.Session, LoginPath, d.LandingPath)
	e.GET(LoginPath, authHandler.LoginPage)
	e.POST(LoginPath, authHandler.Login)
	e.POST("/register", authHandler.Register)
	e.POST("/logout", authHandler.Logout)
	e.GET("/session", authHandler.Session)

	// --- Health probes and metrics (no guard) ---
	healthHandler := handler.NewHealthHandler()
	readyHandler := handler.NewReadinessHandler(d.Checks)
	e.GET("/health", healthHandler.Liveness)       // liveness: is the process alive?
	e.GET("/health/ready", readyHandler.Readiness) // readiness: storage and API reachable?
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{
		Gatherer: gatherer(d.Registry),
	}))

	// --- Record views (guarded) ---
	guard := middleware.Guard(d.Session, LoginPath)
	staff := middleware.RequireRole(domain.RoleOwner, domain.RoleManager)
	rec := d.Records
	extra := handler.NewRecordsHandler(rec)

	apartments := e.Group("/apartments", guard, staff)
	handler.NewResourceHandler[domain.Apartment, domain.ApartmentInput](rec.Apartments).Mount(apartments)

	flats := e.Group("/flats", guard)
	handler.NewResourceHandler[domain.Flat, domain.FlatInput](rec.Flats).Mount(flats)

	tenants := e.Group("/tenants", guard)
	tenants.GET("/active", extra.ActiveTenants)
	tenants.GET("/expiring", extra.ExpiringTenants)
	tenants.GET("/flat/:flatId", extra.TenantsByFlat)
	handler.NewResourceHandler[domain.Tenant, domain.TenantInput](rec.Tenants).Mount(tenants)

	payments := e.Group("/payments", guard)
	payments.GET("/overdue", extra.OverduePayments)
	payments.GET("/pending", extra.PendingPayments)
	payments.GET("/status/:status", extra.PaymentsByStatus)
	payments.GET("/tenant/:tenantId", extra.PaymentsByTenant)
	payments.PUT("/:id/mark-paid", extra.MarkPaid)
	payments.PUT("/:id/status", extra.PaymentStatus)
	handler.NewResourceHandler[domain.Payment, domain.PaymentInput](rec.Payments).Mount(payments)

	complaints := e.Group("/complaints", guard)
	complaints.GET("/open", extra.OpenComplaints)
	complaints.GET("/urgent", extra.UrgentComplaints)
	complaints.GET("/tenant/:tenantId", extra.ComplaintsByTenant)
	complaints.PUT("/:id/status", extra.ComplaintStatus)
	handler.NewResourceHandler[domain.Complaint, domain.ComplaintInput](rec.Complaints).Mount(complaints)

	documents := e.Group("/documents", guard)
	handler.NewDocumentsHandler(rec.Documents).Mount(documents)

	e.GET("/users", extra.Users, guard, staff)

	return e
}

func registerer(r *prometheus.Registry) prometheus.Registerer {
	if r == nil {
		return prometheus.DefaultRegisterer
	}
	return r
}

func gatherer(r *prometheus.Registry) prometheus.Gatherer {
	if r == nil {
		return prometheus.DefaultGatherer
	}
	return r
}

// requestLogger logs one line per console request through zerolog.
func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			ev := log.Info()
			if v.Error != nil {
				ev = log.Warn().Err(v.Error)
			}
			ev.Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Msg("request")
			return nil
		},
	})
}
