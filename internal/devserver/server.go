// Package devserver is an in-memory stand-in for the property-management
// REST API. It issues HS256 tokens, enforces bearer auth and role checks,
// refuses to delete referenced flats and stores uploaded documents, so the
// console can be run and tested without the real backend.
package devserver

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/rasmith-dev/propadmin/internal/api/middleware"
	"github.com/rasmith-dev/propadmin/internal/core/domain"
	"github.com/rasmith-dev/propadmin/internal/pkg/validation"
)

const (
	dateLayout     = "2006-01-02"
	dateTimeLayout = "2006-01-02T15:04:05"
)

type Config struct {
	JWTSecret     string
	TokenTTL      time.Duration
	AdminEmail    string
	AdminPassword string
}

type Server struct {
	cfg      Config
	log      zerolog.Logger
	store    *store
	accounts *accounts
	now      func() time.Time
	echo     *echo.Echo
}

type Option func(*Server)

// WithClock replaces time.Now for lease and due-date arithmetic.
func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

// New builds the server and seeds the admin owner account.
func New(cfg Config, log zerolog.Logger, opts ...Option) (*Server, error) {
	if cfg.JWTSecret == "" {
		return nil, errors.New("devserver: empty JWT secret")
	}
	s := &Server{cfg: cfg, log: log, store: newStore(), now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	s.accounts = newAccounts(s.store, cfg.JWTSecret, cfg.TokenTTL, s.now)

	if cfg.AdminEmail != "" {
		username := domain.UsernameFromEmail(cfg.AdminEmail)
		if err := s.accounts.ensure(username, cfg.AdminPassword, cfg.AdminEmail, domain.RoleOwner); err != nil {
			return nil, fmt.Errorf("devserver: seed admin: %w", err)
		}
		log.Info().Str("email", cfg.AdminEmail).Msg("admin account ready")
	}

	s.echo = s.routes()
	return s, nil
}

// Handler returns the HTTP handler serving /api.
func (s *Server) Handler() *echo.Echo { return s.echo }

// RevokeSessions invalidates every issued token, as a server restart with
// a new signing key would.
func (s *Server) RevokeSessions() {
	s.accounts.revokeAll()
	s.log.Info().Msg("all sessions revoked")
}

func (s *Server) routes() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = validation.New()
	e.HTTPErrorHandler = s.errorHandler

	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())

	api := e.Group("/api")
	api.POST("/auth/signin", s.signIn)
	api.POST("/auth/register", s.register)

	authed := api.Group("", middleware.Auth(s.cfg.JWTSecret), s.issuedOnly)
	authed.GET("/auth/validate", s.validate)
	authed.GET("/users", s.listUsers)

	staff := middleware.RequireRole(domain.RoleOwner, domain.RoleManager)
	apartments := authed.Group("/apartments", staff)
	apartments.GET("", s.listApartments)
	apartments.GET("/:id", s.getApartment)
	apartments.POST("", s.createApartment)
	apartments.PUT("/:id", s.updateApartment)
	apartments.DELETE("/:id", s.deleteApartment)

	flats := authed.Group("/flats")
	flats.GET("", s.listFlats)
	flats.GET("/:id", s.getFlat)
	flats.POST("", s.createFlat)
	flats.PUT("/:id", s.updateFlat)
	flats.DELETE("/:id", s.deleteFlat)

	tenants := authed.Group("/tenants")
	tenants.GET("", s.listTenants)
	tenants.GET("/active", s.activeTenants)
	tenants.GET("/expiring", s.expiringTenants)
	tenants.GET("/flat/:flatId", s.tenantsByFlat)
	tenants.GET("/:id", s.getTenant)
	tenants.POST("", s.createTenant)
	tenants.PUT("/:id", s.updateTenant)
	tenants.DELETE("/:id", s.deleteTenant)

	payments := authed.Group("/payments")
	payments.GET("", s.listPayments)
	payments.GET("/overdue", s.overduePayments)
	payments.GET("/pending", s.pendingPayments)
	payments.GET("/status/:status", s.paymentsByStatus)
	payments.GET("/tenant/:tenantId", s.paymentsByTenant)
	payments.GET("/:id", s.getPayment)
	payments.POST("", s.createPayment)
	payments.PUT("/:id", s.updatePayment)
	payments.PUT("/:id/status", s.setPaymentStatus)
	payments.PUT("/:id/mark-paid", s.markPaid)
	payments.DELETE("/:id", s.deletePayment)

	complaints := authed.Group("/complaints")
	complaints.GET("", s.listComplaints)
	complaints.GET("/open", s.openComplaints)
	complaints.GET("/urgent", s.urgentComplaints)
	complaints.GET("/tenant/:tenantId", s.complaintsByTenant)
	complaints.GET("/:id", s.getComplaint)
	complaints.POST("", s.createComplaint)
	complaints.PUT("/:id", s.updateComplaint)
	complaints.PUT("/:id/status", s.setComplaintStatus)
	complaints.DELETE("/:id", s.deleteComplaint)

	documents := authed.Group("/documents")
	documents.GET("", s.listDocuments)
	documents.GET("/tenant/:tenantId", s.documentsByTenant)
	documents.GET("/:id", s.getDocument)
	documents.GET("/:id/download", s.downloadDocument)
	documents.POST("", s.uploadDocument)
	documents.PUT("/:id", s.updateDocument)
	documents.PUT("/:id/verify", s.verifyDocument)
	documents.DELETE("/:id", s.deleteDocument)

	return e
}

// issuedOnly rejects well-signed tokens this server no longer honours.
func (s *Server) issuedOnly(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		_, token, _ := strings.Cut(c.Request().Header.Get(echo.HeaderAuthorization), " ")
		if !s.accounts.active(token) {
			return echo.NewHTTPError(http.StatusUnauthorized, "session revoked")
		}
		return next(c)
	}
}

func (s *Server) errorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	code, msg := http.StatusInternalServerError, "internal server error"
	var he *echo.HTTPError
	if errors.As(err, &he) {
		code, msg = he.Code, fmt.Sprintf("%v", he.Message)
	} else {
		s.log.Error().Err(err).Str("path", c.Path()).Msg("unhandled error")
	}
	_ = c.JSON(code, map[string]string{"error": msg})
}

func (s *Server) timestamp() string {
	return s.now().Format(dateTimeLayout)
}

func (s *Server) today() time.Time {
	y, m, d := s.now().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
