package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/rasmith-dev/propadmin/internal/api/middleware"
	"github.com/rasmith-dev/propadmin/internal/apiclient"
	"github.com/rasmith-dev/propadmin/internal/core/domain"
	"github.com/rasmith-dev/propadmin/internal/core/ports"
)

// AuthHandler serves the console's login, registration and logout.
type AuthHandler struct {
	session   ports.SessionService
	loginPath string
	landing   string
}

// NewAuthHandler returns a handler that sends logged-in users to landing
// unless the login carried a redirect target. Form logouts land on loginPath.
func NewAuthHandler(session ports.SessionService, loginPath, landing string) *AuthHandler {
	return &AuthHandler{session: session, loginPath: loginPath, landing: landing}
}

type loginRequest struct {
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
	Redirect string `json:"redirect" form:"redirect"`
}

type registerRequest struct {
	Username string `json:"username" form:"username"`
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
	Redirect string `json:"redirect" form:"redirect"`
}

type sessionResponse struct {
	Authenticated bool             `json:"authenticated"`
	User          *domain.Identity `json:"user,omitempty"`
	Redirect      string           `json:"redirect,omitempty"`
}

// LoginPage describes the login view: where a successful login will go.
func (h *AuthHandler) LoginPage(c echo.Context) error {
	id, ok := h.session.Identity()
	resp := sessionResponse{
		Authenticated: ok,
		Redirect:      middleware.SafeRedirect(c.QueryParam("redirect"), h.landing),
	}
	if ok {
		resp.User = &id
	}
	return c.JSON(http.StatusOK, resp)
}

// Login authenticates against the API and resumes the original destination.
// Form posts are answered with a 303 to it, JSON posts with the identity.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}

	id, err := h.session.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, apiclient.ErrUnauthorized) || errors.Is(err, apiclient.ErrBadRequest) {
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid credentials")
		}
		return err
	}
	return h.established(c, id, req.Redirect, http.StatusOK)
}

// Register creates an account and logs it in.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}

	id, err := h.session.Register(c.Request().Context(), req.Username, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, apiclient.ErrBadRequest) || errors.Is(err, apiclient.ErrConflict) {
			return echo.NewHTTPError(apiclient.StatusCode(err), "registration rejected: "+apiMessage(err))
		}
		return err
	}
	return h.established(c, id, req.Redirect, http.StatusCreated)
}

// Logout ends the session. It always succeeds.
func (h *AuthHandler) Logout(c echo.Context) error {
	h.session.Logout(c.Request().Context())
	if isForm(c) {
		return c.Redirect(http.StatusSeeOther, h.loginPath)
	}
	return c.JSON(http.StatusOK, sessionResponse{Authenticated: false})
}

// Session reports who is logged in.
func (h *AuthHandler) Session(c echo.Context) error {
	id, ok := h.session.Identity()
	resp := sessionResponse{Authenticated: ok}
	if ok {
		resp.User = &id
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *AuthHandler) established(c echo.Context, id domain.Identity, redirect string, status int) error {
	if redirect == "" {
		redirect = c.QueryParam("redirect")
	}
	target := middleware.SafeRedirect(redirect, h.landing)
	if isForm(c) {
		return c.Redirect(http.StatusSeeOther, target)
	}
	return c.JSON(status, sessionResponse{Authenticated: true, User: &id, Redirect: target})
}

func isForm(c echo.Context) bool {
	ct := c.Request().Header.Get(echo.HeaderContentType)
	return strings.HasPrefix(ct, echo.MIMEApplicationForm) || strings.HasPrefix(ct, echo.MIMEMultipartForm)
}

func apiMessage(err error) string {
	var apiErr *apiclient.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return http.StatusText(apiclient.StatusCode(err))
}
