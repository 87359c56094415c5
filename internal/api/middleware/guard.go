package middleware

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/rasmith-dev/propadmin/internal/core/domain"
)

// SessionReader is the read side of the session the Guard needs.
type SessionReader interface {
	Identity() (domain.Identity, bool)
}

// Guard redirects requests to loginPath while no session is authenticated,
// restoring included. The original request URI travels in the redirect
// query parameter.
func Guard(session SessionReader, loginPath string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id, ok := session.Identity()
			if !ok {
				return c.Redirect(http.StatusFound, LoginURL(loginPath, c.Request().RequestURI))
			}
			c.Set(ContextIdentity, id)
			c.Set(ContextEmail, id.Email)
			c.Set(ContextRole, id.Role)
			return next(c)
		}
	}
}

// LoginURL builds the login location that resumes target afterwards.
func LoginURL(loginPath, target string) string {
	if target == "" || target == loginPath {
		return loginPath
	}
	return loginPath + "?redirect=" + url.QueryEscape(target)
}

// SafeRedirect returns target when it is a same-origin path, fallback
// otherwise.
func SafeRedirect(target, fallback string) string {
	if !strings.HasPrefix(target, "/") || strings.HasPrefix(target, "//") || strings.HasPrefix(target, "/\\") {
		return fallback
	}
	u, err := url.Parse(target)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return fallback
	}
	return target
}
