package devserver

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/rasmith-dev/propadmin/internal/core/domain"
)

func (s *Server) signIn(c echo.Context) error {
	var req domain.Credential
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	token, user, err := s.accounts.login(req.Email, req.Password)
	if err != nil {
		if errors.Is(err, errInvalidCredentials) {
			return echo.NewHTTPError(http.StatusUnauthorized, "Bad credentials")
		}
		return err
	}
	s.log.Debug().Str("email", user.Email).Msg("user signed in")
	return c.JSON(http.StatusOK, authResponse(token, user))
}

// register creates a TENANT account and signs it in.
func (s *Server) register(c echo.Context) error {
	var req domain.SignUp
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if _, err := s.accounts.register(req.Username, req.Password, req.Email, domain.RoleTenant); err != nil {
		if errors.Is(err, errUsernameTaken) || errors.Is(err, errEmailTaken) {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		return err
	}
	token, user, err := s.accounts.login(req.Email, req.Password)
	if err != nil {
		return err
	}
	s.log.Debug().Str("email", user.Email).Msg("user registered")
	return c.JSON(http.StatusOK, authResponse(token, user))
}

func (s *Server) validate(c echo.Context) error {
	return c.String(http.StatusOK, "Token is valid")
}

func (s *Server) listUsers(c echo.Context) error {
	var role domain.Role
	if raw := c.QueryParam("role"); raw != "" {
		r, err := domain.ParseRole(raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		role = r
	}

	s.store.mu.RLock()
	rows := s.store.users.filter(func(u account) bool { return role == "" || u.Role == role })
	s.store.mu.RUnlock()

	out := make([]domain.UserSummary, 0, len(rows))
	for _, u := range rows {
		out = append(out, u.summary())
	}
	return c.JSON(http.StatusOK, out)
}

// authResponse reports the role as a Spring-style authority.
func authResponse(token string, user account) domain.AuthResponse {
	return domain.AuthResponse{
		Token: token,
		Type:  "Bearer",
		Email: user.Email,
		Role:  "ROLE_" + string(user.Role),
	}
}
