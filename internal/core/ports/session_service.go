package ports

import (
	"context"

	"github.com/rasmith-dev/propadmin/internal/core/domain"
)

// AuthGateway is the remote authentication surface used by the session service.
type AuthGateway interface {
	SignIn(ctx context.Context, cred domain.Credential) (*domain.AuthResponse, error)
	Register(ctx context.Context, req domain.SignUp) (*domain.AuthResponse, error)
	// Validate checks the currently stored token against the server.
	Validate(ctx context.Context) error
}

// SessionService is the session store consumed by the console.
type SessionService interface {
	Restore(ctx context.Context) error
	Login(ctx context.Context, email, password string) (domain.Identity, error)
	Register(ctx context.Context, username, email, password string) (domain.Identity, error)
	Logout(ctx context.Context)
	Identity() (domain.Identity, bool)
	IsAuthenticated() bool
}
