package records

import (
	"context"
	"net/http"

	"github.com/rasmith-dev/propadmin/internal/apiclient"
	"github.com/rasmith-dev/propadmin/internal/core/domain"
)

// Auth calls the authentication endpoints. Signin and register never carry
// a stored token.
type Auth struct {
	doer Doer
}

func (a *Auth) SignIn(ctx context.Context, cred domain.Credential) (*domain.AuthResponse, error) {
	var out domain.AuthResponse
	req := apiclient.Request{Method: http.MethodPost, Path: "/auth/signin", Body: cred, Anonymous: true}
	if err := a.doer.DoJSON(ctx, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *Auth) Register(ctx context.Context, in domain.SignUp) (*domain.AuthResponse, error) {
	var out domain.AuthResponse
	req := apiclient.Request{Method: http.MethodPost, Path: "/auth/register", Body: in, Anonymous: true}
	if err := a.doer.DoJSON(ctx, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Validate succeeds when the API accepts the stored token. The body is ignored.
func (a *Auth) Validate(ctx context.Context) error {
	_, err := a.doer.Do(ctx, apiclient.Request{Method: http.MethodGet, Path: "/auth/validate"})
	return err
}
