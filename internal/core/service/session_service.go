package service

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/rasmith-dev/propadmin/internal/core/domain"
	"github.com/rasmith-dev/propadmin/internal/core/ports"
	"github.com/rasmith-dev/propadmin/internal/metrics"
)

// State is the session lifecycle state.
type State int

const (
	StateUnauthenticated State = iota
	// StateRestoring lasts while Restore validates a stored session.
	StateRestoring
	StateAuthenticated
)

func (s State) String() string {
	switch s {
	case StateRestoring:
		return "restoring"
	case StateAuthenticated:
		return "authenticated"
	default:
		return "unauthenticated"
	}
}

// Transition reasons reported to observers and metrics.
const (
	ReasonRestore  = "restore"
	ReasonLogin    = "login"
	ReasonRegister = "register"
	ReasonLogout   = "logout"
	ReasonExpired  = "expired"
)

// Observer is called after every state or identity change, outside the lock.
type Observer func(from, to State, reason string)

// Validator checks credential shapes before they are sent.
type Validator interface {
	Validate(i any) error
}

// SessionService is the single owner of "who is logged in". The stored pair
// is written explicitly after each successful transition and erased on
// every path that ends unauthenticated.
type SessionService struct {
	storage  ports.SessionStorage
	auth     ports.AuthGateway
	validate Validator
	log      zerolog.Logger
	// writes serialises storage writes with the state they imply. The HTTP
	// client's 401 teardown takes the same lock.
	writes sync.Locker

	mu        sync.RWMutex
	state     State
	identity  domain.Identity
	observers []Observer
}

type SessionOption func(*SessionService)

func WithObserver(o Observer) SessionOption {
	return func(s *SessionService) { s.observers = append(s.observers, o) }
}

func WithValidator(v Validator) SessionOption {
	return func(s *SessionService) { s.validate = v }
}

// WithWriteLock shares l with the HTTP client's 401 teardown.
func WithWriteLock(l sync.Locker) SessionOption {
	return func(s *SessionService) { s.writes = l }
}

func NewSessionService(storage ports.SessionStorage, auth ports.AuthGateway, log zerolog.Logger, opts ...SessionOption) *SessionService {
	s := &SessionService{
		storage: storage,
		auth:    auth,
		log:     log,
		state:   StateUnauthenticated,
		writes:  &sync.Mutex{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Restore loads the stored session and asks the API whether its token is
// still valid. It runs once at startup. A missing, half-present or
// undecodable pair is erased without contacting the API; a rejected token
// (any error, transport included) is erased too. The returned error only
// reports a storage failure; the session is unauthenticated in that case.
func (s *SessionService) Restore(ctx context.Context) error {
	s.transition(StateRestoring, domain.Identity{}, ReasonRestore)

	stored, err := s.storage.Load(ctx)
	if err != nil {
		s.log.Warn().Err(err).Msg("load stored session")
		s.reset(ctx, ReasonRestore)
		return fmt.Errorf("restore session: %w", err)
	}
	if !stored.Complete() {
		if !stored.Empty() {
			s.log.Warn().
				Bool("has_token", stored.Token != "").
				Bool("has_user", stored.User != "").
				Msg("stored session is incomplete, discarding")
		}
		s.reset(ctx, ReasonRestore)
		return nil
	}

	identity, err := domain.DecodeIdentity(stored.User)
	if err != nil {
		s.log.Warn().Err(err).Msg("stored identity unreadable, discarding")
		s.reset(ctx, ReasonRestore)
		return nil
	}

	if err := s.auth.Validate(ctx); err != nil {
		s.log.Info().Err(err).Str("email", identity.Email).Msg("stored session rejected")
		s.reset(ctx, ReasonRestore)
		return nil
	}

	if !s.adopt(ctx, stored.Token, identity) {
		s.log.Info().Msg("stored session changed while validating, not restored")
		return nil
	}
	s.log.Info().Str("email", identity.Email).Str("role", string(identity.Role)).Msg("session restored")
	return nil
}

// adopt authenticates with a validated stored session, provided storage
// still holds token. A pair replaced or cleared meanwhile wins.
func (s *SessionService) adopt(ctx context.Context, token string, identity domain.Identity) bool {
	s.writes.Lock()
	defer s.writes.Unlock()

	current, err := s.storage.Load(ctx)
	if err != nil || current.Token != token {
		if s.State() == StateRestoring {
			s.transition(StateUnauthenticated, domain.Identity{}, ReasonRestore)
		}
		return false
	}
	s.transition(StateAuthenticated, identity, ReasonRestore)
	return true
}

// Login authenticates with email and password. The username is the local
// part of the email. On failure nothing changes and the error is returned.
func (s *SessionService) Login(ctx context.Context, email, password string) (domain.Identity, error) {
	cred := domain.Credential{Email: strings.TrimSpace(email), Password: password}
	if err := s.check(cred); err != nil {
		return domain.Identity{}, fmt.Errorf("login: %w", err)
	}

	resp, err := s.auth.SignIn(ctx, cred)
	if err != nil {
		s.log.Info().Err(err).Str("email", cred.Email).Msg("login failed")
		return domain.Identity{}, fmt.Errorf("login: %w", err)
	}

	identity, err := identityFrom(resp, cred.Email, "")
	if err != nil {
		return domain.Identity{}, fmt.Errorf("login: %w", err)
	}
	if err := s.establish(ctx, resp.Token, identity, ReasonLogin); err != nil {
		return domain.Identity{}, fmt.Errorf("login: %w", err)
	}
	return identity, nil
}

// Register creates an account and logs it in. The identity keeps the
// caller's username. A response without a token fails with
// domain.ErrInvalidResponse and leaves the session untouched.
func (s *SessionService) Register(ctx context.Context, username, email, password string) (domain.Identity, error) {
	req := domain.SignUp{
		Username: strings.TrimSpace(username),
		Email:    strings.TrimSpace(email),
		Password: password,
	}
	if err := s.check(req); err != nil {
		return domain.Identity{}, fmt.Errorf("register: %w", err)
	}

	resp, err := s.auth.Register(ctx, req)
	if err != nil {
		s.log.Info().Err(err).Str("email", req.Email).Msg("registration failed")
		return domain.Identity{}, fmt.Errorf("register: %w", err)
	}

	identity, err := identityFrom(resp, req.Email, req.Username)
	if err != nil {
		s.log.Warn().Err(err).Str("email", req.Email).Msg("registration response rejected")
		return domain.Identity{}, fmt.Errorf("register: %w", err)
	}
	if err := s.establish(ctx, resp.Token, identity, ReasonRegister); err != nil {
		return domain.Identity{}, fmt.Errorf("register: %w", err)
	}
	return identity, nil
}

// Logout erases the stored session. It never fails; a storage error is
// logged and the in-memory state is still cleared.
func (s *SessionService) Logout(ctx context.Context) {
	s.reset(ctx, ReasonLogout)
}

// Expire is the forced transition after the API answered 401. The HTTP
// client has already erased the stored pair and calls Expire while holding
// the write lock. Repeated calls are no-ops.
func (s *SessionService) Expire(_ context.Context) {
	if from := s.transition(StateUnauthenticated, domain.Identity{}, ReasonExpired); from == StateAuthenticated {
		metrics.ForcedLogoutsTotal.Inc()
		s.log.Warn().Msg("session expired by api")
	}
}

// Identity returns the logged-in identity, if any.
func (s *SessionService) Identity() (domain.Identity, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.identity, s.state == StateAuthenticated
}

func (s *SessionService) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state == StateAuthenticated
}

func (s *SessionService) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// establish persists the pair, then switches to authenticated. A storage
// failure leaves both the stored and in-memory session as they were.
func (s *SessionService) establish(ctx context.Context, token string, identity domain.Identity, reason string) error {
	user, err := identity.Encode()
	if err != nil {
		return err
	}
	s.writes.Lock()
	if err := s.storage.Save(ctx, token, user); err != nil {
		s.writes.Unlock()
		return fmt.Errorf("persist session: %w", err)
	}
	s.transition(StateAuthenticated, identity, reason)
	s.writes.Unlock()
	s.log.Info().
		Str("email", identity.Email).
		Str("role", string(identity.Role)).
		Str("reason", reason).
		Msg("session established")
	return nil
}

func (s *SessionService) reset(ctx context.Context, reason string) {
	s.writes.Lock()
	defer s.writes.Unlock()
	if err := s.storage.Clear(context.WithoutCancel(ctx)); err != nil {
		s.log.Error().Err(err).Str("reason", reason).Msg("clear stored session")
	}
	s.transition(StateUnauthenticated, domain.Identity{}, reason)
}

// transition sets the state and returns the previous one.
func (s *SessionService) transition(to State, identity domain.Identity, reason string) State {
	s.mu.Lock()
	from, prev := s.state, s.identity
	s.state, s.identity = to, identity
	observers := s.observers
	s.mu.Unlock()

	if from == to && prev == identity {
		return from
	}
	metrics.SessionTransitionsTotal.WithLabelValues(to.String(), reason).Inc()
	for _, o := range observers {
		o(from, to, reason)
	}
	return from
}

func (s *SessionService) check(v any) error {
	if s.validate == nil {
		return nil
	}
	if err := s.validate.Validate(v); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	return nil
}

// identityFrom builds the identity from an auth response. An empty username
// means "derive from the email".
func identityFrom(resp *domain.AuthResponse, email, username string) (domain.Identity, error) {
	if resp == nil || resp.Token == "" {
		return domain.Identity{}, fmt.Errorf("%w: missing token", domain.ErrInvalidResponse)
	}
	role, err := domain.ParseRole(resp.Role)
	if err != nil {
		return domain.Identity{}, fmt.Errorf("%w: %v", domain.ErrInvalidResponse, err)
	}
	if resp.Email != "" {
		email = resp.Email
	}
	if username == "" {
		username = domain.UsernameFromEmail(email)
	}
	return domain.Identity{Email: email, Username: username, Role: role}, nil
}
