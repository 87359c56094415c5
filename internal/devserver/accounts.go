package devserver

import (
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/rasmith-dev/propadmin/internal/core/domain"
)

var (
	errInvalidCredentials = errors.New("bad credentials")
	errUsernameTaken      = errors.New("username is already taken")
	errEmailTaken         = errors.New("email is already in use")
)

type account struct {
	ID           int64
	Username     string
	Email        string
	PasswordHash string
	Role         domain.Role
}

func (a account) summary() domain.UserSummary {
	return domain.UserSummary{ID: a.ID, Username: a.Username, Email: a.Email, Role: a.Role}
}

// accounts implements registration, login and the issued-token registry.
type accounts struct {
	store     *store
	jwtSecret string
	tokenTTL  time.Duration
	now       func() time.Time

	mu     sync.Mutex
	issued map[string]struct{}
}

func newAccounts(st *store, jwtSecret string, tokenTTL time.Duration, now func() time.Time) *accounts {
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	return &accounts{
		store:     st,
		jwtSecret: jwtSecret,
		tokenTTL:  tokenTTL,
		now:       now,
		issued:    make(map[string]struct{}),
	}
}

func (a *accounts) register(username, password, email string, role domain.Role) (account, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return account{}, err
	}

	a.store.mu.Lock()
	defer a.store.mu.Unlock()

	if a.store.users.any(func(u account) bool { return u.Username == username }) {
		return account{}, errUsernameTaken
	}
	if a.store.users.any(func(u account) bool { return strings.EqualFold(u.Email, email) }) {
		return account{}, errEmailTaken
	}
	return a.store.users.insert(func(id int64) account {
		return account{ID: id, Username: username, Email: email, PasswordHash: string(hash), Role: role}
	}), nil
}

// ensure creates or repairs the seeded admin account so that its password
// and role always match the configuration.
func (a *accounts) ensure(username, password, email string, role domain.Role) error {
	a.store.mu.RLock()
	found := a.store.users.filter(func(u account) bool { return strings.EqualFold(u.Email, email) })
	a.store.mu.RUnlock()
	if len(found) == 0 {
		_, err := a.register(username, password, email, role)
		return err
	}

	u := found[0]
	if u.Role == role && bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) == nil {
		return nil
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash, u.Role = string(hash), role
	a.store.mu.Lock()
	a.store.users.put(u.ID, u)
	a.store.mu.Unlock()
	return nil
}

func (a *accounts) login(email, password string) (string, account, error) {
	a.store.mu.RLock()
	found := a.store.users.filter(func(u account) bool { return strings.EqualFold(u.Email, email) })
	a.store.mu.RUnlock()
	if len(found) == 0 {
		return "", account{}, errInvalidCredentials
	}

	user := found[0]
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return "", account{}, errInvalidCredentials
	}

	token, err := a.generateToken(user)
	if err != nil {
		return "", account{}, err
	}
	return token, user, nil
}

func (a *accounts) generateToken(user account) (string, error) {
	now := a.now()
	claims := jwt.MapClaims{
		"sub":  user.Email,
		"uid":  user.ID,
		"role": string(user.Role),
		"iat":  now.Unix(),
		"exp":  now.Add(a.tokenTTL).Unix(),
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString([]byte(a.jwtSecret))
	if err != nil {
		return "", err
	}

	a.mu.Lock()
	a.issued[signed] = struct{}{}
	a.mu.Unlock()
	return signed, nil
}

func (a *accounts) active(token string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	_, ok := a.issued[token]
	return ok
}

func (a *accounts) revokeAll() {
	a.mu.Lock()
	a.issued = make(map[string]struct{})
	a.mu.Unlock()
}
