package storage

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/rasmith-dev/propadmin/internal/core/ports"
)

// Redis stores the pair under <prefix>:token and <prefix>:user. MSET, MGET
// and a two-key DEL are each a single atomic command.
type Redis struct {
	client   redis.UniversalClient
	tokenKey string
	userKey  string
}

func NewRedis(client redis.UniversalClient, prefix string) *Redis {
	return &Redis{
		client:   client,
		tokenKey: prefix + ":token",
		userKey:  prefix + ":user",
	}
}

func (r *Redis) Load(ctx context.Context) (ports.StoredSession, error) {
	vals, err := r.client.MGet(ctx, r.tokenKey, r.userKey).Result()
	if err != nil {
		return ports.StoredSession{}, fmt.Errorf("redis load session: %w", err)
	}
	return ports.StoredSession{Token: asString(vals[0]), User: asString(vals[1])}, nil
}

func (r *Redis) Save(ctx context.Context, token, user string) error {
	if err := r.client.MSet(ctx, r.tokenKey, token, r.userKey, user).Err(); err != nil {
		return fmt.Errorf("redis save session: %w", err)
	}
	return nil
}

func (r *Redis) Clear(ctx context.Context) error {
	if err := r.client.Del(ctx, r.tokenKey, r.userKey).Err(); err != nil {
		return fmt.Errorf("redis clear session: %w", err)
	}
	return nil
}

// Ping reports backend reachability for the readiness probe.
func (r *Redis) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}
