package cardnonce

import (
	"context"
	"fmt"

	"github.com/iov-one/checkbook"
	"github.com/iov-one/checkbook/errors"
	"github.com/redis/go-redis/v9"
)

// RedisRegistry is a Registry shared by all processes connected to the same
// Redis instance. Claims are atomic thanks to SET NX. The KV store passed to
// its methods is ignored.
type RedisRegistry struct {
	client redis.UniversalClient
	prefix string
}

var (
	_ Registry = (*RedisRegistry)(nil)
	_ Releaser = (*RedisRegistry)(nil)
)

// NewRedisRegistry returns a registry using given client. All keys are
// created with the "cardnonce:" prefix.
func NewRedisRegistry(client redis.UniversalClient) *RedisRegistry {
	return &RedisRegistry{client: client, prefix: "cardnonce"}
}

// DialRedis connects to a Redis server and ensures it responds.
func DialRedis(ctx context.Context, addr, password string, db int) (*RedisRegistry, error) {
	if addr == "" {
		return nil, errors.Wrap(errors.ErrInput, "redis addr is required")
	}
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, errors.Wrapf(errors.ErrDatabase, "redis %s: %s", addr, err)
	}
	return NewRedisRegistry(client), nil
}

// Close releases the client connections.
func (r *RedisRegistry) Close() error {
	return r.client.Close()
}

func (r *RedisRegistry) key(card checkbook.Address, digest []byte) string {
	return fmt.Sprintf("%s:%X:%X", r.prefix, []byte(card), digest)
}

// Claim sets the pair key only if it does not exist yet.
func (r *RedisRegistry) Claim(ctx context.Context, _ checkbook.KVStore, card checkbook.Address, digest []byte) error {
	if err := validate(card, digest); err != nil {
		return err
	}
	ok, err := r.client.SetNX(ctx, r.key(card, digest), 1, 0).Result()
	if err != nil {
		return errors.Wrapf(errors.ErrDatabase, "redis set: %s", err)
	}
	if !ok {
		return errors.Wrapf(ErrNonceUsed, "card %s", card)
	}
	return nil
}

// IsUsed returns true if the pair key exists.
func (r *RedisRegistry) IsUsed(ctx context.Context, _ checkbook.ReadOnlyKVStore, card checkbook.Address, digest []byte) (bool, error) {
	if err := validate(card, digest); err != nil {
		return false, err
	}
	n, err := r.client.Exists(ctx, r.key(card, digest)).Result()
	if err != nil {
		return false, errors.Wrapf(errors.ErrDatabase, "redis exists: %s", err)
	}
	return n > 0, nil
}

// Release deletes the pair key.
func (r *RedisRegistry) Release(ctx context.Context, card checkbook.Address, digest []byte) error {
	if err := r.client.Del(ctx, r.key(card, digest)).Err(); err != nil {
		return errors.Wrapf(errors.ErrDatabase, "redis del: %s", err)
	}
	return nil
}
