package prefs

import (
	"context"
	"strings"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/shubhammm008/Infosys-Team5/core"
)

// Redis keeps preferences as plain string keys under a namespace.
type Redis struct {
	client *redis.Client
	prefix string
}

var _ Store = (*Redis)(nil) // interface compliance check

func OpenRedis(ctx context.Context, url, namespace string) (*Redis, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, errors.Wrap(err, "parsing redis URL")
	}
	client := redis.NewClient(opts)
	if err = client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Wrap(err, "pinging redis")
	}
	return NewRedis(client, namespace), nil
}

// NewRedis wraps an existing client. Keys are stored as "<namespace>:prefs:<key>".
func NewRedis(client *redis.Client, namespace string) *Redis {
	return &Redis{client: client, prefix: strings.ToLower(namespace) + ":prefs:"}
}

func (r *Redis) Get(ctx context.Context, key string) ([]byte, error) {
	value, err := r.client.Get(ctx, r.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, core.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrapf(err, "reading preference %s", key)
	}
	return value, nil
}

func (r *Redis) Set(ctx context.Context, key string, value []byte) error {
	return errors.Wrapf(r.client.Set(ctx, r.prefix+key, value, 0).Err(), "writing preference %s", key)
}

func (r *Redis) Delete(ctx context.Context, key string) error {
	return errors.Wrapf(r.client.Del(ctx, r.prefix+key).Err(), "deleting preference %s", key)
}

func (r *Redis) Close() error { return r.client.Close() }
