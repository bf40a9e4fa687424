package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

var (
	ErrKeyNotFound   = errors.New("key not found")
	ErrJSONMarshal   = errors.New("failed to marshal value to json")
	ErrJSONUnmarshal = errors.New("failed to unmarshal value from json")
)

// Cache is a minimal key-value cache with per-key TTLs. Implementations must
// return ErrKeyNotFound for missing or expired keys.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// SetTyped marshals value as JSON and stores it under key.
func SetTyped[T any](ctx context.Context, c Cache, key string, value T, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return ErrJSONMarshal
	}
	return c.Set(ctx, key, string(data), ttl)
}

// GetTyped fetches key and unmarshals the stored JSON into T.
func GetTyped[T any](ctx context.Context, c Cache, key string) (T, error) {
	var result T

	value, err := c.Get(ctx, key)
	if err != nil {
		return result, err
	}

	if err := json.Unmarshal([]byte(value), &result); err != nil {
		return result, ErrJSONUnmarshal
	}

	return result, nil
}
