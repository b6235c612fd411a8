package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrNotFound is returned by Load when nothing was saved under the key yet.
var ErrNotFound = errors.New("persistence: key not found")

// Provider stores whole serialized collections under a fixed key.
type Provider interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, data []byte) error
	Name() string
}

// LoadJSON loads and decodes the value stored under key. The bool is false
// when nothing was stored yet.
func LoadJSON[T any](ctx context.Context, p Provider, key string) (T, bool, error) {
	var v T
	data, err := p.Load(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return v, false, nil
	}
	if err != nil {
		return v, false, err
	}
	if err := json.Unmarshal(data, &v); err != nil {
		return v, false, fmt.Errorf("failed to decode %s: %w", key, err)
	}
	return v, true, nil
}

// SaveJSON encodes v and stores it under key.
func SaveJSON(ctx context.Context, p Provider, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	return p.Save(ctx, key, data)
}
