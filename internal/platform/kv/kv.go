// Package kv is the persistence collaborator: a small JSON key-value store
// with a byte quota, in the spirit of browser local storage.
package kv

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrQuotaExceeded is returned by Set when the write would push the store
// past its quota. Nothing is written in that case.
var ErrQuotaExceeded = errors.New("storage quota exceeded")

type Store interface {
	// Get decodes the value stored at key into dst. It reports false when the
	// key is absent, leaving dst untouched so callers can pre-fill a fallback.
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, value any) error
	Remove(ctx context.Context, key string) error
	ClearAll(ctx context.Context) error
	ApproximateSizeKB(ctx context.Context) (float64, error)
}

func encode(key string, value any) ([]byte, error) {
	payload, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", key, err)
	}
	return payload, nil
}

func decode(key string, payload []byte, dst any) error {
	if err := json.Unmarshal(payload, dst); err != nil {
		return fmt.Errorf("decode %s: %w", key, err)
	}
	return nil
}

func toKB(bytes int64) float64 {
	return float64(bytes) / 1024
}
