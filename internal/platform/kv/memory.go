package kv

import (
	"context"
	"fmt"
	"sync"
)

// MemoryStore keeps values in process memory. Used by tests and by callers
// that do not need durability.
type MemoryStore struct {
	mu         sync.Mutex
	values     map[string][]byte
	quotaBytes int64
}

func NewMemoryStore(quotaKB int) *MemoryStore {
	return &MemoryStore{values: map[string][]byte{}, quotaBytes: int64(quotaKB) * 1024}
}

func (s *MemoryStore) Get(_ context.Context, key string, dst any) (bool, error) {
	s.mu.Lock()
	payload, ok := s.values[key]
	s.mu.Unlock()
	if !ok {
		return false, nil
	}
	if err := decode(key, payload, dst); err != nil {
		return false, err
	}
	return true, nil
}

func (s *MemoryStore) Set(_ context.Context, key string, value any) error {
	payload, err := encode(key, value)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.quotaBytes > 0 {
		size := int64(len(key) + len(payload))
		for k, v := range s.values {
			if k != key {
				size += int64(len(k) + len(v))
			}
		}
		if size > s.quotaBytes {
			return fmt.Errorf("write %s: %w", key, ErrQuotaExceeded)
		}
	}
	s.values[key] = payload
	return nil
}

// SetRaw stores payload verbatim, bypassing encoding. Tests use it to plant
// corrupted values.
func (s *MemoryStore) SetRaw(key string, payload []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = append([]byte(nil), payload...)
}

func (s *MemoryStore) Remove(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, key)
	return nil
}

func (s *MemoryStore) ClearAll(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values = map[string][]byte{}
	return nil
}

func (s *MemoryStore) ApproximateSizeKB(_ context.Context) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var total int64
	for k, v := range s.values {
		total += int64(len(k) + len(v))
	}
	return toKB(total), nil
}
