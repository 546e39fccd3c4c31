package out

import (
	"context"
	"fmt"

	riskout "intent/internal/modules/risk/port/out"
	"intent/internal/platform/kv"
)

const pingsKey = "openPings"

type KVPingStore struct {
	store kv.Store
}

func NewKVPingStore(store kv.Store) riskout.PingStore {
	return &KVPingStore{store: store}
}

func (s *KVPingStore) LoadPings(ctx context.Context) ([]int64, error) {
	var raw []float64
	found, err := s.store.Get(ctx, pingsKey, &raw)
	if err != nil {
		return nil, fmt.Errorf("read pings: %w", err)
	}
	if !found {
		return nil, nil
	}
	pings := make([]int64, 0, len(raw))
	for _, p := range raw {
		if p > 0 {
			pings = append(pings, int64(p))
		}
	}
	return pings, nil
}

func (s *KVPingStore) SavePings(ctx context.Context, pings []int64) error {
	if err := s.store.Set(ctx, pingsKey, pings); err != nil {
		return fmt.Errorf("write pings: %w", err)
	}
	return nil
}

func (s *KVPingStore) ClearPings(ctx context.Context) error {
	if err := s.store.Remove(ctx, pingsKey); err != nil {
		return fmt.Errorf("clear pings: %w", err)
	}
	return nil
}
