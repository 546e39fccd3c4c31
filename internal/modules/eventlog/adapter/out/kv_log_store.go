package out

import (
	"context"

	"intent/internal/modules/eventlog/domain"
	eventlogout "intent/internal/modules/eventlog/port/out"
	"intent/internal/platform/kv"
)

const (
	eventsKey = "events"
	metaKey   = "_meta"
)

type KVLogStore struct {
	store kv.Store
}

func NewKVLogStore(store kv.Store) *KVLogStore {
	return &KVLogStore{store: store}
}

var (
	_ eventlogout.LogStore  = (*KVLogStore)(nil)
	_ eventlogout.MetaStore = (*KVLogStore)(nil)
)

func (s *KVLogStore) LoadRaw(ctx context.Context) ([]any, error) {
	recs := []any{}
	if _, err := s.store.Get(ctx, eventsKey, &recs); err != nil {
		return nil, err
	}
	return recs, nil
}

func (s *KVLogStore) SaveRaw(ctx context.Context, recs []any) error {
	return s.store.Set(ctx, eventsKey, recs)
}

func (s *KVLogStore) Save(ctx context.Context, events []domain.Event) error {
	if events == nil {
		events = []domain.Event{}
	}
	return s.store.Set(ctx, eventsKey, events)
}

func (s *KVLogStore) LoadMeta(ctx context.Context) (domain.Meta, error) {
	meta := domain.Meta{SchemaVersion: 1}
	if _, err := s.store.Get(ctx, metaKey, &meta); err != nil {
		return domain.Meta{}, err
	}
	return meta, nil
}

func (s *KVLogStore) SaveMeta(ctx context.Context, meta domain.Meta) error {
	return s.store.Set(ctx, metaKey, meta)
}
