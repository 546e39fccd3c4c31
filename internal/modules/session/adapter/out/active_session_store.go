package out

import (
	"context"
	"fmt"

	sessionout "intent/internal/modules/session/port/out"
	apperrors "intent/internal/platform/errors"
	"intent/internal/platform/kv"
)

const activeKey = "activeSessionId"

type KVActiveSessionStore struct {
	store kv.Store
}

func NewKVActiveSessionStore(store kv.Store) sessionout.ActiveSessionStore {
	return &KVActiveSessionStore{store: store}
}

func (s *KVActiveSessionStore) SaveActive(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return s.ClearActive(ctx)
	}
	if err := s.store.Set(ctx, activeKey, sessionID); err != nil {
		return fmt.Errorf("write active session: %w", err)
	}
	return nil
}

func (s *KVActiveSessionStore) LoadActive(ctx context.Context) (string, error) {
	var sessionID string
	found, err := s.store.Get(ctx, activeKey, &sessionID)
	if err != nil {
		return "", fmt.Errorf("read active session: %w", err)
	}
	if !found || sessionID == "" {
		return "", apperrors.ErrNoActiveSession
	}
	return sessionID, nil
}

func (s *KVActiveSessionStore) ClearActive(ctx context.Context) error {
	if err := s.store.Remove(ctx, activeKey); err != nil {
		return fmt.Errorf("clear active session: %w", err)
	}
	return nil
}
