package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"quiz-lens/internal/cache"
	"quiz-lens/internal/domain"
)

// SessionRepository stores SessionState as JSON in a domain.Cache. Every
// Save refreshes the TTL, so a session lives as long as it is used.
type SessionRepository struct {
	cache domain.Cache
	ttl   time.Duration
}

// NewSessionRepository creates a SessionRepository. A zero ttl keeps
// sessions until the process (or Redis) drops them.
func NewSessionRepository(c domain.Cache, ttl time.Duration) *SessionRepository {
	return &SessionRepository{cache: c, ttl: ttl}
}

var _ domain.SessionStore = (*SessionRepository)(nil)

// Load returns the stored state or, for an unknown session, a fresh
// NewSessionState. The fresh state is not written until the first Save.
func (r *SessionRepository) Load(ctx context.Context, sessionID string) (*domain.SessionState, error) {
	raw, err := r.cache.Get(ctx, cache.SessionStateKey(sessionID))
	if err != nil {
		if errors.Is(err, domain.ErrCacheMiss) {
			return domain.NewSessionState(), nil
		}
		return nil, domain.NewInternalError("failed to load session state", err)
	}

	var state domain.SessionState
	if err := json.Unmarshal([]byte(raw), &state); err != nil {
		return nil, domain.NewInternalError("failed to decode session state", err).
			WithContext("session_id", sessionID)
	}
	state.EnsureDefaults()
	return &state, nil
}

func (r *SessionRepository) Save(ctx context.Context, sessionID string, state *domain.SessionState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return domain.NewInternalError("failed to encode session state", err)
	}
	if err := r.cache.Set(ctx, cache.SessionStateKey(sessionID), string(data), r.ttl); err != nil {
		return domain.NewInternalError("failed to save session state", err)
	}
	return nil
}

func (r *SessionRepository) Delete(ctx context.Context, sessionID string) error {
	if err := r.cache.Delete(ctx, cache.SessionStateKey(sessionID)); err != nil {
		return domain.NewInternalError("failed to delete session state", err)
	}
	return nil
}
