package assistant

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/chainpilot/assistant-backend/internal/cache/redis"
	"github.com/chainpilot/assistant-backend/internal/types"
)

const (
	// sessionTTL bounds how long a pending action or upload sub-state
	// survives without user activity.
	sessionTTL = 30 * time.Minute
	// lockTTL caps how long a turn may hold the processing lock.
	lockTTL = 2 * time.Minute
)

// SessionState is the per-conversation state that lives between turns:
// the single pending-action slot, the upload sub-flow slots, and nothing
// else. It is loaded at the top of every turn and written back once the
// transition completes.
type SessionState struct {
	Pending         *types.PendingAction        `json:"pending,omitempty"`
	UploadDetails   *types.UploadPendingDetails `json:"upload_details,omitempty"`
	PendingImage    *types.UploadedImage        `json:"pending_image,omitempty"`
	AwaitingDetails bool                        `json:"awaiting_details,omitempty"`
}

func (s *SessionState) empty() bool {
	return s.Pending == nil && s.UploadDetails == nil && s.PendingImage == nil && !s.AwaitingDetails
}

// sessionStore persists SessionState in the key-value store.
type sessionStore struct {
	kv kvStore
}

func sessionKey(convID uuid.UUID) string {
	return "assistant:session:" + convID.String()
}

func lockKey(convID uuid.UUID) string {
	return "assistant:lock:" + convID.String()
}

// Load fetches the session state, returning a zero state when none exists.
func (s *sessionStore) Load(ctx context.Context, convID uuid.UUID) (*SessionState, error) {
	raw, err := s.kv.Get(ctx, sessionKey(convID))
	if errors.Is(err, redis.ErrCacheMiss) {
		return &SessionState{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}

	var state SessionState
	if err := json.Unmarshal([]byte(raw), &state); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &state, nil
}

// Save writes the session state back, deleting the key when the state is
// empty so idle conversations leave nothing behind.
func (s *sessionStore) Save(ctx context.Context, convID uuid.UUID, state *SessionState) error {
	if state.empty() {
		if err := s.kv.Delete(ctx, sessionKey(convID)); err != nil {
			return fmt.Errorf("clear session: %w", err)
		}
		return nil
	}

	raw, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := s.kv.Set(ctx, sessionKey(convID), string(raw), sessionTTL); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// AcquireLock takes the per-conversation processing lock. Only one turn
// may be in flight per conversation.
func (s *sessionStore) AcquireLock(ctx context.Context, convID uuid.UUID) (bool, error) {
	return s.kv.SetNX(ctx, lockKey(convID), "1", lockTTL)
}

// ReleaseLock releases the processing lock.
func (s *sessionStore) ReleaseLock(ctx context.Context, convID uuid.UUID) {
	_ = s.kv.Delete(ctx, lockKey(convID))
}
