package types

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// SnapshotLimit caps how many recent messages a transcript snapshot keeps.
const SnapshotLimit = 50

// TranscriptSnapshot is the portable serialized form of a conversation's
// recent message window. Timestamps are carried as RFC3339Nano strings so
// the snapshot survives transport through clients that cannot represent
// native time values.
type TranscriptSnapshot struct {
	Messages []SnapshotMessage `json:"messages"`
}

// SnapshotMessage is one serialized transcript turn.
type SnapshotMessage struct {
	ID        string          `json:"id"`
	Role      string          `json:"role"`
	Content   string          `json:"content"`
	Metadata  json.RawMessage `json:"metadata,omitempty"`
	CreatedAt string          `json:"created_at"`
}

// NewTranscriptSnapshot serializes the most recent SnapshotLimit messages,
// preserving order.
func NewTranscriptSnapshot(msgs []Message) TranscriptSnapshot {
	if len(msgs) > SnapshotLimit {
		msgs = msgs[len(msgs)-SnapshotLimit:]
	}
	out := make([]SnapshotMessage, len(msgs))
	for i, m := range msgs {
		out[i] = SnapshotMessage{
			ID:        m.ID.String(),
			Role:      string(m.Role),
			Content:   m.Content,
			Metadata:  m.Metadata,
			CreatedAt: m.CreatedAt.UTC().Format(time.RFC3339Nano),
		}
	}
	return TranscriptSnapshot{Messages: out}
}

// Restore parses the snapshot back into messages. Order and content are
// preserved; timestamps are reconstructed from their string form.
func (s TranscriptSnapshot) Restore() ([]Message, error) {
	if len(s.Messages) > SnapshotLimit {
		return nil, fmt.Errorf("snapshot exceeds %d messages", SnapshotLimit)
	}
	msgs := make([]Message, len(s.Messages))
	for i, sm := range s.Messages {
		id, err := uuid.Parse(sm.ID)
		if err != nil {
			return nil, fmt.Errorf("parse message id %q: %w", sm.ID, err)
		}
		role := MessageRole(sm.Role)
		if role != RoleUser && role != RoleAssistant {
			return nil, fmt.Errorf("unknown message role %q", sm.Role)
		}
		ts, err := time.Parse(time.RFC3339Nano, sm.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("parse message timestamp %q: %w", sm.CreatedAt, err)
		}
		msgs[i] = Message{
			ID:        id,
			Role:      role,
			Content:   sm.Content,
			Metadata:  sm.Metadata,
			CreatedAt: ts,
		}
	}
	return msgs, nil
}
