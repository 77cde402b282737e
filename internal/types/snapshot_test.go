package types

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func transcriptFixture(n int) []Message {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	msgs := make([]Message, n)
	for i := range msgs {
		role := RoleUser
		if i%2 == 1 {
			role = RoleAssistant
		}
		msgs[i] = Message{
			ID:        uuid.New(),
			Role:      role,
			Content:   fmt.Sprintf("message %d", i),
			CreatedAt: base.Add(time.Duration(i) * time.Second),
		}
	}
	return msgs
}

func TestSnapshotRoundTrip(t *testing.T) {
	original := transcriptFixture(4)

	snap := NewTranscriptSnapshot(original)
	restored, err := snap.Restore()
	require.NoError(t, err)

	require.Len(t, restored, 4)
	for i := range restored {
		assert.Equal(t, original[i].ID, restored[i].ID)
		assert.Equal(t, original[i].Role, restored[i].Role)
		assert.Equal(t, original[i].Content, restored[i].Content)
		assert.True(t, original[i].CreatedAt.Equal(restored[i].CreatedAt))
	}
}

func TestSnapshotKeepsOnlyRecentMessages(t *testing.T) {
	original := transcriptFixture(SnapshotLimit + 10)

	snap := NewTranscriptSnapshot(original)

	require.Len(t, snap.Messages, SnapshotLimit)
	assert.Equal(t, "message 10", snap.Messages[0].Content)
	assert.Equal(t, fmt.Sprintf("message %d", SnapshotLimit+9), snap.Messages[SnapshotLimit-1].Content)
}

func TestSnapshotRestoreRejectsUnknownRole(t *testing.T) {
	snap := TranscriptSnapshot{Messages: []SnapshotMessage{{
		ID:        uuid.NewString(),
		Role:      "system",
		Content:   "x",
		CreatedAt: time.Now().UTC().Format(time.RFC3339Nano),
	}}}

	_, err := snap.Restore()
	assert.ErrorContains(t, err, "unknown message role")
}

func TestSnapshotRestoreRejectsBadID(t *testing.T) {
	snap := TranscriptSnapshot{Messages: []SnapshotMessage{{
		ID:        "not-a-uuid",
		Role:      "user",
		Content:   "x",
		CreatedAt: time.Now().UTC().Format(time.RFC3339Nano),
	}}}

	_, err := snap.Restore()
	assert.Error(t, err)
}

func TestSnapshotRestoreRejectsOversize(t *testing.T) {
	msgs := make([]SnapshotMessage, SnapshotLimit+1)
	for i := range msgs {
		msgs[i] = SnapshotMessage{
			ID: uuid.NewString(), Role: "user", Content: "x",
			CreatedAt: time.Now().UTC().Format(time.RFC3339Nano),
		}
	}

	_, err := TranscriptSnapshot{Messages: msgs}.Restore()
	assert.Error(t, err)
}
