package types

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// MessageRole represents the role of a message sender.
type MessageRole string

const (
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
)

// Conversation represents one assistant session. Address is the owner's
// wallet address taken from the access token.
type Conversation struct {
	ID         uuid.UUID  `json:"id"`
	Address    string     `json:"address"`
	Title      *string    `json:"title"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
	ArchivedAt *time.Time `json:"archived_at,omitempty"`
}

// Message represents a single turn in the visible transcript.
type Message struct {
	ID             uuid.UUID       `json:"id"`
	ConversationID uuid.UUID       `json:"conversation_id"`
	Role           MessageRole     `json:"role"`
	Content        string          `json:"content"`
	Metadata       json.RawMessage `json:"metadata,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
}

// MessageMeta is the structured payload carried in Message.Metadata.
type MessageMeta struct {
	Action               *Action        `json:"action,omitempty"`
	RequiresConfirmation bool           `json:"requires_confirmation,omitempty"`
	ShowUpload           bool           `json:"show_upload,omitempty"`
	Image                *UploadedImage `json:"image,omitempty"`
}

// Meta decodes the message metadata. Returns a zero value when the
// message carries none or the payload is malformed.
func (m *Message) Meta() MessageMeta {
	var meta MessageMeta
	if len(m.Metadata) > 0 {
		_ = json.Unmarshal(m.Metadata, &meta)
	}
	return meta
}

// SetMeta encodes and attaches metadata to the message.
func (m *Message) SetMeta(meta MessageMeta) error {
	raw, err := json.Marshal(meta)
	if err != nil {
		return err
	}
	m.Metadata = raw
	return nil
}

// ConversationWithMessages includes a conversation and its messages.
type ConversationWithMessages struct {
	Conversation
	Messages []Message `json:"messages"`
}
